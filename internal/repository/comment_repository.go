package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// CommentRepository handles persistence of course comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create stores a comment and folds its rating into the course's running
// average in the same transaction.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create comment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO comments (id, course_id, student_id, comment, rating, created_at)
        VALUES (:id, :course_id, :student_id, :comment, :rating, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	// Running average as the mobile app has always computed it: the new
	// rating averaged with the current course rating.
	if _, err = tx.ExecContext(ctx, `UPDATE courses SET rating = ($2 + rating) / 2 WHERE id = $1`, comment.CourseID, comment.Rating); err != nil {
		return fmt.Errorf("update course rating: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create comment: %w", err)
	}
	return nil
}

// ListByCourse returns a course's comments with their authors, oldest first.
func (r *CommentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CommentDetail, error) {
	const query = `SELECT c.id, c.course_id, c.student_id, c.comment, c.rating, c.created_at,
        u.id AS "student.id", u.email AS "student.email", u.first_name AS "student.first_name", u.last_name AS "student.last_name"
        FROM comments c JOIN users u ON u.id = c.student_id
        WHERE c.course_id = $1 ORDER BY c.created_at`
	var comments []models.CommentDetail
	if err := r.db.SelectContext(ctx, &comments, query, courseID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Ratings returns each comment rating for a course, for breakdown math.
func (r *CommentRepository) Ratings(ctx context.Context, courseID string) ([]float64, error) {
	const query = `SELECT rating FROM comments WHERE course_id = $1`
	var ratings []float64
	if err := r.db.SelectContext(ctx, &ratings, query, courseID); err != nil {
		return nil, fmt.Errorf("list comment ratings: %w", err)
	}
	return ratings, nil
}
