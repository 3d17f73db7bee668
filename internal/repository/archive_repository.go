package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// ArchiveRepository persists immutable course-run snapshots.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository constructs the repository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

type archiveCourseRow struct {
	ID         string  `db:"id"`
	Price      float64 `db:"price"`
	InProgress bool    `db:"in_progress"`
}

// EndCourse terminates a course run in a single transaction: it snapshots the
// paid enrollment into a new archive, clears every enrollment and session of
// the course, and marks the course no longer in progress. Partial application
// would be an unrecoverable consistency violation, so any failure rolls the
// whole operation back.
func (r *ArchiveRepository) EndCourse(ctx context.Context, courseID string) (*models.ArchiveDetail, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin end course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var course archiveCourseRow
	if err = tx.GetContext(ctx, &course, `SELECT id, price, in_progress FROM courses WHERE id = $1 FOR UPDATE`, courseID); err != nil {
		return nil, err
	}
	if !course.InProgress {
		err = ErrCourseNotInProgress
		return nil, err
	}

	var paid []models.StudentRef
	const paidQuery = `SELECT u.id, u.email, u.first_name, u.last_name
        FROM course_students e JOIN users u ON u.id = e.student_id
        WHERE e.course_id = $1 AND e.paid = true ORDER BY e.created_at`
	if err = tx.SelectContext(ctx, &paid, paidQuery, courseID); err != nil {
		return nil, fmt.Errorf("snapshot paid enrollments: %w", err)
	}

	var version int
	if err = tx.GetContext(ctx, &version, `SELECT COUNT(*) FROM archives WHERE course_id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("count prior archives: %w", err)
	}
	version++

	archive := &models.Archive{
		ID:            uuid.NewString(),
		CourseID:      courseID,
		CourseVersion: version,
		CoursePrice:   course.Price,
		TotalStudents: len(paid),
		TotalEarnings: float64(len(paid)) * course.Price,
		CreatedAt:     time.Now().UTC(),
	}
	const insertArchive = `INSERT INTO archives (id, course_id, course_version, course_price, total_students, total_earnings, created_at)
        VALUES (:id, :course_id, :course_version, :course_price, :total_students, :total_earnings, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertArchive, archive); err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	for _, student := range paid {
		if _, err = tx.ExecContext(ctx, `INSERT INTO archive_students (archive_id, student_id) VALUES ($1, $2)`, archive.ID, student.ID); err != nil {
			return nil, fmt.Errorf("attach archived student: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_students WHERE course_id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("clear enrollments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE course_id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("clear sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE courses SET in_progress = false WHERE id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("close course run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit end course: %w", err)
	}
	return &models.ArchiveDetail{Archive: *archive, Students: paid}, nil
}

// ListByCourse returns a course's archives ordered by version, each with its
// archived students.
func (r *ArchiveRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ArchiveDetail, error) {
	const query = `SELECT id, course_id, course_version, course_price, total_students, total_earnings, created_at
        FROM archives WHERE course_id = $1 ORDER BY course_version`
	var archives []models.Archive
	if err := r.db.SelectContext(ctx, &archives, query, courseID); err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}

	details := make([]models.ArchiveDetail, 0, len(archives))
	for _, archive := range archives {
		var students []models.StudentRef
		const studentsQuery = `SELECT u.id, u.email, u.first_name, u.last_name
            FROM archive_students a JOIN users u ON u.id = a.student_id
            WHERE a.archive_id = $1 ORDER BY u.last_name, u.first_name`
		if err := r.db.SelectContext(ctx, &students, studentsQuery, archive.ID); err != nil {
			return nil, fmt.Errorf("list archived students: %w", err)
		}
		details = append(details, models.ArchiveDetail{Archive: archive, Students: students})
	}
	return details, nil
}
