package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// EnrollmentRepository handles persistence of course enrollments and the
// capacity notifications they raise.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// enrollCourseRow carries the course fields the enroll transaction needs.
type enrollCourseRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	InstructorName string `db:"instructor_name"`
}

// Enroll registers a student to a course. The duplicate check, the insert,
// the enrollment count and the capacity-ceiling notification all run in one
// transaction holding the course row lock, so two concurrent enrollments for
// the same course cannot both pass a stale check or both skip the
// notification. Returns the created enrollment and the notification, if one
// was raised under the given policy.
func (r *EnrollmentRepository) Enroll(ctx context.Context, courseID, studentID string, policy models.CapacityPolicy) (*models.Enrollment, *models.Notification, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin enroll: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var course enrollCourseRow
	const courseQuery = `SELECT c.id, c.name, t.first_name || ' ' || t.last_name AS instructor_name
        FROM courses c JOIN teachers t ON t.id = c.instructor_id
        WHERE c.id = $1 FOR UPDATE OF c`
	if err = tx.GetContext(ctx, &course, courseQuery, courseID); err != nil {
		return nil, nil, err
	}

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2 LIMIT 1`, courseID, studentID)
	if err == nil {
		err = ErrDuplicateEnrollment
		return nil, nil, err
	}
	if err != sql.ErrNoRows {
		return nil, nil, fmt.Errorf("check existing enrollment: %w", err)
	}
	err = nil

	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		StudentID: studentID,
		Paid:      false,
		CreatedAt: time.Now().UTC(),
	}
	const insertQuery = `INSERT INTO course_students (id, course_id, student_id, paid, created_at)
        VALUES (:id, :course_id, :student_id, :paid, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return nil, nil, fmt.Errorf("create enrollment: %w", err)
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM course_students WHERE course_id = $1`, courseID); err != nil {
		return nil, nil, fmt.Errorf("count enrollments: %w", err)
	}
	var ceiling int
	if err = tx.GetContext(ctx, &ceiling, `SELECT COALESCE(MAX(capacity), 0) FROM classrooms`); err != nil {
		return nil, nil, fmt.Errorf("max classroom capacity: %w", err)
	}

	var notification *models.Notification
	if policy.Reached(count, ceiling) {
		notification = &models.Notification{
			ID:        uuid.NewString(),
			CourseID:  courseID,
			Message:   fmt.Sprintf("%d students registered to %s/%s close registration ?", count, course.Name, course.InstructorName),
			CreatedAt: time.Now().UTC(),
		}
		const notifyQuery = `INSERT INTO notifications (id, course_id, message, created_at)
            VALUES (:id, :course_id, :message, :created_at)`
		if _, err = tx.NamedExecContext(ctx, notifyQuery, notification); err != nil {
			return nil, nil, fmt.Errorf("create capacity notification: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit enroll: %w", err)
	}
	return enrollment, notification, nil
}

// DeleteOne removes a single enrollment matching the pair. Removing a student
// who is not enrolled is a no-op, not an error.
func (r *EnrollmentRepository) DeleteOne(ctx context.Context, courseID, studentID string) error {
	const query = `DELETE FROM course_students WHERE id IN (
        SELECT id FROM course_students WHERE course_id = $1 AND student_id = $2 ORDER BY created_at LIMIT 1)`
	if _, err := r.db.ExecContext(ctx, query, courseID, studentID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListByCourse returns enrollments with student identities, oldest first.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.course_id, e.student_id, e.paid, e.created_at,
        u.id AS "student.id", u.email AS "student.email", u.first_name AS "student.first_name", u.last_name AS "student.last_name"
        FROM course_students e JOIN users u ON u.id = e.student_id
        WHERE e.course_id = $1 ORDER BY e.created_at`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// CountByCourse returns the live enrollment count for a course.
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM course_students WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// UpdatePayments applies a bulk paid-flag edit. Every referenced enrollment
// must belong to the course; an unknown ID rolls the whole batch back.
func (r *EnrollmentRepository) UpdatePayments(ctx context.Context, courseID string, updates []models.PaymentUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.EnrollmentID
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, courseID)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	var known int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM course_students WHERE course_id = $1 AND id IN (%s)`, strings.Join(placeholders, ","))
	if err = tx.GetContext(ctx, &known, countQuery, args...); err != nil {
		return fmt.Errorf("validate enrollment ids: %w", err)
	}
	if known != len(ids) {
		err = ErrUnknownEnrollment
		return err
	}

	for _, update := range updates {
		if _, err = tx.ExecContext(ctx, `UPDATE course_students SET paid = $2 WHERE id = $1`, update.EnrollmentID, update.Paid); err != nil {
			return fmt.Errorf("update enrollment payment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit payment update: %w", err)
	}
	return nil
}
