package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func expectEnrollCourseLock(mock sqlmock.Sqlmock, courseID string) {
	mock.ExpectQuery("FOR UPDATE OF c").
		WithArgs(courseID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "instructor_name"}).
			AddRow(courseID, "Algebra", "Sara Adel"))
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectEnrollCourseLock(mock, "course-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2 LIMIT 1")).
		WithArgs("course-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec("INSERT INTO course_students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(capacity), 0) FROM classrooms")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(30))
	mock.ExpectCommit()

	enrollment, notification, err := repo.Enroll(context.Background(), "course-1", "stu-1", models.CapacityPolicyExact)
	require.NoError(t, err)
	assert.False(t, enrollment.Paid)
	assert.Nil(t, notification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollRaisesNotification(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectEnrollCourseLock(mock, "course-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2 LIMIT 1")).
		WithArgs("course-1", "stu-30").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec("INSERT INTO course_students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(capacity), 0) FROM classrooms")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(30))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	_, notification, err := repo.Enroll(context.Background(), "course-1", "stu-30", models.CapacityPolicyExact)
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, "30 students registered to Algebra/Sara Adel close registration ?", notification.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	expectEnrollCourseLock(mock, "course-1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2 LIMIT 1")).
		WithArgs("course-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, _, err := repo.Enroll(context.Background(), "course-1", "stu-1", models.CapacityPolicyAtLeast)
	assert.ErrorIs(t, err, ErrDuplicateEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteOneNoop(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("DELETE FROM course_students WHERE id IN").
		WithArgs("course-1", "stu-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteOne(context.Background(), "course-1", "stu-9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdatePaymentsUnknownID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM course_students WHERE course_id = ").
		WithArgs("course-1", "enr-404").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := repo.UpdatePayments(context.Background(), "course-1", []models.PaymentUpdate{
		{EnrollmentID: "enr-404", Paid: true},
	})
	assert.ErrorIs(t, err, ErrUnknownEnrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
