package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchiveRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestArchiveRepositoryEndCourse(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, price, in_progress FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "in_progress"}).AddRow("course-1", 100.0, true))
	paid := sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}).
		AddRow("stu-1", "a@example.com", "Aya", "Hassan").
		AddRow("stu-2", "b@example.com", "Omar", "Ali").
		AddRow("stu-3", "c@example.com", "Nour", "Samir").
		AddRow("stu-4", "d@example.com", "Hany", "Fouad").
		AddRow("stu-5", "e@example.com", "Mona", "Adel")
	mock.ExpectQuery("WHERE e.course_id = ").
		WithArgs("course-1").
		WillReturnRows(paid)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM archives WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO archives").
		WillReturnResult(sqlmock.NewResult(1, 1))
	for range [5]struct{}{} {
		mock.ExpectExec("INSERT INTO archive_students").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_students WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET in_progress = false WHERE id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	detail, err := repo.EndCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 2, detail.CourseVersion)
	assert.Equal(t, 5, detail.TotalStudents)
	assert.Equal(t, 500.0, detail.TotalEarnings)
	assert.Len(t, detail.Students, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryEndCourseNotInProgress(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, price, in_progress FROM courses WHERE id = $1 FOR UPDATE")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "price", "in_progress"}).AddRow("course-1", 100.0, false))
	mock.ExpectRollback()

	_, err := repo.EndCourse(context.Background(), "course-1")
	assert.ErrorIs(t, err, ErrCourseNotInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newArchiveRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	archives := sqlmock.NewRows([]string{"id", "course_id", "course_version", "course_price", "total_students", "total_earnings", "created_at"}).
		AddRow("arc-1", "course-1", 1, 100.0, 3, 300.0, time.Now()).
		AddRow("arc-2", "course-1", 2, 120.0, 5, 600.0, time.Now())
	mock.ExpectQuery("FROM archives WHERE course_id = ").
		WithArgs("course-1").
		WillReturnRows(archives)
	mock.ExpectQuery("FROM archive_students").
		WithArgs("arc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}).
			AddRow("stu-1", "a@example.com", "Aya", "Hassan"))
	mock.ExpectQuery("FROM archive_students").
		WithArgs("arc-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name"}))

	details, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, 1, details[0].CourseVersion)
	assert.Len(t, details[0].Students, 1)
	assert.Empty(t, details[1].Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
