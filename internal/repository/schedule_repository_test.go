package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var sessionDetailTestColumns = []string{
	"id", "course_id", "classroom_id", "day", "start_time", "end_time", "created_at",
	"course_name", "instructor_name", "classroom_name", "capacity",
}

func TestScheduleRepositoryAssign(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM classrooms WHERE id = $1 FOR UPDATE")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-1"))
	mock.ExpectQuery("WHERE s.day = ").
		WithArgs(models.Saturday, "room-1", "10:00:00", "12:00:00").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	session := &models.Session{
		CourseID:    "course-1",
		ClassroomID: "room-1",
		Day:         models.Saturday,
		StartTime:   "10:00:00",
		EndTime:     "12:00:00",
	}
	require.NoError(t, repo.Assign(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryAssignConflict(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM classrooms WHERE id = $1 FOR UPDATE")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("room-1"))
	rows := sqlmock.NewRows(sessionDetailTestColumns).
		AddRow("sess-1", "course-9", "room-1", "saturday", "09:00:00", "11:00:00", time.Now(),
			"Algebra", "Sara Adel", "Room A", 30)
	mock.ExpectQuery("WHERE s.day = ").
		WithArgs(models.Saturday, "room-1", "10:00:00", "12:00:00").
		WillReturnRows(rows)
	mock.ExpectRollback()

	session := &models.Session{
		CourseID:    "course-1",
		ClassroomID: "room-1",
		Day:         models.Saturday,
		StartTime:   "10:00:00",
		EndTime:     "12:00:00",
	}
	err := repo.Assign(context.Background(), session)
	require.Error(t, err)
	var conflict *models.SlotConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "sess-1", conflict.Existing.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListWeek(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows(sessionDetailTestColumns).
		AddRow("sess-1", "course-1", "room-1", "saturday", "09:00:00", "11:00:00", time.Now(),
			"Algebra", "Sara Adel", "Room A", 30).
		AddRow("sess-2", "course-2", "room-2", "monday", "13:00:00", "15:00:00", time.Now(),
			"Physics", "Omar Nabil", "Room B", 25)
	mock.ExpectQuery("ORDER BY s.day, s.start_time, s.created_at").WillReturnRows(rows)

	sessions, err := repo.ListWeek(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, models.Saturday, sessions[0].Day)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
