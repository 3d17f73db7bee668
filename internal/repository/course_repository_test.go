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

	"github.com/amrnabil/educenter-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseTestRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "bio", "description", "price", "instructor_id", "registration_open", "in_progress", "level", "rating", "created_at"}).
		AddRow("course-1", "Algebra", "bio", "desc", 100.0, "teacher-1", true, true, "beginner", 4.5, time.Now())
}

func TestCourseRepositoryDetail(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("FROM courses WHERE id = ").
		WithArgs("course-1").
		WillReturnRows(courseTestRow())
	mock.ExpectQuery("FROM teachers WHERE id = ").
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "bio", "about", "created_at"}).
			AddRow("teacher-1", "t@example.com", "Sara", "Adel", "", "", time.Now()))
	mock.ExpectQuery("JOIN course_tags ct ON ct.tag_id = g.id").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("tag-1", "math"))
	mock.ExpectQuery("JOIN users u ON u.id = e.student_id").
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "student_id", "paid", "created_at", "student.id", "student.email", "student.first_name", "student.last_name"}).
			AddRow("enr-1", "course-1", "stu-1", true, time.Now(), "stu-1", "s@example.com", "Aya", "Hassan"))

	detail, err := repo.Detail(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", detail.Name)
	assert.Equal(t, "Sara", detail.Instructor.FirstName)
	require.Len(t, detail.Tags, 1)
	require.Len(t, detail.Students, 1)
	assert.Equal(t, "Aya", detail.Students[0].Student.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "price", "rating", "instructor_name"}).
		AddRow("course-1", "Algebra", 100.0, 4.5, "Sara Adel")
	mock.ExpectQuery("SELECT DISTINCT c.id, c.name, c.price, c.rating").
		WithArgs("%math%", 200.0).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(DISTINCT c.id\\)").
		WithArgs("%math%", 200.0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Search: "math", MaxPrice: 200})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteCascades(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	for _, table := range []string{"comments", "course_students", "sessions", "notifications", "archive_students", "archives", "course_tags"} {
		mock.ExpectExec("DELETE FROM " + table).
			WithArgs("course-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "course-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateLinksNewTag(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM tags WHERE name = $1")).
		WithArgs("math").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO tags").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO course_tags").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	course := &models.Course{Name: "Algebra", InstructorID: "teacher-1"}
	require.NoError(t, repo.Create(context.Background(), course, []string{"math"}))
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, models.LevelAll, course.Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}
