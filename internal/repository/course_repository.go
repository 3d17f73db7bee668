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

// CourseRepository handles persistence of courses and their tags.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, bio, description, price, instructor_id, registration_open, in_progress, level, rating, created_at`

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Detail assembles the full course view: course fields, instructor, tags and
// the current enrollments with student identities.
func (r *CourseRepository) Detail(ctx context.Context, id string) (*models.CourseDetail, error) {
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail.Course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &detail.Instructor,
		`SELECT id, email, first_name, last_name, bio, about, created_at FROM teachers WHERE id = $1`,
		detail.InstructorID); err != nil {
		return nil, fmt.Errorf("load course instructor: %w", err)
	}
	tags, err := r.ListTagsByCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Tags = tags

	const studentsQuery = `SELECT e.id, e.course_id, e.student_id, e.paid, e.created_at,
        u.id AS "student.id", u.email AS "student.email", u.first_name AS "student.first_name", u.last_name AS "student.last_name"
        FROM course_students e JOIN users u ON u.id = e.student_id
        WHERE e.course_id = $1 ORDER BY e.created_at`
	detail.Students = []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &detail.Students, studentsQuery, id); err != nil {
		return nil, fmt.Errorf("load course students: %w", err)
	}
	return &detail, nil
}

// List returns courses matching the filter plus the total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	base := `FROM courses c
        JOIN teachers t ON t.id = c.instructor_id
        LEFT JOIN course_tags ct ON ct.course_id = c.id
        LEFT JOIN tags g ON g.id = ct.tag_id`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR t.first_name ILIKE $%d OR t.last_name ILIKE $%d OR g.name ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, pattern)
	}
	if filter.MaxPrice > 0 {
		conditions = append(conditions, fmt.Sprintf("c.price < $%d", len(args)+1))
		args = append(args, filter.MaxPrice)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.RegistrationOpen != nil {
		conditions = append(conditions, fmt.Sprintf("c.registration_open = $%d", len(args)+1))
		args = append(args, *filter.RegistrationOpen)
	}
	if filter.InProgress != nil {
		conditions = append(conditions, fmt.Sprintf("c.in_progress = $%d", len(args)+1))
		args = append(args, *filter.InProgress)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT DISTINCT c.id, c.name, c.price, c.rating, t.first_name || ' ' || t.last_name AS instructor_name
        %s ORDER BY c.name LIMIT %d OFFSET %d`, base+clause, size, offset)
	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT c.id) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Create persists a new course and links its tags, creating missing tags on
// the fly, all in one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, tagNames []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	if course.Level == "" {
		course.Level = models.LevelAll
	}
	const insertQuery = `INSERT INTO courses (id, name, bio, description, price, instructor_id, registration_open, in_progress, level, rating, created_at)
        VALUES (:id, :name, :bio, :description, :price, :instructor_id, :registration_open, :in_progress, :level, :rating, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	if err = r.linkTags(ctx, tx, course.ID, tagNames); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create course: %w", err)
	}
	return nil
}

// Update overwrites course fields and, when tagNames is non-nil, replaces the
// tag links.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, tagNames []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `UPDATE courses SET name = :name, bio = :bio, description = :description, price = :price,
        instructor_id = :instructor_id, registration_open = :registration_open, in_progress = :in_progress,
        level = :level, rating = :rating WHERE id = :id`
	var res sql.Result
	if res, err = tx.NamedExecContext(ctx, updateQuery, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if tagNames != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM course_tags WHERE course_id = $1`, course.ID); err != nil {
			return fmt.Errorf("clear course tags: %w", err)
		}
		if err = r.linkTags(ctx, tx, course.ID, tagNames); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update course: %w", err)
	}
	return nil
}

func (r *CourseRepository) linkTags(ctx context.Context, tx *sqlx.Tx, courseID string, tagNames []string) error {
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tagID string
		err := tx.GetContext(ctx, &tagID, `SELECT id FROM tags WHERE name = $1`, name)
		if err == sql.ErrNoRows {
			tagID = uuid.NewString()
			if _, err = tx.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES ($1, $2)`, tagID, name); err != nil {
				return fmt.Errorf("create tag: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("find tag: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO course_tags (course_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, tagID); err != nil {
			return fmt.Errorf("link tag: %w", err)
		}
	}
	return nil
}

// ListTagsByCourse returns a course's tags.
func (r *CourseRepository) ListTagsByCourse(ctx context.Context, courseID string) ([]models.Tag, error) {
	const query = `SELECT g.id, g.name FROM tags g JOIN course_tags ct ON ct.tag_id = g.id WHERE ct.course_id = $1 ORDER BY g.name`
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, courseID); err != nil {
		return nil, fmt.Errorf("list course tags: %w", err)
	}
	return tags, nil
}

// SetRegistrationOpen flips the course registration flag.
func (r *CourseRepository) SetRegistrationOpen(ctx context.Context, id string, open bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE courses SET registration_open = $2 WHERE id = $1`, id, open)
	if err != nil {
		return fmt.Errorf("set registration flag: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetRating stores the recomputed running-average rating.
func (r *CourseRepository) SetRating(ctx context.Context, id string, rating float64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE courses SET rating = $2 WHERE id = $1`, id, rating); err != nil {
		return fmt.Errorf("set course rating: %w", err)
	}
	return nil
}

// Delete removes a course and everything hanging off it. The cascade is
// explicit and transactional so the cleanup stays auditable independent of
// the storage engine.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM comments WHERE course_id = $1`,
		`DELETE FROM course_students WHERE course_id = $1`,
		`DELETE FROM sessions WHERE course_id = $1`,
		`DELETE FROM notifications WHERE course_id = $1`,
		`DELETE FROM archive_students WHERE archive_id IN (SELECT id FROM archives WHERE course_id = $1)`,
		`DELETE FROM archives WHERE course_id = $1`,
		`DELETE FROM course_tags WHERE course_id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete course: %w", err)
		}
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course: %w", err)
	}
	return nil
}

// ListTags returns every tag.
func (r *CourseRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	const query = `SELECT id, name FROM tags ORDER BY name`
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// UpdateTag renames a tag.
func (r *CourseRepository) UpdateTag(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tags SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTag removes a tag and its course links.
func (r *CourseRepository) DeleteTag(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tag: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_tags WHERE tag_id = $1`, id); err != nil {
		return fmt.Errorf("unlink tag: %w", err)
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tag: %w", err)
	}
	return nil
}
