package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// ScheduleRepository persists sessions, the entries of the weekly schedule.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const sessionDetailColumns = `s.id, s.course_id, s.classroom_id, s.day, s.start_time::text AS start_time, s.end_time::text AS end_time, s.created_at,
        c.name AS course_name, t.first_name || ' ' || t.last_name AS instructor_name,
        r.name AS classroom_name, r.capacity AS capacity`

const sessionDetailJoins = `FROM sessions s
        JOIN courses c ON c.id = s.course_id
        JOIN teachers t ON t.id = c.instructor_id
        JOIN classrooms r ON r.id = s.classroom_id`

// Assign inserts a session into its day bucket unless it overlaps an existing
// session in the same classroom and day. The overlap check and the insert run
// in one transaction; the classroom row is locked so two concurrent assigns
// for the same classroom serialize instead of both passing a stale check.
func (r *ScheduleRepository) Assign(ctx context.Context, session *models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockID string
	if err = tx.GetContext(ctx, &lockID, `SELECT id FROM classrooms WHERE id = $1 FOR UPDATE`, session.ClassroomID); err != nil {
		return err
	}

	const conflictQuery = `SELECT ` + sessionDetailColumns + ` ` + sessionDetailJoins + `
        WHERE s.day = $1 AND s.classroom_id = $2 AND (
            (s.start_time <= $3 AND s.end_time >= $3) OR
            (s.start_time <= $4 AND s.end_time >= $4) OR
            (s.start_time >= $3 AND s.end_time <= $4))
        ORDER BY s.start_time LIMIT 1`

	var existing models.SessionDetail
	err = tx.GetContext(ctx, &existing, conflictQuery, session.Day, session.ClassroomID, session.StartTime, session.EndTime)
	if err == nil {
		err = &models.SlotConflictError{Existing: existing}
		return err
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check slot conflicts: %w", err)
	}
	err = nil

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO sessions (id, course_id, classroom_id, day, start_time, end_time, created_at)
        VALUES (:id, :course_id, :classroom_id, :day, :start_time, :end_time, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit assign session: %w", err)
	}
	return nil
}

// FindByID loads a session with its course and classroom context.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := `SELECT ` + sessionDetailColumns + ` ` + sessionDetailJoins + ` WHERE s.id = $1`
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Update rewrites the time interval and classroom of a session. No conflict
// re-check happens here; only Assign guards the grid.
func (r *ScheduleRepository) Update(ctx context.Context, id, classroomID, start, end string) error {
	const query = `UPDATE sessions SET classroom_id = $2, start_time = $3, end_time = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, classroomID, start, end)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a session from the schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListWeek returns every session ordered for bucket grouping: by day, then
// ascending start time, insertion order breaking ties.
func (r *ScheduleRepository) ListWeek(ctx context.Context) ([]models.SessionDetail, error) {
	query := `SELECT ` + sessionDetailColumns + ` ` + sessionDetailJoins + ` ORDER BY s.day, s.start_time, s.created_at`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list week sessions: %w", err)
	}
	return sessions, nil
}
