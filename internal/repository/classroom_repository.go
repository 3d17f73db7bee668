package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// ClassroomRepository handles persistence of classrooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns all classrooms ordered by name.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT id, name, capacity FROM classrooms ORDER BY name`
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

// FindByID returns a classroom by its ID.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, name, capacity FROM classrooms WHERE id = $1`
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, query, id); err != nil {
		return nil, err
	}
	return &classroom, nil
}

// Create persists a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	if classroom.ID == "" {
		classroom.ID = uuid.NewString()
	}
	const query = `INSERT INTO classrooms (id, name, capacity) VALUES (:id, :name, :capacity)`
	if _, err := r.db.NamedExecContext(ctx, query, classroom); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Update overwrites name and capacity of a classroom.
func (r *ClassroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	const query = `UPDATE classrooms SET name = $2, capacity = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, classroom.ID, classroom.Name, classroom.Capacity)
	if err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a classroom and its scheduled sessions.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete classroom: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE classroom_id = $1`, id); err != nil {
		return fmt.Errorf("delete classroom sessions: %w", err)
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	if affected, raErr := res.RowsAffected(); raErr == nil && affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete classroom: %w", err)
	}
	return nil
}

// MaxCapacity returns the capacity ceiling: the maximum capacity across all
// classrooms, zero when none exist.
func (r *ClassroomRepository) MaxCapacity(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(capacity), 0) FROM classrooms`
	var ceiling int
	if err := r.db.GetContext(ctx, &ceiling, query); err != nil {
		return 0, fmt.Errorf("max classroom capacity: %w", err)
	}
	return ceiling, nil
}
