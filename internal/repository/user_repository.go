package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// UserRepository reads user accounts. Account management itself lives
// outside this service; only lookups needed by enrollment and auth exist.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by its ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, first_name, last_name, role, created_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail returns a user by email for credential checks.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, first_name, last_name, role, created_at FROM users WHERE email = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindStudentRef returns the compact representation of a student account.
func (r *UserRepository) FindStudentRef(ctx context.Context, id string) (*models.StudentRef, error) {
	const query = `SELECT id, email, first_name, last_name FROM users WHERE id = $1 AND role = $2`
	var ref models.StudentRef
	if err := r.db.GetContext(ctx, &ref, query, id, models.RoleStudent); err != nil {
		return nil, err
	}
	return &ref, nil
}
