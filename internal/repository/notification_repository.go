package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amrnabil/educenter-api/internal/models"
)

// NotificationRepository reads the append-only capacity notification log.
// Notifications are created inside the enrollment transaction; nothing here
// deletes or mutates them.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns notifications newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	const query = `SELECT id, course_id, message, created_at FROM notifications ORDER BY created_at DESC, id DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// FindByID returns a notification by its ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, course_id, message, created_at FROM notifications WHERE id = $1`
	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}
