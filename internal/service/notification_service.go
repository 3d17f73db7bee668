package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context) ([]models.Notification, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
}

type registrationCloser interface {
	SetRegistrationOpen(ctx context.Context, id string, open bool) error
}

// DecisionRequest resolves a capacity notification.
type DecisionRequest struct {
	NotificationID string `json:"notification_id" validate:"required"`
	Decision       bool   `json:"decision"`
}

// NotificationService lists capacity notifications and processes decisions.
// A notification stays in the log after resolution and carries no resolved
// flag, so the same one may be decided again, possibly differently.
type NotificationService struct {
	repo      notificationRepository
	courses   registrationCloser
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(repo notificationRepository, courses registrationCloser, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns notifications newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	notifications, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// Resolve applies a decision: true closes the course's registration, false
// leaves everything untouched. The returned message states the outcome.
func (s *NotificationService) Resolve(ctx context.Context, req DecisionRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	notification, err := s.repo.FindByID(ctx, req.NotificationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}

	if !req.Decision {
		return models.RegistrationStillOpenMessage, nil
	}

	if err := s.courses.SetRegistrationOpen(ctx, notification.CourseID, false); err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close registration")
	}
	s.logger.Info("registration_closed",
		zap.String("course_id", notification.CourseID),
		zap.String("notification_id", notification.ID))
	return models.RegistrationClosedMessage, nil
}
