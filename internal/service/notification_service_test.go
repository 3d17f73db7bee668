package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]*models.Notification
}

func (m *mockNotificationRepo) List(ctx context.Context) ([]models.Notification, error) {
	out := make([]models.Notification, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, *n)
	}
	return out, nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	n, ok := m.notifications[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return n, nil
}

type mockRegistrationCloser struct {
	closed []string
}

func (m *mockRegistrationCloser) SetRegistrationOpen(ctx context.Context, id string, open bool) error {
	if !open {
		m.closed = append(m.closed, id)
	}
	return nil
}

func notificationFixture() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: map[string]*models.Notification{
		"note-1": {ID: "note-1", CourseID: "course-1", Message: "30 students registered to Algebra/Sara Adel close registration ?"},
	}}
}

func TestNotificationResolveCloses(t *testing.T) {
	courses := &mockRegistrationCloser{}
	svc := NewNotificationService(notificationFixture(), courses, nil, nil)

	message, err := svc.Resolve(context.Background(), DecisionRequest{NotificationID: "note-1", Decision: true})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationClosedMessage, message)
	assert.Equal(t, []string{"course-1"}, courses.closed)
}

func TestNotificationResolveDeclines(t *testing.T) {
	courses := &mockRegistrationCloser{}
	svc := NewNotificationService(notificationFixture(), courses, nil, nil)

	message, err := svc.Resolve(context.Background(), DecisionRequest{NotificationID: "note-1", Decision: false})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStillOpenMessage, message)
	assert.Empty(t, courses.closed)
}

func TestNotificationResolveRepeatable(t *testing.T) {
	courses := &mockRegistrationCloser{}
	svc := NewNotificationService(notificationFixture(), courses, nil, nil)

	_, err := svc.Resolve(context.Background(), DecisionRequest{NotificationID: "note-1", Decision: false})
	require.NoError(t, err)

	// The notification remains in the log and can be decided again.
	message, err := svc.Resolve(context.Background(), DecisionRequest{NotificationID: "note-1", Decision: true})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationClosedMessage, message)
	assert.Equal(t, []string{"course-1"}, courses.closed)
}

func TestNotificationResolveMissing(t *testing.T) {
	svc := NewNotificationService(notificationFixture(), &mockRegistrationCloser{}, nil, nil)

	_, err := svc.Resolve(context.Background(), DecisionRequest{NotificationID: "note-404", Decision: true})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestNotificationResolveMissingID(t *testing.T) {
	svc := NewNotificationService(notificationFixture(), &mockRegistrationCloser{}, nil, nil)

	_, err := svc.Resolve(context.Background(), DecisionRequest{Decision: true})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
