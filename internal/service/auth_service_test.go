package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserReader) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func authFixture(t *testing.T) *mockUserReader {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockUserReader{users: map[string]*models.User{
		"admin@educenter.io": {
			ID:           "user-1",
			Email:        "admin@educenter.io",
			PasswordHash: string(hash),
			Role:         models.RoleSuperAdmin,
		},
	}}
}

func TestAuthLoginRoundTrip(t *testing.T) {
	svc := NewAuthService(authFixture(t), "test-secret", time.Hour, nil, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@educenter.io",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(authFixture(t), "test-secret", time.Hour, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@educenter.io",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(authFixture(t), "test-secret", time.Hour, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@educenter.io",
		Password: "s3cret",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthValidateTokenTampered(t *testing.T) {
	svc := NewAuthService(authFixture(t), "test-secret", time.Hour, nil, nil)
	other := NewAuthService(authFixture(t), "other-secret", time.Hour, nil, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@educenter.io",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
