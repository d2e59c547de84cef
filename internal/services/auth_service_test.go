package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloapp/pushops-backend/internal/config"
)

func newAuthFixture() (*AuthService, *memAdminRepo) {
	repo := &memAdminRepo{}
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600}}
	return NewAuthService(repo, cfg), repo
}

func TestCreateAdminAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "Ops@Example.com", "s3cret-pass", "")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", admin.Email)
	assert.Equal(t, "viewer", admin.Role)
	assert.NotEqual(t, "s3cret-pass", admin.PasswordHash)

	result, err := svc.Login(ctx, "ops@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, admin.Email, result.User.Email)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "ops@example.com", "s3cret-pass", "admin")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ops@example.com", "wrong-pass")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.Error(t, err)

	_, err = svc.Login(ctx, "", "")
	assert.True(t, IsValidation(err))
}

func TestCreateAdminValidation(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.CreateAdmin(ctx, "", "s3cret-pass", "admin")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateAdmin(ctx, "ops@example.com", "short", "admin")
	assert.True(t, IsValidation(err))

	_, err = svc.CreateAdmin(ctx, "ops@example.com", "s3cret-pass", "admin")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "ops@example.com", "s3cret-pass", "admin")
	assert.True(t, IsConflict(err))
}
