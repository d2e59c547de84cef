package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloapp/pushops-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRegisterDeviceUpsertsToken(t *testing.T) {
	userRepo := &memUserRepo{}
	tokenRepo := &memTokenRepo{}
	svc := NewUserService(userRepo, tokenRepo)
	ctx := context.Background()

	user := userRepo.add(&models.User{PushEnabled: true, IsActive: true})

	device, err := svc.RegisterDevice(ctx, user.ID, "tok-1", "android")
	require.NoError(t, err)
	assert.True(t, device.IsActive)

	// Re-registering the same token is an update, not a duplicate.
	_, err = svc.RegisterDevice(ctx, user.ID, "tok-1", "android")
	require.NoError(t, err)

	tokens, err := tokenRepo.FindActiveByUserIDs(ctx, []primitive.ObjectID{user.ID})
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestRegisterDeviceValidation(t *testing.T) {
	userRepo := &memUserRepo{}
	svc := NewUserService(userRepo, &memTokenRepo{})
	ctx := context.Background()

	user := userRepo.add(&models.User{IsActive: true})

	_, err := svc.RegisterDevice(ctx, user.ID, "", "ios")
	assert.True(t, IsValidation(err))

	_, err = svc.RegisterDevice(ctx, user.ID, "tok-1", "blackberry")
	assert.True(t, IsValidation(err))

	_, err = svc.RegisterDevice(ctx, primitive.NewObjectID(), "tok-1", "ios")
	assert.True(t, IsValidation(err))
}

func TestSetPushEnabledFlipsSwitch(t *testing.T) {
	userRepo := &memUserRepo{}
	svc := NewUserService(userRepo, &memTokenRepo{})
	ctx := context.Background()

	user := userRepo.add(&models.User{PushEnabled: true, IsActive: true})

	require.NoError(t, svc.SetPushEnabled(ctx, user.ID, false))
	stored, err := userRepo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.PushEnabled)

	require.NoError(t, svc.SetPushEnabled(ctx, user.ID, true))
	stored, _ = userRepo.FindByID(ctx, user.ID)
	assert.True(t, stored.PushEnabled)
}
