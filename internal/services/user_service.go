package services

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validPlatforms = map[string]bool{
	"ios":     true,
	"android": true,
	"web":     true,
}

// UserService manages end users and their device registrations.
type UserService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.DeviceTokenRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.UserRepository, tokenRepo repositories.DeviceTokenRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, page, limit int) ([]*models.User, error) {
	return s.userRepo.FindAll(ctx, page, limit)
}

// Count counts all users
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

// SetPushEnabled flips the user's master push switch. Disabling it removes
// the user from every segment and trigger audience on the next evaluation.
func (s *UserService) SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	if err := s.userRepo.SetPushEnabled(ctx, id, enabled); err != nil {
		return &DependencyError{Op: "set push enabled", Err: err}
	}
	return nil
}

// RegisterDevice upserts a device token for the user. Re-registering an
// existing token reactivates it and refreshes its ownership.
func (s *UserService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, token, platform string) (*models.DeviceToken, error) {
	if token == "" {
		return nil, NewValidationError("token is required")
	}
	if !validPlatforms[platform] {
		return nil, NewValidationError("unknown platform %q", platform)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, NewValidationError("unknown user %s", userID.Hex())
	}

	now := time.Now()
	device := &models.DeviceToken{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		IsActive:   true,
		LastUsedAt: &now,
	}
	if err := s.tokenRepo.Upsert(ctx, device); err != nil {
		return nil, &DependencyError{Op: "upsert device token", Err: err}
	}
	return device, nil
}
