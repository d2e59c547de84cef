package services

import (
	"context"
	"strings"
	"time"

	"github.com/veloapp/pushops-backend/internal/config"
	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"github.com/veloapp/pushops-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates dashboard operators.
type AuthService struct {
	adminRepo repositories.AdminUserRepository
	config    *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(adminRepo repositories.AdminUserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		config:    cfg,
	}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	Token string            `json:"token"`
	User  *models.AdminUser `json:"user"`
}

// Login verifies credentials and issues a JWT
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, NewValidationError("email and password are required")
	}

	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, NewValidationError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, NewValidationError("invalid credentials")
	}

	token, err := utils.GenerateJWT(admin.ID.Hex(), admin.Role, s.config)
	if err != nil {
		return nil, &DependencyError{Op: "sign token", Err: err}
	}

	return &LoginResult{Token: token, User: admin}, nil
}

// CreateAdmin registers a new operator account with a hashed password
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, role string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, NewValidationError("email is required")
	}
	if len(password) < 8 {
		return nil, NewValidationError("password must be at least 8 characters")
	}
	if role == "" {
		role = "viewer"
	}

	if existing, err := s.adminRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, NewConflictError("admin user %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &DependencyError{Op: "hash password", Err: err}
	}

	now := time.Now()
	admin := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, &DependencyError{Op: "create admin user", Err: err}
	}
	return admin, nil
}
