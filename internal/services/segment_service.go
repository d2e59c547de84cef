package services

import (
	"context"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SegmentService resolves declarative audience filters into concrete
// recipient sets.
type SegmentService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.DeviceTokenRepository
}

// NewSegmentService creates a new SegmentService
func NewSegmentService(userRepo repositories.UserRepository, tokenRepo repositories.DeviceTokenRepository) *SegmentService {
	return &SegmentService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

// Resolve evaluates a segment filter against the current user snapshot.
//
// Preview mode computes cardinalities only, keeping cost low for dashboard
// estimation. Full mode additionally fans out to the matching users' active
// device tokens; users with zero tokens stay in Counts.Users but contribute
// nothing to the sendable token set. An empty result is a valid resolution,
// not an error.
func (s *SegmentService) Resolve(ctx context.Context, filter models.SegmentFilter, mode models.ResolveMode) (*models.SegmentResolution, error) {
	if mode == models.ResolvePreview {
		count, err := s.userRepo.CountBySegment(ctx, filter)
		if err != nil {
			return nil, &DependencyError{Op: "count users by segment", Err: err}
		}
		return &models.SegmentResolution{
			UserIDs: []string{},
			Counts:  models.SegmentCounts{Users: int(count)},
		}, nil
	}

	users, err := s.userRepo.FindBySegment(ctx, filter)
	if err != nil {
		return nil, &DependencyError{Op: "find users by segment", Err: err}
	}

	userIDs := make([]string, 0, len(users))
	objectIDs := make([]primitive.ObjectID, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID.Hex())
		objectIDs = append(objectIDs, user.ID)
	}

	tokens, err := s.tokenRepo.FindActiveByUserIDs(ctx, objectIDs)
	if err != nil {
		return nil, &DependencyError{Op: "find device tokens", Err: err}
	}

	return &models.SegmentResolution{
		UserIDs: userIDs,
		Tokens:  tokens,
		Counts: models.SegmentCounts{
			Users:  len(users),
			Tokens: len(tokens),
		},
	}, nil
}
