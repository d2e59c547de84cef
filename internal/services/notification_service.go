package services

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// statusByEvent maps gateway callback events to log statuses.
var statusByEvent = map[string]models.NotificationStatus{
	"delivered": models.NotificationDelivered,
	"opened":    models.NotificationOpened,
	"clicked":   models.NotificationClicked,
	"dismissed": models.NotificationDismissed,
	"failed":    models.NotificationFailed,
}

// engagementCounters maps callback events to the campaign counter they bump.
// Dismissals and failures are visible in the log only.
var engagementCounters = map[string]string{
	"delivered": "deliveredCount",
	"opened":    "openedCount",
	"clicked":   "clickedCount",
}

// NotificationService exposes the notification log and applies asynchronous
// gateway status callbacks.
type NotificationService struct {
	logRepo      repositories.NotificationLogRepository
	campaignRepo repositories.CampaignRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(logRepo repositories.NotificationLogRepository, campaignRepo repositories.CampaignRepository) *NotificationService {
	return &NotificationService{
		logRepo:      logRepo,
		campaignRepo: campaignRepo,
	}
}

// GetByID retrieves one log entry
func (s *NotificationService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.NotificationLog, error) {
	return s.logRepo.FindByID(ctx, id)
}

// ListByCampaign retrieves log entries for a campaign with pagination
func (s *NotificationService) ListByCampaign(ctx context.Context, campaignID primitive.ObjectID, page, limit int) ([]*models.NotificationLog, error) {
	return s.logRepo.FindByCampaignID(ctx, campaignID, page, limit)
}

// ListByTrigger retrieves log entries for a trigger with pagination
func (s *NotificationService) ListByTrigger(ctx context.Context, triggerKey string, page, limit int) ([]*models.NotificationLog, error) {
	return s.logRepo.FindByTriggerKey(ctx, triggerKey, page, limit)
}

// ListByStatus retrieves log entries by current status with pagination
func (s *NotificationService) ListByStatus(ctx context.Context, status models.NotificationStatus, page, limit int) ([]*models.NotificationLog, error) {
	return s.logRepo.FindByStatus(ctx, status, page, limit)
}

// Count counts all log entries
func (s *NotificationService) Count(ctx context.Context) (int64, error) {
	return s.logRepo.Count(ctx)
}

// HandleGatewayEvent applies one asynchronous status callback. The matching
// log row's status moves to the event's status and the milestone timestamp
// is stamped; when the row belongs to a campaign, the campaign's engagement
// counter is bumped as well.
func (s *NotificationService) HandleGatewayEvent(ctx context.Context, deliveryID, event string, at time.Time) (*models.NotificationLog, error) {
	status, ok := statusByEvent[event]
	if !ok {
		return nil, NewValidationError("unknown event %q", event)
	}
	if deliveryID == "" {
		return nil, NewValidationError("deliveryId is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	entry, err := s.logRepo.ApplyEvent(ctx, deliveryID, status, at)
	if err != nil {
		return nil, &DependencyError{Op: "apply gateway event", Err: err}
	}

	if field, bump := engagementCounters[event]; bump && entry.CampaignID != nil {
		if err := s.campaignRepo.IncrementEngagement(ctx, *entry.CampaignID, field); err != nil {
			return nil, &DependencyError{Op: "increment campaign engagement", Err: err}
		}
	}

	return entry, nil
}
