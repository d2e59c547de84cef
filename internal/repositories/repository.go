package repositories

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Count(ctx context.Context) (int64, error)
	// Segment queries. Both evaluate the same filter; CountBySegment avoids
	// materialising documents for preview resolutions.
	FindBySegment(ctx context.Context, filter models.SegmentFilter) ([]*models.User, error)
	CountBySegment(ctx context.Context, filter models.SegmentFilter) (int64, error)
	// Trigger condition queries.
	FindByPlanExpiringBetween(ctx context.Context, start, end time.Time) ([]*models.User, error)
	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.User, error)
	FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.User, error)
	SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error
}

// DeviceTokenRepository defines the interface for device token operations
type DeviceTokenRepository interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	FindActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DeviceToken, error)
	DeactivateByToken(ctx context.Context, token string) error
}

// CampaignRepository defines the interface for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.Campaign, error)
	FindDue(ctx context.Context, now time.Time) ([]*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) error
	Count(ctx context.Context) (int64, error)
	// CompareAndSetStatus atomically moves a campaign from one status to
	// another and reports whether the transition won. It is the sole
	// double-send defense.
	CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to models.CampaignStatus) (bool, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CampaignStatus, sentAt *time.Time) error
	IncrementSendCounters(ctx context.Context, id primitive.ObjectID, targetUsers, sent, failed int) error
	IncrementEngagement(ctx context.Context, id primitive.ObjectID, field string) error
}

// TriggerRepository defines the interface for trigger data operations
type TriggerRepository interface {
	Upsert(ctx context.Context, trigger *models.Trigger) error
	FindAll(ctx context.Context) ([]*models.Trigger, error)
	FindByKey(ctx context.Context, key string) (*models.Trigger, error)
	UpdateSettings(ctx context.Context, key string, settings map[string]interface{}) error
	SetActive(ctx context.Context, key string, active bool) error
	UpdateLastRun(ctx context.Context, key string, lastRun *models.TriggerLastRun) error
}

// NotificationLogRepository defines the interface for notification log operations
type NotificationLogRepository interface {
	Create(ctx context.Context, entry *models.NotificationLog) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.NotificationLog, error)
	FindByCampaignID(ctx context.Context, campaignID primitive.ObjectID, page, limit int) ([]*models.NotificationLog, error)
	FindByTriggerKey(ctx context.Context, triggerKey string, page, limit int) ([]*models.NotificationLog, error)
	FindByStatus(ctx context.Context, status models.NotificationStatus, page, limit int) ([]*models.NotificationLog, error)
	// Unpaginated scans for the metrics aggregator.
	FindAllByCampaignID(ctx context.Context, campaignID primitive.ObjectID) ([]*models.NotificationLog, error)
	FindAllByTriggerKey(ctx context.Context, triggerKey string) ([]*models.NotificationLog, error)
	FindAll(ctx context.Context) ([]*models.NotificationLog, error)
	// ApplyEvent stamps an engagement milestone on the row matching the
	// delivery ID and returns the updated row.
	ApplyEvent(ctx context.Context, deliveryID string, status models.NotificationStatus, at time.Time) (*models.NotificationLog, error)
	ExistsForTriggerSince(ctx context.Context, triggerKey, recipientUserID string, since time.Time) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// CronHealthRepository defines the interface for cron health record operations
type CronHealthRepository interface {
	Create(ctx context.Context, record *models.CronHealthRecord) error
	FindRecent(ctx context.Context, limit int) ([]*models.CronHealthRecord, error)
	// TrimToLimit deletes records beyond the newest limit entries.
	TrimToLimit(ctx context.Context, limit int) error
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}
