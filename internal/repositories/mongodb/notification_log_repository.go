package mongodb

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure NotificationLogRepository implements the interface
var _ repositories.NotificationLogRepository = (*NotificationLogRepository)(nil)

// NotificationLogRepository handles MongoDB operations for NotificationLog
type NotificationLogRepository struct {
	collection *mongo.Collection
}

// NewNotificationLogRepository creates a new NotificationLogRepository
func NewNotificationLogRepository(db *mongo.Database) *NotificationLogRepository {
	return &NotificationLogRepository{
		collection: db.Collection("notification_logs"),
	}
}

// Create appends a new log entry
func (r *NotificationLogRepository) Create(ctx context.Context, entry *models.NotificationLog) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByID finds a log entry by ID
func (r *NotificationLogRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.NotificationLog, error) {
	var entry models.NotificationLog
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByCampaignID finds log entries for a campaign with pagination
func (r *NotificationLogRepository) FindByCampaignID(ctx context.Context, campaignID primitive.ObjectID, page, limit int) ([]*models.NotificationLog, error) {
	return r.findPage(ctx, bson.M{"campaignId": campaignID}, page, limit)
}

// FindByTriggerKey finds log entries for a trigger with pagination
func (r *NotificationLogRepository) FindByTriggerKey(ctx context.Context, triggerKey string, page, limit int) ([]*models.NotificationLog, error) {
	return r.findPage(ctx, bson.M{"triggerKey": triggerKey}, page, limit)
}

// FindByStatus finds log entries by current status with pagination
func (r *NotificationLogRepository) FindByStatus(ctx context.Context, status models.NotificationStatus, page, limit int) ([]*models.NotificationLog, error) {
	return r.findPage(ctx, bson.M{"status": status}, page, limit)
}

// FindAllByCampaignID retrieves every log entry for a campaign
func (r *NotificationLogRepository) FindAllByCampaignID(ctx context.Context, campaignID primitive.ObjectID) ([]*models.NotificationLog, error) {
	return r.findAll(ctx, bson.M{"campaignId": campaignID})
}

// FindAllByTriggerKey retrieves every log entry for a trigger
func (r *NotificationLogRepository) FindAllByTriggerKey(ctx context.Context, triggerKey string) ([]*models.NotificationLog, error) {
	return r.findAll(ctx, bson.M{"triggerKey": triggerKey})
}

// FindAll retrieves every log entry
func (r *NotificationLogRepository) FindAll(ctx context.Context) ([]*models.NotificationLog, error) {
	return r.findAll(ctx, bson.M{})
}

// eventFields maps an engagement status to the timestamp column it stamps.
var eventFields = map[models.NotificationStatus]string{
	models.NotificationDelivered: "deliveredAt",
	models.NotificationOpened:    "openedAt",
	models.NotificationClicked:   "clickedAt",
	models.NotificationDismissed: "dismissedAt",
}

// ApplyEvent updates the row matching the delivery ID with a new status and
// the corresponding milestone timestamp, and returns the updated row.
func (r *NotificationLogRepository) ApplyEvent(ctx context.Context, deliveryID string, status models.NotificationStatus, at time.Time) (*models.NotificationLog, error) {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if field, ok := eventFields[status]; ok {
		set[field] = at
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.NotificationLog
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"deliveryId": deliveryID}, bson.M{"$set": set}, opts).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ExistsForTriggerSince reports whether a trigger already notified a user
// after the given instant. Used to avoid duplicate reminders within a window.
func (r *NotificationLogRepository) ExistsForTriggerSince(ctx context.Context, triggerKey, recipientUserID string, since time.Time) (bool, error) {
	filter := bson.M{
		"triggerKey":      triggerKey,
		"recipientUserId": recipientUserID,
		"createdAt":       bson.M{"$gte": since},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count counts all log entries
func (r *NotificationLogRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *NotificationLogRepository) findPage(ctx context.Context, filter bson.M, page, limit int) ([]*models.NotificationLog, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.NotificationLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.NotificationLog{}
	}
	return entries, nil
}

func (r *NotificationLogRepository) findAll(ctx context.Context, filter bson.M) ([]*models.NotificationLog, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.NotificationLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*models.NotificationLog{}
	}
	return entries, nil
}
