package mongodb

import (
	"context"
	"time"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TriggerRepository implements the interface
var _ repositories.TriggerRepository = (*TriggerRepository)(nil)

// TriggerRepository handles MongoDB operations for Trigger
type TriggerRepository struct {
	collection *mongo.Collection
}

// NewTriggerRepository creates a new TriggerRepository
func NewTriggerRepository(db *mongo.Database) *TriggerRepository {
	return &TriggerRepository{
		collection: db.Collection("triggers"),
	}
}

// Upsert seeds or refreshes a catalog trigger. Tunable state (isActive,
// settings, lastRun) is preserved on existing documents; only the static
// descriptors are overwritten.
func (r *TriggerRepository) Upsert(ctx context.Context, trigger *models.Trigger) error {
	now := time.Now()
	filter := bson.M{"key": trigger.Key}
	update := bson.M{
		"$set": bson.M{
			"label":        trigger.Label,
			"description":  trigger.Description,
			"settingsMeta": trigger.SettingsMeta,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{
			"isActive":  trigger.IsActive,
			"settings":  trigger.Settings,
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindAll retrieves all triggers
func (r *TriggerRepository) FindAll(ctx context.Context) ([]*models.Trigger, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"key": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var triggers []*models.Trigger
	if err := cursor.All(ctx, &triggers); err != nil {
		return nil, err
	}
	if triggers == nil {
		triggers = []*models.Trigger{}
	}
	return triggers, nil
}

// FindByKey finds a trigger by its catalog key
func (r *TriggerRepository) FindByKey(ctx context.Context, key string) (*models.Trigger, error) {
	var trigger models.Trigger
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&trigger)
	if err != nil {
		return nil, err
	}
	return &trigger, nil
}

// UpdateSettings replaces the tunable settings of a trigger
func (r *TriggerRepository) UpdateSettings(ctx context.Context, key string, settings map[string]interface{}) error {
	update := bson.M{"$set": bson.M{"settings": settings, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetActive toggles a trigger on or off
func (r *TriggerRepository) SetActive(ctx context.Context, key string, active bool) error {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateLastRun overwrites the last-run snapshot
func (r *TriggerRepository) UpdateLastRun(ctx context.Context, key string, lastRun *models.TriggerLastRun) error {
	update := bson.M{"$set": bson.M{"lastRun": lastRun, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"key": key}, update)
	return err
}
