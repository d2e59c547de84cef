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

// Compile-time check to ensure DeviceTokenRepository implements the interface
var _ repositories.DeviceTokenRepository = (*DeviceTokenRepository)(nil)

// DeviceTokenRepository handles MongoDB operations for DeviceToken
type DeviceTokenRepository struct {
	collection *mongo.Collection
}

// NewDeviceTokenRepository creates a new DeviceTokenRepository
func NewDeviceTokenRepository(db *mongo.Database) *DeviceTokenRepository {
	return &DeviceTokenRepository{
		collection: db.Collection("device_tokens"),
	}
}

// Upsert registers a device token, reactivating it if it already exists
func (r *DeviceTokenRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	now := time.Now()
	filter := bson.M{"token": token.Token}
	update := bson.M{
		"$set": bson.M{
			"userId":     token.UserID,
			"platform":   token.Platform,
			"isActive":   true,
			"lastUsedAt": now,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindActiveByUserIDs finds all active tokens belonging to the given users
func (r *DeviceTokenRepository) FindActiveByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DeviceToken, error) {
	if len(userIDs) == 0 {
		return []models.DeviceToken{}, nil
	}

	filter := bson.M{
		"userId":   bson.M{"$in": userIDs},
		"isActive": true,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []models.DeviceToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []models.DeviceToken{}
	}
	return tokens, nil
}

// DeactivateByToken marks a token inactive, typically after a permanent
// gateway rejection
func (r *DeviceTokenRepository) DeactivateByToken(ctx context.Context, token string) error {
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"token": token}, update)
	return err
}
