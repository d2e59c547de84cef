package mongodb

import (
	"context"

	"github.com/veloapp/pushops-backend/internal/models"
	"github.com/veloapp/pushops-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure CronHealthRepository implements the interface
var _ repositories.CronHealthRepository = (*CronHealthRepository)(nil)

// CronHealthRepository handles MongoDB operations for CronHealthRecord
type CronHealthRepository struct {
	collection *mongo.Collection
}

// NewCronHealthRepository creates a new CronHealthRepository
func NewCronHealthRepository(db *mongo.Database) *CronHealthRepository {
	return &CronHealthRepository{
		collection: db.Collection("cron_health"),
	}
}

// Create appends a new health record
func (r *CronHealthRepository) Create(ctx context.Context, record *models.CronHealthRecord) error {
	record.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, record)
	return err
}

// FindRecent retrieves the newest records, most recent first
func (r *CronHealthRepository) FindRecent(ctx context.Context, limit int) ([]*models.CronHealthRecord, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.M{"timestamp": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.CronHealthRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.CronHealthRecord{}
	}
	return records, nil
}

// TrimToLimit deletes all records older than the newest limit entries
func (r *CronHealthRepository) TrimToLimit(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSkip(int64(limit)).
		SetSort(bson.M{"timestamp": -1}).
		SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var stale []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &stale); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, 0, len(stale))
	for _, doc := range stale {
		ids = append(ids, doc.ID)
	}
	_, err = r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
