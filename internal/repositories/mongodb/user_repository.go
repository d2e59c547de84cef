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

// Compile-time check to ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository handles MongoDB operations for User
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// segmentQuery translates a SegmentFilter into a bson filter. Evaluation is
// deterministic for a given snapshot of the users collection.
func segmentQuery(f models.SegmentFilter) bson.M {
	filter := bson.M{"isActive": true}
	if len(f.Plans) > 0 {
		filter["plan"] = bson.M{"$in": f.Plans}
	}
	if len(f.Countries) > 0 {
		filter["country"] = bson.M{"$in": f.Countries}
	}
	if f.RespectOptOut {
		filter["pushEnabled"] = true
	}
	if f.OnlyMarketingOptIn {
		filter["marketingOptIn"] = true
	}
	if f.OnlyReminderOptIn {
		filter["reminderOptIn"] = true
	}
	if f.OnlyTransactionOptIn {
		filter["transactionOptIn"] = true
	}
	return filter
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll retrieves users with pagination
func (r *UserRepository) FindAll(ctx context.Context, page, limit int) ([]*models.User, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"createdAt": -1})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": user})
	return err
}

// Count counts all users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// FindBySegment finds all active users matching a segment filter
func (r *UserRepository) FindBySegment(ctx context.Context, filter models.SegmentFilter) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, segmentQuery(filter))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// CountBySegment counts active users matching a segment filter
func (r *UserRepository) CountBySegment(ctx context.Context, filter models.SegmentFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, segmentQuery(filter))
}

// FindByPlanExpiringBetween finds active users whose plan expires within [start, end)
func (r *UserRepository) FindByPlanExpiringBetween(ctx context.Context, start, end time.Time) ([]*models.User, error) {
	filter := bson.M{
		"isActive":      true,
		"planExpiresAt": bson.M{"$gte": start, "$lt": end},
	}
	return r.findUsers(ctx, filter)
}

// FindInactiveSince finds active users whose last activity predates the cutoff
func (r *UserRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.User, error) {
	filter := bson.M{
		"isActive":   true,
		"lastSeenAt": bson.M{"$lt": cutoff},
	}
	return r.findUsers(ctx, filter)
}

// FindCreatedBetween finds active users who signed up within [start, end)
func (r *UserRepository) FindCreatedBetween(ctx context.Context, start, end time.Time) ([]*models.User, error) {
	filter := bson.M{
		"isActive":  true,
		"createdAt": bson.M{"$gte": start, "$lt": end},
	}
	return r.findUsers(ctx, filter)
}

// SetPushEnabled updates the global push consent flag for a user
func (r *UserRepository) SetPushEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	update := bson.M{"$set": bson.M{"pushEnabled": enabled, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *UserRepository) findUsers(ctx context.Context, filter bson.M) ([]*models.User, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}
