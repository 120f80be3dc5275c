package subscriptionRepo

import (
	"context"
	"fmt"
	"time"

	"homehub/database"
	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var runningStatuses = bson.A{models.SubscriptionActive, models.SubscriptionTrial}

type mongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo returns a SubscriptionRepository backed by MongoDB.
func NewMongoSubscriptionRepo(db *mongo.Database) SubscriptionRepository {
	repo := &mongoSubscriptionRepo{coll: db.Collection("subscriptions")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created_idx")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}, Options: options.Index().SetName("status_end_idx")},
	})
	if err != nil {
		utils.GetLogger().Error("subscription indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, sub)
	return database.MapError(err)
}

func (r *mongoSubscriptionRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sub models.Subscription
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&sub); err != nil {
		return nil, database.MapError(err)
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	subs := []models.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoSubscriptionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoSubscriptionRepo) FindCurrent(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error) {
	filter := bson.M{
		"userId": userID,
		"status": bson.M{"$in": bson.A{models.SubscriptionActive, models.SubscriptionTrial, models.SubscriptionPaused}},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoSubscriptionRepo) HasTrialed(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID, "trialEndsAt": bson.M{"$exists": true}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoSubscriptionRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Subscription, error) {
	return r.update(ctx, bson.M{"_id": id}, set)
}

func (r *mongoSubscriptionRepo) UpdateIf(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, set bson.M) (*models.Subscription, error) {
	return r.update(ctx, bson.M{"_id": id, "status": status}, set)
}

func (r *mongoSubscriptionRepo) update(ctx context.Context, filter, set bson.M) (*models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sub models.Subscription
	if err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&sub); err != nil {
		return nil, database.MapError(err)
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Subscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *mongoSubscriptionRepo) List(ctx context.Context, status models.SubscriptionStatus, skip, limit int64) ([]models.Subscription, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	countCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	total, err := r.coll.CountDocuments(countCtx, filter)
	cancel()
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	subs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *mongoSubscriptionRepo) ListEnded(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":  bson.M{"$in": runningStatuses},
		"endDate": bson.M{"$lte": now},
	})
}

func (r *mongoSubscriptionRepo) ListTrialsEnded(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":      models.SubscriptionTrial,
		"trialEndsAt": bson.M{"$lte": now},
		"endDate":     bson.M{"$gt": now},
	})
}

func (r *mongoSubscriptionRepo) ListEndingBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":         bson.M{"$in": runningStatuses},
		"endDate":        bson.M{"$gt": from, "$lte": to},
		"reminderSentAt": bson.M{"$exists": false},
	})
}

func (r *mongoSubscriptionRepo) IncrementUsage(ctx context.Context, id primitive.ObjectID, field string, delta int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"usage." + field: delta}})
	return err
}

func (r *mongoSubscriptionRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"status":  bson.M{"$in": runningStatuses},
		"endDate": bson.M{"$gt": now},
	})
}
