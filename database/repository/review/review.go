package reviewRepo

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

// ReviewRepository persists service reviews.
type ReviewRepository interface {
	// UpsertForUser creates or replaces the single review a signed-in user
	// holds for a service.
	UpsertForUser(ctx context.Context, review *models.Review) (*models.Review, error)
	// CreateGuest inserts a review left without an account.
	CreateGuest(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByService(ctx context.Context, serviceID primitive.ObjectID, skip, limit int64) ([]models.Review, int64, error)
	// Aggregate computes the rating average and count for a service.
	Aggregate(ctx context.Context, serviceID primitive.ObjectID) (models.Rating, error)
}

type mongoReviewRepo struct {
	coll *mongo.Collection
}

// NewMongoReviewRepo returns a ReviewRepository backed by MongoDB.
func NewMongoReviewRepo(db *mongo.Database) ReviewRepository {
	repo := &mongoReviewRepo{coll: db.Collection("reviews")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_service_user").
				SetPartialFilterExpression(bson.M{"userId": bson.M{"$type": "objectId"}}),
		},
		{Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("service_created_idx")},
	})
	if err != nil {
		utils.GetLogger().Error("review indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoReviewRepo) UpsertForUser(ctx context.Context, review *models.Review) (*models.Review, error) {
	if review.UserID == nil {
		return nil, fmt.Errorf("upsert requires a user id")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	filter := bson.M{"serviceId": review.ServiceID, "userId": *review.UserID}
	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"authorName": review.AuthorName,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Review
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race with the same user; the retry takes the update path.
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	}
	if err != nil {
		return nil, database.MapError(err)
	}
	return &saved, nil
}

func (r *mongoReviewRepo) CreateGuest(ctx context.Context, review *models.Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt = now
	review.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, review)
	return database.MapError(err)
}

func (r *mongoReviewRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var review models.Review
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return nil, database.MapError(err)
	}
	return &review, nil
}

func (r *mongoReviewRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepo) ListByService(ctx context.Context, serviceID primitive.ObjectID, skip, limit int64) ([]models.Review, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"serviceId": serviceID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *mongoReviewRepo) Aggregate(ctx context.Context, serviceID primitive.ObjectID) (models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"serviceId": serviceID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.Rating{}, fmt.Errorf("aggregation query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.Rating
	if err := cursor.All(ctx, &rows); err != nil {
		return models.Rating{}, err
	}
	if len(rows) == 0 {
		return models.Rating{}, nil
	}
	return rows[0], nil
}
