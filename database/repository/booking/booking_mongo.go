package bookingRepo

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

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by MongoDB.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &mongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Error("booking indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_idempotency_key").
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "date", Value: 1}}, Options: options.Index().SetName("service_date_idx")},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created_idx")},
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("provider_status_idx")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, booking)
	return database.MapError(err)
}

func (r *mongoBookingRepo) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		return nil, database.MapError(err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"idempotencyKey": key})
}

func (r *mongoBookingRepo) FindDuplicate(ctx context.Context, key DuplicateKey) (*models.Booking, error) {
	filter := bson.M{
		"serviceId": key.ServiceID,
		"date":      key.Date,
		"status":    bson.M{"$ne": models.BookingCancelled},
	}
	switch {
	case key.UserID != nil:
		filter["userId"] = *key.UserID
	case key.GuestEmail != "":
		filter["userId"] = nil
		filter["guest.email"] = key.GuestEmail
	case key.GuestPhone != "":
		filter["userId"] = nil
		filter["guest.phone"] = key.GuestPhone
	default:
		return nil, database.ErrNotFound
	}
	return r.findOne(ctx, filter)
}

func (r *mongoBookingRepo) CountForProviderSince(ctx context.Context, providerID primitive.ObjectID, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{
		"providerId": providerID,
		"status":     bson.M{"$ne": models.BookingCancelled},
		"createdAt":  bson.M{"$gte": since},
	})
}

func (r *mongoBookingRepo) List(ctx context.Context, filter ListFilter, skip, limit int64) ([]models.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.ProviderID != nil {
		query["providerId"] = *filter.ProviderID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *mongoBookingRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking models.Booking
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&booking); err != nil {
		return nil, database.MapError(err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) SetPointsAwarded(ctx context.Context, id primitive.ObjectID, points int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"pointsAwarded": points}})
	return err
}

func (r *mongoBookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregation query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *mongoBookingRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{})
}
