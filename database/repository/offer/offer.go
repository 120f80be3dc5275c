package offerRepo

import (
	"context"
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

// OfferRepository persists special offers.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.SpecialOffer) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SpecialOffer, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ListRedeemable returns offers that can be redeemed at now.
	ListRedeemable(ctx context.Context, now time.Time, skip, limit int64) ([]models.SpecialOffer, error)
	ListByProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.SpecialOffer, error)
	CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error)
	// Redeem increments usedCount only while the offer is redeemable at now.
	// ErrNotFound means the offer is missing, out of its window or used up.
	Redeem(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.SpecialOffer, error)
}

type mongoOfferRepo struct {
	coll *mongo.Collection
}

// NewMongoOfferRepo returns an OfferRepository backed by MongoDB.
func NewMongoOfferRepo(db *mongo.Database) OfferRepository {
	repo := &mongoOfferRepo{coll: db.Collection("special_offers")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "providerId", Value: 1}}, Options: options.Index().SetName("provider_idx")},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index().SetName("active_window_idx"),
		},
	})
	if err != nil {
		utils.GetLogger().Error("offer indexes", zap.Error(err))
	}
	return repo
}

// redeemableFilter mirrors SpecialOffer.IsRedeemable as a query.
func redeemableFilter(now time.Time) bson.M {
	return bson.M{
		"active":    true,
		"startDate": bson.M{"$lte": now},
		"endDate":   bson.M{"$gt": now},
		"$or": bson.A{
			bson.M{"maxUses": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}}},
		},
	}
}

func (r *mongoOfferRepo) Create(ctx context.Context, offer *models.SpecialOffer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if offer.ID.IsZero() {
		offer.ID = primitive.NewObjectID()
	}
	offer.CreatedAt = now
	offer.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, offer)
	return database.MapError(err)
}

func (r *mongoOfferRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var offer models.SpecialOffer
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&offer); err != nil {
		return nil, database.MapError(err)
	}
	return &offer, nil
}

func (r *mongoOfferRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SpecialOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var offer models.SpecialOffer
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&offer); err != nil {
		return nil, database.MapError(err)
	}
	return &offer, nil
}

func (r *mongoOfferRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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

func (r *mongoOfferRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.SpecialOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	offers := []models.SpecialOffer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *mongoOfferRepo) ListRedeemable(ctx context.Context, now time.Time, skip, limit int64) ([]models.SpecialOffer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}}).SetSkip(skip).SetLimit(limit)
	return r.find(ctx, redeemableFilter(now), opts)
}

func (r *mongoOfferRepo) ListByProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.SpecialOffer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"providerId": providerID}, opts)
}

func (r *mongoOfferRepo) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"providerId": providerID})
}

func (r *mongoOfferRepo) Redeem(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.SpecialOffer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := redeemableFilter(now)
	filter["_id"] = id
	update := bson.M{"$inc": bson.M{"usedCount": 1}, "$set": bson.M{"updatedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var offer models.SpecialOffer
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&offer); err != nil {
		return nil, database.MapError(err)
	}
	return &offer, nil
}
