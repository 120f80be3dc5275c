package subscriptionRepo

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

type mongoMembershipRepo struct {
	coll *mongo.Collection
}

// NewMongoMembershipRepo returns a MembershipRepository backed by MongoDB.
func NewMongoMembershipRepo(db *mongo.Database) MembershipRepository {
	repo := &mongoMembershipRepo{coll: db.Collection("premium_memberships")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("user_status_idx")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}, Options: options.Index().SetName("status_end_idx")},
	})
	if err != nil {
		utils.GetLogger().Error("membership indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoMembershipRepo) Create(ctx context.Context, m *models.PremiumMembership) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, m)
	return database.MapError(err)
}

func (r *mongoMembershipRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PremiumMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var m models.PremiumMembership
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, database.MapError(err)
	}
	return &m, nil
}

func (r *mongoMembershipRepo) FindActive(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.PremiumMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId":  userID,
		"status":  models.MembershipActive,
		"endDate": bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "endDate", Value: -1}})

	var m models.PremiumMembership
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		return nil, database.MapError(err)
	}
	return &m, nil
}

func (r *mongoMembershipRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.PremiumMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.PremiumMembership{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoMembershipRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PremiumMembership, error) {
	return r.find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoMembershipRepo) List(ctx context.Context, skip, limit int64) ([]models.PremiumMembership, int64, error) {
	countCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	total, err := r.coll.CountDocuments(countCtx, bson.M{})
	cancel()
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	out, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *mongoMembershipRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.PremiumMembership, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m models.PremiumMembership
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&m); err != nil {
		return nil, database.MapError(err)
	}
	return &m, nil
}

func (r *mongoMembershipRepo) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"status": models.MembershipActive, "endDate": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"status": models.MembershipExpired, "updatedAt": now}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoMembershipRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{"status": models.MembershipActive, "endDate": bson.M{"$gt": now}})
}
