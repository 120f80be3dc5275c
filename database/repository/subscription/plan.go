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

type mongoPlanRepo struct {
	coll *mongo.Collection
}

// NewMongoPlanRepo returns a PlanRepository backed by MongoDB.
func NewMongoPlanRepo(db *mongo.Database) PlanRepository {
	repo := &mongoPlanRepo{coll: db.Collection("subscription_plans")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_name"),
	})
	if err != nil {
		utils.GetLogger().Error("plan indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoPlanRepo) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	plan.CreatedAt = now
	plan.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, plan)
	return database.MapError(err)
}

func (r *mongoPlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var plan models.SubscriptionPlan
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, database.MapError(err)
	}
	return &plan, nil
}

func (r *mongoPlanRepo) List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "price", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []models.SubscriptionPlan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoPlanRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SubscriptionPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan models.SubscriptionPlan
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&plan); err != nil {
		return nil, database.MapError(err)
	}
	return &plan, nil
}

func (r *mongoPlanRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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
