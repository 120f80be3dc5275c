package catalogRepo

import (
	"context"
	"fmt"
	"regexp"
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

type mongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo returns a ServiceRepository backed by MongoDB.
func NewMongoServiceRepo(db *mongo.Database) ServiceRepository {
	repo := &mongoServiceRepo{coll: db.Collection("services")}
	if err := createIndexes(repo.coll, serviceIndexes); err != nil {
		utils.GetLogger().Error("service indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoServiceRepo) Create(ctx context.Context, service *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if service.ID.IsZero() {
		service.ID = primitive.NewObjectID()
	}
	if service.Status == "" {
		service.Status = models.ServiceStatusActive
	}
	if service.Photos == nil {
		service.Photos = []string{}
	}
	service.SyncLocation()
	service.CreatedAt = now
	service.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, service)
	return database.MapError(err)
}

func (r *mongoServiceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var service models.Service
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&service); err != nil {
		return nil, database.MapError(err)
	}
	return &service, nil
}

func (r *mongoServiceRepo) Replace(ctx context.Context, service *models.Service) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	service.SyncLocation()
	service.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": service.ID}, service)
	if err != nil {
		return database.MapError(err)
	}
	if res.MatchedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *mongoServiceRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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

// buildServiceQuery translates a ServiceFilter into a Mongo filter.
func buildServiceQuery(filter models.ServiceFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeAll {
		query["status"] = models.ServiceStatusActive
	}
	if filter.CategoryID != nil {
		query["categoryId"] = *filter.CategoryID
	}
	if filter.ServiceTypeID != nil {
		query["serviceTypeId"] = *filter.ServiceTypeID
	}
	if filter.ProviderID != nil {
		query["providerId"] = *filter.ProviderID
	}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		query["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"description": pattern}}
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if filter.Near != nil && len(filter.Near.Coordinates) == 2 {
		near := bson.M{"$geometry": bson.M{"type": "Point", "coordinates": filter.Near.Coordinates}}
		if filter.RadiusKm > 0 {
			near["$maxDistance"] = filter.RadiusKm * 1000
		}
		query["location"] = bson.M{"$near": near}
	}
	return query
}

func (r *mongoServiceRepo) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find()
	// $near already orders by distance and rejects an explicit sort.
	if filter.Near == nil {
		opts.SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "createdAt", Value: -1}})
	}
	if filter.Skip > 0 {
		opts.SetSkip(filter.Skip)
	}
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.coll.Find(ctx, buildServiceQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer cursor.Close(ctx)

	services := []models.Service{}
	if err := cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (r *mongoServiceRepo) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"providerId": providerID})
}

func (r *mongoServiceRepo) CountActive(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"status": models.ServiceStatusActive})
}

func (r *mongoServiceRepo) CountProviders(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ids, err := r.coll.Distinct(ctx, "providerId", bson.M{"status": models.ServiceStatusActive})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (r *mongoServiceRepo) SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"rating": rating}})
	return err
}

func (r *mongoServiceRepo) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"categoryId": categoryID})
}
