package catalogRepo

import (
	"context"
	"errors"
	"strings"
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

type mongoCategoryRepo struct {
	coll *mongo.Collection
}

// NewMongoCategoryRepo returns a CategoryRepository backed by MongoDB.
func NewMongoCategoryRepo(db *mongo.Database) CategoryRepository {
	repo := &mongoCategoryRepo{coll: db.Collection("categories")}
	if err := createIndexes(repo.coll, categoryIndexes); err != nil {
		utils.GetLogger().Error("category indexes", zap.Error(err))
	}
	return repo
}

// upsertBySlug runs the find-or-create upsert. Two concurrent upserts on the
// same missing key can both insert; the loser gets a duplicate key error and
// reads the winner's document instead.
func upsertBySlug(ctx context.Context, coll *mongo.Collection, filter, insert bson.M, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	insert["_id"] = primitive.NewObjectID()
	insert["createdAt"] = now
	insert["updatedAt"] = now

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, filter, bson.M{"$setOnInsert": insert}, opts).Decode(out)
	if mongo.IsDuplicateKeyError(err) {
		err = coll.FindOne(ctx, filter).Decode(out)
	}
	return database.MapError(err)
}

func (r *mongoCategoryRepo) FindOrCreate(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	slug := models.Slugify(name)
	if slug == "" {
		return nil, errors.New("category name is empty")
	}

	var category models.Category
	insert := bson.M{"name": name, "slug": slug, "active": true}
	if err := upsertBySlug(ctx, r.coll, bson.M{"slug": slug}, insert, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *mongoCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	category.Slug = models.Slugify(category.Name)
	category.CreatedAt = now
	category.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, category)
	return database.MapError(err)
}

func (r *mongoCategoryRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var category models.Category
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		return nil, database.MapError(err)
	}
	return &category, nil
}

func (r *mongoCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var category models.Category
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&category); err != nil {
		return nil, database.MapError(err)
	}
	return &category, nil
}

func (r *mongoCategoryRepo) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *mongoCategoryRepo) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if name, ok := set["name"].(string); ok {
		set["slug"] = models.Slugify(name)
	}
	set["updatedAt"] = time.Now()

	var category models.Category
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&category); err != nil {
		return nil, database.MapError(err)
	}
	return &category, nil
}

func (r *mongoCategoryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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

func (r *mongoCategoryRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{"active": true})
}

type mongoServiceTypeRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceTypeRepo returns a ServiceTypeRepository backed by MongoDB.
func NewMongoServiceTypeRepo(db *mongo.Database) ServiceTypeRepository {
	repo := &mongoServiceTypeRepo{coll: db.Collection("service_types")}
	if err := createIndexes(repo.coll, serviceTypeIndexes); err != nil {
		utils.GetLogger().Error("service type indexes", zap.Error(err))
	}
	return repo
}

func (r *mongoServiceTypeRepo) FindOrCreate(ctx context.Context, categoryID primitive.ObjectID, name string) (*models.ServiceType, error) {
	name = strings.TrimSpace(name)
	slug := models.Slugify(name)
	if slug == "" {
		return nil, errors.New("service type name is empty")
	}

	var serviceType models.ServiceType
	filter := bson.M{"categoryId": categoryID, "slug": slug}
	insert := bson.M{"categoryId": categoryID, "name": name, "slug": slug}
	if err := upsertBySlug(ctx, r.coll, filter, insert, &serviceType); err != nil {
		return nil, err
	}
	return &serviceType, nil
}

func (r *mongoServiceTypeRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var serviceType models.ServiceType
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&serviceType); err != nil {
		return nil, database.MapError(err)
	}
	return &serviceType, nil
}

func (r *mongoServiceTypeRepo) ListByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.ServiceType, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"categoryId": bson.M{"$in": categoryIDs}}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	types := []models.ServiceType{}
	if err := cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *mongoServiceTypeRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
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

func (r *mongoServiceTypeRepo) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{"categoryId": categoryID})
	return err
}
