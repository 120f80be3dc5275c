package recordsRepo

import (
	"context"
	"time"

	"homehub/database"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoStore[T any] struct {
	coll *mongo.Collection
}

// NewMongoStore returns a Store over the named collection and creates indexes.
func NewMongoStore[T any](db *mongo.Database, collection string, indexes ...mongo.IndexModel) Store[T] {
	store := &mongoStore[T]{coll: db.Collection(collection)}
	if len(indexes) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := store.coll.Indexes().CreateMany(ctx, indexes); err != nil {
			utils.GetLogger().Error("failed to create indexes", zap.String("collection", collection), zap.Error(err))
		}
	}
	return store
}

// Insert stores a new document.
func (s *mongoStore[T]) Insert(ctx context.Context, doc *T) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.coll.InsertOne(ctx, doc)
	return database.MapError(err)
}

// GetByID returns a document by its ObjectID.
func (s *mongoStore[T]) GetByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc T
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, database.MapError(err)
	}
	return &doc, nil
}

// Update applies set and stamps updatedAt.
func (s *mongoStore[T]) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set["updatedAt"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, database.MapError(err)
	}
	return &doc, nil
}

// Delete removes a document by ID.
func (s *mongoStore[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Find runs q and decodes every match.
func (s *mongoStore[T]) Find(ctx context.Context, q Query) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Count returns the number of documents matching filter.
func (s *mongoStore[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if filter == nil {
		filter = bson.M{}
	}
	return s.coll.CountDocuments(ctx, filter)
}
