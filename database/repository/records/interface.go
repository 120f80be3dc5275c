package recordsRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Query is a filtered, sorted page over a collection.
type Query struct {
	Filter bson.M
	Sort   bson.D
	Skip   int64
	Limit  int64
}

// Store is plain document CRUD over one collection of T. It backs the
// admin-curated and intake collections: team members, testimonials, banners,
// jobs, job applications, investments, women initiatives and inquiries.
type Store[T any] interface {
	// Insert stores doc; the caller assigns its ID and timestamps.
	Insert(ctx context.Context, doc *T) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*T, error)
	// Update applies set and returns the updated document.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*T, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Find(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
}
