package catalogRepo

import (
	"context"

	"homehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryRepository persists categories.
type CategoryRepository interface {
	// FindOrCreate returns the category whose slug matches name, creating it
	// atomically when missing.
	FindOrCreate(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Count(ctx context.Context) (int64, error)
}

// ServiceTypeRepository persists service types scoped to a category.
type ServiceTypeRepository interface {
	// FindOrCreate returns the type named name inside categoryID, creating it
	// atomically when missing.
	FindOrCreate(ctx context.Context, categoryID primitive.ObjectID, name string) (*models.ServiceType, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error)
	ListByCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.ServiceType, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error
}

// ServiceRepository persists published services.
type ServiceRepository interface {
	Create(ctx context.Context, service *models.Service) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
	// Replace overwrites the stored document with service.
	Replace(ctx context.Context, service *models.Service) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	// CountProviders returns the number of distinct providers with an active service.
	CountProviders(ctx context.Context) (int64, error)
	SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error
	CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
}
