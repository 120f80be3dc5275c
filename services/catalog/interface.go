package catalog

import (
	"context"
	"mime/multipart"

	catalogRepo "homehub/database/repository/catalog"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogService interface {
	// Categories
	ListCategories(ctx context.Context, activeOnly bool) ([]models.CategoryWithTypes, error)
	CreateCategory(ctx context.Context, input models.CategoryInput) (*models.CategoryWithTypes, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, input models.CategoryInput) (*models.CategoryWithTypes, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error

	// Services
	CreateService(ctx context.Context, providerID primitive.ObjectID, ent *access.Entitlement, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error)
	GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
	ListServices(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error)
	ListProviderServices(ctx context.Context, providerID primitive.ObjectID) ([]models.Service, error)
	UpdateService(ctx context.Context, actor access.Subject, id primitive.ObjectID, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error)
	DeleteService(ctx context.Context, actor access.Subject, id primitive.ObjectID) error
}

// DefaultCatalogService is the production implementation.
type DefaultCatalogService struct {
	Categories   catalogRepo.CategoryRepository
	ServiceTypes catalogRepo.ServiceTypeRepository
	Services     catalogRepo.ServiceRepository
	Files        storage.FileStore
}
