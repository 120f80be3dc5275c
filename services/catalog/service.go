package catalog

import (
	"context"
	"errors"
	"mime/multipart"
	"path"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/storage"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const photoFolder = "services"

func validCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return utils.BadRequest("Latitude and longitude must be given together")
	}
	if lat != nil && (*lat < -90 || *lat > 90 || *lng < -180 || *lng > 180) {
		return utils.BadRequest("Coordinates are out of range")
	}
	return nil
}

// Titles end up in notification subjects.
func singleLineTitle(title string) error {
	if strings.ContainsAny(title, "\r\n") {
		return utils.BadRequest("Title must be a single line")
	}
	return nil
}

func parseServiceStatus(raw string) (models.ServiceStatus, error) {
	switch models.ServiceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.ServiceStatusActive:
		return models.ServiceStatusActive, nil
	case models.ServiceStatusInactive:
		return models.ServiceStatusInactive, nil
	}
	return "", utils.BadRequest("Status must be active or inactive")
}

func (s *DefaultCatalogService) CreateService(ctx context.Context, providerID primitive.ObjectID, ent *access.Entitlement, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, utils.BadRequest("Title is required")
	}
	if err := singleLineTitle(title); err != nil {
		return nil, err
	}
	if input.Price == nil || *input.Price < 0 {
		return nil, utils.BadRequest("A non-negative price is required")
	}
	if err := validCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}
	status, err := parseServiceStatus(input.Status)
	if err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	serviceType, err := s.resolveServiceType(ctx, category.ID, input.ServiceType)
	if err != nil {
		return nil, err
	}

	refs, err := storage.SaveAll(ctx, s.Files, photos, photoFolder)
	if err != nil {
		return nil, err
	}

	service := &models.Service{
		ProviderID:   providerID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Price:        *input.Price,
		PriceUnit:    strings.TrimSpace(input.PriceUnit),
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Address:      strings.TrimSpace(input.Address),
		Photos:       refs,
		Status:       status,
		Featured:     ent != nil && ent.Featured,
	}
	if serviceType != nil {
		service.ServiceTypeID = serviceType.ID
		service.TypeName = serviceType.Name
	}

	if err := s.Services.Create(ctx, service); err != nil {
		storage.DeleteAll(ctx, s.Files, refs)
		return nil, utils.Internal("Failed to create service", err)
	}
	utils.GetLogger().Info("Service published", zap.String("serviceId", service.ID.Hex()), zap.String("providerId", providerID.Hex()))
	return service, nil
}

func (s *DefaultCatalogService) GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	service, err := s.Services.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Service not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load service", err)
	}
	return service, nil
}

func (s *DefaultCatalogService) ListServices(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	if filter.Near != nil && filter.RadiusKm < 0 {
		return nil, utils.BadRequest("radiusKm must be positive")
	}
	services, err := s.Services.List(ctx, filter)
	if err != nil {
		return nil, utils.Internal("Failed to list services", err)
	}
	return services, nil
}

func (s *DefaultCatalogService) ListProviderServices(ctx context.Context, providerID primitive.ObjectID) ([]models.Service, error) {
	return s.ListServices(ctx, models.ServiceFilter{ProviderID: &providerID, IncludeAll: true})
}

func (s *DefaultCatalogService) owned(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Service, error) {
	service, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if service.ProviderID != actor.ID && !actor.Role.IsAdmin() {
		return nil, utils.Forbidden("You can only manage your own services")
	}
	return service, nil
}

// keepRef reports whether a stored photo ref is listed in keep. Clients send
// back the absolute URLs they were given, so local refs match on file name.
func keepRef(ref string, keep []string) bool {
	for _, k := range keep {
		if k == ref || (!strings.Contains(ref, "://") && path.Base(k) == ref) {
			return true
		}
	}
	return false
}

func (s *DefaultCatalogService) UpdateService(ctx context.Context, actor access.Subject, id primitive.ObjectID, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error) {
	service, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		if err := singleLineTitle(title); err != nil {
			return nil, err
		}
		service.Title = title
	}
	if input.Description != "" {
		service.Description = strings.TrimSpace(input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, utils.BadRequest("Price cannot be negative")
		}
		service.Price = *input.Price
	}
	if input.PriceUnit != "" {
		service.PriceUnit = strings.TrimSpace(input.PriceUnit)
	}
	if input.Address != "" {
		service.Address = strings.TrimSpace(input.Address)
	}
	if input.Latitude != nil || input.Longitude != nil {
		if err := validCoordinates(input.Latitude, input.Longitude); err != nil {
			return nil, err
		}
		service.Latitude, service.Longitude = input.Latitude, input.Longitude
	}
	if input.Status != "" {
		if service.Status, err = parseServiceStatus(input.Status); err != nil {
			return nil, err
		}
	}
	if input.Category != "" {
		category, err := s.resolveCategory(ctx, input.Category)
		if err != nil {
			return nil, err
		}
		if category.ID != service.CategoryID {
			service.ServiceTypeID, service.TypeName = primitive.NilObjectID, ""
		}
		service.CategoryID, service.CategoryName = category.ID, category.Name
	}
	if input.ServiceType != "" {
		serviceType, err := s.resolveServiceType(ctx, service.CategoryID, input.ServiceType)
		if err != nil {
			return nil, err
		}
		service.ServiceTypeID, service.TypeName = serviceType.ID, serviceType.Name
	}

	var removed []string
	if input.KeepPhotos != nil {
		kept := []string{}
		for _, ref := range service.Photos {
			if keepRef(ref, input.KeepPhotos) {
				kept = append(kept, ref)
			} else {
				removed = append(removed, ref)
			}
		}
		service.Photos = kept
	}
	added, err := storage.SaveAll(ctx, s.Files, photos, photoFolder)
	if err != nil {
		return nil, err
	}
	service.Photos = append(service.Photos, added...)

	if err := s.Services.Replace(ctx, service); err != nil {
		storage.DeleteAll(ctx, s.Files, added)
		return nil, utils.Internal("Failed to update service", err)
	}
	storage.DeleteAll(ctx, s.Files, removed)
	return service, nil
}

func (s *DefaultCatalogService) DeleteService(ctx context.Context, actor access.Subject, id primitive.ObjectID) error {
	service, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Services.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Service not found")
		}
		return utils.Internal("Failed to delete service", err)
	}
	storage.DeleteAll(ctx, s.Files, service.Photos)
	return nil
}

// EnsureReferences backfills category and type ids on services stored
// before they were normalized, resolving them by name.
func (s *DefaultCatalogService) EnsureReferences(ctx context.Context, service *models.Service) error {
	if !service.CategoryID.IsZero() && (service.TypeName == "" || !service.ServiceTypeID.IsZero()) {
		return nil
	}
	if service.CategoryName == "" {
		return utils.BadRequest("Service has no category")
	}

	category, err := s.Categories.FindOrCreate(ctx, service.CategoryName)
	if err != nil {
		return utils.Internal("Failed to resolve category", err)
	}
	service.CategoryID = category.ID

	if service.TypeName != "" {
		serviceType, err := s.ServiceTypes.FindOrCreate(ctx, category.ID, service.TypeName)
		if err != nil {
			return utils.Internal("Failed to resolve service type", err)
		}
		service.ServiceTypeID = serviceType.ID
	}

	if err := s.Services.Replace(ctx, service); err != nil {
		utils.GetLogger().Warn("Failed to backfill service references", zap.String("serviceId", service.ID.Hex()), zap.Error(err))
	}
	return nil
}
