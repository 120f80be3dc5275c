package catalog

import (
	"context"
	"errors"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultCatalogService) withTypes(ctx context.Context, categories []models.Category) ([]models.CategoryWithTypes, error) {
	ids := make([]primitive.ObjectID, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	types, err := s.ServiceTypes.ListByCategories(ctx, ids)
	if err != nil {
		return nil, utils.Internal("Failed to load service types", err)
	}

	byCategory := make(map[primitive.ObjectID][]models.ServiceType)
	for _, t := range types {
		byCategory[t.CategoryID] = append(byCategory[t.CategoryID], t)
	}

	out := make([]models.CategoryWithTypes, len(categories))
	for i, c := range categories {
		out[i] = models.CategoryWithTypes{Category: c, Types: byCategory[c.ID]}
		if out[i].Types == nil {
			out[i].Types = []models.ServiceType{}
		}
	}
	return out, nil
}

func (s *DefaultCatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.CategoryWithTypes, error) {
	categories, err := s.Categories.List(ctx, activeOnly)
	if err != nil {
		return nil, utils.Internal("Failed to list categories", err)
	}
	return s.withTypes(ctx, categories)
}

func (s *DefaultCatalogService) addTypes(ctx context.Context, categoryID primitive.ObjectID, names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, err := s.ServiceTypes.FindOrCreate(ctx, categoryID, name); err != nil {
			return utils.Internal("Failed to save service type", err)
		}
	}
	return nil
}

func (s *DefaultCatalogService) single(ctx context.Context, category *models.Category) (*models.CategoryWithTypes, error) {
	out, err := s.withTypes(ctx, []models.Category{*category})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *DefaultCatalogService) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.CategoryWithTypes, error) {
	name := strings.TrimSpace(input.Name)
	if models.Slugify(name) == "" {
		return nil, utils.BadRequest("Category name is required")
	}

	category := &models.Category{Name: name, Active: true}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Icon != nil {
		category.Icon = *input.Icon
	}
	if input.Active != nil {
		category.Active = *input.Active
	}

	if err := s.Categories.Create(ctx, category); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, utils.Conflict("Category %q already exists", name)
		}
		return nil, utils.Internal("Failed to create category", err)
	}
	if err := s.addTypes(ctx, category.ID, input.Types); err != nil {
		return nil, err
	}
	return s.single(ctx, category)
}

func (s *DefaultCatalogService) UpdateCategory(ctx context.Context, id primitive.ObjectID, input models.CategoryInput) (*models.CategoryWithTypes, error) {
	set := bson.M{}
	if name := strings.TrimSpace(input.Name); name != "" {
		set["name"] = name
	}
	if input.Description != nil {
		set["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Icon != nil {
		set["icon"] = *input.Icon
	}
	if input.Active != nil {
		set["active"] = *input.Active
	}

	var category *models.Category
	var err error
	if len(set) > 0 {
		category, err = s.Categories.Update(ctx, id, set)
	} else {
		category, err = s.Categories.GetByID(ctx, id)
	}
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, utils.NotFound("Category not found")
	case errors.Is(err, database.ErrDuplicate):
		return nil, utils.Conflict("Category %q already exists", input.Name)
	case err != nil:
		return nil, utils.Internal("Failed to update category", err)
	}

	if err := s.addTypes(ctx, id, input.Types); err != nil {
		return nil, err
	}
	return s.single(ctx, category)
}

// DeleteCategory refuses while services still reference the category.
func (s *DefaultCatalogService) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	inUse, err := s.Services.CountByCategory(ctx, id)
	if err != nil {
		return utils.Internal("Failed to delete category", err)
	}
	if inUse > 0 {
		return utils.Conflict("Category is used by %d services", inUse)
	}

	if err := s.Categories.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Category not found")
		}
		return utils.Internal("Failed to delete category", err)
	}
	if err := s.ServiceTypes.DeleteByCategory(ctx, id); err != nil {
		utils.GetLogger().Warn("Failed to delete service types of category", zap.String("categoryId", id.Hex()), zap.Error(err))
	}
	return nil
}

// resolveCategory accepts a category id or name; unknown names are created.
func (s *DefaultCatalogService) resolveCategory(ctx context.Context, ref string) (*models.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, utils.BadRequest("Category is required")
	}
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		category, err := s.Categories.GetByID(ctx, id)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, utils.Internal("Failed to resolve category", err)
		}
		return nil, utils.BadRequest("Unknown category")
	}
	category, err := s.Categories.FindOrCreate(ctx, ref)
	if err != nil {
		return nil, utils.Internal("Failed to resolve category", err)
	}
	return category, nil
}

// resolveServiceType accepts a type id or name scoped to categoryID. An
// empty ref resolves to nil.
func (s *DefaultCatalogService) resolveServiceType(ctx context.Context, categoryID primitive.ObjectID, ref string) (*models.ServiceType, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		st, err := s.ServiceTypes.GetByID(ctx, id)
		if err != nil || st.CategoryID != categoryID {
			return nil, utils.BadRequest("Service type does not belong to the category")
		}
		return st, nil
	}
	st, err := s.ServiceTypes.FindOrCreate(ctx, categoryID, ref)
	if err != nil {
		return nil, utils.Internal("Failed to resolve service type", err)
	}
	return st, nil
}
