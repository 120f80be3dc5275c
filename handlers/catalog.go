package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"homehub/middleware"
	"homehub/models"
	"homehub/services/catalog"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CatalogHandler serves categories and provider services.
type CatalogHandler struct {
	Catalog catalog.CatalogService
	URLs    storage.URLResolver
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc catalog.CatalogService, urls storage.URLResolver) *CatalogHandler {
	return &CatalogHandler{Catalog: svc, URLs: urls}
}

// ListCategoriesHandler handles GET /api/categories (active only) and
// GET /api/admin/categories.
func (h *CatalogHandler) ListCategoriesHandler(activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := h.Catalog.ListCategories(c.Request.Context(), activeOnly)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// CreateCategoryHandler handles POST /api/admin/categories.
func (h *CatalogHandler) CreateCategoryHandler(c *gin.Context) {
	var input models.CategoryInput
	if !bindInput(c, &input) {
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// UpdateCategoryHandler handles PUT /api/admin/categories/:id.
func (h *CatalogHandler) UpdateCategoryHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.CategoryInput
	if !bindInput(c, &input) {
		return
	}
	category, err := h.Catalog.UpdateCategory(c.Request.Context(), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DeleteCategoryHandler handles DELETE /api/admin/categories/:id.
func (h *CatalogHandler) DeleteCategoryHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// CreateServiceHandler handles POST /api/services. The route is gated by
// RequireCapability, which leaves the caller's entitlement in the context.
func (h *CatalogHandler) CreateServiceHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var input models.ServiceInput
	if !bindInput(c, &input) {
		return
	}
	photos := uploadedFiles(c, "photos", "photos[]")

	service, err := h.Catalog.CreateService(c.Request.Context(), subject.ID, middleware.EntitlementFrom(c), input, photos)
	if err != nil {
		getLogger(c).Warn("CreateService failed", zap.String("providerId", subject.ID.Hex()), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	resolveService(h.URLs, c.Request, service)
	c.JSON(http.StatusCreated, service)
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, utils.BadRequest("%s must be a number", key)
	}
	return &v, nil
}

// lookupCategory accepts a category id or name and returns the matching
// category and type ids. ok is false when a name matched nothing.
func (h *CatalogHandler) lookupCategory(ctx context.Context, category, serviceType string) (catID, typeID *primitive.ObjectID, ok bool, err error) {
	if category == "" && serviceType == "" {
		return nil, nil, true, nil
	}
	if id, parseErr := primitive.ObjectIDFromHex(category); parseErr == nil {
		catID = &id
		category = ""
	}
	if id, parseErr := primitive.ObjectIDFromHex(serviceType); parseErr == nil {
		typeID = &id
		serviceType = ""
	}
	if category == "" && serviceType == "" {
		return catID, typeID, true, nil
	}

	categories, err := h.Catalog.ListCategories(ctx, false)
	if err != nil {
		return nil, nil, false, err
	}
	catSlug, typeSlug := models.Slugify(category), models.Slugify(serviceType)
	for i := range categories {
		cat := &categories[i]
		if category != "" && cat.Slug != catSlug {
			continue
		}
		if category != "" {
			id := cat.ID
			catID = &id
		}
		if serviceType == "" {
			return catID, typeID, true, nil
		}
		for _, t := range cat.Types {
			if t.Slug == typeSlug && (catID == nil || t.CategoryID == *catID) {
				id := t.ID
				return catID, &id, true, nil
			}
		}
	}
	return nil, nil, false, nil
}

// ListServicesHandler handles GET /api/services.
func (h *CatalogHandler) ListServicesHandler(c *gin.Context) {
	ctx := c.Request.Context()
	page := utils.PageFromQuery(c)
	filter := models.ServiceFilter{
		Query: strings.TrimSpace(c.Query("q")),
		Skip:  page.Skip(),
		Limit: page.Limit,
	}

	var err error
	if filter.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		utils.RespondError(c, err)
		return
	}
	if filter.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		utils.RespondError(c, err)
		return
	}
	lat, err := queryFloat(c, "lat")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if lat != nil && lng != nil {
		filter.Near = &models.GeoPoint{Type: "Point", Coordinates: []float64{*lng, *lat}}
		radius, err := queryFloat(c, "radiusKm")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		if radius != nil {
			filter.RadiusKm = *radius
		}
	}
	if raw := c.Query("provider"); raw != "" {
		id, err := utils.ParseObjectID(raw, "provider")
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		filter.ProviderID = &id
	}

	catID, typeID, matched, err := h.lookupCategory(ctx, strings.TrimSpace(c.Query("category")), strings.TrimSpace(c.Query("type")))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !matched {
		c.JSON(http.StatusOK, []models.Service{})
		return
	}
	filter.CategoryID, filter.ServiceTypeID = catID, typeID

	services, err := h.Catalog.ListServices(ctx, filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveServices(h.URLs, c.Request, services)
	c.JSON(http.StatusOK, services)
}

// MyServicesHandler handles GET /api/services/mine.
func (h *CatalogHandler) MyServicesHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	services, err := h.Catalog.ListProviderServices(c.Request.Context(), subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveServices(h.URLs, c.Request, services)
	c.JSON(http.StatusOK, services)
}

// GetServiceHandler handles GET /api/services/:id.
func (h *CatalogHandler) GetServiceHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	service, err := h.Catalog.GetService(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveService(h.URLs, c.Request, service)
	c.JSON(http.StatusOK, service)
}

// UpdateServiceHandler handles PUT /api/services/:id.
func (h *CatalogHandler) UpdateServiceHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.ServiceInput
	if !bindInput(c, &input) {
		return
	}

	service, err := h.Catalog.UpdateService(c.Request.Context(), subject, id, input, uploadedFiles(c, "photos", "photos[]"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveService(h.URLs, c.Request, service)
	c.JSON(http.StatusOK, service)
}

// DeleteServiceHandler handles DELETE /api/services/:id.
func (h *CatalogHandler) DeleteServiceHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteService(c.Request.Context(), subject, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Service deleted", zap.String("serviceId", id.Hex()), zap.String("by", subject.ID.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}
