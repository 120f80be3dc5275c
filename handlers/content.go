package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/content"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
)

// ContentHandler serves the admin-curated site content.
type ContentHandler struct {
	Content content.ContentService
	URLs    storage.URLResolver
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(svc content.ContentService, urls storage.URLResolver) *ContentHandler {
	return &ContentHandler{Content: svc, URLs: urls}
}

func (h *ContentHandler) deleted(c *gin.Context, err error, what string) {
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": what + " deleted"})
}

// ListTeamHandler handles GET /api/team and GET /api/admin/team.
func (h *ContentHandler) ListTeamHandler(includeInactive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := h.Content.ListTeam(c.Request.Context(), includeInactive)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		resolveTeam(h.URLs, c.Request, members)
		c.JSON(http.StatusOK, members)
	}
}

// CreateTeamMemberHandler handles POST /api/admin/team.
func (h *ContentHandler) CreateTeamMemberHandler(c *gin.Context) {
	var input models.TeamMemberInput
	if !bindInput(c, &input) {
		return
	}
	member, err := h.Content.CreateTeamMember(c.Request.Context(), input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	member.Image = h.URLs.Absolute(member.Image, c.Request)
	c.JSON(http.StatusCreated, member)
}

// UpdateTeamMemberHandler handles PUT /api/admin/team/:id.
func (h *ContentHandler) UpdateTeamMemberHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.TeamMemberInput
	if !bindInput(c, &input) {
		return
	}
	member, err := h.Content.UpdateTeamMember(c.Request.Context(), id, input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	member.Image = h.URLs.Absolute(member.Image, c.Request)
	c.JSON(http.StatusOK, member)
}

// DeleteTeamMemberHandler handles DELETE /api/admin/team/:id.
func (h *ContentHandler) DeleteTeamMemberHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.deleted(c, h.Content.DeleteTeamMember(c.Request.Context(), id), "Team member")
}

// ListTestimonialsHandler handles GET /api/testimonials and
// GET /api/admin/testimonials.
func (h *ContentHandler) ListTestimonialsHandler(includeInactive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.Content.ListTestimonials(c.Request.Context(), includeInactive)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		resolveTestimonials(h.URLs, c.Request, items)
		c.JSON(http.StatusOK, items)
	}
}

// CreateTestimonialHandler handles POST /api/admin/testimonials.
func (h *ContentHandler) CreateTestimonialHandler(c *gin.Context) {
	var input models.TestimonialInput
	if !bindInput(c, &input) {
		return
	}
	item, err := h.Content.CreateTestimonial(c.Request.Context(), input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	item.Image = h.URLs.Absolute(item.Image, c.Request)
	c.JSON(http.StatusCreated, item)
}

// UpdateTestimonialHandler handles PUT /api/admin/testimonials/:id.
func (h *ContentHandler) UpdateTestimonialHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.TestimonialInput
	if !bindInput(c, &input) {
		return
	}
	item, err := h.Content.UpdateTestimonial(c.Request.Context(), id, input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	item.Image = h.URLs.Absolute(item.Image, c.Request)
	c.JSON(http.StatusOK, item)
}

// DeleteTestimonialHandler handles DELETE /api/admin/testimonials/:id.
func (h *ContentHandler) DeleteTestimonialHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.deleted(c, h.Content.DeleteTestimonial(c.Request.Context(), id), "Testimonial")
}

// ListBannersHandler handles GET /api/banners (live only) and
// GET /api/admin/banners.
func (h *ContentHandler) ListBannersHandler(includeInactive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		banners, err := h.Content.ListBanners(c.Request.Context(), includeInactive)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		resolveBanners(h.URLs, c.Request, banners)
		c.JSON(http.StatusOK, banners)
	}
}

// CreateBannerHandler handles POST /api/admin/banners.
func (h *ContentHandler) CreateBannerHandler(c *gin.Context) {
	var input models.BannerInput
	if !bindInput(c, &input) {
		return
	}
	banner, err := h.Content.CreateBanner(c.Request.Context(), input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	banner.Image = h.URLs.Absolute(banner.Image, c.Request)
	c.JSON(http.StatusCreated, banner)
}

// UpdateBannerHandler handles PUT /api/admin/banners/:id.
func (h *ContentHandler) UpdateBannerHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.BannerInput
	if !bindInput(c, &input) {
		return
	}
	banner, err := h.Content.UpdateBanner(c.Request.Context(), id, input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	banner.Image = h.URLs.Absolute(banner.Image, c.Request)
	c.JSON(http.StatusOK, banner)
}

// DeleteBannerHandler handles DELETE /api/admin/banners/:id.
func (h *ContentHandler) DeleteBannerHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.deleted(c, h.Content.DeleteBanner(c.Request.Context(), id), "Banner")
}
