package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/offer"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OfferHandler serves special offers.
type OfferHandler struct {
	Offers offer.OfferService
	URLs   storage.URLResolver
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(svc offer.OfferService, urls storage.URLResolver) *OfferHandler {
	return &OfferHandler{Offers: svc, URLs: urls}
}

func (h *OfferHandler) respond(c *gin.Context, status int, o *models.SpecialOffer) {
	o.Image = h.URLs.Absolute(o.Image, c.Request)
	c.JSON(status, o)
}

// ListOffersHandler handles GET /api/offers.
func (h *OfferHandler) ListOffersHandler(c *gin.Context) {
	offers, err := h.Offers.ListRedeemable(c.Request.Context(), utils.PageFromQuery(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveOffers(h.URLs, c.Request, offers)
	c.JSON(http.StatusOK, offers)
}

// MyOffersHandler handles GET /api/offers/mine.
func (h *OfferHandler) MyOffersHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	offers, err := h.Offers.ListMine(c.Request.Context(), subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveOffers(h.URLs, c.Request, offers)
	c.JSON(http.StatusOK, offers)
}

// GetOfferHandler handles GET /api/offers/:id.
func (h *OfferHandler) GetOfferHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Offers.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, o)
}

// CreateOfferHandler handles POST /api/offers.
func (h *OfferHandler) CreateOfferHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var input models.OfferInput
	if !bindInput(c, &input) {
		return
	}

	o, err := h.Offers.Create(c.Request.Context(), subject, input, uploadedFile(c, "image"))
	if err != nil {
		getLogger(c).Warn("CreateOffer failed", zap.String("providerId", subject.ID.Hex()), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	h.respond(c, http.StatusCreated, o)
}

// UpdateOfferHandler handles PUT /api/offers/:id.
func (h *OfferHandler) UpdateOfferHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.OfferInput
	if !bindInput(c, &input) {
		return
	}

	o, err := h.Offers.Update(c.Request.Context(), subject, id, input, uploadedFile(c, "image"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, o)
}

// DeleteOfferHandler handles DELETE /api/offers/:id.
func (h *OfferHandler) DeleteOfferHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Offers.Delete(c.Request.Context(), subject, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer deleted"})
}

// RedeemOfferHandler handles POST /api/offers/:id/redeem.
func (h *OfferHandler) RedeemOfferHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Offers.Redeem(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	h.respond(c, http.StatusOK, o)
}
