package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/review"
	"homehub/utils"

	"github.com/gin-gonic/gin"
)

// ReviewHandler serves service reviews.
type ReviewHandler struct {
	Reviews review.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc review.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: svc}
}

// SubmitReviewHandler handles POST /api/services/:id/reviews. Guests must
// give a name.
func (h *ReviewHandler) SubmitReviewHandler(c *gin.Context) {
	serviceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.ReviewInput
	if !bindInput(c, &input) {
		return
	}

	rev, err := h.Reviews.Submit(c.Request.Context(), optionalSubject(c), serviceID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

// ListReviewsHandler handles GET /api/services/:id/reviews.
func (h *ReviewHandler) ListReviewsHandler(c *gin.Context) {
	serviceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	reviews, total, err := h.Reviews.List(c.Request.Context(), serviceID, page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, reviews, total, page)
}

// DeleteReviewHandler handles DELETE /api/reviews/:id.
func (h *ReviewHandler) DeleteReviewHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Reviews.Delete(c.Request.Context(), subject, id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
