package handlers

import (
	"net/http"
	"strings"

	"homehub/models"
	"homehub/services/booking"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeader lets clients retry a booking submission safely.
const IdempotencyHeader = "Idempotency-Key"

// BookingHandler serves the booking endpoints.
type BookingHandler struct {
	BookingSvc booking.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{BookingSvc: svc}
}

// CreateBookingHandler handles POST /api/bookings. Signed-in seekers book
// as themselves; anonymous callers must supply guest details.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	created, isNew, err := h.BookingSvc.CreateBooking(c.Request.Context(), optionalSubject(c), req, key)
	if err != nil {
		getLogger(c).Warn("CreateBooking failed", zap.String("serviceId", req.ServiceID), zap.Error(err))
		utils.RespondError(c, err)
		return
	}

	status := http.StatusCreated
	if !isNew {
		status = http.StatusOK
	}
	c.JSON(status, created)
}

// MyBookingsHandler handles GET /api/bookings/my.
func (h *BookingHandler) MyBookingsHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	bookings, total, err := h.BookingSvc.ListForUser(c.Request.Context(), subject.ID, models.BookingStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, bookings, total, page)
}

// ProviderBookingsHandler handles GET /api/bookings/provider.
func (h *BookingHandler) ProviderBookingsHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	page := utils.PageFromQuery(c)
	bookings, total, err := h.BookingSvc.ListForProvider(c.Request.Context(), subject.ID, models.BookingStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, bookings, total, page)
}

// AllBookingsHandler handles GET /api/admin/bookings.
func (h *BookingHandler) AllBookingsHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	bookings, total, err := h.BookingSvc.ListAll(c.Request.Context(), models.BookingStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, bookings, total, page)
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.BookingSvc.GetBooking(c.Request.Context(), subject, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// UpdateStatusHandler handles PATCH /api/bookings/:id/status.
func (h *BookingHandler) UpdateStatusHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body statusBody
	if !bindInput(c, &body) {
		return
	}

	b, err := h.BookingSvc.UpdateStatus(c.Request.Context(), subject, id, models.BookingStatus(body.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Booking status changed",
		zap.String("bookingId", id.Hex()),
		zap.String("status", body.Status),
		zap.String("by", subject.ID.Hex()))
	c.JSON(http.StatusOK, b)
}
