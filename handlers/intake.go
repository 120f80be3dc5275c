package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/intake"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IntakeHandler serves the public forms: investments, the women initiative
// and static inquiries.
type IntakeHandler struct {
	Intake intake.IntakeService
	URLs   storage.URLResolver
}

// NewIntakeHandler creates a new IntakeHandler.
func NewIntakeHandler(svc intake.IntakeService, urls storage.URLResolver) *IntakeHandler {
	return &IntakeHandler{Intake: svc, URLs: urls}
}

// SubmitInvestmentHandler handles POST /api/investments.
func (h *IntakeHandler) SubmitInvestmentHandler(c *gin.Context) {
	var input models.InvestmentInput
	if !bindInput(c, &input) {
		return
	}
	inv, err := h.Intake.SubmitInvestment(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// ListInvestmentsHandler handles GET /api/admin/investments?status=.
func (h *IntakeHandler) ListInvestmentsHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	items, total, err := h.Intake.ListInvestments(c.Request.Context(), models.IntakeStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, items, total, page)
}

// SetInvestmentStatusHandler handles PATCH /api/admin/investments/:id/status.
func (h *IntakeHandler) SetInvestmentStatusHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body statusBody
	if !bindInput(c, &body) {
		return
	}
	inv, err := h.Intake.SetInvestmentStatus(c.Request.Context(), id, models.IntakeStatus(body.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// ApplyWomenInitiativeHandler handles POST /api/women-initiatives with
// optional multipart "documents".
func (h *IntakeHandler) ApplyWomenInitiativeHandler(c *gin.Context) {
	var input models.WomenInitiativeInput
	if !bindInput(c, &input) {
		return
	}
	app, err := h.Intake.ApplyWomenInitiative(c.Request.Context(), input, uploadedFiles(c, "documents", "documents[]"))
	if err != nil {
		getLogger(c).Info("Women initiative application rejected", zap.String("email", input.Email), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application received", "id": app.ID})
}

// ListWomenInitiativesHandler handles GET /api/admin/women-initiatives?status=.
func (h *IntakeHandler) ListWomenInitiativesHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	items, total, err := h.Intake.ListWomenInitiatives(c.Request.Context(), models.ReviewDecision(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	for i := range items {
		items[i].Documents = h.URLs.AbsoluteAll(items[i].Documents, c.Request)
	}
	respondPage(c, items, total, page)
}

// DecideWomenInitiativeHandler handles POST /api/admin/women-initiatives/:id/decision.
func (h *IntakeHandler) DecideWomenInitiativeHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.DecisionInput
	if !bindInput(c, &input) {
		return
	}

	app, err := h.Intake.DecideWomenInitiative(c.Request.Context(), subject.ID, id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	app.Documents = h.URLs.AbsoluteAll(app.Documents, c.Request)
	c.JSON(http.StatusOK, app)
}

// SubmitInquiryHandler handles POST /api/inquiries/:kind.
func (h *IntakeHandler) SubmitInquiryHandler(c *gin.Context) {
	var input models.InquiryInput
	if !bindInput(c, &input) {
		return
	}
	inquiry, err := h.Intake.SubmitInquiry(c.Request.Context(), models.InquiryKind(c.Param("kind")), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thank you, we will be in touch", "id": inquiry.ID})
}

// ListInquiriesHandler handles GET /api/admin/inquiries?kind=.
func (h *IntakeHandler) ListInquiriesHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	items, total, err := h.Intake.ListInquiries(c.Request.Context(), models.InquiryKind(c.Query("kind")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, items, total, page)
}
