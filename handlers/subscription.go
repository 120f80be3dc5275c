package handlers

import (
	"context"
	"net/http"

	"homehub/models"
	"homehub/services/access"
	"homehub/services/payment"
	"homehub/services/subscription"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SubscriptionHandler serves plans, provider subscriptions and premium
// memberships.
type SubscriptionHandler struct {
	Subscriptions subscription.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc subscription.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{Subscriptions: svc}
}

// checkoutResponse pairs a pending record with its payment handle.
type checkoutResponse struct {
	Item    any                 `json:"item"`
	Payment *payment.InitResult `json:"payment,omitempty"`
}

// ListPlansHandler handles GET /api/subscriptions/plans (public, active only)
// and GET /api/admin/subscription-plans (all).
func (h *SubscriptionHandler) ListPlansHandler(activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := h.Subscriptions.ListPlans(c.Request.Context(), activeOnly)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, plans)
	}
}

// CreatePlanHandler handles POST /api/admin/subscription-plans.
func (h *SubscriptionHandler) CreatePlanHandler(c *gin.Context) {
	var input models.PlanInput
	if !bindInput(c, &input) {
		return
	}
	plan, err := h.Subscriptions.CreatePlan(c.Request.Context(), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlanHandler handles PUT /api/admin/subscription-plans/:id.
func (h *SubscriptionHandler) UpdatePlanHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input models.PlanInput
	if !bindInput(c, &input) {
		return
	}
	plan, err := h.Subscriptions.UpdatePlan(c.Request.Context(), id, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlanHandler handles DELETE /api/admin/subscription-plans/:id.
func (h *SubscriptionHandler) DeletePlanHandler(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Subscriptions.DeletePlan(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}

// SubscribeHandler handles POST /api/subscriptions.
func (h *SubscriptionHandler) SubscribeHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var body struct {
		PlanID string `json:"planId" binding:"required"`
	}
	if !bindInput(c, &body) {
		return
	}
	planID, err := utils.ParseObjectID(body.PlanID, "planId")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	sub, init, err := h.Subscriptions.Subscribe(c.Request.Context(), subject.ID, planID)
	if err != nil {
		getLogger(c).Warn("Subscribe failed", zap.String("userId", subject.ID.Hex()), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkoutResponse{Item: sub, Payment: init})
}

// MySubscriptionHandler handles GET /api/subscriptions/me. A missing current
// subscription is reported as null alongside the history.
func (h *SubscriptionHandler) MySubscriptionHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	current, err := h.Subscriptions.Current(ctx, subject.ID)
	if err != nil && utils.StatusOf(err) != http.StatusNotFound {
		utils.RespondError(c, err)
		return
	}
	history, err := h.Subscriptions.History(ctx, subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": current, "history": history})
}

type subscriptionAction func(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error)

func (h *SubscriptionHandler) act(action subscriptionAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := requireSubject(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		sub, err := action(c.Request.Context(), subject, id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sub)
	}
}

// VerifyPaymentHandler handles POST /api/subscriptions/:id/verify-payment.
func (h *SubscriptionHandler) VerifyPaymentHandler(c *gin.Context) {
	h.act(h.Subscriptions.VerifyPayment)(c)
}

// CancelHandler handles POST /api/subscriptions/:id/cancel.
func (h *SubscriptionHandler) CancelHandler(c *gin.Context) {
	h.act(h.Subscriptions.Cancel)(c)
}

// PauseHandler handles POST /api/subscriptions/:id/pause.
func (h *SubscriptionHandler) PauseHandler(c *gin.Context) {
	h.act(h.Subscriptions.Pause)(c)
}

// ResumeHandler handles POST /api/subscriptions/:id/resume.
func (h *SubscriptionHandler) ResumeHandler(c *gin.Context) {
	h.act(h.Subscriptions.Resume)(c)
}

// ListSubscriptionsHandler handles GET /api/admin/subscriptions?status=.
func (h *SubscriptionHandler) ListSubscriptionsHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	subs, total, err := h.Subscriptions.List(c.Request.Context(), models.SubscriptionStatus(c.Query("status")), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, subs, total, page)
}

// TiersHandler handles GET /api/premium/tiers.
func (h *SubscriptionHandler) TiersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Subscriptions.Tiers())
}

// PurchaseMembershipHandler handles POST /api/premium.
func (h *SubscriptionHandler) PurchaseMembershipHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var body struct {
		Tier models.MembershipTier `json:"tier" binding:"required"`
	}
	if !bindInput(c, &body) {
		return
	}

	membership, init, err := h.Subscriptions.PurchaseMembership(c.Request.Context(), subject.ID, body.Tier)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkoutResponse{Item: membership, Payment: init})
}

// VerifyMembershipHandler handles POST /api/premium/:id/verify-payment.
func (h *SubscriptionHandler) VerifyMembershipHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	membership, err := h.Subscriptions.VerifyMembership(c.Request.Context(), subject, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// MyMembershipHandler handles GET /api/premium/me.
func (h *SubscriptionHandler) MyMembershipHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	membership, err := h.Subscriptions.CurrentMembership(c.Request.Context(), subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// CancelMembershipHandler handles POST /api/premium/:id/cancel.
func (h *SubscriptionHandler) CancelMembershipHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	membership, err := h.Subscriptions.CancelMembership(c.Request.Context(), subject, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// ListMembershipsHandler handles GET /api/admin/premium.
func (h *SubscriptionHandler) ListMembershipsHandler(c *gin.Context) {
	page := utils.PageFromQuery(c)
	memberships, total, err := h.Subscriptions.ListMemberships(c.Request.Context(), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	respondPage(c, memberships, total, page)
}
