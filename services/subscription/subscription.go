package subscription

import (
	"context"
	"errors"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/payment"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultSubscriptionService) Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*models.Subscription, *payment.InitResult, error) {
	plan, err := s.Plans.GetByID(ctx, planID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !plan.Active) {
		return nil, nil, utils.NotFound("Plan not found")
	}
	if err != nil {
		return nil, nil, utils.Internal("Failed to subscribe", err)
	}

	now := s.now()
	current, err := s.Subscriptions.FindCurrent(ctx, userID)
	switch {
	case err == nil && current.IsActive(now):
		return nil, nil, utils.Conflict("You already have an active subscription")
	case err == nil && current.Status == models.SubscriptionPaused:
		return nil, nil, utils.Conflict("Resume or cancel your paused subscription first")
	case err != nil && !errors.Is(err, database.ErrNotFound):
		return nil, nil, utils.Internal("Failed to subscribe", err)
	}

	duration := plan.DurationDays
	if duration <= 0 {
		duration = defaultDurationDays
	}
	sub := &models.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		PlanName:  plan.Name,
		Limits:    plan.Limits,
		Featured:  plan.Featured,
		Status:    models.SubscriptionActive,
		StartDate: now,
		EndDate:   now.Add(days(duration)),
		Amount:    plan.Price,
		Currency:  plan.Currency,
	}
	if sub.Currency == "" {
		sub.Currency = s.Currency
	}

	if plan.TrialDays > 0 {
		trialed, err := s.Subscriptions.HasTrialed(ctx, userID)
		if err != nil {
			return nil, nil, utils.Internal("Failed to subscribe", err)
		}
		if !trialed {
			trialEnd := now.Add(days(plan.TrialDays))
			sub.Status = models.SubscriptionTrial
			sub.TrialEndsAt = &trialEnd
		}
	}

	var init *payment.InitResult
	if plan.IsFree() {
		sub.PaymentStatus = models.PaymentFree
	} else {
		sub.PaymentStatus = models.PaymentPending
		init, err = s.Payments.Initialize(ctx, payment.InitRequest{
			Amount:      plan.Price,
			Currency:    sub.Currency,
			Description: "Subscription: " + plan.Name,
			Email:       s.emailOf(ctx, userID),
			Metadata:    map[string]string{"kind": "subscription", "userId": userID.Hex(), "planId": plan.ID.Hex()},
		})
		if err != nil {
			if sub.Status != models.SubscriptionTrial {
				return nil, nil, utils.Unavailable("Payment could not be initialized, try again later")
			}
			// A trial can start now and be paid for later.
			utils.GetLogger().Warn("Payment init failed for trial", zap.String("userId", userID.Hex()), zap.Error(err))
		} else {
			sub.PaymentRef = init.Reference
		}
	}

	if err := s.Subscriptions.Create(ctx, sub); err != nil {
		return nil, nil, utils.Internal("Failed to subscribe", err)
	}
	utils.GetLogger().Info("Subscription created",
		zap.String("subscriptionId", sub.ID.Hex()),
		zap.String("plan", plan.Name),
		zap.String("status", string(sub.Status)),
	)
	return sub, init, nil
}

func (s *DefaultSubscriptionService) owned(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error) {
	sub, err := s.Subscriptions.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Subscription not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load subscription", err)
	}
	if sub.UserID != actor.ID && !actor.Role.IsAdmin() {
		return nil, utils.NotFound("Subscription not found")
	}
	return sub, nil
}

// verifyCharge checks a payment reference with the gateway.
func (s *DefaultSubscriptionService) verifyCharge(ctx context.Context, ref string, amount float64) error {
	if ref == "" {
		return utils.BadRequest("No payment has been started for this item")
	}
	result, err := s.Payments.Verify(ctx, ref)
	if errors.Is(err, payment.ErrNotConfigured) {
		return utils.Unavailable("Payments are not available")
	}
	if err != nil {
		return utils.Unavailable("Payment could not be verified, try again later")
	}
	if !result.Paid {
		return utils.BadRequest("Payment has not been completed")
	}
	if result.Amount+0.005 < amount {
		return utils.BadRequest("Paid amount does not cover the price")
	}
	return nil
}

func (s *DefaultSubscriptionService) VerifyPayment(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error) {
	sub, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if sub.PaymentStatus.Settled() {
		return sub, nil
	}
	if sub.Status != models.SubscriptionActive && sub.Status != models.SubscriptionTrial {
		return nil, utils.Conflict("Subscription is %s", sub.Status)
	}
	if err := s.verifyCharge(ctx, sub.PaymentRef, sub.Amount); err != nil {
		return nil, err
	}

	updated, err := s.Subscriptions.UpdateIf(ctx, sub.ID, sub.Status, bson.M{"paymentStatus": models.PaymentPaid})
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.Conflict("Subscription changed while verifying payment")
	}
	if err != nil {
		return nil, utils.Internal("Failed to record payment", err)
	}
	utils.GetLogger().Info("Subscription paid", zap.String("subscriptionId", sub.ID.Hex()))
	return updated, nil
}

func (s *DefaultSubscriptionService) Current(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error) {
	sub, err := s.Subscriptions.FindCurrent(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("No current subscription")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load subscription", err)
	}
	return sub, nil
}

func (s *DefaultSubscriptionService) History(ctx context.Context, userID primitive.ObjectID) ([]models.Subscription, error) {
	subs, err := s.Subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.Internal("Failed to load subscriptions", err)
	}
	return subs, nil
}

// transition moves an owned subscription out of one of the from states.
func (s *DefaultSubscriptionService) transition(ctx context.Context, actor access.Subject, id primitive.ObjectID, from []models.SubscriptionStatus, set func(*models.Subscription) bson.M) (*models.Subscription, error) {
	sub, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		allowed = allowed || sub.Status == st
	}
	if !allowed {
		return nil, utils.Conflict("Subscription is %s", sub.Status)
	}

	updated, err := s.Subscriptions.UpdateIf(ctx, sub.ID, sub.Status, set(sub))
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.Conflict("Subscription was changed by someone else, reload and retry")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update subscription", err)
	}
	return updated, nil
}

func (s *DefaultSubscriptionService) Cancel(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error) {
	return s.transition(ctx, actor, id,
		[]models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionTrial, models.SubscriptionPaused},
		func(*models.Subscription) bson.M {
			return bson.M{"status": models.SubscriptionCancelled}
		})
}

func (s *DefaultSubscriptionService) Pause(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error) {
	now := s.now()
	return s.transition(ctx, actor, id,
		[]models.SubscriptionStatus{models.SubscriptionActive},
		func(*models.Subscription) bson.M {
			return bson.M{"status": models.SubscriptionPaused, "pausedAt": now}
		})
}

// Resume reactivates a paused subscription and pushes the end date out by
// the time it spent paused.
func (s *DefaultSubscriptionService) Resume(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error) {
	now := s.now()
	return s.transition(ctx, actor, id,
		[]models.SubscriptionStatus{models.SubscriptionPaused},
		func(sub *models.Subscription) bson.M {
			end := sub.EndDate
			if sub.PausedAt != nil && now.After(*sub.PausedAt) {
				end = end.Add(now.Sub(*sub.PausedAt))
			}
			return bson.M{"status": models.SubscriptionActive, "endDate": end, "pausedAt": nil}
		})
}

func (s *DefaultSubscriptionService) List(ctx context.Context, status models.SubscriptionStatus, page utils.Page) ([]models.Subscription, int64, error) {
	subs, total, err := s.Subscriptions.List(ctx, status, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list subscriptions", err)
	}
	return subs, total, nil
}
