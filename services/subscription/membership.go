package subscription

import (
	"context"
	"errors"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/payment"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultSubscriptionService) Tiers() []models.TierInfo {
	return models.MembershipTiers
}

func (s *DefaultSubscriptionService) PurchaseMembership(ctx context.Context, userID primitive.ObjectID, tier models.MembershipTier) (*models.PremiumMembership, *payment.InitResult, error) {
	info, ok := models.LookupTier(models.MembershipTier(strings.ToLower(string(tier))))
	if !ok {
		return nil, nil, utils.BadRequest("Unknown membership tier %q", tier)
	}

	now := s.now()
	if _, err := s.Memberships.FindActive(ctx, userID, now); err == nil {
		return nil, nil, utils.Conflict("You already have an active membership")
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, nil, utils.Internal("Failed to start membership", err)
	}

	init, err := s.Payments.Initialize(ctx, payment.InitRequest{
		Amount:      info.Price,
		Currency:    s.Currency,
		Description: "Premium membership: " + info.Name,
		Email:       s.emailOf(ctx, userID),
		Metadata:    map[string]string{"kind": "membership", "userId": userID.Hex(), "tier": string(info.Tier)},
	})
	if err != nil {
		return nil, nil, utils.Unavailable("Payment could not be initialized, try again later")
	}

	membership := &models.PremiumMembership{
		UserID:        userID,
		Tier:          info.Tier,
		Status:        models.MembershipPending,
		PaymentStatus: models.PaymentPending,
		PaymentRef:    init.Reference,
		Amount:        info.Price,
		Currency:      s.Currency,
	}
	if err := s.Memberships.Create(ctx, membership); err != nil {
		return nil, nil, utils.Internal("Failed to start membership", err)
	}
	return membership, init, nil
}

func (s *DefaultSubscriptionService) ownedMembership(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.PremiumMembership, error) {
	membership, err := s.Memberships.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Membership not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load membership", err)
	}
	if membership.UserID != actor.ID && !actor.Role.IsAdmin() {
		return nil, utils.NotFound("Membership not found")
	}
	return membership, nil
}

// VerifyMembership confirms the payment and starts the membership period.
func (s *DefaultSubscriptionService) VerifyMembership(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.PremiumMembership, error) {
	membership, err := s.ownedMembership(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if membership.Status == models.MembershipActive && membership.PaymentStatus.Settled() {
		return membership, nil
	}
	if membership.Status != models.MembershipPending {
		return nil, utils.Conflict("Membership is %s", membership.Status)
	}
	if err := s.verifyCharge(ctx, membership.PaymentRef, membership.Amount); err != nil {
		return nil, err
	}

	duration := defaultDurationDays
	if info, ok := models.LookupTier(membership.Tier); ok && info.DurationDays > 0 {
		duration = info.DurationDays
	}
	now := s.now()
	updated, err := s.Memberships.Update(ctx, membership.ID, bson.M{
		"status":        models.MembershipActive,
		"paymentStatus": models.PaymentPaid,
		"startDate":     now,
		"endDate":       now.Add(days(duration)),
	})
	if err != nil {
		return nil, utils.Internal("Failed to activate membership", err)
	}
	utils.GetLogger().Info("Membership activated", zap.String("membershipId", membership.ID.Hex()), zap.String("tier", string(membership.Tier)))
	return updated, nil
}

func (s *DefaultSubscriptionService) CurrentMembership(ctx context.Context, userID primitive.ObjectID) (*models.PremiumMembership, error) {
	membership, err := s.Memberships.FindActive(ctx, userID, s.now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("No active membership")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load membership", err)
	}
	return membership, nil
}

func (s *DefaultSubscriptionService) CancelMembership(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.PremiumMembership, error) {
	membership, err := s.ownedMembership(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if membership.Status != models.MembershipActive && membership.Status != models.MembershipPending {
		return nil, utils.Conflict("Membership is %s", membership.Status)
	}
	updated, err := s.Memberships.Update(ctx, membership.ID, bson.M{"status": models.MembershipCancelled})
	if err != nil {
		return nil, utils.Internal("Failed to cancel membership", err)
	}
	return updated, nil
}

func (s *DefaultSubscriptionService) ListMemberships(ctx context.Context, page utils.Page) ([]models.PremiumMembership, int64, error) {
	memberships, total, err := s.Memberships.List(ctx, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list memberships", err)
	}
	return memberships, total, nil
}
