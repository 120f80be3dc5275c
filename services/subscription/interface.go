package subscription

import (
	"context"
	"time"

	subscriptionRepo "homehub/database/repository/subscription"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/payment"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultDurationDays = 30

type SubscriptionService interface {
	// Plans
	ListPlans(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, input models.PlanInput) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id primitive.ObjectID, input models.PlanInput) (*models.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, id primitive.ObjectID) error

	// Subscriptions
	Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*models.Subscription, *payment.InitResult, error)
	VerifyPayment(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error)
	Current(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error)
	History(ctx context.Context, userID primitive.ObjectID) ([]models.Subscription, error)
	Cancel(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error)
	Pause(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error)
	Resume(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Subscription, error)
	List(ctx context.Context, status models.SubscriptionStatus, page utils.Page) ([]models.Subscription, int64, error)

	// Premium memberships
	Tiers() []models.TierInfo
	PurchaseMembership(ctx context.Context, userID primitive.ObjectID, tier models.MembershipTier) (*models.PremiumMembership, *payment.InitResult, error)
	VerifyMembership(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.PremiumMembership, error)
	CurrentMembership(ctx context.Context, userID primitive.ObjectID) (*models.PremiumMembership, error)
	CancelMembership(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.PremiumMembership, error)
	ListMemberships(ctx context.Context, page utils.Page) ([]models.PremiumMembership, int64, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// DefaultSubscriptionService is the production implementation.
type DefaultSubscriptionService struct {
	Plans         subscriptionRepo.PlanRepository
	Subscriptions subscriptionRepo.SubscriptionRepository
	Memberships   subscriptionRepo.MembershipRepository
	Payments      payment.Gateway
	Users         UserLookup
	Currency      string
	Now           func() time.Time
}

func (s *DefaultSubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultSubscriptionService) emailOf(ctx context.Context, userID primitive.ObjectID) string {
	if s.Users == nil {
		return ""
	}
	if user, err := s.Users.GetByID(ctx, userID); err == nil {
		return user.Email
	}
	return ""
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
