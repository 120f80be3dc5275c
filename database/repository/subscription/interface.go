package subscriptionRepo

import (
	"context"
	"time"

	"homehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanRepository persists subscription plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SubscriptionPlan, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// SubscriptionRepository persists user subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Subscription, error)
	// FindCurrent returns the newest active, trial or paused subscription of a user.
	FindCurrent(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error)
	// HasTrialed reports whether the user ever started a trial.
	HasTrialed(ctx context.Context, userID primitive.ObjectID) (bool, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Subscription, error)
	// UpdateIf applies set only while the document still matches status.
	UpdateIf(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, set bson.M) (*models.Subscription, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Subscription, error)
	List(ctx context.Context, status models.SubscriptionStatus, skip, limit int64) ([]models.Subscription, int64, error)
	// ListEnded returns active or trial subscriptions whose end date is not after now.
	ListEnded(ctx context.Context, now time.Time) ([]models.Subscription, error)
	// ListTrialsEnded returns trials whose trial window closed before now.
	ListTrialsEnded(ctx context.Context, now time.Time) ([]models.Subscription, error)
	// ListEndingBetween returns running subscriptions ending in (from, to] that
	// have not been reminded yet.
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID, field string, delta int) error
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// MembershipRepository persists premium memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m *models.PremiumMembership) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.PremiumMembership, error)
	// FindActive returns the user's membership that is active at now.
	FindActive(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.PremiumMembership, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PremiumMembership, error)
	List(ctx context.Context, skip, limit int64) ([]models.PremiumMembership, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.PremiumMembership, error)
	// ExpireEnded flips active memberships past their end date to expired.
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}
