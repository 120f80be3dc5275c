package access

import (
	"context"
	"errors"
	"time"

	"homehub/database"
	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Capability is a provider feature gated by subscription or membership.
type Capability string

const (
	CapCreateService   Capability = "create_service"
	CapCreateOffer     Capability = "create_offer"
	CapFeaturedListing Capability = "featured_listing"
	// CapReceiveBooking is checked against the provider who owns the booked
	// service.
	CapReceiveBooking Capability = "receive_booking"
)

// Entitlement is what a user may do right now.
type Entitlement struct {
	Subscription *models.Subscription      `json:"subscription,omitempty"`
	Membership   *models.PremiumMembership `json:"membership,omitempty"`
	Limits       models.PlanLimits         `json:"limits"`
	Premium      bool                      `json:"premium"`
	Featured     bool                      `json:"featured"`
	Unlimited    bool                      `json:"unlimited,omitempty"`
}

// Subject is the caller a capability is checked for.
type Subject struct {
	ID   primitive.ObjectID
	Role models.Role
}

// Policy is the single place feature access is decided.
type Policy interface {
	Entitlement(ctx context.Context, userID primitive.ObjectID) (*Entitlement, error)
	Require(ctx context.Context, subject Subject, capability Capability) (*Entitlement, error)
}

type SubscriptionFinder interface {
	FindCurrent(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error)
}

type MembershipFinder interface {
	FindActive(ctx context.Context, userID primitive.ObjectID, now time.Time) (*models.PremiumMembership, error)
}

type ProviderCounter interface {
	CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error)
}

// BookingCounter counts the live bookings a provider received since a point in time.
type BookingCounter interface {
	CountForProviderSince(ctx context.Context, providerID primitive.ObjectID, since time.Time) (int64, error)
}

// DefaultPolicy combines the current subscription and premium membership
// into one set of limits.
type DefaultPolicy struct {
	Subscriptions    SubscriptionFinder
	Memberships      MembershipFinder
	Services         ProviderCounter
	Offers           ProviderCounter
	// Bookings is optional; without it monthly booking limits are not enforced.
	Bookings         BookingCounter
	FreeServiceLimit int
	Now              func() time.Time
}

func NewDefaultPolicy(subs SubscriptionFinder, memberships MembershipFinder, services, offers ProviderCounter, freeServiceLimit int) *DefaultPolicy {
	return &DefaultPolicy{
		Subscriptions:    subs,
		Memberships:      memberships,
		Services:         services,
		Offers:           offers,
		FreeServiceLimit: freeServiceLimit,
		Now:              time.Now,
	}
}

func (p *DefaultPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *DefaultPolicy) Entitlement(ctx context.Context, userID primitive.ObjectID) (*Entitlement, error) {
	now := p.now()
	ent := &Entitlement{}

	sub, err := p.Subscriptions.FindCurrent(ctx, userID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, utils.Internal("Failed to load subscription", err)
	}
	if sub != nil && sub.IsActive(now) {
		ent.Subscription = sub
	}

	membership, err := p.Memberships.FindActive(ctx, userID, now)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, utils.Internal("Failed to load membership", err)
	}
	if membership != nil && membership.IsActive(now) {
		ent.Membership = membership
	}

	switch {
	case ent.Subscription != nil && ent.Membership != nil:
		tier, _ := models.LookupTier(ent.Membership.Tier)
		ent.Limits = widest(ent.Subscription.Limits, tier.Limits)
		ent.Featured = ent.Subscription.Featured || tier.Featured
	case ent.Subscription != nil:
		ent.Limits = ent.Subscription.Limits
		ent.Featured = ent.Subscription.Featured
	case ent.Membership != nil:
		tier, _ := models.LookupTier(ent.Membership.Tier)
		ent.Limits = tier.Limits
		ent.Featured = tier.Featured
	default:
		ent.Limits = models.PlanLimits{MaxServices: p.FreeServiceLimit}
	}
	ent.Premium = ent.Subscription != nil || ent.Membership != nil
	return ent, nil
}

func (p *DefaultPolicy) Require(ctx context.Context, subject Subject, capability Capability) (*Entitlement, error) {
	if subject.Role.IsAdmin() {
		return &Entitlement{Premium: true, Featured: true, Unlimited: true}, nil
	}
	if subject.Role != models.RoleProvider {
		return nil, utils.Forbidden("Only providers can use this feature")
	}

	ent, err := p.Entitlement(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	switch capability {
	case CapCreateService:
		err = p.checkLimit(ctx, p.Services, subject.ID, ent.Limits.MaxServices, "services")
	case CapCreateOffer:
		if !ent.Premium {
			return nil, utils.Forbidden("Special offers need an active subscription or premium membership")
		}
		err = p.checkLimit(ctx, p.Offers, subject.ID, ent.Limits.MaxOffers, "offers")
	case CapFeaturedListing:
		if !ent.Featured {
			return nil, utils.Forbidden("Featured listings are not included in your plan")
		}
	case CapReceiveBooking:
		err = p.checkMonthlyBookings(ctx, subject.ID, ent.Limits.MaxBookingsPerMonth)
	default:
		utils.GetLogger().Error("Unknown capability requested", zap.String("capability", string(capability)))
		return nil, utils.Forbidden("Access denied")
	}
	if err != nil {
		return nil, err
	}
	return ent, nil
}

func (p *DefaultPolicy) checkLimit(ctx context.Context, counter ProviderCounter, userID primitive.ObjectID, limit int, what string) error {
	if limit <= 0 {
		return nil
	}
	count, err := counter.CountByProvider(ctx, userID)
	if err != nil {
		return utils.Internal("Failed to check plan usage", err)
	}
	if count >= int64(limit) {
		return utils.Forbidden("Your plan allows %d %s. Upgrade to add more", limit, what)
	}
	return nil
}

func (p *DefaultPolicy) checkMonthlyBookings(ctx context.Context, providerID primitive.ObjectID, limit int) error {
	if limit <= 0 || p.Bookings == nil {
		return nil
	}
	now := p.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := p.Bookings.CountForProviderSince(ctx, providerID, monthStart)
	if err != nil {
		return utils.Internal("Failed to check plan usage", err)
	}
	if count >= int64(limit) {
		return utils.Forbidden("This provider cannot take more bookings this month")
	}
	return nil
}

// widest merges two limit sets, keeping the more generous value per field.
func widest(a, b models.PlanLimits) models.PlanLimits {
	pick := func(x, y int) int {
		if x == 0 || y == 0 {
			return 0
		}
		if x > y {
			return x
		}
		return y
	}
	return models.PlanLimits{
		MaxServices:         pick(a.MaxServices, b.MaxServices),
		MaxOffers:           pick(a.MaxOffers, b.MaxOffers),
		MaxBookingsPerMonth: pick(a.MaxBookingsPerMonth, b.MaxBookingsPerMonth),
	}
}
