package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MembershipTier string

const (
	TierBasic MembershipTier = "basic"
	TierPro   MembershipTier = "pro"
	TierElite MembershipTier = "elite"
)

// TierInfo is the catalogue entry of a premium tier.
type TierInfo struct {
	Tier         MembershipTier `json:"tier"`
	Name         string         `json:"name"`
	Price        float64        `json:"price"`
	DurationDays int            `json:"durationDays"`
	Limits       PlanLimits     `json:"limits"`
	Featured     bool           `json:"featured"`
	Perks        []string       `json:"perks"`
}

// MembershipTiers is the fixed premium catalogue, cheapest first.
var MembershipTiers = []TierInfo{
	{
		Tier: TierBasic, Name: "Basic", Price: 299, DurationDays: 30,
		Limits: PlanLimits{MaxServices: 10, MaxOffers: 3},
		Perks:  []string{"Up to 10 services", "3 special offers"},
	},
	{
		Tier: TierPro, Name: "Pro", Price: 599, DurationDays: 30,
		Limits:   PlanLimits{MaxServices: 30, MaxOffers: 10},
		Featured: true,
		Perks:    []string{"Up to 30 services", "10 special offers", "Featured listings"},
	},
	{
		Tier: TierElite, Name: "Elite", Price: 999, DurationDays: 30,
		Featured: true,
		Perks:    []string{"Unlimited services", "Unlimited offers", "Featured listings", "Priority support"},
	},
}

// LookupTier returns the catalogue entry for tier.
func LookupTier(tier MembershipTier) (TierInfo, bool) {
	for _, t := range MembershipTiers {
		if t.Tier == tier {
			return t, true
		}
	}
	return TierInfo{}, false
}

type MembershipStatus string

const (
	MembershipPending   MembershipStatus = "pending"
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// PremiumMembership is the paid tier a provider holds alongside, or instead
// of, a subscription.
type PremiumMembership struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Tier          MembershipTier     `bson:"tier" json:"tier"`
	Status        MembershipStatus   `bson:"status" json:"status"`
	PaymentStatus PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef    string             `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Amount        float64            `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	StartDate     *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the membership currently grants its perks.
func (m *PremiumMembership) IsActive(now time.Time) bool {
	if m.Status != MembershipActive || !m.PaymentStatus.Settled() {
		return false
	}
	return m.EndDate != nil && now.Before(*m.EndDate)
}
