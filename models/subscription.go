package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanLimits caps what a subscriber may create. Zero means unlimited.
type PlanLimits struct {
	MaxServices         int `bson:"maxServices" json:"maxServices"`
	MaxOffers           int `bson:"maxOffers" json:"maxOffers"`
	MaxBookingsPerMonth int `bson:"maxBookingsPerMonth" json:"maxBookingsPerMonth"`
}

// SubscriptionPlan defines price, duration and limits of a subscription.
type SubscriptionPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Price        float64            `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	TrialDays    int                `bson:"trialDays" json:"trialDays"`
	Limits       PlanLimits         `bson:"limits" json:"limits"`
	Features     []string           `bson:"features,omitempty" json:"features,omitempty"`
	Featured     bool               `bson:"featured" json:"featured"`
	Active       bool               `bson:"active" json:"active"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFree reports whether the plan needs no payment.
func (p *SubscriptionPlan) IsFree() bool {
	return p.Price <= 0
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPaused    SubscriptionStatus = "paused"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentFree    PaymentStatus = "free"
)

// Settled reports whether no further payment is due.
func (p PaymentStatus) Settled() bool {
	return p == PaymentPaid || p == PaymentFree
}

// Usage counts what a subscriber consumed in the current period.
type Usage struct {
	Services int `bson:"services" json:"services"`
	Offers   int `bson:"offers" json:"offers"`
	Bookings int `bson:"bookings" json:"bookings"`
}

// Subscription is one user's instance of a plan.
type Subscription struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID         primitive.ObjectID `bson:"planId" json:"planId"`
	PlanName       string             `bson:"planName" json:"planName"`
	Limits         PlanLimits         `bson:"limits" json:"limits"`
	Featured       bool               `bson:"featured" json:"featured"`
	Status         SubscriptionStatus `bson:"status" json:"status"`
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	EndDate        time.Time          `bson:"endDate" json:"endDate"`
	TrialEndsAt    *time.Time         `bson:"trialEndsAt,omitempty" json:"trialEndsAt,omitempty"`
	PausedAt       *time.Time         `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	PaymentStatus  PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef     string             `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Amount         float64            `bson:"amount" json:"amount"`
	Currency       string             `bson:"currency" json:"currency"`
	Usage          Usage              `bson:"usage" json:"usage"`
	ReminderSentAt *time.Time         `bson:"reminderSentAt,omitempty" json:"reminderSentAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive is derived, never stored: the status must be active or trial,
// the period must not have ended, and a non-trial must be paid for.
func (s *Subscription) IsActive(now time.Time) bool {
	if !now.Before(s.EndDate) {
		return false
	}
	switch s.Status {
	case SubscriptionTrial:
		return s.TrialEndsAt == nil || now.Before(*s.TrialEndsAt)
	case SubscriptionActive:
		return s.PaymentStatus.Settled()
	}
	return false
}

// DaysLeft is the number of whole days until the end date.
func (s *Subscription) DaysLeft(now time.Time) int {
	if !now.Before(s.EndDate) {
		return 0
	}
	return int(s.EndDate.Sub(now).Hours() / 24)
}

// PlanInput is the admin create/update payload for a plan. Nil fields are
// left unchanged on update.
type PlanInput struct {
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Price        *float64    `json:"price"`
	Currency     string      `json:"currency"`
	DurationDays *int        `json:"durationDays"`
	TrialDays    *int        `json:"trialDays"`
	Limits       *PlanLimits `json:"limits"`
	Features     []string    `json:"features"`
	Featured     *bool       `json:"featured"`
	Active       *bool       `json:"active"`
}
