package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsActiveIgnoresStaleStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sub := Subscription{
		Status:        SubscriptionActive,
		PaymentStatus: PaymentPaid,
		EndDate:       now.Add(-time.Minute),
	}
	assert.False(t, sub.IsActive(now))

	sub.EndDate = now.Add(24 * time.Hour)
	assert.True(t, sub.IsActive(now))

	sub.PaymentStatus = PaymentPending
	assert.False(t, sub.IsActive(now))

	trialEnd := now.Add(-time.Hour)
	sub.Status, sub.TrialEndsAt = SubscriptionTrial, &trialEnd
	assert.False(t, sub.IsActive(now))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "home-cleaning", Slugify("  Home Cleaning "))
	assert.Equal(t, "plumbing-repairs", Slugify("Plumbing & Repairs!"))
	assert.Equal(t, Slugify("ELECTRICAL"), Slugify("electrical"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("jane@example.com"))
	assert.False(t, ValidEmail("Jane <jane@example.com>"))
	assert.False(t, ValidEmail("not-an-email"))
}

func TestBookingStatusTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanTransitionTo(BookingConfirmed))
	assert.False(t, BookingCompleted.CanTransitionTo(BookingPending))
	assert.False(t, BookingStatus("archived").Valid())
}
