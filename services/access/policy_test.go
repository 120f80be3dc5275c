package access

import (
	"context"
	"net/http"
	"testing"
	"time"

	"homehub/database"
	"homehub/models"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type stubSubs struct{ sub *models.Subscription }

func (s stubSubs) FindCurrent(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error) {
	if s.sub == nil {
		return nil, database.ErrNotFound
	}
	return s.sub, nil
}

type stubMemberships struct{ m *models.PremiumMembership }

func (s stubMemberships) FindActive(ctx context.Context, userID primitive.ObjectID, at time.Time) (*models.PremiumMembership, error) {
	if s.m == nil {
		return nil, database.ErrNotFound
	}
	return s.m, nil
}

type stubCounter int64

func (c stubCounter) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	return int64(c), nil
}

func newPolicy(sub *models.Subscription, m *models.PremiumMembership, services, offers int64) *DefaultPolicy {
	p := NewDefaultPolicy(stubSubs{sub}, stubMemberships{m}, stubCounter(services), stubCounter(offers), 3)
	p.Now = func() time.Time { return now }
	return p
}

func provider() Subject {
	return Subject{ID: primitive.NewObjectID(), Role: models.RoleProvider}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, utils.StatusOf(err))
}

func TestFreeTierServiceLimit(t *testing.T) {
	_, err := newPolicy(nil, nil, 2, 0).Require(context.Background(), provider(), CapCreateService)
	require.NoError(t, err)

	_, err = newPolicy(nil, nil, 3, 0).Require(context.Background(), provider(), CapCreateService)
	assertStatus(t, err, http.StatusForbidden)
}

func TestFreeTierCannotCreateOffers(t *testing.T) {
	_, err := newPolicy(nil, nil, 0, 0).Require(context.Background(), provider(), CapCreateOffer)
	assertStatus(t, err, http.StatusForbidden)
}

func TestActiveSubscriptionLimits(t *testing.T) {
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentPaid,
		EndDate:       now.Add(24 * time.Hour),
		Limits:        models.PlanLimits{MaxServices: 10, MaxOffers: 2},
	}

	ent, err := newPolicy(sub, nil, 5, 1).Require(context.Background(), provider(), CapCreateOffer)
	require.NoError(t, err)
	assert.True(t, ent.Premium)
	assert.Equal(t, 10, ent.Limits.MaxServices)

	_, err = newPolicy(sub, nil, 5, 2).Require(context.Background(), provider(), CapCreateOffer)
	assertStatus(t, err, http.StatusForbidden)
}

func TestExpiredSubscriptionFallsBackToFreeTier(t *testing.T) {
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentPaid,
		EndDate:       now.Add(-time.Minute),
		Limits:        models.PlanLimits{MaxServices: 50},
	}

	ent, err := newPolicy(sub, nil, 0, 0).Entitlement(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, ent.Subscription)
	assert.False(t, ent.Premium)
	assert.Equal(t, 3, ent.Limits.MaxServices)
}

func TestUnpaidSubscriptionIsNotEntitled(t *testing.T) {
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentPending,
		EndDate:       now.Add(24 * time.Hour),
	}
	ent, err := newPolicy(sub, nil, 0, 0).Entitlement(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.False(t, ent.Premium)
}

func TestMembershipAndSubscriptionMergeLimits(t *testing.T) {
	end := now.Add(10 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentPaid,
		EndDate:       end,
		Limits:        models.PlanLimits{MaxServices: 20, MaxOffers: 1},
	}
	m := &models.PremiumMembership{
		Tier:          models.TierPro,
		Status:        models.MembershipActive,
		PaymentStatus: models.PaymentPaid,
		EndDate:       &end,
	}

	ent, err := newPolicy(sub, m, 0, 0).Entitlement(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 30, ent.Limits.MaxServices)
	assert.Equal(t, 10, ent.Limits.MaxOffers)
	assert.True(t, ent.Featured)
}

func TestEliteMembershipIsUnlimited(t *testing.T) {
	end := now.Add(time.Hour)
	m := &models.PremiumMembership{Tier: models.TierElite, Status: models.MembershipActive, PaymentStatus: models.PaymentPaid, EndDate: &end}

	_, err := newPolicy(nil, m, 500, 500).Require(context.Background(), provider(), CapCreateService)
	require.NoError(t, err)
	_, err = newPolicy(nil, m, 500, 500).Require(context.Background(), provider(), CapFeaturedListing)
	require.NoError(t, err)
}

func TestFeaturedListingNeedsFeaturedPlan(t *testing.T) {
	end := now.Add(time.Hour)
	m := &models.PremiumMembership{Tier: models.TierBasic, Status: models.MembershipActive, PaymentStatus: models.PaymentPaid, EndDate: &end}

	_, err := newPolicy(nil, m, 0, 0).Require(context.Background(), provider(), CapFeaturedListing)
	assertStatus(t, err, http.StatusForbidden)
}

func TestAdminBypassesPolicy(t *testing.T) {
	admin := Subject{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}
	ent, err := newPolicy(nil, nil, 1000, 1000).Require(context.Background(), admin, CapCreateOffer)
	require.NoError(t, err)
	assert.True(t, ent.Unlimited)
}

func TestSeekerIsDenied(t *testing.T) {
	seeker := Subject{ID: primitive.NewObjectID(), Role: models.RoleSeeker}
	_, err := newPolicy(nil, nil, 0, 0).Require(context.Background(), seeker, CapCreateService)
	assertStatus(t, err, http.StatusForbidden)
}

type stubBookings struct {
	count int64
	since time.Time
}

func (s *stubBookings) CountForProviderSince(ctx context.Context, providerID primitive.ObjectID, since time.Time) (int64, error) {
	s.since = since
	return s.count, nil
}

func TestMonthlyBookingLimit(t *testing.T) {
	sub := &models.Subscription{
		Status:        models.SubscriptionActive,
		PaymentStatus: models.PaymentPaid,
		EndDate:       now.Add(24 * time.Hour),
		Limits:        models.PlanLimits{MaxBookingsPerMonth: 5},
	}
	bookings := &stubBookings{count: 4}
	p := newPolicy(sub, nil, 0, 0)
	p.Bookings = bookings

	_, err := p.Require(context.Background(), provider(), CapReceiveBooking)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), bookings.since)

	bookings.count = 5
	_, err = p.Require(context.Background(), provider(), CapReceiveBooking)
	assertStatus(t, err, http.StatusForbidden)
}

func TestFreeTierReceivesUnlimitedBookings(t *testing.T) {
	p := newPolicy(nil, nil, 0, 0)
	p.Bookings = &stubBookings{count: 1000}
	_, err := p.Require(context.Background(), provider(), CapReceiveBooking)
	require.NoError(t, err)
}
