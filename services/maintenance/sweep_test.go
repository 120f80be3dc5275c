package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"homehub/database"
	"homehub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2026, 9, 10, 2, 0, 0, 0, time.UTC)

type memSubs struct {
	subs      map[primitive.ObjectID]*models.Subscription
	failWrite map[primitive.ObjectID]bool
}

func newSubs(list ...*models.Subscription) *memSubs {
	m := &memSubs{subs: map[primitive.ObjectID]*models.Subscription{}, failWrite: map[primitive.ObjectID]bool{}}
	for _, s := range list {
		m.subs[s.ID] = s
	}
	return m
}

func (m *memSubs) filter(keep func(*models.Subscription) bool) []models.Subscription {
	var out []models.Subscription
	for _, s := range m.subs {
		if keep(s) {
			out = append(out, *s)
		}
	}
	return out
}

func (m *memSubs) ListEnded(ctx context.Context, at time.Time) ([]models.Subscription, error) {
	return m.filter(func(s *models.Subscription) bool {
		return (s.Status == models.SubscriptionActive || s.Status == models.SubscriptionTrial) && !s.EndDate.After(at)
	}), nil
}

func (m *memSubs) ListTrialsEnded(ctx context.Context, at time.Time) ([]models.Subscription, error) {
	return m.filter(func(s *models.Subscription) bool {
		return s.Status == models.SubscriptionTrial && s.TrialEndsAt != nil && s.TrialEndsAt.Before(at)
	}), nil
}

func (m *memSubs) ListEndingBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error) {
	return m.filter(func(s *models.Subscription) bool {
		running := s.Status == models.SubscriptionActive || s.Status == models.SubscriptionTrial
		return running && s.ReminderSentAt == nil && s.EndDate.After(from) && !s.EndDate.After(to)
	}), nil
}

func (m *memSubs) apply(s *models.Subscription, set bson.M) {
	if st, ok := set["status"].(models.SubscriptionStatus); ok {
		s.Status = st
	}
	if at, ok := set["reminderSentAt"].(time.Time); ok {
		s.ReminderSentAt = &at
	}
}

func (m *memSubs) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Subscription, error) {
	s, ok := m.subs[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	m.apply(s, set)
	return s, nil
}

func (m *memSubs) UpdateIf(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, set bson.M) (*models.Subscription, error) {
	if m.failWrite[id] {
		return nil, errors.New("write conflict")
	}
	s, ok := m.subs[id]
	if !ok || s.Status != status {
		return nil, database.ErrNotFound
	}
	m.apply(s, set)
	return s, nil
}

type memberships struct {
	expired int64
}

func (m *memberships) ExpireEnded(ctx context.Context, at time.Time) (int64, error) {
	return m.expired, nil
}

type reminders struct {
	sent []models.ReminderPayload
	fail bool
}

func (r *reminders) BookingCreated(ctx context.Context, n models.BookingNotification) {}
func (r *reminders) BookingStatusChanged(ctx context.Context, n models.BookingNotification, status models.BookingStatus) {
}
func (r *reminders) ApplicationDecision(ctx context.Context, d models.DecisionNotice) {}
func (r *reminders) Welcome(ctx context.Context, user models.User) {}
func (r *reminders) SubscriptionReminder(ctx context.Context, p models.ReminderPayload) error {
	if r.fail {
		return errors.New("queue down")
	}
	r.sent = append(r.sent, p)
	return nil
}

type lock struct {
	held bool
	err  error
}

func (l *lock) Get(ctx context.Context, key string) (string, bool, error) { return "", l.held, nil }

func (l *lock) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (l *lock) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *lock) Del(ctx context.Context, keys ...string) error {
	l.held = false
	return nil
}

func (l *lock) GetDel(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func at(d time.Duration) time.Time { return now.Add(d) }

func ptr(t time.Time) *time.Time { return &t }

func sub(status models.SubscriptionStatus, payment models.PaymentStatus, end time.Time) *models.Subscription {
	return &models.Subscription{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		PlanName:      "Pro",
		Status:        status,
		PaymentStatus: payment,
		EndDate:       end,
	}
}

func TestSweepClassifiesSubscriptions(t *testing.T) {
	day := 24 * time.Hour

	ended := sub(models.SubscriptionActive, models.PaymentPaid, at(-day))
	paidTrial := sub(models.SubscriptionTrial, models.PaymentPaid, at(20*day))
	paidTrial.TrialEndsAt = ptr(at(-time.Hour))
	unpaidTrial := sub(models.SubscriptionTrial, models.PaymentPending, at(20*day))
	unpaidTrial.TrialEndsAt = ptr(at(-time.Hour))
	endingSoon := sub(models.SubscriptionActive, models.PaymentPaid, at(2*day))
	alreadyReminded := sub(models.SubscriptionActive, models.PaymentPaid, at(2*day))
	alreadyReminded.ReminderSentAt = ptr(at(-day))
	farOff := sub(models.SubscriptionActive, models.PaymentPaid, at(10*day))

	subs := newSubs(ended, paidTrial, unpaidTrial, endingSoon, alreadyReminded, farOff)
	queue := &reminders{}
	l := &lock{}
	sweeper := &DefaultSweeper{
		Subscriptions: subs,
		Memberships:   &memberships{expired: 2},
		Tasks:         queue,
		Lock:          l,
		ReminderDays:  3,
		Now:           func() time.Time { return now },
	}

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 2, report.Expired)
	assert.Equal(t, 1, report.Activated)
	assert.Equal(t, 1, report.Reminded)
	assert.Equal(t, 2, report.MembershipsExpired)
	assert.Zero(t, report.Failed)

	assert.Equal(t, models.SubscriptionExpired, subs.subs[ended.ID].Status)
	assert.Equal(t, models.SubscriptionActive, subs.subs[paidTrial.ID].Status)
	assert.Equal(t, models.SubscriptionExpired, subs.subs[unpaidTrial.ID].Status)
	assert.Equal(t, models.SubscriptionActive, subs.subs[farOff.ID].Status)

	require.Len(t, queue.sent, 1)
	assert.Equal(t, endingSoon.ID.Hex(), queue.sent[0].SubscriptionID)
	assert.Equal(t, 2, queue.sent[0].DaysLeft)
	assert.NotNil(t, subs.subs[endingSoon.ID].ReminderSentAt)
	assert.False(t, l.held, "lock is released")

	// A second run finds nothing left to do.
	again, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Expired+again.Activated+again.Reminded)
}

func TestSweepSkipsWhenLocked(t *testing.T) {
	ended := sub(models.SubscriptionActive, models.PaymentPaid, at(-time.Hour))
	subs := newSubs(ended)
	sweeper := &DefaultSweeper{
		Subscriptions: subs,
		Memberships:   &memberships{},
		Tasks:         &reminders{},
		Lock:          &lock{held: true},
		Now:           func() time.Time { return now },
	}
	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Equal(t, models.SubscriptionActive, subs.subs[ended.ID].Status)
}

func TestSweepRunsWhenLockUnavailable(t *testing.T) {
	ended := sub(models.SubscriptionActive, models.PaymentPaid, at(-time.Hour))
	sweeper := &DefaultSweeper{
		Subscriptions: newSubs(ended),
		Memberships:   &memberships{},
		Tasks:         &reminders{},
		Lock:          &lock{err: errors.New("redis down")},
		Now:           func() time.Time { return now },
	}
	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)
}

func TestSweepCountsItemFailures(t *testing.T) {
	broken := sub(models.SubscriptionActive, models.PaymentPaid, at(-time.Hour))
	fine := sub(models.SubscriptionActive, models.PaymentPaid, at(-time.Hour))
	ending := sub(models.SubscriptionActive, models.PaymentPaid, at(24*time.Hour))
	subs := newSubs(broken, fine, ending)
	subs.failWrite[broken.ID] = true

	sweeper := &DefaultSweeper{
		Subscriptions: subs,
		Memberships:   &memberships{},
		Tasks:         &reminders{fail: true},
		Now:           func() time.Time { return now },
	}
	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)
	assert.Equal(t, 2, report.Failed, "one failed expiry and one failed reminder")
	assert.Nil(t, subs.subs[ending.ID].ReminderSentAt)
}
