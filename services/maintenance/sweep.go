// Package maintenance runs the periodic subscription sweep: expiring ended
// periods, settling finished trials and queueing renewal reminders.
package maintenance

import (
	"context"
	"errors"
	"time"

	"homehub/database"
	"homehub/models"
	"homehub/services/tasks"
	"homehub/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultReminderDays = 3
	lockTTL             = 10 * time.Minute
)

// SubscriptionStore is the part of the subscription repository the sweep uses.
type SubscriptionStore interface {
	ListEnded(ctx context.Context, now time.Time) ([]models.Subscription, error)
	ListTrialsEnded(ctx context.Context, now time.Time) ([]models.Subscription, error)
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]models.Subscription, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Subscription, error)
	UpdateIf(ctx context.Context, id primitive.ObjectID, status models.SubscriptionStatus, set bson.M) (*models.Subscription, error)
}

type MembershipExpirer interface {
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper interface {
	Sweep(ctx context.Context) (*models.SweepReport, error)
}

type DefaultSweeper struct {
	Subscriptions SubscriptionStore
	Memberships   MembershipExpirer
	Tasks         tasks.Dispatcher
	// Lock is optional; without it concurrent sweeps rely on the
	// conditional updates alone.
	Lock         utils.Cache
	ReminderDays int
	Now          func() time.Time
}

func (s *DefaultSweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// acquire takes the cross-instance lock. A Redis failure does not block the
// sweep.
func (s *DefaultSweeper) acquire(ctx context.Context) (release func(), ok bool) {
	noop := func() {}
	if s.Lock == nil {
		return noop, true
	}
	acquired, err := s.Lock.SetNX(ctx, utils.MaintenanceLockKey, uuid.NewString(), lockTTL)
	if err != nil {
		utils.GetLogger().Warn("maintenance lock unavailable, sweeping without it", zap.Error(err))
		return noop, true
	}
	if !acquired {
		return noop, false
	}
	return func() {
		if err := s.Lock.Del(context.Background(), utils.MaintenanceLockKey); err != nil {
			utils.GetLogger().Warn("failed to release maintenance lock", zap.Error(err))
		}
	}, true
}

// Sweep runs one maintenance pass. Per-item failures are logged and counted
// without aborting the run; only a failed listing returns an error.
func (s *DefaultSweeper) Sweep(ctx context.Context) (*models.SweepReport, error) {
	logger := utils.GetLogger()
	now := s.now()
	report := &models.SweepReport{RanAt: now}

	release, ok := s.acquire(ctx)
	if !ok {
		logger.Info("maintenance sweep already running elsewhere, skipping")
		report.Skipped = true
		return report, nil
	}
	defer release()

	if err := s.settleTrials(ctx, now, report); err != nil {
		return report, err
	}
	if err := s.expireEnded(ctx, now, report); err != nil {
		return report, err
	}

	n, err := s.Memberships.ExpireEnded(ctx, now)
	if err != nil {
		logger.Error("failed to expire memberships", zap.Error(err))
		report.Failed++
	}
	report.MembershipsExpired = int(n)

	if err := s.remind(ctx, now, report); err != nil {
		return report, err
	}

	logger.Info("maintenance sweep finished",
		zap.Int("expired", report.Expired),
		zap.Int("activated", report.Activated),
		zap.Int("reminded", report.Reminded),
		zap.Int("membershipsExpired", report.MembershipsExpired),
		zap.Int("failed", report.Failed))
	return report, nil
}

// settleTrials converts finished trials: paid ones become active, the rest
// expire. Trials whose whole period has ended are left to expireEnded.
func (s *DefaultSweeper) settleTrials(ctx context.Context, now time.Time, report *models.SweepReport) error {
	trials, err := s.Subscriptions.ListTrialsEnded(ctx, now)
	if err != nil {
		return utils.Internal("Failed to list ended trials", err)
	}
	for _, sub := range trials {
		if !now.Before(sub.EndDate) {
			continue
		}
		next := models.SubscriptionExpired
		if sub.PaymentStatus.Settled() {
			next = models.SubscriptionActive
		}
		_, err := s.Subscriptions.UpdateIf(ctx, sub.ID, models.SubscriptionTrial, bson.M{"status": next, "updatedAt": now})
		switch {
		case errors.Is(err, database.ErrNotFound):
			// Changed since it was listed.
		case err != nil:
			utils.GetLogger().Warn("failed to settle trial", zap.String("subscriptionId", sub.ID.Hex()), zap.Error(err))
			report.Failed++
		case next == models.SubscriptionActive:
			report.Activated++
		default:
			report.Expired++
		}
	}
	return nil
}

func (s *DefaultSweeper) expireEnded(ctx context.Context, now time.Time, report *models.SweepReport) error {
	ended, err := s.Subscriptions.ListEnded(ctx, now)
	if err != nil {
		return utils.Internal("Failed to list ended subscriptions", err)
	}
	for _, sub := range ended {
		_, err := s.Subscriptions.UpdateIf(ctx, sub.ID, sub.Status, bson.M{"status": models.SubscriptionExpired, "updatedAt": now})
		switch {
		case errors.Is(err, database.ErrNotFound):
		case err != nil:
			utils.GetLogger().Warn("failed to expire subscription", zap.String("subscriptionId", sub.ID.Hex()), zap.Error(err))
			report.Failed++
		default:
			report.Expired++
		}
	}
	return nil
}

func (s *DefaultSweeper) remind(ctx context.Context, now time.Time, report *models.SweepReport) error {
	days := s.ReminderDays
	if days <= 0 {
		days = defaultReminderDays
	}
	ending, err := s.Subscriptions.ListEndingBetween(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return utils.Internal("Failed to list expiring subscriptions", err)
	}
	for _, sub := range ending {
		payload := models.ReminderPayload{
			SubscriptionID: sub.ID.Hex(),
			UserID:         sub.UserID.Hex(),
			PlanName:       sub.PlanName,
			EndDate:        sub.EndDate,
			DaysLeft:       sub.DaysLeft(now),
		}
		if err := s.Tasks.SubscriptionReminder(ctx, payload); err != nil {
			utils.GetLogger().Warn("failed to queue reminder", zap.String("subscriptionId", payload.SubscriptionID), zap.Error(err))
			report.Failed++
			continue
		}
		if _, err := s.Subscriptions.Update(ctx, sub.ID, bson.M{"reminderSentAt": now}); err != nil {
			utils.GetLogger().Warn("failed to mark reminder sent", zap.String("subscriptionId", payload.SubscriptionID), zap.Error(err))
			report.Failed++
			continue
		}
		report.Reminded++
	}
	return nil
}
