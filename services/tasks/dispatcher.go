package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"homehub/models"
	"homehub/services/notification"
	"homehub/utils"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dispatcher hands notification work to the background. Apart from
// reminders, which the sweep counts, results are logged only.
type Dispatcher interface {
	BookingCreated(ctx context.Context, n models.BookingNotification)
	BookingStatusChanged(ctx context.Context, n models.BookingNotification, status models.BookingStatus)
	ApplicationDecision(ctx context.Context, d models.DecisionNotice)
	SubscriptionReminder(ctx context.Context, p models.ReminderPayload) error
	Welcome(ctx context.Context, user models.User)
}

// Enqueuer is the part of *asynq.Client the dispatcher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// UserLookup resolves reminder recipients.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// InlineDispatcher runs notifications on detached goroutines. It is the
// fallback when the queue cannot be reached.
type InlineDispatcher struct {
	notifier notification.NotificationService
	users    UserLookup
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewInlineDispatcher(notifier notification.NotificationService, users UserLookup) *InlineDispatcher {
	return &InlineDispatcher{notifier: notifier, users: users, timeout: 30 * time.Second}
}

func (d *InlineDispatcher) run(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			utils.GetLogger().Warn("background notification failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every started notification has finished.
func (d *InlineDispatcher) Wait() { d.wg.Wait() }

func (d *InlineDispatcher) BookingCreated(_ context.Context, n models.BookingNotification) {
	d.run(TypeBookingCreated, func(ctx context.Context) error {
		return d.notifier.NotifyBookingCreated(ctx, n)
	})
}

func (d *InlineDispatcher) BookingStatusChanged(_ context.Context, n models.BookingNotification, status models.BookingStatus) {
	d.run(TypeBookingStatus, func(ctx context.Context) error {
		return d.notifier.NotifyBookingStatus(ctx, n, status)
	})
}

func (d *InlineDispatcher) ApplicationDecision(_ context.Context, notice models.DecisionNotice) {
	d.run(TypeApplicationDecision, func(ctx context.Context) error {
		return d.notifier.NotifyApplicationDecision(ctx, notice)
	})
}

func (d *InlineDispatcher) SubscriptionReminder(_ context.Context, p models.ReminderPayload) error {
	userID, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return err
	}
	d.run(TypeSubscriptionRemind, func(ctx context.Context) error {
		user, err := d.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		return d.notifier.SendSubscriptionReminder(ctx, user, p)
	})
	return nil
}

func (d *InlineDispatcher) Welcome(_ context.Context, user models.User) {
	d.run(TypeWelcome, func(ctx context.Context) error {
		return d.notifier.SendWelcome(ctx, &user)
	})
}

// QueueDispatcher enqueues asynq tasks and falls back to inline delivery
// when enqueueing fails.
type QueueDispatcher struct {
	queue    Enqueuer
	fallback *InlineDispatcher
}

func NewQueueDispatcher(queue Enqueuer, fallback *InlineDispatcher) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, fallback: fallback}
}

func (d *QueueDispatcher) enqueue(ctx context.Context, task *asynq.Task, buildErr error) error {
	if buildErr != nil {
		return buildErr
	}
	_, err := d.queue.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func (d *QueueDispatcher) logFallback(taskType string, err error) {
	utils.GetLogger().Warn("enqueue failed, delivering inline", zap.String("task", taskType), zap.Error(err))
}

func (d *QueueDispatcher) BookingCreated(ctx context.Context, n models.BookingNotification) {
	task, err := NewBookingCreatedTask(n)
	if err := d.enqueue(ctx, task, err); err != nil {
		d.logFallback(TypeBookingCreated, err)
		d.fallback.BookingCreated(ctx, n)
	}
}

func (d *QueueDispatcher) BookingStatusChanged(ctx context.Context, n models.BookingNotification, status models.BookingStatus) {
	task, err := NewBookingStatusTask(BookingStatusPayload{Notice: n, Status: status})
	if err := d.enqueue(ctx, task, err); err != nil {
		d.logFallback(TypeBookingStatus, err)
		d.fallback.BookingStatusChanged(ctx, n, status)
	}
}

func (d *QueueDispatcher) ApplicationDecision(ctx context.Context, notice models.DecisionNotice) {
	task, err := NewDecisionTask(notice)
	if err := d.enqueue(ctx, task, err); err != nil {
		d.logFallback(TypeApplicationDecision, err)
		d.fallback.ApplicationDecision(ctx, notice)
	}
}

func (d *QueueDispatcher) SubscriptionReminder(ctx context.Context, p models.ReminderPayload) error {
	task, err := NewReminderTask(p)
	if err := d.enqueue(ctx, task, err); err != nil {
		d.logFallback(TypeSubscriptionRemind, err)
		return d.fallback.SubscriptionReminder(ctx, p)
	}
	return nil
}

func (d *QueueDispatcher) Welcome(ctx context.Context, user models.User) {
	task, err := NewWelcomeTask(user)
	if err := d.enqueue(ctx, task, err); err != nil {
		d.logFallback(TypeWelcome, err)
		d.fallback.Welcome(ctx, user)
	}
}
