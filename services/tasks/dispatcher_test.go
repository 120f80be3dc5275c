package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homehub/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeQueue struct {
	err   error
	tasks []*asynq.Task
}

func (q *fakeQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	created   []models.BookingNotification
	reminders []string
}

func (f *fakeNotifier) NotifyBookingCreated(ctx context.Context, n models.BookingNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifier) NotifyBookingStatus(ctx context.Context, n models.BookingNotification, status models.BookingStatus) error {
	return nil
}

func (f *fakeNotifier) SendSubscriptionReminder(ctx context.Context, user *models.User, p models.ReminderPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, user.Email)
	return nil
}

func (f *fakeNotifier) NotifyApplicationDecision(ctx context.Context, d models.DecisionNotice) error {
	return nil
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, user *models.User) error { return nil }

type staticUsers map[primitive.ObjectID]*models.User

func (s staticUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func TestQueueDispatcherEnqueuesBookingTask(t *testing.T) {
	queue := &fakeQueue{}
	notifier := &fakeNotifier{}
	d := NewQueueDispatcher(queue, NewInlineDispatcher(notifier, staticUsers{}))

	d.BookingCreated(context.Background(), models.BookingNotification{BookingID: "b1", ServiceTitle: "Plumbing"})

	require.Len(t, queue.tasks, 1)
	assert.Equal(t, TypeBookingCreated, queue.tasks[0].Type())

	var got models.BookingNotification
	require.NoError(t, Decode(queue.tasks[0], &got))
	assert.Equal(t, "b1", got.BookingID)
	assert.Empty(t, notifier.created)
}

func TestQueueDispatcherFallsBackInline(t *testing.T) {
	notifier := &fakeNotifier{}
	inline := NewInlineDispatcher(notifier, staticUsers{})
	d := NewQueueDispatcher(&fakeQueue{err: errors.New("redis down")}, inline)

	d.BookingCreated(context.Background(), models.BookingNotification{BookingID: "b2"})
	inline.Wait()

	require.Len(t, notifier.created, 1)
	assert.Equal(t, "b2", notifier.created[0].BookingID)
}

func TestQueueDispatcherTreatsTaskIDConflictAsQueued(t *testing.T) {
	notifier := &fakeNotifier{}
	inline := NewInlineDispatcher(notifier, staticUsers{})
	d := NewQueueDispatcher(&fakeQueue{err: asynq.ErrTaskIDConflict}, inline)

	err := d.SubscriptionReminder(context.Background(), models.ReminderPayload{
		SubscriptionID: primitive.NewObjectID().Hex(),
		UserID:         primitive.NewObjectID().Hex(),
	})
	inline.Wait()

	require.NoError(t, err)
	assert.Empty(t, notifier.reminders)
}

func TestInlineReminderLooksUpRecipient(t *testing.T) {
	userID := primitive.NewObjectID()
	notifier := &fakeNotifier{}
	inline := NewInlineDispatcher(notifier, staticUsers{userID: {ID: userID, Email: "pro@example.com"}})

	err := inline.SubscriptionReminder(context.Background(), models.ReminderPayload{
		UserID:  userID.Hex(),
		EndDate: time.Now().Add(48 * time.Hour),
	})
	inline.Wait()

	require.NoError(t, err)
	assert.Equal(t, []string{"pro@example.com"}, notifier.reminders)
}

func TestInlineReminderRejectsBadUserID(t *testing.T) {
	inline := NewInlineDispatcher(&fakeNotifier{}, staticUsers{})
	assert.Error(t, inline.SubscriptionReminder(context.Background(), models.ReminderPayload{UserID: "nope"}))
}

func TestReminderTaskIsDedupedPerSubscription(t *testing.T) {
	task, err := NewReminderTask(models.ReminderPayload{SubscriptionID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, TypeSubscriptionRemind, task.Type())
}
