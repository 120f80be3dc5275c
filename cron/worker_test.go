package cron

import (
	"context"
	"errors"
	"testing"

	"homehub/database"
	"homehub/models"
	"homehub/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recorder struct {
	created   []string
	statuses  []models.BookingStatus
	reminded  []string
	decisions []models.ReviewDecision
	welcomed  []string
}

func (r *recorder) NotifyBookingCreated(ctx context.Context, n models.BookingNotification) error {
	r.created = append(r.created, n.BookingID)
	return nil
}

func (r *recorder) NotifyBookingStatus(ctx context.Context, n models.BookingNotification, status models.BookingStatus) error {
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *recorder) SendSubscriptionReminder(ctx context.Context, user *models.User, p models.ReminderPayload) error {
	r.reminded = append(r.reminded, user.Email)
	return nil
}

func (r *recorder) NotifyApplicationDecision(ctx context.Context, d models.DecisionNotice) error {
	r.decisions = append(r.decisions, d.Decision)
	return nil
}

func (r *recorder) SendWelcome(ctx context.Context, user *models.User) error {
	r.welcomed = append(r.welcomed, user.Email)
	return nil
}

type users map[primitive.ObjectID]*models.User

func (u users) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, database.ErrNotFound
}

type sweeper struct{ runs int }

func (s *sweeper) Sweep(ctx context.Context) (*models.SweepReport, error) {
	s.runs++
	return &models.SweepReport{}, nil
}

func newHandlers() (*Handlers, *recorder, *sweeper, *models.User) {
	user := &models.User{ID: primitive.NewObjectID(), Email: "pat@example.com"}
	rec := &recorder{}
	sw := &sweeper{}
	return &Handlers{Notifier: rec, Users: users{user.ID: user}, Sweeper: sw}, rec, sw, user
}

func TestHandlersRouteEveryTaskType(t *testing.T) {
	h, rec, sw, user := newHandlers()
	mux := h.Mux()
	ctx := context.Background()

	created, err := tasks.NewBookingCreatedTask(models.BookingNotification{BookingID: "b1"})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, created))

	status, err := tasks.NewBookingStatusTask(tasks.BookingStatusPayload{Status: models.BookingConfirmed})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, status))

	reminder, err := tasks.NewReminderTask(models.ReminderPayload{SubscriptionID: "s1", UserID: user.ID.Hex()})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, reminder))

	decision, err := tasks.NewDecisionTask(models.DecisionNotice{Decision: models.DecisionApproved})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, decision))

	welcome, err := tasks.NewWelcomeTask(*user)
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, welcome))

	require.NoError(t, mux.ProcessTask(ctx, tasks.NewMaintenanceTask()))

	assert.Equal(t, []string{"b1"}, rec.created)
	assert.Equal(t, []models.BookingStatus{models.BookingConfirmed}, rec.statuses)
	assert.Equal(t, []string{"pat@example.com"}, rec.reminded)
	assert.Equal(t, []models.ReviewDecision{models.DecisionApproved}, rec.decisions)
	assert.Equal(t, []string{"pat@example.com"}, rec.welcomed)
	assert.Equal(t, 1, sw.runs)
}

func TestInvalidPayloadIsNotRetried(t *testing.T) {
	h, _, _, _ := newHandlers()
	err := h.Mux().ProcessTask(context.Background(), asynq.NewTask(tasks.TypeBookingCreated, []byte("{")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestReminderForDeletedUserIsDropped(t *testing.T) {
	h, rec, _, _ := newHandlers()
	task, err := tasks.NewReminderTask(models.ReminderPayload{SubscriptionID: "s2", UserID: primitive.NewObjectID().Hex()})
	require.NoError(t, err)
	require.NoError(t, h.Mux().ProcessTask(context.Background(), task))
	assert.Empty(t, rec.reminded)
}
