package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"homehub/models"

	"github.com/hibiken/asynq"
)

// Task types processed by the background worker.
const (
	TypeBookingCreated      = "notify:booking_created"
	TypeBookingStatus       = "notify:booking_status"
	TypeSubscriptionRemind  = "email:reminder"
	TypeApplicationDecision = "notify:decision"
	TypeMaintenanceSweep    = "maintenance:subscriptions"
	TypeWelcome             = "email:welcome"
)

// BookingStatusPayload carries a status change notice.
type BookingStatusPayload struct {
	Notice models.BookingNotification `json:"notice"`
	Status models.BookingStatus       `json:"status"`
}

func newTask(taskType string, payload interface{}, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", taskType, err)
	}
	opts = append([]asynq.Option{asynq.MaxRetry(3), asynq.Timeout(time.Minute)}, opts...)
	return asynq.NewTask(taskType, b, opts...), nil
}

func NewBookingCreatedTask(n models.BookingNotification) (*asynq.Task, error) {
	return newTask(TypeBookingCreated, n)
}

func NewBookingStatusTask(p BookingStatusPayload) (*asynq.Task, error) {
	return newTask(TypeBookingStatus, p)
}

// NewReminderTask dedupes on the subscription so a retried sweep never
// queues the same reminder twice.
func NewReminderTask(p models.ReminderPayload) (*asynq.Task, error) {
	return newTask(TypeSubscriptionRemind, p, asynq.TaskID("reminder:"+p.SubscriptionID))
}

func NewDecisionTask(d models.DecisionNotice) (*asynq.Task, error) {
	return newTask(TypeApplicationDecision, d)
}

func NewWelcomeTask(u models.User) (*asynq.Task, error) {
	return newTask(TypeWelcome, u)
}

// NewMaintenanceTask is the periodic subscription sweep. Unique keeps a
// second scheduler instance from queueing another run the same day.
func NewMaintenanceTask() *asynq.Task {
	return asynq.NewTask(TypeMaintenanceSweep, nil, asynq.MaxRetry(1), asynq.Unique(23*time.Hour), asynq.Timeout(10*time.Minute))
}

// Decode unmarshals a task payload into v.
func Decode(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", t.Type(), err)
	}
	return nil
}
