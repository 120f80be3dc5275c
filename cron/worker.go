package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homehub/config"
	"homehub/database"
	"homehub/models"
	"homehub/services/maintenance"
	"homehub/services/notification"
	"homehub/services/tasks"
	"homehub/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handlers processes the background task types.
type Handlers struct {
	Notifier notification.NotificationService
	Users    tasks.UserLookup
	Sweeper  maintenance.Sweeper
}

// Mux routes every task type to its handler.
func (h *Handlers) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingCreated, h.handleBookingCreated)
	mux.HandleFunc(tasks.TypeBookingStatus, h.handleBookingStatus)
	mux.HandleFunc(tasks.TypeSubscriptionRemind, h.handleReminder)
	mux.HandleFunc(tasks.TypeApplicationDecision, h.handleDecision)
	mux.HandleFunc(tasks.TypeWelcome, h.handleWelcome)
	mux.HandleFunc(tasks.TypeMaintenanceSweep, h.handleMaintenance)
	return mux
}

// decode rejects malformed payloads without retrying them.
func decode(t *asynq.Task, v interface{}) error {
	if err := tasks.Decode(t, v); err != nil {
		utils.GetLogger().Error("dropping task with invalid payload", zap.String("task", t.Type()), zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (h *Handlers) handleBookingCreated(ctx context.Context, t *asynq.Task) error {
	var n models.BookingNotification
	if err := decode(t, &n); err != nil {
		return err
	}
	return h.Notifier.NotifyBookingCreated(ctx, n)
}

func (h *Handlers) handleBookingStatus(ctx context.Context, t *asynq.Task) error {
	var p tasks.BookingStatusPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	return h.Notifier.NotifyBookingStatus(ctx, p.Notice, p.Status)
}

func (h *Handlers) handleReminder(ctx context.Context, t *asynq.Task) error {
	var p models.ReminderPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	userID, err := primitive.ObjectIDFromHex(p.UserID)
	if err != nil {
		return fmt.Errorf("invalid reminder user id %q: %w", p.UserID, asynq.SkipRetry)
	}
	user, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		utils.GetLogger().Warn("reminder recipient no longer exists", zap.String("userId", p.UserID))
		return nil
	}
	if err != nil {
		return err
	}
	utils.GetLogger().Info("sending subscription reminder",
		zap.String("subscriptionId", p.SubscriptionID),
		zap.Int("daysLeft", p.DaysLeft))
	return h.Notifier.SendSubscriptionReminder(ctx, user, p)
}

func (h *Handlers) handleDecision(ctx context.Context, t *asynq.Task) error {
	var d models.DecisionNotice
	if err := decode(t, &d); err != nil {
		return err
	}
	return h.Notifier.NotifyApplicationDecision(ctx, d)
}

func (h *Handlers) handleWelcome(ctx context.Context, t *asynq.Task) error {
	var u models.User
	if err := decode(t, &u); err != nil {
		return err
	}
	return h.Notifier.SendWelcome(ctx, &u)
}

func (h *Handlers) handleMaintenance(ctx context.Context, t *asynq.Task) error {
	_, err := h.Sweeper.Sweep(ctx)
	return err
}

// RedisOpt is the asynq connection for the queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// Worker owns the asynq server and the maintenance scheduler.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	stop      context.CancelFunc
}

// StartWorker runs the task server and registers the maintenance schedule.
// Startup failures are retried in the background.
func StartWorker(h *Handlers) *Worker {
	logger := utils.GetLogger()
	opt := RedisOpt()

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      logger.Sugar(),
	})
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Logger: logger.Sugar()})

	spec := config.AppConfig.MaintenanceCron
	if spec == "" {
		spec = "@daily"
	}
	if _, err := scheduler.Register(spec, tasks.NewMaintenanceTask()); err != nil {
		logger.Error("invalid maintenance schedule", zap.String("cron", spec), zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{server: srv, scheduler: scheduler, stop: cancel}

	go monitorRedisConnection(ctx, opt)
	go func() {
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Start(h.Mux())
			if err == nil {
				logger.Info("task worker started")
				break
			}
			logger.Warn("task worker failed to start", zap.Int("attempt", attempt), zap.Error(err))
			if attempt == maxAttempts {
				logger.Error("task worker gave up; tasks will be delivered inline")
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt*2) * time.Second):
			}
		}
		if err := scheduler.Start(); err != nil {
			logger.Error("maintenance scheduler failed to start", zap.Error(err))
		}
	}()
	return w
}

// Shutdown stops the scheduler, then waits for in-flight tasks.
func (w *Worker) Shutdown() {
	w.stop()
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// monitorRedisConnection pings the queue database to surface outages in
// the logs.
func monitorRedisConnection(ctx context.Context, opt asynq.RedisClientOpt) {
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				utils.GetLogger().Warn("task queue Redis unreachable", zap.Error(err))
			}
		}
	}
}
