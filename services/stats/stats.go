package stats

import (
	"context"
	"encoding/json"
	"time"

	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type StatsService interface {
	Public(ctx context.Context) (*models.PublicStats, error)
	Admin(ctx context.Context) (*models.AdminStats, error)
}

type ServiceCounter interface {
	CountActive(ctx context.Context) (int64, error)
	CountProviders(ctx context.Context) (int64, error)
}

type BookingCounter interface {
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type CategoryCounter interface {
	Count(ctx context.Context) (int64, error)
}

type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// ActiveCounter counts subscriptions or memberships running at now.
type ActiveCounter interface {
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// RecordCounter is satisfied by the generic record stores.
type RecordCounter interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
}

type DefaultStatsService struct {
	Services      ServiceCounter
	Bookings      BookingCounter
	Categories    CategoryCounter
	Users         UserCounter
	Subscriptions ActiveCounter
	Memberships   ActiveCounter
	Applications  RecordCounter
	Women         RecordCounter
	Inquiries     RecordCounter
	// Cache is optional; without it every call hits the database.
	Cache utils.Cache
	Now   func() time.Time
}

func (s *DefaultStatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Public serves the homepage counters from Redis when a fresh snapshot
// exists, computing and caching it otherwise.
func (s *DefaultStatsService) Public(ctx context.Context) (*models.PublicStats, error) {
	logger := utils.GetLogger()
	if s.Cache != nil {
		raw, ok, err := s.Cache.Get(ctx, utils.StatsCacheKey)
		if err != nil {
			logger.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			var cached models.PublicStats
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.computePublic(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		if b, err := json.Marshal(stats); err == nil {
			if err := s.Cache.Set(ctx, utils.StatsCacheKey, string(b), utils.StatsCacheTTL); err != nil {
				logger.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *DefaultStatsService) computePublic(ctx context.Context) (*models.PublicStats, error) {
	out := &models.PublicStats{ComputedAt: s.now()}
	var err error
	if out.Services, err = s.Services.CountActive(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.Providers, err = s.Services.CountProviders(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.Bookings, err = s.Bookings.Count(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.Categories, err = s.Categories.Count(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	roles, err := s.Users.CountByRole(ctx)
	if err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	out.Seekers = roles[string(models.RoleSeeker)]
	return out, nil
}

func (s *DefaultStatsService) Admin(ctx context.Context) (*models.AdminStats, error) {
	now := s.now()
	out := &models.AdminStats{}
	var err error
	if out.UsersByRole, err = s.Users.CountByRole(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.BookingsByStatus, err = s.Bookings.CountByStatus(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.ActiveSubscriptions, err = s.Subscriptions.CountActive(ctx, now); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.ActiveMemberships, err = s.Memberships.CountActive(ctx, now); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	if out.Services, err = s.Services.CountActive(ctx); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}

	jobApps, err := s.Applications.Count(ctx, bson.M{"status": models.ApplicationSubmitted})
	if err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	women, err := s.Women.Count(ctx, bson.M{"status": models.DecisionPending})
	if err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	out.PendingApplications = jobApps + women
	if out.OpenInquiries, err = s.Inquiries.Count(ctx, bson.M{}); err != nil {
		return nil, utils.Internal("Failed to compute statistics", err)
	}
	return out, nil
}
