package booking

import (
	"context"
	"time"

	bookingRepo "homehub/database/repository/booking"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/tasks"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	// CreateBooking returns the stored booking and whether it was newly
	// created; a repeated submission returns the original with false.
	CreateBooking(ctx context.Context, requester *access.Subject, req models.BookingRequest, idempotencyKey string) (*models.Booking, bool, error)
	GetBooking(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Booking, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error)
	ListForProvider(ctx context.Context, providerID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error)
	ListAll(ctx context.Context, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error)
	UpdateStatus(ctx context.Context, actor access.Subject, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error)
}

type ServiceLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
}

// ReferenceResolver backfills category and type ids on legacy services.
type ReferenceResolver interface {
	EnsureReferences(ctx context.Context, service *models.Service) error
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	AddLoyaltyPoints(ctx context.Context, id primitive.ObjectID, points int) error
}

type UsageTracker interface {
	FindCurrent(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error)
	IncrementUsage(ctx context.Context, id primitive.ObjectID, field string, delta int) error
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Repo          bookingRepo.BookingRepository
	Services      ServiceLookup
	References    ReferenceResolver
	Users         UserStore
	Subscriptions UsageTracker
	// Policy is optional; it enforces the provider's monthly booking limit.
	Policy        access.Policy
	Tasks         tasks.Dispatcher
	LoyaltyPoints int
	Now           func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
