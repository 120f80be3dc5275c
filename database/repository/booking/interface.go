package bookingRepo

import (
	"context"
	"time"

	"homehub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DuplicateKey identifies "the same booking" for the duplicate guard: one
// requester, one service, one date. Guest keys only match guest bookings.
type DuplicateKey struct {
	UserID     *primitive.ObjectID
	GuestEmail string
	GuestPhone string
	ServiceID  primitive.ObjectID
	Date       time.Time
}

// ListFilter narrows booking listings.
type ListFilter struct {
	UserID     *primitive.ObjectID
	ProviderID *primitive.ObjectID
	Status     models.BookingStatus
}

// BookingRepository persists bookings.
type BookingRepository interface {
	// Create inserts a booking; a reused idempotency key yields ErrDuplicate.
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	// GetByIdempotencyKey looks a key up across all owners; callers check
	// that the booking belongs to the requester.
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	// FindDuplicate returns a non-cancelled booking matching key, or ErrNotFound.
	FindDuplicate(ctx context.Context, key DuplicateKey) (*models.Booking, error)
	List(ctx context.Context, filter ListFilter, skip, limit int64) ([]models.Booking, int64, error)
	// TransitionStatus moves the booking from one status to another only if it
	// is still in from; ErrNotFound means it was not.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.BookingStatus) (*models.Booking, error)
	SetPointsAwarded(ctx context.Context, id primitive.ObjectID, points int) error
	// CountForProviderSince counts non-cancelled bookings a provider received
	// at or after since.
	CountForProviderSince(ctx context.Context, providerID primitive.ObjectID, since time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}
