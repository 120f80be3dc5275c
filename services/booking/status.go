package booking

import (
	"context"
	"errors"

	"homehub/database"
	bookingRepo "homehub/database/repository/booking"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultBookingService) list(ctx context.Context, filter bookingRepo.ListFilter, page utils.Page) ([]models.Booking, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, utils.BadRequest("Unknown booking status %q", filter.Status)
	}
	bookings, total, err := s.Repo.List(ctx, filter, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list bookings", err)
	}
	return bookings, total, nil
}

func (s *DefaultBookingService) ListForUser(ctx context.Context, userID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return s.list(ctx, bookingRepo.ListFilter{UserID: &userID, Status: status}, page)
}

func (s *DefaultBookingService) ListForProvider(ctx context.Context, providerID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return s.list(ctx, bookingRepo.ListFilter{ProviderID: &providerID, Status: status}, page)
}

func (s *DefaultBookingService) ListAll(ctx context.Context, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return s.list(ctx, bookingRepo.ListFilter{Status: status}, page)
}

func isSeeker(actor access.Subject, b *models.Booking) bool {
	return b.UserID != nil && *b.UserID == actor.ID
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Booking, error) {
	booking, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Booking not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load booking", err)
	}
	if !isSeeker(actor, booking) && booking.ProviderID != actor.ID && !actor.Role.IsAdmin() {
		// Other people's bookings are indistinguishable from missing ones.
		return nil, utils.NotFound("Booking not found")
	}
	return booking, nil
}

// UpdateStatus applies a status change. Providers and admins drive the
// workflow; a seeker may only cancel a booking that is still pending.
func (s *DefaultBookingService) UpdateStatus(ctx context.Context, actor access.Subject, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, utils.BadRequest("Unknown booking status %q", status)
	}
	booking, err := s.GetBooking(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	manager := booking.ProviderID == actor.ID || actor.Role.IsAdmin()
	if !manager {
		if status != models.BookingCancelled || booking.Status != models.BookingPending {
			return nil, utils.Forbidden("Only the provider can change this booking")
		}
	}
	if !booking.Status.CanTransitionTo(status) {
		return nil, utils.Conflict("Cannot move a %s booking to %s", booking.Status, status)
	}

	updated, err := s.Repo.TransitionStatus(ctx, id, booking.Status, status)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.Conflict("Booking was changed by someone else, reload and retry")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update booking", err)
	}

	utils.GetLogger().Info("Booking status changed",
		zap.String("bookingId", id.Hex()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(status)),
	)

	if s.Tasks != nil {
		var seeker *models.User
		if updated.UserID != nil {
			seeker, _ = s.Users.GetByID(ctx, *updated.UserID)
		}
		n := models.BookingNotification{BookingID: updated.ID.Hex(), Date: updated.Date}
		if service, err := s.Services.GetByID(ctx, updated.ServiceID); err == nil {
			n = s.notification(ctx, updated, service, seeker)
		} else if seeker != nil {
			n.SeekerName, n.SeekerEmail, n.SeekerPhone = seeker.Name, seeker.Email, seeker.Phone
		}
		s.Tasks.BookingStatusChanged(ctx, n, status)
	}
	return updated, nil
}
