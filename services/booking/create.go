package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"homehub/database"
	bookingRepo "homehub/database/repository/booking"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func normalizeGuest(g *models.GuestInfo) (*models.GuestInfo, error) {
	if g == nil {
		return nil, utils.BadRequest("Guest details (name and phone or email) are required when not signed in")
	}
	guest := &models.GuestInfo{
		Name:  strings.TrimSpace(g.Name),
		Email: models.NormalizeEmail(g.Email),
		Phone: strings.TrimSpace(g.Phone),
	}
	if guest.Name == "" || (guest.Email == "" && guest.Phone == "") {
		return nil, utils.BadRequest("Guest details (name and phone or email) are required when not signed in")
	}
	if guest.Email != "" && !models.ValidEmail(guest.Email) {
		return nil, utils.BadRequest("Guest email is not a valid address")
	}
	return guest, nil
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, requester *access.Subject, req models.BookingRequest, idempotencyKey string) (*models.Booking, bool, error) {
	var guest *models.GuestInfo
	var seeker *models.User
	var err error

	if requester == nil {
		if guest, err = normalizeGuest(req.Guest); err != nil {
			return nil, false, err
		}
	} else if seeker, err = s.Users.GetByID(ctx, requester.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, utils.Unauthorized("Account not found")
		}
		return nil, false, utils.Internal("Failed to create booking", err)
	}

	serviceID, err := utils.ParseObjectID(req.ServiceID, "service id")
	if err != nil {
		return nil, false, err
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, false, err
	}
	if date.Before(utils.StartOfDay(s.now())) {
		return nil, false, utils.BadRequest("Booking date cannot be in the past")
	}

	service, err := s.Services.GetByID(ctx, serviceID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !service.IsActive()) {
		return nil, false, utils.NotFound("Service not found")
	}
	if err != nil {
		return nil, false, utils.Internal("Failed to create booking", err)
	}
	if requester != nil && requester.ID == service.ProviderID {
		return nil, false, utils.BadRequest("You cannot book your own service")
	}
	if s.References != nil {
		if err := s.References.EnsureReferences(ctx, service); err != nil {
			return nil, false, err
		}
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if existing, err := s.findExisting(ctx, requester, guest, serviceID, date, idempotencyKey); err != nil || existing != nil {
		return existing, false, err
	}
	if err := s.checkProviderLimit(ctx, service); err != nil {
		return nil, false, err
	}

	booking := &models.Booking{
		Guest:          guest,
		ServiceID:      service.ID,
		ProviderID:     service.ProviderID,
		CategoryID:     service.CategoryID,
		ServiceTypeID:  service.ServiceTypeID,
		Date:           date,
		Note:           strings.TrimSpace(req.Note),
		Status:         models.BookingPending,
		IdempotencyKey: idempotencyKey,
	}
	if seeker != nil {
		booking.UserID = &seeker.ID
		booking.ContactEmail = seeker.Email
	} else {
		booking.ContactEmail = guest.Email
	}

	if err := s.Repo.Create(ctx, booking); err != nil {
		if errors.Is(err, database.ErrDuplicate) && idempotencyKey != "" {
			existing, getErr := s.Repo.GetByIdempotencyKey(ctx, idempotencyKey)
			if getErr == nil {
				if !ownedBy(existing, requester, guest) {
					return nil, false, idempotencyConflict()
				}
				return existing, false, nil
			}
		}
		return nil, false, utils.Internal("Failed to create booking", err)
	}

	s.afterCreate(ctx, booking, service, seeker)
	return booking, true, nil
}

// findExisting implements the duplicate guard: a known idempotency key, or a
// live booking by the same requester for the same service and date.
func (s *DefaultBookingService) findExisting(ctx context.Context, requester *access.Subject, guest *models.GuestInfo, serviceID primitive.ObjectID, date time.Time, idempotencyKey string) (*models.Booking, error) {
	if idempotencyKey != "" {
		existing, err := s.Repo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			if !ownedBy(existing, requester, guest) {
				return nil, idempotencyConflict()
			}
			return existing, nil
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, utils.Internal("Failed to create booking", err)
		}
	}

	key := bookingRepo.DuplicateKey{ServiceID: serviceID, Date: date}
	if requester != nil {
		key.UserID = &requester.ID
	} else {
		key.GuestEmail, key.GuestPhone = guest.Email, guest.Phone
	}
	existing, err := s.Repo.FindDuplicate(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.Internal("Failed to create booking", err)
	}
	return existing, nil
}

// ownedBy reports whether booking was made by the same member, or by a
// guest with the same contact details.
func ownedBy(booking *models.Booking, requester *access.Subject, guest *models.GuestInfo) bool {
	if requester != nil {
		return booking.UserID != nil && *booking.UserID == requester.ID
	}
	if booking.UserID != nil || booking.Guest == nil || guest == nil {
		return false
	}
	if guest.Email != "" {
		return booking.Guest.Email == guest.Email
	}
	return booking.Guest.Phone == guest.Phone
}

func idempotencyConflict() error {
	return utils.Conflict("Idempotency key was already used for another booking")
}

// checkProviderLimit applies the owning provider's monthly booking limit.
func (s *DefaultBookingService) checkProviderLimit(ctx context.Context, service *models.Service) error {
	if s.Policy == nil {
		return nil
	}
	owner := access.Subject{ID: service.ProviderID, Role: models.RoleProvider}
	if provider, err := s.Users.GetByID(ctx, service.ProviderID); err == nil && provider.Role.IsAdmin() {
		owner.Role = provider.Role
	}
	_, err := s.Policy.Require(ctx, owner, access.CapReceiveBooking)
	return err
}

// afterCreate runs the best-effort follow-ups of a new booking. None of them
// can fail the request.
func (s *DefaultBookingService) afterCreate(ctx context.Context, booking *models.Booking, service *models.Service, seeker *models.User) {
	logger := utils.GetLogger()

	if seeker != nil && s.LoyaltyPoints > 0 {
		if err := s.Users.AddLoyaltyPoints(ctx, seeker.ID, s.LoyaltyPoints); err != nil {
			logger.Warn("Failed to award loyalty points", zap.String("bookingId", booking.ID.Hex()), zap.Error(err))
		} else {
			booking.PointsAwarded = s.LoyaltyPoints
			if err := s.Repo.SetPointsAwarded(ctx, booking.ID, s.LoyaltyPoints); err != nil {
				logger.Warn("Failed to record awarded points", zap.String("bookingId", booking.ID.Hex()), zap.Error(err))
			}
		}
	}

	if s.Subscriptions != nil {
		if sub, err := s.Subscriptions.FindCurrent(ctx, service.ProviderID); err == nil {
			if err := s.Subscriptions.IncrementUsage(ctx, sub.ID, "bookings", 1); err != nil {
				logger.Warn("Failed to track booking usage", zap.String("subscriptionId", sub.ID.Hex()), zap.Error(err))
			}
		}
	}

	if s.Tasks != nil {
		s.Tasks.BookingCreated(ctx, s.notification(ctx, booking, service, seeker))
	}
	logger.Info("Booking created", zap.String("bookingId", booking.ID.Hex()), zap.String("serviceId", service.ID.Hex()))
}

func (s *DefaultBookingService) notification(ctx context.Context, booking *models.Booking, service *models.Service, seeker *models.User) models.BookingNotification {
	n := models.BookingNotification{
		BookingID:    booking.ID.Hex(),
		ServiceTitle: service.Title,
		Date:         booking.Date,
	}
	switch {
	case seeker != nil:
		n.SeekerName, n.SeekerEmail, n.SeekerPhone = seeker.Name, seeker.Email, seeker.Phone
	case booking.Guest != nil:
		n.SeekerName, n.SeekerEmail, n.SeekerPhone = booking.Guest.Name, booking.Guest.Email, booking.Guest.Phone
	}
	if provider, err := s.Users.GetByID(ctx, service.ProviderID); err == nil {
		n.ProviderName, n.ProviderMail, n.ProviderTel = provider.Name, provider.Email, provider.Phone
	}
	return n
}
