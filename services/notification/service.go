package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homehub/models"
)

// NotificationService sends the transactional messages of the marketplace.
// Callers treat every error as best effort: log it, never fail a request.
type NotificationService interface {
	NotifyBookingCreated(ctx context.Context, n models.BookingNotification) error
	NotifyBookingStatus(ctx context.Context, n models.BookingNotification, status models.BookingStatus) error
	SendSubscriptionReminder(ctx context.Context, user *models.User, p models.ReminderPayload) error
	NotifyApplicationDecision(ctx context.Context, d models.DecisionNotice) error
	SendWelcome(ctx context.Context, user *models.User) error
}

// DefaultNotificationService fans messages out to email and WhatsApp.
type DefaultNotificationService struct {
	email    EmailSender
	whatsapp WhatsAppSender
}

func NewDefaultNotificationService(email EmailSender, whatsapp WhatsAppSender) *DefaultNotificationService {
	return &DefaultNotificationService{email: email, whatsapp: whatsapp}
}

func (s *DefaultNotificationService) both(ctx context.Context, email, phone, subject, body string) error {
	return errors.Join(
		s.email.Send(ctx, email, subject, body),
		s.whatsapp.Send(ctx, phone, body),
	)
}

func (s *DefaultNotificationService) NotifyBookingCreated(ctx context.Context, n models.BookingNotification) error {
	when := n.Date.Format("Mon, 02 Jan 2006")

	seekerBody := fmt.Sprintf("Hi %s, your booking for %s on %s has been received. %s will confirm it shortly.",
		n.SeekerName, n.ServiceTitle, when, n.ProviderName)
	providerBody := fmt.Sprintf("Hi %s, you have a new booking request for %s on %s from %s (%s).",
		n.ProviderName, n.ServiceTitle, when, n.SeekerName, firstNonEmpty(n.SeekerPhone, n.SeekerEmail))

	return errors.Join(
		s.both(ctx, n.SeekerEmail, n.SeekerPhone, "Booking received: "+n.ServiceTitle, seekerBody),
		s.both(ctx, n.ProviderMail, n.ProviderTel, "New booking: "+n.ServiceTitle, providerBody),
	)
}

func (s *DefaultNotificationService) NotifyBookingStatus(ctx context.Context, n models.BookingNotification, status models.BookingStatus) error {
	body := fmt.Sprintf("Hi %s, your booking for %s on %s is now %s.",
		n.SeekerName, n.ServiceTitle, n.Date.Format("Mon, 02 Jan 2006"), status)
	return s.both(ctx, n.SeekerEmail, n.SeekerPhone, "Booking "+string(status)+": "+n.ServiceTitle, body)
}

func (s *DefaultNotificationService) SendSubscriptionReminder(ctx context.Context, user *models.User, p models.ReminderPayload) error {
	if user == nil {
		return errors.New("reminder recipient is missing")
	}
	body := fmt.Sprintf("Hi %s, your %s subscription ends on %s (%d day%s left). Renew to keep your listings live.",
		user.Name, p.PlanName, p.EndDate.Format("02 Jan 2006"), p.DaysLeft, plural(p.DaysLeft))
	return s.email.Send(ctx, user.Email, "Your HomeHub subscription is ending soon", body)
}

func (s *DefaultNotificationService) NotifyApplicationDecision(ctx context.Context, d models.DecisionNotice) error {
	var body string
	switch d.Decision {
	case models.DecisionApproved:
		body = fmt.Sprintf("Hi %s, congratulations! Your %s application has been approved.", d.Name, d.Programme)
	case models.DecisionRejected:
		body = fmt.Sprintf("Hi %s, thank you for applying to %s. Unfortunately your application was not approved this time.", d.Name, d.Programme)
	default:
		return nil
	}
	if strings.TrimSpace(d.Note) != "" {
		body += "\n\nNote from the team: " + d.Note
	}
	return s.both(ctx, d.Email, d.Phone, "Your "+d.Programme+" application", body)
}

func (s *DefaultNotificationService) SendWelcome(ctx context.Context, user *models.User) error {
	body := fmt.Sprintf("Welcome to HomeHub, %s! Your referral code is %s.", user.Name, user.ReferralCode)
	return s.email.Send(ctx, user.Email, "Welcome to HomeHub", body)
}

// plural returns "s" if n is not 1, otherwise returns an empty string.
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
