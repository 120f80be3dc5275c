package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a booking may move from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// GuestInfo is the inline contact block of an unauthenticated booking or review.
type GuestInfo struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Booking links a seeker (or guest) to a service on a date.
type Booking struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	Guest          *GuestInfo          `bson:"guest,omitempty" json:"guest,omitempty"`
	ServiceID      primitive.ObjectID  `bson:"serviceId" json:"serviceId"`
	ProviderID     primitive.ObjectID  `bson:"providerId" json:"providerId"`
	CategoryID     primitive.ObjectID  `bson:"categoryId" json:"categoryId"`
	ServiceTypeID  primitive.ObjectID  `bson:"serviceTypeId,omitempty" json:"serviceTypeId,omitempty"`
	Date           time.Time           `bson:"date" json:"date"`
	Note           string              `bson:"note,omitempty" json:"note,omitempty"`
	Status         BookingStatus       `bson:"status" json:"status"`
	PointsAwarded  int                 `bson:"pointsAwarded" json:"pointsAwarded"`
	IdempotencyKey string              `bson:"idempotencyKey,omitempty" json:"-"`
	ContactEmail   string              `bson:"contactEmail,omitempty" json:"-"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// BookingRequest is the booking submission payload.
type BookingRequest struct {
	ServiceID string     `json:"serviceId"`
	Date      string     `json:"date"`
	Note      string     `json:"note"`
	Guest     *GuestInfo `json:"guest"`
}

// BookingNotification is the payload queued after a booking is created.
type BookingNotification struct {
	BookingID    string    `json:"bookingId"`
	ServiceTitle string    `json:"serviceTitle"`
	Date         time.Time `json:"date"`
	SeekerName   string    `json:"seekerName"`
	SeekerEmail  string    `json:"seekerEmail"`
	SeekerPhone  string    `json:"seekerPhone"`
	ProviderName string    `json:"providerName"`
	ProviderMail string    `json:"providerEmail"`
	ProviderTel  string    `json:"providerPhone"`
}
