package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one rating of a service. A signed-in user has at most one
// review per service; guests may leave any number.
type Review struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ServiceID  primitive.ObjectID  `bson:"serviceId" json:"serviceId"`
	UserID     *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	AuthorName string              `bson:"authorName" json:"authorName"`
	GuestEmail string              `bson:"guestEmail,omitempty" json:"-"`
	Rating     int                 `bson:"rating" json:"rating"`
	Comment    string              `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ReviewInput is the review submission payload.
type ReviewInput struct {
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
}
