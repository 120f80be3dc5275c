package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamMember is shown on the public "about" page.
type TeamMember struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Position  string             `bson:"position" json:"position"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Order     int                `bson:"order" json:"order"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Testimonial is a curated customer quote.
type Testimonial struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty"`
	Quote     string             `bson:"quote" json:"quote"`
	Rating    int                `bson:"rating" json:"rating"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	Order     int                `bson:"order" json:"order"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PromotionalBanner is a homepage banner with an optional validity window.
type PromotionalBanner struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Subtitle  string             `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	LinkURL   string             `bson:"linkUrl,omitempty" json:"linkUrl,omitempty"`
	StartDate *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Order     int                `bson:"order" json:"order"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsLive reports whether the banner should be shown at now.
func (b *PromotionalBanner) IsLive(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.StartDate != nil && now.Before(*b.StartDate) {
		return false
	}
	if b.EndDate != nil && !now.Before(*b.EndDate) {
		return false
	}
	return true
}

// Referral records that one user brought in another.
type Referral struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferrerID     primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	ReferredUserID primitive.ObjectID `bson:"referredUserId" json:"referredUserId"`
	PointsAwarded  int                `bson:"pointsAwarded" json:"pointsAwarded"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// TeamMemberInput is the admin form for a team member. Nil fields are left
// unchanged on update.
type TeamMemberInput struct {
	Name     string  `form:"name" json:"name"`
	Position string  `form:"position" json:"position"`
	Bio      *string `form:"bio" json:"bio"`
	Order    *int    `form:"order" json:"order"`
	Active   *bool   `form:"active" json:"active"`
}

// TestimonialInput is the admin form for a testimonial.
type TestimonialInput struct {
	Name   string  `form:"name" json:"name"`
	Role   *string `form:"role" json:"role"`
	Quote  string  `form:"quote" json:"quote"`
	Rating *int    `form:"rating" json:"rating"`
	Order  *int    `form:"order" json:"order"`
	Active *bool   `form:"active" json:"active"`
}

// BannerInput is the admin form for a promotional banner. Dates are RFC3339
// or YYYY-MM-DD.
type BannerInput struct {
	Title     string  `form:"title" json:"title"`
	Subtitle  *string `form:"subtitle" json:"subtitle"`
	LinkURL   *string `form:"linkUrl" json:"linkUrl"`
	StartDate *string `form:"startDate" json:"startDate"`
	EndDate   *string `form:"endDate" json:"endDate"`
	Order     *int    `form:"order" json:"order"`
	Active    *bool   `form:"active" json:"active"`
}
