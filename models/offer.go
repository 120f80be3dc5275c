package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SpecialOffer is a provider-authored discount on one of their services.
type SpecialOffer struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID      primitive.ObjectID `bson:"providerId" json:"providerId"`
	ServiceID       primitive.ObjectID `bson:"serviceId" json:"serviceId"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	DiscountPercent float64            `bson:"discountPercent" json:"discountPercent"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	StartDate       time.Time          `bson:"startDate" json:"startDate"`
	EndDate         time.Time          `bson:"endDate" json:"endDate"`
	MaxUses         int                `bson:"maxUses" json:"maxUses"`
	UsedCount       int                `bson:"usedCount" json:"usedCount"`
	Active          bool               `bson:"active" json:"active"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsRedeemable reports whether the offer can be used at now.
func (o *SpecialOffer) IsRedeemable(now time.Time) bool {
	if !o.Active || now.Before(o.StartDate) || !now.Before(o.EndDate) {
		return false
	}
	return o.MaxUses == 0 || o.UsedCount < o.MaxUses
}

// OfferInput is the create/update payload for an offer.
type OfferInput struct {
	ServiceID       string   `form:"serviceId" json:"serviceId"`
	Title           string   `form:"title" json:"title"`
	Description     string   `form:"description" json:"description"`
	DiscountPercent *float64 `form:"discountPercent" json:"discountPercent"`
	StartDate       string   `form:"startDate" json:"startDate"`
	EndDate         string   `form:"endDate" json:"endDate"`
	MaxUses         *int     `form:"maxUses" json:"maxUses"`
	Active          *bool    `form:"active" json:"active"`
}
