package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups service types, e.g. "Cleaning".
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ServiceType is a concrete kind of service inside a category, e.g. "Deep cleaning".
type ServiceType struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CategoryWithTypes is the public category listing shape.
type CategoryWithTypes struct {
	Category `bson:",inline"`
	Types    []ServiceType `json:"types"`
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify produces the normalized lookup key used for category and type names.
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusInactive ServiceStatus = "inactive"
)

// Rating is the running review aggregate of a service.
type Rating struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Service is a provider's offering. Category and type are always references.
type Service struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID    primitive.ObjectID `bson:"providerId" json:"providerId"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	CategoryID    primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	CategoryName  string             `bson:"categoryName,omitempty" json:"categoryName,omitempty"`
	ServiceTypeID primitive.ObjectID `bson:"serviceTypeId,omitempty" json:"serviceTypeId,omitempty"`
	TypeName      string             `bson:"typeName,omitempty" json:"typeName,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	PriceUnit     string             `bson:"priceUnit,omitempty" json:"priceUnit,omitempty"`
	Latitude      *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude     *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Location      *GeoPoint          `bson:"location,omitempty" json:"location,omitempty"`
	Address       string             `bson:"address,omitempty" json:"address,omitempty"`
	Photos        []string           `bson:"photos" json:"photos"`
	Status        ServiceStatus      `bson:"status" json:"status"`
	Featured      bool               `bson:"featured" json:"featured"`
	Rating        Rating             `bson:"rating" json:"rating"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SyncLocation keeps the GeoJSON point in step with the scalar coordinates.
func (s *Service) SyncLocation() {
	if s.Latitude == nil || s.Longitude == nil {
		s.Location = nil
		return
	}
	s.Location = &GeoPoint{Type: "Point", Coordinates: []float64{*s.Longitude, *s.Latitude}}
}

// IsActive reports whether the service can be booked.
func (s *Service) IsActive() bool {
	return s.Status == "" || s.Status == ServiceStatusActive
}

// ServiceInput is the publish/update payload for a service.
type ServiceInput struct {
	Title       string   `form:"title" json:"title"`
	Description string   `form:"description" json:"description"`
	Category    string   `form:"category" json:"category"`
	ServiceType string   `form:"serviceType" json:"serviceType"`
	Price       *float64 `form:"price" json:"price"`
	PriceUnit   string   `form:"priceUnit" json:"priceUnit"`
	Latitude    *float64 `form:"latitude" json:"latitude"`
	Longitude   *float64 `form:"longitude" json:"longitude"`
	Address     string   `form:"address" json:"address"`
	Status      string   `form:"status" json:"status"`
	// KeepPhotos lists existing photo refs to retain on update.
	KeepPhotos []string `form:"keepPhotos" json:"keepPhotos"`
}

// ServiceFilter drives the public service listing.
type ServiceFilter struct {
	CategoryID    *primitive.ObjectID
	ServiceTypeID *primitive.ObjectID
	ProviderID    *primitive.ObjectID
	Query         string
	MinPrice      *float64
	MaxPrice      *float64
	Near          *GeoPoint
	RadiusKm      float64
	IncludeAll    bool
	Skip          int64
	Limit         int64
}

// CategoryInput is the admin create/update payload for a category.
type CategoryInput struct {
	Name        string   `form:"name" json:"name"`
	Description *string  `form:"description" json:"description"`
	Icon        *string  `form:"icon" json:"icon"`
	Active      *bool    `form:"active" json:"active"`
	Types       []string `form:"types" json:"types"`
}
