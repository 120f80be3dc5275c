package models

import (
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a user's platform role.
type Role string

const (
	RoleSeeker     Role = "seeker"
	RoleProvider   Role = "provider"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
	RoleSupport    Role = "support"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSeeker, RoleProvider, RoleAdmin, RoleSuperAdmin, RoleSupport:
		return true
	}
	return false
}

// IsAdmin reports whether r carries admin privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// SelfRegistrable reports whether the role can be chosen at sign up.
func (r Role) SelfRegistrable() bool {
	return r == RoleSeeker || r == RoleProvider
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a seeker, provider or staff account. Users are never hard-deleted.
type User struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name          string              `bson:"name" json:"name"`
	Email         string              `bson:"email" json:"email"`
	Phone         string              `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash  string              `bson:"passwordHash,omitempty" json:"-"`
	Role          Role                `bson:"role" json:"role"`
	Status        UserStatus          `bson:"status" json:"status"`
	Avatar        string              `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Address       string              `bson:"address,omitempty" json:"address,omitempty"`
	Bio           string              `bson:"bio,omitempty" json:"bio,omitempty"`
	Documents     []string            `bson:"documents,omitempty" json:"documents,omitempty"`
	LoyaltyPoints int                 `bson:"loyaltyPoints" json:"loyaltyPoints"`
	ReferralCode  string              `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	ReferredBy    *primitive.ObjectID `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	OAuthProvider string              `bson:"oauthProvider,omitempty" json:"oauthProvider,omitempty"`
	OAuthSubject  string              `bson:"oauthSubject,omitempty" json:"-"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether addr is a single bare address.
func ValidEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

// RegistrationRequest is the sign-up payload.
type RegistrationRequest struct {
	Name         string `json:"name" form:"name"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	Password     string `json:"password" form:"password"`
	Role         Role   `json:"role" form:"role"`
	ReferralCode string `json:"referralCode" form:"referralCode"`
}

// ProfileUpdate carries the user-editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name" form:"name"`
	Phone   *string `json:"phone" form:"phone"`
	Address *string `json:"address" form:"address"`
	Bio     *string `json:"bio" form:"bio"`
	Avatar  *string `json:"-"`
}

// AuthResponse is returned by every successful login path.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// OAuthProfile is the identity returned by an external login provider.
type OAuthProfile struct {
	Provider string
	Subject  string
	Email    string
	// EmailVerified is set only when the provider vouches for the address.
	EmailVerified bool
	Name          string
	Avatar        string
}
