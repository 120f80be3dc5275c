package userRepo

import (
	"context"

	"homehub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role   models.Role
	Status models.UserStatus
	Query  string
}

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user; a taken email or referral code yields ErrDuplicate.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by its ObjectID.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByReferralCode retrieves the owner of a referral code.
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	// GetByOAuth retrieves a user linked to an external identity.
	GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error)
	// Update applies set to the user and returns the updated document.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	// AddLoyaltyPoints atomically increments the user's loyalty balance.
	AddLoyaltyPoints(ctx context.Context, id primitive.ObjectID, points int) error
	// List returns a page of users and the total matching count.
	List(ctx context.Context, filter UserFilter, skip, limit int64) ([]models.User, int64, error)
	// CountByRole groups user counts by role.
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// ReferralRepository records who referred whom.
type ReferralRepository interface {
	// Create inserts a referral; a referred user can only be referred once.
	Create(ctx context.Context, referral *models.Referral) error
	// ListByReferrer returns every referral credited to referrerID.
	ListByReferrer(ctx context.Context, referrerID primitive.ObjectID) ([]models.Referral, error)
}
