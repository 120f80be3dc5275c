package user

import (
	"context"
	"mime/multipart"

	userRepo "homehub/database/repository/user"
	"homehub/models"
	"homehub/services/storage"
	"homehub/services/tasks"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 8

type UserService interface {
	// Authentication
	Register(ctx context.Context, req models.RegistrationRequest, documents []*multipart.FileHeader) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	LoginWithOAuth(ctx context.Context, profile models.OAuthProfile) (*models.AuthResponse, error)

	// Profile
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate, avatar *multipart.FileHeader) (*models.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error
	GetReferrals(ctx context.Context, id primitive.ObjectID) ([]models.Referral, error)

	// Admin
	ListUsers(ctx context.Context, filter userRepo.UserFilter, page utils.Page) ([]models.User, int64, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo           userRepo.UserRepository
	Referrals      userRepo.ReferralRepository
	Files          storage.FileStore
	AuthCache      utils.Cache
	Tasks          tasks.Dispatcher
	ReferralPoints int
}
