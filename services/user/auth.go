package user

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func issueToken(user *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, string(user.Role), utils.TokenTTL())
	if err != nil {
		return nil, utils.Internal("Failed to issue token", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func validateRegistration(req *models.RegistrationRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return utils.BadRequest("Name, email and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return utils.BadRequest("Invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return utils.BadRequest("Password must be at least %d characters", minPasswordLength)
	}
	if req.Role == "" {
		req.Role = models.RoleSeeker
	}
	if !req.Role.SelfRegistrable() {
		return utils.BadRequest("Role must be seeker or provider")
	}
	return nil
}

// Register creates an account. A taken email is rejected before anything is
// written.
func (s *DefaultUserService) Register(ctx context.Context, req models.RegistrationRequest, documents []*multipart.FileHeader) (*models.AuthResponse, error) {
	if err := validateRegistration(&req); err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, utils.Internal("Registration failed, please try again", err)
	}
	if existing != nil {
		return nil, utils.BadRequest("A user with this email already exists")
	}

	var referrer *models.User
	if req.ReferralCode != "" {
		referrer, err = s.Repo.GetByReferralCode(ctx, req.ReferralCode)
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.BadRequest("Invalid referral code")
		}
		if err != nil {
			return nil, utils.Internal("Registration failed, please try again", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.Internal("Registration failed, please try again", err)
	}

	var docs []string
	if req.Role == models.RoleProvider && len(documents) > 0 {
		if docs, err = storage.SaveAll(ctx, s.Files, documents, "documents"); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       models.UserStatusActive,
		Documents:    docs,
		ReferralCode: newReferralCode(),
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	if err := s.create(ctx, user); err != nil {
		storage.DeleteAll(ctx, s.Files, docs)
		return nil, err
	}

	if referrer != nil {
		s.creditReferral(ctx, referrer, user)
	}
	if s.Tasks != nil {
		s.Tasks.Welcome(ctx, *user)
	}

	utils.GetLogger().Info("User registered", zap.String("userId", user.ID.Hex()), zap.String("role", string(user.Role)))
	return issueToken(user)
}

// create inserts user, regenerating the referral code once if it collided.
func (s *DefaultUserService) create(ctx context.Context, user *models.User) error {
	for attempt := 0; ; attempt++ {
		err := s.Repo.Create(ctx, user)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrDuplicate) {
			return utils.Internal("Registration failed, please try again", err)
		}
		if taken, _ := s.Repo.GetByEmail(ctx, user.Email); taken != nil || attempt > 0 {
			return utils.BadRequest("A user with this email already exists")
		}
		user.ID = primitive.NilObjectID
		user.ReferralCode = newReferralCode()
	}
}

func (s *DefaultUserService) creditReferral(ctx context.Context, referrer, referred *models.User) {
	logger := utils.GetLogger()
	if s.ReferralPoints > 0 {
		if err := s.Repo.AddLoyaltyPoints(ctx, referrer.ID, s.ReferralPoints); err != nil {
			logger.Warn("Failed to credit referral points", zap.String("referrerId", referrer.ID.Hex()), zap.Error(err))
			return
		}
	}
	if s.Referrals == nil {
		return
	}
	err := s.Referrals.Create(ctx, &models.Referral{
		ReferrerID:     referrer.ID,
		ReferredUserID: referred.ID,
		PointsAwarded:  s.ReferralPoints,
	})
	if err != nil {
		logger.Warn("Failed to record referral", zap.String("referredId", referred.ID.Hex()), zap.Error(err))
	}
}

func (s *DefaultUserService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, utils.BadRequest("Email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, utils.Internal("Login failed, please try again", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, utils.Unauthorized("Invalid email or password")
	}
	if !user.IsActive() {
		return nil, utils.Forbidden("Your account has been suspended")
	}
	return issueToken(user)
}

// LoginWithOAuth finds the user linked to the external identity, links an
// existing account with the same verified email, or creates a new seeker.
func (s *DefaultUserService) LoginWithOAuth(ctx context.Context, profile models.OAuthProfile) (*models.AuthResponse, error) {
	if profile.Subject == "" {
		return nil, utils.BadRequest("The identity provider returned no account id")
	}

	user, err := s.Repo.GetByOAuth(ctx, profile.Provider, profile.Subject)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, utils.Internal("Login failed, please try again", err)
	}

	email := models.NormalizeEmail(profile.Email)
	if user == nil && email != "" {
		linked, err := s.Repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, utils.Internal("Login failed, please try again", err)
		}
		if linked != nil && !profile.EmailVerified {
			return nil, utils.Conflict("An account with this email already exists. Sign in with your password to continue")
		}
		if linked != nil {
			set := bson.M{"oauthProvider": profile.Provider, "oauthSubject": profile.Subject}
			if linked.Avatar == "" && profile.Avatar != "" {
				set["avatar"] = profile.Avatar
			}
			if user, err = s.Repo.Update(ctx, linked.ID, set); err != nil {
				return nil, utils.Internal("Login failed, please try again", err)
			}
		}
	}

	if user == nil {
		if email == "" {
			return nil, utils.BadRequest("The identity provider did not share an email address")
		}
		user = &models.User{
			Name:          strings.TrimSpace(profile.Name),
			Email:         email,
			Role:          models.RoleSeeker,
			Status:        models.UserStatusActive,
			Avatar:        profile.Avatar,
			ReferralCode:  newReferralCode(),
			OAuthProvider: profile.Provider,
			OAuthSubject:  profile.Subject,
		}
		if user.Name == "" {
			user.Name = strings.Split(email, "@")[0]
		}
		if err := s.create(ctx, user); err != nil {
			return nil, err
		}
		if s.Tasks != nil {
			s.Tasks.Welcome(ctx, *user)
		}
	}

	if !user.IsActive() {
		return nil, utils.Forbidden("Your account has been suspended")
	}
	return issueToken(user)
}
