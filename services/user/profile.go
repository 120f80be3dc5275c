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

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func (s *DefaultUserService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("User not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load user", err)
	}
	return user, nil
}

func (s *DefaultUserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate, avatar *multipart.FileHeader) (*models.User, error) {
	current, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, utils.BadRequest("Name cannot be empty")
		}
		set["name"] = name
	}
	if update.Phone != nil {
		set["phone"] = strings.TrimSpace(*update.Phone)
	}
	if update.Address != nil {
		set["address"] = strings.TrimSpace(*update.Address)
	}
	if update.Bio != nil {
		set["bio"] = strings.TrimSpace(*update.Bio)
	}

	var newAvatar string
	if avatar != nil {
		if err := storage.ValidateUpload(avatar); err != nil {
			return nil, err
		}
		if newAvatar, err = s.Files.Save(ctx, avatar, "avatars"); err != nil {
			return nil, utils.Internal("Failed to store avatar", err)
		}
		set["avatar"] = newAvatar
	}

	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.Repo.Update(ctx, id, set)
	if err != nil {
		if newAvatar != "" {
			storage.DeleteAll(ctx, s.Files, []string{newAvatar})
		}
		return nil, utils.Internal("Failed to update profile", err)
	}
	if newAvatar != "" && current.Avatar != "" {
		storage.DeleteAll(ctx, s.Files, []string{current.Avatar})
	}
	return updated, nil
}

func (s *DefaultUserService) ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return utils.BadRequest("Current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return utils.BadRequest("Password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.Internal("Failed to update password", err)
	}
	if _, err := s.Repo.Update(ctx, id, bson.M{"passwordHash": string(hash)}); err != nil {
		return utils.Internal("Failed to update password", err)
	}
	return nil
}

func (s *DefaultUserService) GetReferrals(ctx context.Context, id primitive.ObjectID) ([]models.Referral, error) {
	referrals, err := s.Referrals.ListByReferrer(ctx, id)
	if err != nil {
		return nil, utils.Internal("Failed to load referrals", err)
	}
	return referrals, nil
}
