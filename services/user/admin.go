package user

import (
	"context"
	"errors"

	"homehub/database"
	userRepo "homehub/database/repository/user"
	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (s *DefaultUserService) ListUsers(ctx context.Context, filter userRepo.UserFilter, page utils.Page) ([]models.User, int64, error) {
	users, total, err := s.Repo.List(ctx, filter, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list users", err)
	}
	return users, total, nil
}

func (s *DefaultUserService) SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error) {
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, utils.BadRequest("Status must be active or suspended")
	}
	return s.adminUpdate(ctx, id, bson.M{"status": status})
}

func (s *DefaultUserService) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, utils.BadRequest("Unknown role %q", role)
	}
	return s.adminUpdate(ctx, id, bson.M{"role": role})
}

func (s *DefaultUserService) adminUpdate(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	user, err := s.Repo.Update(ctx, id, set)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("User not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update user", err)
	}

	// Drop the cached status so the change applies on the next request.
	if s.AuthCache != nil {
		if err := s.AuthCache.Del(ctx, utils.AuthCachePrefix+id.Hex()); err != nil {
			utils.GetLogger().Warn("Failed to invalidate auth cache", zap.String("userId", id.Hex()), zap.Error(err))
		}
	}
	return user, nil
}
