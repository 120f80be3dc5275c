package review

import (
	"context"
	"errors"
	"strings"

	"homehub/database"
	reviewRepo "homehub/database/repository/review"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxCommentLength = 2000

type ReviewService interface {
	// Submit stores a review. A signed-in author replaces their previous
	// review of the service; guests add a new one.
	Submit(ctx context.Context, author *access.Subject, serviceID primitive.ObjectID, input models.ReviewInput) (*models.Review, error)
	List(ctx context.Context, serviceID primitive.ObjectID, page utils.Page) ([]models.Review, int64, error)
	Delete(ctx context.Context, actor access.Subject, id primitive.ObjectID) error
}

type ServiceStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
	SetRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type DefaultReviewService struct {
	Repo     reviewRepo.ReviewRepository
	Services ServiceStore
	Users    UserLookup
}

func (s *DefaultReviewService) Submit(ctx context.Context, author *access.Subject, serviceID primitive.ObjectID, input models.ReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, utils.BadRequest("Rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if len(comment) > maxCommentLength {
		return nil, utils.BadRequest("Comment is too long")
	}

	service, err := s.Services.GetByID(ctx, serviceID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Service not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to save review", err)
	}

	review := &models.Review{ServiceID: service.ID, Rating: input.Rating, Comment: comment}

	if author != nil {
		if author.ID == service.ProviderID {
			return nil, utils.BadRequest("You cannot review your own service")
		}
		user, err := s.Users.GetByID(ctx, author.ID)
		if err != nil {
			return nil, utils.Unauthorized("Account not found")
		}
		review.UserID = &user.ID
		review.AuthorName = user.Name
		if review, err = s.Repo.UpsertForUser(ctx, review); err != nil {
			return nil, utils.Internal("Failed to save review", err)
		}
	} else {
		review.AuthorName = strings.TrimSpace(input.GuestName)
		if review.AuthorName == "" {
			return nil, utils.BadRequest("Guest name is required when not signed in")
		}
		review.GuestEmail = models.NormalizeEmail(input.GuestEmail)
		if err := s.Repo.CreateGuest(ctx, review); err != nil {
			return nil, utils.Internal("Failed to save review", err)
		}
	}

	s.refreshRating(ctx, service.ID)
	return review, nil
}

// refreshRating recomputes the denormalized rating on the service.
func (s *DefaultReviewService) refreshRating(ctx context.Context, serviceID primitive.ObjectID) {
	rating, err := s.Repo.Aggregate(ctx, serviceID)
	if err == nil {
		err = s.Services.SetRating(ctx, serviceID, rating)
	}
	if err != nil {
		utils.GetLogger().Warn("Failed to refresh service rating", zap.String("serviceId", serviceID.Hex()), zap.Error(err))
	}
}

func (s *DefaultReviewService) List(ctx context.Context, serviceID primitive.ObjectID, page utils.Page) ([]models.Review, int64, error) {
	reviews, total, err := s.Repo.ListByService(ctx, serviceID, page.Skip(), page.Limit)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list reviews", err)
	}
	return reviews, total, nil
}

func (s *DefaultReviewService) Delete(ctx context.Context, actor access.Subject, id primitive.ObjectID) error {
	review, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return utils.NotFound("Review not found")
	}
	if err != nil {
		return utils.Internal("Failed to delete review", err)
	}
	owner := review.UserID != nil && *review.UserID == actor.ID
	if !owner && !actor.Role.IsAdmin() {
		return utils.Forbidden("You can only delete your own reviews")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Review not found")
		}
		return utils.Internal("Failed to delete review", err)
	}
	s.refreshRating(ctx, review.ServiceID)
	return nil
}
