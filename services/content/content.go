package content

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"homehub/database"
	recordsRepo "homehub/database/repository/records"
	"homehub/models"
	"homehub/services/storage"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const imageFolder = "content"

// ContentService manages the admin-curated site content.
type ContentService interface {
	ListTeam(ctx context.Context, includeInactive bool) ([]models.TeamMember, error)
	CreateTeamMember(ctx context.Context, input models.TeamMemberInput, image *multipart.FileHeader) (*models.TeamMember, error)
	UpdateTeamMember(ctx context.Context, id primitive.ObjectID, input models.TeamMemberInput, image *multipart.FileHeader) (*models.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id primitive.ObjectID) error

	ListTestimonials(ctx context.Context, includeInactive bool) ([]models.Testimonial, error)
	CreateTestimonial(ctx context.Context, input models.TestimonialInput, image *multipart.FileHeader) (*models.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id primitive.ObjectID, input models.TestimonialInput, image *multipart.FileHeader) (*models.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id primitive.ObjectID) error

	// ListBanners returns live banners only unless includeInactive is set.
	ListBanners(ctx context.Context, includeInactive bool) ([]models.PromotionalBanner, error)
	CreateBanner(ctx context.Context, input models.BannerInput, image *multipart.FileHeader) (*models.PromotionalBanner, error)
	UpdateBanner(ctx context.Context, id primitive.ObjectID, input models.BannerInput, image *multipart.FileHeader) (*models.PromotionalBanner, error)
	DeleteBanner(ctx context.Context, id primitive.ObjectID) error
}

type DefaultContentService struct {
	Team         recordsRepo.Store[models.TeamMember]
	Testimonials recordsRepo.Store[models.Testimonial]
	Banners      recordsRepo.Store[models.PromotionalBanner]
	Files        storage.FileStore
	Now          func() time.Time
}

func (s *DefaultContentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var displayOrder = bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

func list[T any](ctx context.Context, store recordsRepo.Store[T], includeInactive bool, what string) ([]T, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["active"] = true
	}
	docs, err := store.Find(ctx, recordsRepo.Query{Filter: filter, Sort: displayOrder})
	if err != nil {
		return nil, utils.Internal(fmt.Sprintf("Failed to list %s", what), err)
	}
	return docs, nil
}

func fetch[T any](ctx context.Context, store recordsRepo.Store[T], id primitive.ObjectID, what string) (*T, error) {
	doc, err := store.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("%s not found", what)
	}
	if err != nil {
		return nil, utils.Internal(fmt.Sprintf("Failed to load %s", what), err)
	}
	return doc, nil
}

// update applies set, replacing the stored image when a new one was saved.
func update[T any](ctx context.Context, s *DefaultContentService, store recordsRepo.Store[T], id primitive.ObjectID, set bson.M, oldImage, newImage, what string) (*T, error) {
	if newImage != "" {
		set["image"] = newImage
	}
	if len(set) == 0 {
		return fetch(ctx, store, id, what)
	}
	doc, err := store.Update(ctx, id, set)
	if err != nil {
		s.discard(ctx, newImage)
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.NotFound("%s not found", what)
		}
		return nil, utils.Internal(fmt.Sprintf("Failed to update %s", what), err)
	}
	if newImage != "" {
		s.discard(ctx, oldImage)
	}
	return doc, nil
}

func remove[T any](ctx context.Context, store recordsRepo.Store[T], id primitive.ObjectID, what string) error {
	if err := store.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("%s not found", what)
		}
		return utils.Internal(fmt.Sprintf("Failed to delete %s", what), err)
	}
	return nil
}

func (s *DefaultContentService) saveImage(ctx context.Context, image *multipart.FileHeader) (string, error) {
	if image == nil {
		return "", nil
	}
	refs, err := storage.SaveAll(ctx, s.Files, []*multipart.FileHeader{image}, imageFolder)
	if err != nil {
		return "", err
	}
	return refs[0], nil
}

func (s *DefaultContentService) discard(ctx context.Context, ref string) {
	if ref != "" {
		storage.DeleteAll(ctx, s.Files, []string{ref})
	}
}

func stamp(now time.Time) (primitive.ObjectID, time.Time, time.Time) {
	return primitive.NewObjectID(), now, now
}
