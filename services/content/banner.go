package content

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// optionalDate parses an optional form date; an empty string clears it.
func optionalDate(raw *string) (*time.Time, bool, error) {
	if raw == nil {
		return nil, false, nil
	}
	if strings.TrimSpace(*raw) == "" {
		return nil, true, nil
	}
	t, err := utils.ParseDate(*raw)
	if err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

func validWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return utils.BadRequest("End date must be after the start date")
	}
	return nil
}

func (s *DefaultContentService) ListBanners(ctx context.Context, includeInactive bool) ([]models.PromotionalBanner, error) {
	banners, err := list(ctx, s.Banners, includeInactive, "banners")
	if err != nil || includeInactive {
		return banners, err
	}
	now := s.now()
	live := make([]models.PromotionalBanner, 0, len(banners))
	for _, b := range banners {
		if b.IsLive(now) {
			live = append(live, b)
		}
	}
	return live, nil
}

func (s *DefaultContentService) CreateBanner(ctx context.Context, input models.BannerInput, image *multipart.FileHeader) (*models.PromotionalBanner, error) {
	banner := models.PromotionalBanner{Title: strings.TrimSpace(input.Title), Active: true}
	if banner.Title == "" {
		return nil, utils.BadRequest("Title is required")
	}
	if input.Subtitle != nil {
		banner.Subtitle = strings.TrimSpace(*input.Subtitle)
	}
	if input.LinkURL != nil {
		banner.LinkURL = strings.TrimSpace(*input.LinkURL)
	}
	var err error
	if banner.StartDate, _, err = optionalDate(input.StartDate); err != nil {
		return nil, err
	}
	if banner.EndDate, _, err = optionalDate(input.EndDate); err != nil {
		return nil, err
	}
	if err := validWindow(banner.StartDate, banner.EndDate); err != nil {
		return nil, err
	}
	if input.Order != nil {
		banner.Order = *input.Order
	}
	if input.Active != nil {
		banner.Active = *input.Active
	}

	ref, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}
	banner.Image = ref
	banner.ID, banner.CreatedAt, banner.UpdatedAt = stamp(s.now())
	if err := s.Banners.Insert(ctx, &banner); err != nil {
		s.discard(ctx, ref)
		return nil, utils.Internal("Failed to create banner", err)
	}
	return &banner, nil
}

func (s *DefaultContentService) UpdateBanner(ctx context.Context, id primitive.ObjectID, input models.BannerInput, image *multipart.FileHeader) (*models.PromotionalBanner, error) {
	current, err := fetch(ctx, s.Banners, id, "Banner")
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if title := strings.TrimSpace(input.Title); title != "" {
		set["title"] = title
	}
	if input.Subtitle != nil {
		set["subtitle"] = strings.TrimSpace(*input.Subtitle)
	}
	if input.LinkURL != nil {
		set["linkUrl"] = strings.TrimSpace(*input.LinkURL)
	}
	start, end := current.StartDate, current.EndDate
	if t, changed, err := optionalDate(input.StartDate); err != nil {
		return nil, err
	} else if changed {
		start = t
		set["startDate"] = t
	}
	if t, changed, err := optionalDate(input.EndDate); err != nil {
		return nil, err
	} else if changed {
		end = t
		set["endDate"] = t
	}
	if err := validWindow(start, end); err != nil {
		return nil, err
	}
	if input.Order != nil {
		set["order"] = *input.Order
	}
	if input.Active != nil {
		set["active"] = *input.Active
	}
	ref, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}
	return update(ctx, s, s.Banners, id, set, current.Image, ref, "Banner")
}

func (s *DefaultContentService) DeleteBanner(ctx context.Context, id primitive.ObjectID) error {
	current, err := fetch(ctx, s.Banners, id, "Banner")
	if err != nil {
		return err
	}
	if err := remove(ctx, s.Banners, id, "Banner"); err != nil {
		return err
	}
	s.discard(ctx, current.Image)
	return nil
}
