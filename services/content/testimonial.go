package content

import (
	"context"
	"mime/multipart"
	"strings"

	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validRating(r int) error {
	if r < 1 || r > 5 {
		return utils.BadRequest("Rating must be between 1 and 5")
	}
	return nil
}

func (s *DefaultContentService) ListTestimonials(ctx context.Context, includeInactive bool) ([]models.Testimonial, error) {
	return list(ctx, s.Testimonials, includeInactive, "testimonials")
}

func (s *DefaultContentService) CreateTestimonial(ctx context.Context, input models.TestimonialInput, image *multipart.FileHeader) (*models.Testimonial, error) {
	t := models.Testimonial{
		Name:   strings.TrimSpace(input.Name),
		Quote:  strings.TrimSpace(input.Quote),
		Rating: 5,
		Active: true,
	}
	if t.Name == "" || t.Quote == "" {
		return nil, utils.BadRequest("Name and quote are required")
	}
	if input.Role != nil {
		t.Role = strings.TrimSpace(*input.Role)
	}
	if input.Rating != nil {
		if err := validRating(*input.Rating); err != nil {
			return nil, err
		}
		t.Rating = *input.Rating
	}
	if input.Order != nil {
		t.Order = *input.Order
	}
	if input.Active != nil {
		t.Active = *input.Active
	}

	ref, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}
	t.Image = ref
	t.ID, t.CreatedAt, t.UpdatedAt = stamp(s.now())
	if err := s.Testimonials.Insert(ctx, &t); err != nil {
		s.discard(ctx, ref)
		return nil, utils.Internal("Failed to create testimonial", err)
	}
	return &t, nil
}

func (s *DefaultContentService) UpdateTestimonial(ctx context.Context, id primitive.ObjectID, input models.TestimonialInput, image *multipart.FileHeader) (*models.Testimonial, error) {
	current, err := fetch(ctx, s.Testimonials, id, "Testimonial")
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if name := strings.TrimSpace(input.Name); name != "" {
		set["name"] = name
	}
	if quote := strings.TrimSpace(input.Quote); quote != "" {
		set["quote"] = quote
	}
	if input.Role != nil {
		set["role"] = strings.TrimSpace(*input.Role)
	}
	if input.Rating != nil {
		if err := validRating(*input.Rating); err != nil {
			return nil, err
		}
		set["rating"] = *input.Rating
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
	return update(ctx, s, s.Testimonials, id, set, current.Image, ref, "Testimonial")
}

func (s *DefaultContentService) DeleteTestimonial(ctx context.Context, id primitive.ObjectID) error {
	current, err := fetch(ctx, s.Testimonials, id, "Testimonial")
	if err != nil {
		return err
	}
	if err := remove(ctx, s.Testimonials, id, "Testimonial"); err != nil {
		return err
	}
	s.discard(ctx, current.Image)
	return nil
}
