package offer

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"homehub/database"
	offerRepo "homehub/database/repository/offer"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/storage"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const imageFolder = "offers"

type OfferService interface {
	ListRedeemable(ctx context.Context, page utils.Page) ([]models.SpecialOffer, error)
	ListMine(ctx context.Context, providerID primitive.ObjectID) ([]models.SpecialOffer, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error)
	Create(ctx context.Context, actor access.Subject, input models.OfferInput, image *multipart.FileHeader) (*models.SpecialOffer, error)
	Update(ctx context.Context, actor access.Subject, id primitive.ObjectID, input models.OfferInput, image *multipart.FileHeader) (*models.SpecialOffer, error)
	Delete(ctx context.Context, actor access.Subject, id primitive.ObjectID) error
	// Redeem consumes one use; it fails once the offer is exhausted or
	// outside its window.
	Redeem(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error)
}

type ServiceLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
}

type DefaultOfferService struct {
	Repo     offerRepo.OfferRepository
	Services ServiceLookup
	Files    storage.FileStore
	Now      func() time.Time
}

func (s *DefaultOfferService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultOfferService) ListRedeemable(ctx context.Context, page utils.Page) ([]models.SpecialOffer, error) {
	offers, err := s.Repo.ListRedeemable(ctx, s.now(), page.Skip(), page.Limit)
	if err != nil {
		return nil, utils.Internal("Failed to list offers", err)
	}
	return offers, nil
}

func (s *DefaultOfferService) ListMine(ctx context.Context, providerID primitive.ObjectID) ([]models.SpecialOffer, error) {
	offers, err := s.Repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, utils.Internal("Failed to list offers", err)
	}
	return offers, nil
}

func (s *DefaultOfferService) Get(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error) {
	offer, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Offer not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load offer", err)
	}
	return offer, nil
}

// ownService checks that the service exists and belongs to the actor.
func (s *DefaultOfferService) ownService(ctx context.Context, actor access.Subject, rawID string) (primitive.ObjectID, error) {
	serviceID, err := utils.ParseObjectID(rawID, "service id")
	if err != nil {
		return primitive.NilObjectID, err
	}
	service, err := s.Services.GetByID(ctx, serviceID)
	if errors.Is(err, database.ErrNotFound) {
		return primitive.NilObjectID, utils.NotFound("Service not found")
	}
	if err != nil {
		return primitive.NilObjectID, utils.Internal("Failed to load service", err)
	}
	if service.ProviderID != actor.ID && !actor.Role.IsAdmin() {
		return primitive.NilObjectID, utils.Forbidden("You can only create offers for your own services")
	}
	return service.ID, nil
}

func validDiscount(p float64) error {
	if p <= 0 || p > 100 {
		return utils.BadRequest("Discount must be between 0 and 100 percent")
	}
	return nil
}

func (s *DefaultOfferService) Create(ctx context.Context, actor access.Subject, input models.OfferInput, image *multipart.FileHeader) (*models.SpecialOffer, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, utils.BadRequest("Title is required")
	}
	if input.DiscountPercent == nil {
		return nil, utils.BadRequest("Discount is required")
	}
	if err := validDiscount(*input.DiscountPercent); err != nil {
		return nil, err
	}

	start := s.now().UTC()
	if input.StartDate != "" {
		var err error
		if start, err = utils.ParseDate(input.StartDate); err != nil {
			return nil, err
		}
	}
	end, err := utils.ParseDate(input.EndDate)
	if err != nil {
		return nil, utils.BadRequest("A valid end date is required")
	}
	if !end.After(start) {
		return nil, utils.BadRequest("End date must be after the start date")
	}

	offer := &models.SpecialOffer{
		ProviderID:      actor.ID,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		DiscountPercent: *input.DiscountPercent,
		StartDate:       start,
		EndDate:         end,
		Active:          true,
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 0 {
			return nil, utils.BadRequest("Max uses cannot be negative")
		}
		offer.MaxUses = *input.MaxUses
	}
	if input.Active != nil {
		offer.Active = *input.Active
	}
	if offer.ServiceID, err = s.ownService(ctx, actor, input.ServiceID); err != nil {
		return nil, err
	}

	if image != nil {
		refs, err := storage.SaveAll(ctx, s.Files, []*multipart.FileHeader{image}, imageFolder)
		if err != nil {
			return nil, err
		}
		offer.Image = refs[0]
	}

	if err := s.Repo.Create(ctx, offer); err != nil {
		if offer.Image != "" {
			storage.DeleteAll(ctx, s.Files, []string{offer.Image})
		}
		return nil, utils.Internal("Failed to create offer", err)
	}
	utils.GetLogger().Info("Offer created", zap.String("offerId", offer.ID.Hex()), zap.String("providerId", actor.ID.Hex()))
	return offer, nil
}

func (s *DefaultOfferService) owned(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.SpecialOffer, error) {
	offer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.ProviderID != actor.ID && !actor.Role.IsAdmin() {
		return nil, utils.Forbidden("You can only manage your own offers")
	}
	return offer, nil
}

func (s *DefaultOfferService) Update(ctx context.Context, actor access.Subject, id primitive.ObjectID, input models.OfferInput, image *multipart.FileHeader) (*models.SpecialOffer, error) {
	offer, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if title := strings.TrimSpace(input.Title); title != "" {
		set["title"] = title
	}
	if input.Description != "" {
		set["description"] = strings.TrimSpace(input.Description)
	}
	if input.DiscountPercent != nil {
		if err := validDiscount(*input.DiscountPercent); err != nil {
			return nil, err
		}
		set["discountPercent"] = *input.DiscountPercent
	}
	start, end := offer.StartDate, offer.EndDate
	if input.StartDate != "" {
		if start, err = utils.ParseDate(input.StartDate); err != nil {
			return nil, err
		}
		set["startDate"] = start
	}
	if input.EndDate != "" {
		if end, err = utils.ParseDate(input.EndDate); err != nil {
			return nil, err
		}
		set["endDate"] = end
	}
	if !end.After(start) {
		return nil, utils.BadRequest("End date must be after the start date")
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 0 {
			return nil, utils.BadRequest("Max uses cannot be negative")
		}
		set["maxUses"] = *input.MaxUses
	}
	if input.Active != nil {
		set["active"] = *input.Active
	}
	if input.ServiceID != "" {
		serviceID, err := s.ownService(ctx, actor, input.ServiceID)
		if err != nil {
			return nil, err
		}
		set["serviceId"] = serviceID
	}

	var newImage string
	if image != nil {
		refs, err := storage.SaveAll(ctx, s.Files, []*multipart.FileHeader{image}, imageFolder)
		if err != nil {
			return nil, err
		}
		newImage = refs[0]
		set["image"] = newImage
	}
	if len(set) == 0 {
		return offer, nil
	}

	updated, err := s.Repo.Update(ctx, id, set)
	if err != nil {
		if newImage != "" {
			storage.DeleteAll(ctx, s.Files, []string{newImage})
		}
		if errors.Is(err, database.ErrNotFound) {
			return nil, utils.NotFound("Offer not found")
		}
		return nil, utils.Internal("Failed to update offer", err)
	}
	if newImage != "" && offer.Image != "" {
		storage.DeleteAll(ctx, s.Files, []string{offer.Image})
	}
	return updated, nil
}

func (s *DefaultOfferService) Delete(ctx context.Context, actor access.Subject, id primitive.ObjectID) error {
	offer, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Offer not found")
		}
		return utils.Internal("Failed to delete offer", err)
	}
	if offer.Image != "" {
		storage.DeleteAll(ctx, s.Files, []string{offer.Image})
	}
	return nil
}

func (s *DefaultOfferService) Redeem(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error) {
	offer, err := s.Repo.Redeem(ctx, id, s.now())
	if err == nil {
		return offer, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, utils.Internal("Failed to redeem offer", err)
	}
	// Tell a missing offer apart from one that can no longer be used.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, utils.Conflict("Offer is no longer available")
}
