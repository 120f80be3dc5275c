package subscription

import (
	"context"
	"errors"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validLimits(l models.PlanLimits) error {
	if l.MaxServices < 0 || l.MaxOffers < 0 || l.MaxBookingsPerMonth < 0 {
		return utils.BadRequest("Plan limits cannot be negative")
	}
	return nil
}

func (s *DefaultSubscriptionService) ListPlans(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	plans, err := s.Plans.List(ctx, activeOnly)
	if err != nil {
		return nil, utils.Internal("Failed to list plans", err)
	}
	return plans, nil
}

func (s *DefaultSubscriptionService) CreatePlan(ctx context.Context, input models.PlanInput) (*models.SubscriptionPlan, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.BadRequest("Plan name is required")
	}
	plan := &models.SubscriptionPlan{
		Name:         name,
		Currency:     strings.ToUpper(strings.TrimSpace(input.Currency)),
		DurationDays: defaultDurationDays,
		Features:     input.Features,
		Active:       true,
	}
	if plan.Currency == "" {
		plan.Currency = strings.ToUpper(s.Currency)
	}
	if input.Description != nil {
		plan.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		plan.Price = *input.Price
	}
	if input.DurationDays != nil {
		plan.DurationDays = *input.DurationDays
	}
	if input.TrialDays != nil {
		plan.TrialDays = *input.TrialDays
	}
	if input.Limits != nil {
		plan.Limits = *input.Limits
	}
	if input.Featured != nil {
		plan.Featured = *input.Featured
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}

	if plan.Price < 0 || plan.DurationDays <= 0 || plan.TrialDays < 0 {
		return nil, utils.BadRequest("Price, duration and trial days must be non-negative and duration positive")
	}
	if err := validLimits(plan.Limits); err != nil {
		return nil, err
	}

	if err := s.Plans.Create(ctx, plan); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, utils.Conflict("Plan %q already exists", name)
		}
		return nil, utils.Internal("Failed to create plan", err)
	}
	return plan, nil
}

func (s *DefaultSubscriptionService) UpdatePlan(ctx context.Context, id primitive.ObjectID, input models.PlanInput) (*models.SubscriptionPlan, error) {
	set := bson.M{}
	if name := strings.TrimSpace(input.Name); name != "" {
		set["name"] = name
	}
	if input.Description != nil {
		set["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, utils.BadRequest("Price cannot be negative")
		}
		set["price"] = *input.Price
	}
	if c := strings.TrimSpace(input.Currency); c != "" {
		set["currency"] = strings.ToUpper(c)
	}
	if input.DurationDays != nil {
		if *input.DurationDays <= 0 {
			return nil, utils.BadRequest("Duration must be positive")
		}
		set["durationDays"] = *input.DurationDays
	}
	if input.TrialDays != nil {
		if *input.TrialDays < 0 {
			return nil, utils.BadRequest("Trial days cannot be negative")
		}
		set["trialDays"] = *input.TrialDays
	}
	if input.Limits != nil {
		if err := validLimits(*input.Limits); err != nil {
			return nil, err
		}
		set["limits"] = *input.Limits
	}
	if input.Features != nil {
		set["features"] = input.Features
	}
	if input.Featured != nil {
		set["featured"] = *input.Featured
	}
	if input.Active != nil {
		set["active"] = *input.Active
	}

	var plan *models.SubscriptionPlan
	var err error
	if len(set) == 0 {
		plan, err = s.Plans.GetByID(ctx, id)
	} else {
		plan, err = s.Plans.Update(ctx, id, set)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Plan not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update plan", err)
	}
	return plan, nil
}

// DeletePlan removes a plan. Existing subscriptions keep the limits they
// copied at subscribe time.
func (s *DefaultSubscriptionService) DeletePlan(ctx context.Context, id primitive.ObjectID) error {
	if err := s.Plans.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFound("Plan not found")
		}
		return utils.Internal("Failed to delete plan", err)
	}
	return nil
}
