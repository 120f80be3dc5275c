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

func (s *DefaultContentService) ListTeam(ctx context.Context, includeInactive bool) ([]models.TeamMember, error) {
	return list(ctx, s.Team, includeInactive, "team members")
}

func (s *DefaultContentService) CreateTeamMember(ctx context.Context, input models.TeamMemberInput, image *multipart.FileHeader) (*models.TeamMember, error) {
	member := models.TeamMember{
		Name:     strings.TrimSpace(input.Name),
		Position: strings.TrimSpace(input.Position),
		Active:   true,
	}
	if member.Name == "" || member.Position == "" {
		return nil, utils.BadRequest("Name and position are required")
	}
	if input.Bio != nil {
		member.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.Order != nil {
		member.Order = *input.Order
	}
	if input.Active != nil {
		member.Active = *input.Active
	}

	ref, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}
	member.Image = ref
	member.ID, member.CreatedAt, member.UpdatedAt = stamp(s.now())
	if err := s.Team.Insert(ctx, &member); err != nil {
		s.discard(ctx, ref)
		return nil, utils.Internal("Failed to create team member", err)
	}
	return &member, nil
}

func (s *DefaultContentService) UpdateTeamMember(ctx context.Context, id primitive.ObjectID, input models.TeamMemberInput, image *multipart.FileHeader) (*models.TeamMember, error) {
	current, err := fetch(ctx, s.Team, id, "Team member")
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if name := strings.TrimSpace(input.Name); name != "" {
		set["name"] = name
	}
	if position := strings.TrimSpace(input.Position); position != "" {
		set["position"] = position
	}
	if input.Bio != nil {
		set["bio"] = strings.TrimSpace(*input.Bio)
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
	return update(ctx, s, s.Team, id, set, current.Image, ref, "Team member")
}

func (s *DefaultContentService) DeleteTeamMember(ctx context.Context, id primitive.ObjectID) error {
	current, err := fetch(ctx, s.Team, id, "Team member")
	if err != nil {
		return err
	}
	if err := remove(ctx, s.Team, id, "Team member"); err != nil {
		return err
	}
	s.discard(ctx, current.Image)
	return nil
}
