package intake

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"homehub/database"
	recordsRepo "homehub/database/repository/records"
	"homehub/models"
	"homehub/services/storage"
	"homehub/services/tasks"
	"homehub/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	documentsFolder  = "women-initiative"
	maxDocuments     = 5
	programmeWomen   = "Women Initiative"
	maxMessageLength = 5000
)

// IntakeService handles the public intake forms and their admin review.
type IntakeService interface {
	SubmitInvestment(ctx context.Context, input models.InvestmentInput) (*models.Investment, error)
	ListInvestments(ctx context.Context, status models.IntakeStatus, page utils.Page) ([]models.Investment, int64, error)
	SetInvestmentStatus(ctx context.Context, id primitive.ObjectID, status models.IntakeStatus) (*models.Investment, error)

	ApplyWomenInitiative(ctx context.Context, input models.WomenInitiativeInput, documents []*multipart.FileHeader) (*models.WomenInitiative, error)
	ListWomenInitiatives(ctx context.Context, status models.ReviewDecision, page utils.Page) ([]models.WomenInitiative, int64, error)
	DecideWomenInitiative(ctx context.Context, reviewer primitive.ObjectID, id primitive.ObjectID, input models.DecisionInput) (*models.WomenInitiative, error)

	SubmitInquiry(ctx context.Context, kind models.InquiryKind, input models.InquiryInput) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, kind models.InquiryKind, page utils.Page) ([]models.Inquiry, int64, error)
}

type DefaultIntakeService struct {
	Investments recordsRepo.Store[models.Investment]
	Women       recordsRepo.Store[models.WomenInitiative]
	Inquiries   recordsRepo.Store[models.Inquiry]
	Files       storage.FileStore
	Tasks       tasks.Dispatcher
	Now         func() time.Time
}

func (s *DefaultIntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type contact struct {
	name, email, phone string
}

func validContact(name, email, phone string, phoneRequired bool) (contact, error) {
	c := contact{
		name:  strings.TrimSpace(name),
		email: models.NormalizeEmail(email),
		phone: strings.TrimSpace(phone),
	}
	if c.name == "" {
		return c, utils.BadRequest("Name is required")
	}
	if !models.ValidEmail(c.email) {
		return c, utils.BadRequest("A valid email is required")
	}
	if phoneRequired && c.phone == "" {
		return c, utils.BadRequest("Phone is required")
	}
	return c, nil
}

// page runs a counted, newest-first listing over store.
func page[T any](ctx context.Context, store recordsRepo.Store[T], filter bson.M, p utils.Page, what string) ([]T, int64, error) {
	total, err := store.Count(ctx, filter)
	if err != nil {
		return nil, 0, utils.Internal("Failed to list "+what, err)
	}
	items, err := store.Find(ctx, recordsRepo.Query{
		Filter: filter,
		Sort:   bson.D{{Key: "createdAt", Value: -1}},
		Skip:   p.Skip(),
		Limit:  p.Limit,
	})
	if err != nil {
		return nil, 0, utils.Internal("Failed to list "+what, err)
	}
	return items, total, nil
}

func (s *DefaultIntakeService) SubmitInvestment(ctx context.Context, input models.InvestmentInput) (*models.Investment, error) {
	c, err := validContact(input.Name, input.Email, input.Phone, false)
	if err != nil {
		return nil, err
	}
	kind := models.InvestmentKind(strings.ToLower(strings.TrimSpace(input.Kind)))
	if kind == "" {
		kind = models.InvestmentKindInvestment
	}
	if kind != models.InvestmentKindInvestment && kind != models.InvestmentKindPartnership {
		return nil, utils.BadRequest("Kind must be investment or partnership")
	}
	if input.Amount < 0 {
		return nil, utils.BadRequest("Amount cannot be negative")
	}
	message := strings.TrimSpace(input.Message)
	if len(message) > maxMessageLength {
		return nil, utils.BadRequest("Message is too long")
	}

	now := s.now()
	inv := models.Investment{
		ID:           primitive.NewObjectID(),
		Name:         c.name,
		Email:        c.email,
		Phone:        c.phone,
		Organization: strings.TrimSpace(input.Organization),
		Kind:         kind,
		Amount:       input.Amount,
		Message:      message,
		Status:       models.IntakeNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Investments.Insert(ctx, &inv); err != nil {
		return nil, utils.Internal("Failed to submit enquiry", err)
	}
	return &inv, nil
}

func (s *DefaultIntakeService) ListInvestments(ctx context.Context, status models.IntakeStatus, p utils.Page) ([]models.Investment, int64, error) {
	filter := bson.M{}
	if status != "" {
		if !status.Valid() {
			return nil, 0, utils.BadRequest("Unknown status %q", status)
		}
		filter["status"] = status
	}
	return page(ctx, s.Investments, filter, p, "investments")
}

func (s *DefaultIntakeService) SetInvestmentStatus(ctx context.Context, id primitive.ObjectID, status models.IntakeStatus) (*models.Investment, error) {
	if !status.Valid() {
		return nil, utils.BadRequest("Unknown status %q", status)
	}
	inv, err := s.Investments.Update(ctx, id, bson.M{"status": status, "updatedAt": s.now()})
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Investment not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to update investment", err)
	}
	return inv, nil
}

// splitSkills accepts repeated form values as well as comma separated ones.
func splitSkills(raw []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, entry := range raw {
		for _, skill := range strings.Split(entry, ",") {
			skill = strings.TrimSpace(skill)
			key := strings.ToLower(skill)
			if skill == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, skill)
		}
	}
	return out
}

func (s *DefaultIntakeService) ApplyWomenInitiative(ctx context.Context, input models.WomenInitiativeInput, documents []*multipart.FileHeader) (*models.WomenInitiative, error) {
	c, err := validContact(input.Name, input.Email, input.Phone, true)
	if err != nil {
		return nil, err
	}
	if len(documents) > maxDocuments {
		return nil, utils.BadRequest("At most %d documents may be uploaded", maxDocuments)
	}
	pending, err := s.Women.Count(ctx, bson.M{"email": c.email, "status": models.DecisionPending})
	if err != nil {
		return nil, utils.Internal("Failed to submit application", err)
	}
	if pending > 0 {
		return nil, utils.Conflict("An application with this email is already under review")
	}

	refs, err := storage.SaveAll(ctx, s.Files, documents, documentsFolder)
	if err != nil {
		return nil, err
	}
	now := s.now()
	app := models.WomenInitiative{
		ID:         primitive.NewObjectID(),
		Name:       c.name,
		Email:      c.email,
		Phone:      c.phone,
		Skills:     splitSkills(input.Skills),
		Experience: strings.TrimSpace(input.Experience),
		Documents:  refs,
		Status:     models.DecisionPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Women.Insert(ctx, &app); err != nil {
		storage.DeleteAll(ctx, s.Files, refs)
		return nil, utils.Internal("Failed to submit application", err)
	}
	return &app, nil
}

func (s *DefaultIntakeService) ListWomenInitiatives(ctx context.Context, status models.ReviewDecision, p utils.Page) ([]models.WomenInitiative, int64, error) {
	filter := bson.M{}
	switch status {
	case "":
	case models.DecisionPending, models.DecisionApproved, models.DecisionRejected:
		filter["status"] = status
	default:
		return nil, 0, utils.BadRequest("Unknown status %q", status)
	}
	return page(ctx, s.Women, filter, p, "applications")
}

// DecideWomenInitiative records the reviewer's decision and notifies the
// applicant. A decided application can be re-decided.
func (s *DefaultIntakeService) DecideWomenInitiative(ctx context.Context, reviewer primitive.ObjectID, id primitive.ObjectID, input models.DecisionInput) (*models.WomenInitiative, error) {
	if input.Decision != models.DecisionApproved && input.Decision != models.DecisionRejected {
		return nil, utils.BadRequest("Decision must be approved or rejected")
	}
	note := strings.TrimSpace(input.Note)
	app, err := s.Women.Update(ctx, id, bson.M{
		"status":       input.Decision,
		"reviewerNote": note,
		"reviewedBy":   reviewer,
		"updatedAt":    s.now(),
	})
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.NotFound("Application not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to record decision", err)
	}

	utils.GetLogger().Info("Women initiative application decided",
		zap.String("applicationId", app.ID.Hex()),
		zap.String("decision", string(input.Decision)))
	if s.Tasks != nil {
		s.Tasks.ApplicationDecision(ctx, models.DecisionNotice{
			Programme: programmeWomen,
			Name:      app.Name,
			Email:     app.Email,
			Phone:     app.Phone,
			Decision:  input.Decision,
			Note:      note,
		})
	}
	return app, nil
}

func (s *DefaultIntakeService) SubmitInquiry(ctx context.Context, kind models.InquiryKind, input models.InquiryInput) (*models.Inquiry, error) {
	if !kind.Valid() {
		return nil, utils.NotFound("Unknown inquiry form %q", kind)
	}
	c, err := validContact(input.Name, input.Email, input.Phone, false)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, utils.BadRequest("Message is required")
	}
	if len(message) > maxMessageLength {
		return nil, utils.BadRequest("Message is too long")
	}
	inq := models.Inquiry{
		ID:        primitive.NewObjectID(),
		Kind:      kind,
		Name:      c.name,
		Email:     c.email,
		Phone:     c.phone,
		Subject:   strings.TrimSpace(input.Subject),
		Message:   message,
		Country:   strings.TrimSpace(input.Country),
		CreatedAt: s.now(),
	}
	if err := s.Inquiries.Insert(ctx, &inq); err != nil {
		return nil, utils.Internal("Failed to submit inquiry", err)
	}
	return &inq, nil
}

func (s *DefaultIntakeService) ListInquiries(ctx context.Context, kind models.InquiryKind, p utils.Page) ([]models.Inquiry, int64, error) {
	filter := bson.M{}
	if kind != "" {
		if !kind.Valid() {
			return nil, 0, utils.BadRequest("Unknown inquiry kind %q", kind)
		}
		filter["kind"] = kind
	}
	return page(ctx, s.Inquiries, filter, p, "inquiries")
}
