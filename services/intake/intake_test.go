package intake

import (
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"homehub/database/repository/records/recordstest"
	"homehub/models"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memFiles struct{ saved []string }

func (f *memFiles) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	ref := folder + "-" + file.Filename
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *memFiles) Delete(ctx context.Context, ref string) error { return nil }

type decisions struct{ sent []models.DecisionNotice }

func (d *decisions) BookingCreated(ctx context.Context, n models.BookingNotification) {}
func (d *decisions) BookingStatusChanged(ctx context.Context, n models.BookingNotification, status models.BookingStatus) {
}
func (d *decisions) ApplicationDecision(ctx context.Context, n models.DecisionNotice) {
	d.sent = append(d.sent, n)
}
func (d *decisions) SubscriptionReminder(ctx context.Context, p models.ReminderPayload) error {
	return nil
}
func (d *decisions) Welcome(ctx context.Context, user models.User) {}

func newIntake() (*DefaultIntakeService, *memFiles, *decisions) {
	files := &memFiles{}
	sent := &decisions{}
	return &DefaultIntakeService{
		Investments: recordstest.NewMemStore[models.Investment](),
		Women:       recordstest.NewMemStore[models.WomenInitiative](),
		Inquiries:   recordstest.NewMemStore[models.Inquiry](),
		Files:       files,
		Tasks:       sent,
		Now:         func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) },
	}, files, sent
}

var firstPage = utils.Page{Page: 1, Limit: 20}

func TestInvestmentIntake(t *testing.T) {
	svc, _, _ := newIntake()
	ctx := context.Background()

	_, err := svc.SubmitInvestment(ctx, models.InvestmentInput{Name: "Vic", Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	_, err = svc.SubmitInvestment(ctx, models.InvestmentInput{Name: "Vic", Email: "vic@fund.io", Kind: "loan"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	inv, err := svc.SubmitInvestment(ctx, models.InvestmentInput{Name: "Vic", Email: "Vic@Fund.io", Kind: "Partnership", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentKindPartnership, inv.Kind)
	assert.Equal(t, models.IntakeNew, inv.Status)
	assert.Equal(t, "vic@fund.io", inv.Email)

	defaulted, err := svc.SubmitInvestment(ctx, models.InvestmentInput{Name: "Lee", Email: "lee@fund.io"})
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentKindInvestment, defaulted.Kind)

	updated, err := svc.SetInvestmentStatus(ctx, inv.ID, models.IntakeContacted)
	require.NoError(t, err)
	assert.Equal(t, models.IntakeContacted, updated.Status)

	_, err = svc.SetInvestmentStatus(ctx, primitive.NewObjectID(), models.IntakeClosed)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))

	items, total, err := svc.ListInvestments(ctx, models.IntakeContacted, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, items, 1)
}

func TestWomenInitiativeReview(t *testing.T) {
	svc, files, sent := newIntake()
	ctx := context.Background()
	input := models.WomenInitiativeInput{
		Name:   "Grace",
		Email:  "grace@example.com",
		Phone:  "+254700000001",
		Skills: []string{"cooking, tailoring", "Cooking", "hair"},
	}

	_, err := svc.ApplyWomenInitiative(ctx, models.WomenInitiativeInput{Name: "Grace", Email: "grace@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "phone is required")

	app, err := svc.ApplyWomenInitiative(ctx, input, []*multipart.FileHeader{{Filename: "id.pdf", Size: 100}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cooking", "tailoring", "hair"}, app.Skills)
	assert.Equal(t, []string{"women-initiative-id.pdf"}, app.Documents)
	assert.Equal(t, models.DecisionPending, app.Status)

	_, err = svc.ApplyWomenInitiative(ctx, input, nil)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Len(t, files.saved, 1)

	reviewer := primitive.NewObjectID()
	_, err = svc.DecideWomenInitiative(ctx, reviewer, app.ID, models.DecisionInput{Decision: models.DecisionPending})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	decided, err := svc.DecideWomenInitiative(ctx, reviewer, app.ID, models.DecisionInput{Decision: models.DecisionApproved, Note: " Welcome aboard "})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, decided.Status)
	assert.Equal(t, "Welcome aboard", decided.ReviewerNote)
	require.NotNil(t, decided.ReviewedBy)
	assert.Equal(t, reviewer, *decided.ReviewedBy)

	require.Len(t, sent.sent, 1)
	assert.Equal(t, "grace@example.com", sent.sent[0].Email)
	assert.Equal(t, models.DecisionApproved, sent.sent[0].Decision)

	// Once decided, the same applicant may apply again.
	_, err = svc.ApplyWomenInitiative(ctx, input, nil)
	require.NoError(t, err)

	pending, total, err := svc.ListWomenInitiatives(ctx, models.DecisionPending, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, pending, 1)
}

func TestInquiries(t *testing.T) {
	svc, _, _ := newIntake()
	ctx := context.Background()

	_, err := svc.SubmitInquiry(ctx, "press", models.InquiryInput{Name: "A", Email: "a@b.co", Message: "hi"})
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
	_, err = svc.SubmitInquiry(ctx, models.InquiryContact, models.InquiryInput{Name: "A", Email: "a@b.co"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = svc.SubmitInquiry(ctx, models.InquiryDiaspora, models.InquiryInput{Name: "A", Email: "a@b.co", Message: "Book for my parents", Country: "UK"})
	require.NoError(t, err)
	_, err = svc.SubmitInquiry(ctx, models.InquirySupport, models.InquiryInput{Name: "B", Email: "b@b.co", Message: "Help"})
	require.NoError(t, err)

	diaspora, total, err := svc.ListInquiries(ctx, models.InquiryDiaspora, firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "UK", diaspora[0].Country)

	_, total, err = svc.ListInquiries(ctx, "", firstPage)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
