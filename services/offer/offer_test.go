package offer

import (
	"context"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memOffers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.SpecialOffer
}

func (m *memOffers) Create(ctx context.Context, o *models.SpecialOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = primitive.NewObjectID()
	cp := *o
	m.items[o.ID] = &cp
	return nil
}

func (m *memOffers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SpecialOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.items[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (m *memOffers) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.SpecialOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	for k, v := range set {
		switch k {
		case "title":
			o.Title = v.(string)
		case "discountPercent":
			o.DiscountPercent = v.(float64)
		case "maxUses":
			o.MaxUses = v.(int)
		case "active":
			o.Active = v.(bool)
		case "endDate":
			o.EndDate = v.(time.Time)
		case "image":
			o.Image = v.(string)
		}
	}
	cp := *o
	return &cp, nil
}

func (m *memOffers) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memOffers) ListRedeemable(ctx context.Context, now time.Time, skip, limit int64) ([]models.SpecialOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SpecialOffer{}
	for _, o := range m.items {
		if o.IsRedeemable(now) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOffers) ListByProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.SpecialOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SpecialOffer{}
	for _, o := range m.items {
		if o.ProviderID == providerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOffers) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	offers, _ := m.ListByProvider(ctx, providerID)
	return int64(len(offers)), nil
}

func (m *memOffers) Redeem(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.SpecialOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok || !o.IsRedeemable(now) {
		return nil, database.ErrNotFound
	}
	o.UsedCount++
	cp := *o
	return &cp, nil
}

type memServices map[primitive.ObjectID]*models.Service

func (m memServices) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, database.ErrNotFound
}

type nopFiles struct{ deleted []string }

func (f *nopFiles) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	return folder + "-" + file.Filename, nil
}

func (f *nopFiles) Delete(ctx context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func newOffers() (*DefaultOfferService, *models.Service) {
	service := &models.Service{ID: primitive.NewObjectID(), ProviderID: primitive.NewObjectID()}
	return &DefaultOfferService{
		Repo:     &memOffers{items: map[primitive.ObjectID]*models.SpecialOffer{}},
		Services: memServices{service.ID: service},
		Now:      func() time.Time { return now },
	}, service
}

func pct(v float64) *float64 { return &v }
func uses(v int) *int        { return &v }

func TestCreateOfferValidation(t *testing.T) {
	svc, service := newOffers()
	owner := access.Subject{ID: service.ProviderID, Role: models.RoleProvider}
	ctx := context.Background()

	cases := []models.OfferInput{
		{ServiceID: service.ID.Hex(), DiscountPercent: pct(10), EndDate: "2026-07-01"},
		{ServiceID: service.ID.Hex(), Title: "Summer", EndDate: "2026-07-01"},
		{ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(120), EndDate: "2026-07-01"},
		{ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(10)},
		{ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(10), StartDate: "2026-07-02", EndDate: "2026-07-01"},
		{ServiceID: "bad", Title: "Summer", DiscountPercent: pct(10), EndDate: "2026-07-01"},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, owner, input, nil)
		assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "%+v", input)
	}
}

func TestCreateOfferRequiresOwnService(t *testing.T) {
	svc, service := newOffers()
	stranger := access.Subject{ID: primitive.NewObjectID(), Role: models.RoleProvider}
	_, err := svc.Create(context.Background(), stranger, models.OfferInput{
		ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(10), EndDate: "2026-07-01",
	}, nil)
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))
}

func TestRedeemHonoursMaxUses(t *testing.T) {
	svc, service := newOffers()
	ctx := context.Background()
	owner := access.Subject{ID: service.ProviderID, Role: models.RoleProvider}

	offer, err := svc.Create(ctx, owner, models.OfferInput{
		ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(15), EndDate: "2026-07-01", MaxUses: uses(2),
	}, nil)
	require.NoError(t, err)
	assert.True(t, offer.StartDate.Equal(now))

	for i := 0; i < 2; i++ {
		redeemed, err := svc.Redeem(ctx, offer.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, redeemed.UsedCount)
	}
	_, err = svc.Redeem(ctx, offer.ID)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	_, err = svc.Redeem(ctx, primitive.NewObjectID())
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))

	listed, err := svc.ListRedeemable(ctx, utils.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, listed, "exhausted offers are not listed")
}

func TestRedeemOutsideWindow(t *testing.T) {
	svc, service := newOffers()
	ctx := context.Background()
	owner := access.Subject{ID: service.ProviderID, Role: models.RoleProvider}

	offer, err := svc.Create(ctx, owner, models.OfferInput{
		ServiceID: service.ID.Hex(), Title: "Later", DiscountPercent: pct(15), StartDate: "2026-06-10", EndDate: "2026-07-01",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, offer.ID)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	svc.Now = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }
	_, err = svc.Redeem(ctx, offer.ID)
	assert.NoError(t, err)
}

func TestUpdateAndDeleteOffer(t *testing.T) {
	svc, service := newOffers()
	files := &nopFiles{}
	ctx := context.Background()
	owner := access.Subject{ID: service.ProviderID, Role: models.RoleProvider}

	offer, err := svc.Create(ctx, owner, models.OfferInput{
		ServiceID: service.ID.Hex(), Title: "Summer", DiscountPercent: pct(15), EndDate: "2026-07-01",
	}, nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, access.Subject{ID: primitive.NewObjectID(), Role: models.RoleProvider}, offer.ID, models.OfferInput{Title: "x"}, nil)
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))

	_, err = svc.Update(ctx, owner, offer.ID, models.OfferInput{EndDate: "2026-05-01"}, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err), "end before start")

	updated, err := svc.Update(ctx, owner, offer.ID, models.OfferInput{Title: "Summer+", DiscountPercent: pct(20)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Summer+", updated.Title)
	assert.Equal(t, 20.0, updated.DiscountPercent)

	svc.Files = files
	require.NoError(t, svc.Delete(ctx, owner, offer.ID))
	assert.Empty(t, files.deleted, "offer had no image")
	_, err = svc.Get(ctx, offer.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}
