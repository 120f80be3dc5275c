package catalog

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memCategories struct {
	items map[primitive.ObjectID]*models.Category
}

func (m *memCategories) FindOrCreate(ctx context.Context, name string) (*models.Category, error) {
	slug := models.Slugify(name)
	for _, c := range m.items {
		if c.Slug == slug {
			return c, nil
		}
	}
	c := &models.Category{ID: primitive.NewObjectID(), Name: name, Slug: slug, Active: true}
	m.items[c.ID] = c
	return c, nil
}

func (m *memCategories) Create(ctx context.Context, c *models.Category) error {
	c.Slug = models.Slugify(c.Name)
	for _, existing := range m.items {
		if existing.Slug == c.Slug {
			return database.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	m.items[c.ID] = c
	return nil
}

func (m *memCategories) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	if c, ok := m.items[id]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

func (m *memCategories) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	for _, c := range m.items {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memCategories) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.items {
		if !activeOnly || c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memCategories) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if name, ok := set["name"].(string); ok {
		c.Name, c.Slug = name, models.Slugify(name)
	}
	if active, ok := set["active"].(bool); ok {
		c.Active = active
	}
	return c, nil
}

func (m *memCategories) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.items[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memCategories) Count(ctx context.Context) (int64, error) { return int64(len(m.items)), nil }

type memTypes struct {
	items []models.ServiceType
}

func (m *memTypes) FindOrCreate(ctx context.Context, categoryID primitive.ObjectID, name string) (*models.ServiceType, error) {
	slug := models.Slugify(name)
	for i := range m.items {
		if m.items[i].CategoryID == categoryID && m.items[i].Slug == slug {
			return &m.items[i], nil
		}
	}
	m.items = append(m.items, models.ServiceType{ID: primitive.NewObjectID(), CategoryID: categoryID, Name: name, Slug: slug})
	return &m.items[len(m.items)-1], nil
}

func (m *memTypes) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memTypes) ListByCategories(ctx context.Context, ids []primitive.ObjectID) ([]models.ServiceType, error) {
	var out []models.ServiceType
	for _, t := range m.items {
		for _, id := range ids {
			if t.CategoryID == id {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (m *memTypes) Delete(ctx context.Context, id primitive.ObjectID) error { return nil }

func (m *memTypes) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	kept := m.items[:0]
	for _, t := range m.items {
		if t.CategoryID != categoryID {
			kept = append(kept, t)
		}
	}
	m.items = kept
	return nil
}

type memServices struct {
	items map[primitive.ObjectID]*models.Service
}

func (m *memServices) Create(ctx context.Context, s *models.Service) error {
	s.ID = primitive.NewObjectID()
	s.SyncLocation()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memServices) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, database.ErrNotFound
}

func (m *memServices) Replace(ctx context.Context, s *models.Service) error {
	if _, ok := m.items[s.ID]; !ok {
		return database.ErrNotFound
	}
	s.SyncLocation()
	cp := *s
	m.items[s.ID] = &cp
	return nil
}

func (m *memServices) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.items[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memServices) List(ctx context.Context, f models.ServiceFilter) ([]models.Service, error) {
	var out []models.Service
	for _, s := range m.items {
		if f.ProviderID != nil && s.ProviderID != *f.ProviderID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memServices) CountByProvider(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var n int64
	for _, s := range m.items {
		if s.ProviderID == id {
			n++
		}
	}
	return n, nil
}

func (m *memServices) CountActive(ctx context.Context) (int64, error)    { return int64(len(m.items)), nil }
func (m *memServices) CountProviders(ctx context.Context) (int64, error) { return 0, nil }
func (m *memServices) SetRating(ctx context.Context, id primitive.ObjectID, r models.Rating) error {
	return nil
}

func (m *memServices) CountByCategory(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var n int64
	for _, s := range m.items {
		if s.CategoryID == id {
			n++
		}
	}
	return n, nil
}

type memFiles struct {
	saved   []string
	deleted []string
}

func (f *memFiles) Save(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	ref := fmt.Sprintf("%s-%d-%s", folder, len(f.saved), file.Filename)
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *memFiles) Delete(ctx context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

func photo(t *testing.T, name string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("photos", name)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["photos"][0]
}

func newCatalog() (*DefaultCatalogService, *memFiles) {
	files := &memFiles{}
	return &DefaultCatalogService{
		Categories:   &memCategories{items: map[primitive.ObjectID]*models.Category{}},
		ServiceTypes: &memTypes{},
		Services:     &memServices{items: map[primitive.ObjectID]*models.Service{}},
		Files:        files,
	}, files
}

func price(v float64) *float64 { return &v }

func publish(t *testing.T, svc *DefaultCatalogService, providerID primitive.ObjectID, photos ...*multipart.FileHeader) *models.Service {
	t.Helper()
	lat, lng := 9.03, 38.74
	service, err := svc.CreateService(context.Background(), providerID, &access.Entitlement{}, models.ServiceInput{
		Title: "Deep cleaning", Category: "Cleaning", ServiceType: "Deep Cleaning",
		Price: price(1200), Latitude: &lat, Longitude: &lng,
	}, photos)
	require.NoError(t, err)
	return service
}

func TestCreateServiceResolvesReferences(t *testing.T) {
	svc, files := newCatalog()
	providerID := primitive.NewObjectID()

	service := publish(t, svc, providerID, photo(t, "front.jpg"), photo(t, "back.png"))

	assert.False(t, service.CategoryID.IsZero())
	assert.False(t, service.ServiceTypeID.IsZero())
	assert.Equal(t, "Cleaning", service.CategoryName)
	assert.Equal(t, []string{"services-0-front.jpg", "services-1-back.png"}, service.Photos)
	assert.Len(t, files.saved, 2)

	again := publish(t, svc, providerID)
	assert.Equal(t, service.CategoryID, again.CategoryID, "same category name must resolve to the same id")
	assert.Equal(t, service.ServiceTypeID, again.ServiceTypeID)
}

func TestCreateServiceValidation(t *testing.T) {
	svc, files := newCatalog()
	lat := 9.0
	cases := []models.ServiceInput{
		{Category: "Cleaning", Price: price(10)},
		{Title: "x", Category: "Cleaning"},
		{Title: "x", Category: "Cleaning", Price: price(-1)},
		{Title: "x", Price: price(10)},
		{Title: "x", Category: "Cleaning", Price: price(10), Latitude: &lat},
		{Title: "x\r\nX-Injected: yes", Category: "Cleaning", Price: price(10)},
	}
	for _, input := range cases {
		_, err := svc.CreateService(context.Background(), primitive.NewObjectID(), nil, input, []*multipart.FileHeader{photo(t, "a.jpg")})
		assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	}
	assert.Empty(t, files.saved)
}

func TestCreateServiceRejectsBadPhoto(t *testing.T) {
	svc, files := newCatalog()
	_, err := svc.CreateService(context.Background(), primitive.NewObjectID(), nil, models.ServiceInput{
		Title: "x", Category: "Cleaning", Price: price(10),
	}, []*multipart.FileHeader{photo(t, "a.jpg"), photo(t, "run.exe")})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Empty(t, files.saved)
}

func TestFeaturedFollowsEntitlement(t *testing.T) {
	svc, _ := newCatalog()
	service, err := svc.CreateService(context.Background(), primitive.NewObjectID(), &access.Entitlement{Featured: true}, models.ServiceInput{
		Title: "x", Category: "Cleaning", Price: price(10),
	}, nil)
	require.NoError(t, err)
	assert.True(t, service.Featured)
}

func TestUpdateServiceKeepsListedPhotos(t *testing.T) {
	svc, files := newCatalog()
	providerID := primitive.NewObjectID()
	service := publish(t, svc, providerID, photo(t, "a.jpg"), photo(t, "b.jpg"))

	updated, err := svc.UpdateService(context.Background(), access.Subject{ID: providerID, Role: models.RoleProvider}, service.ID,
		models.ServiceInput{
			Title:      "Deep cleaning plus",
			KeepPhotos: []string{"http://localhost:8080/uploads/services-0-a.jpg"},
		}, []*multipart.FileHeader{photo(t, "c.jpg")})
	require.NoError(t, err)

	assert.Equal(t, "Deep cleaning plus", updated.Title)
	assert.Equal(t, []string{"services-0-a.jpg", "services-2-c.jpg"}, updated.Photos)
	assert.Equal(t, []string{"services-1-b.jpg"}, files.deleted)
}

func TestUpdateServiceRejectsMultiLineTitle(t *testing.T) {
	svc, _ := newCatalog()
	providerID := primitive.NewObjectID()
	service := publish(t, svc, providerID)

	_, err := svc.UpdateService(context.Background(), access.Subject{ID: providerID, Role: models.RoleProvider}, service.ID,
		models.ServiceInput{Title: "Deep cleaning\nBcc: someone@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	stored, err := svc.GetService(context.Background(), service.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deep cleaning", stored.Title)
}

func TestOnlyOwnerOrAdminManagesService(t *testing.T) {
	svc, files := newCatalog()
	providerID := primitive.NewObjectID()
	service := publish(t, svc, providerID, photo(t, "a.jpg"))

	stranger := access.Subject{ID: primitive.NewObjectID(), Role: models.RoleProvider}
	err := svc.DeleteService(context.Background(), stranger, service.ID)
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))

	admin := access.Subject{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	require.NoError(t, svc.DeleteService(context.Background(), admin, service.ID))
	assert.Equal(t, []string{"services-0-a.jpg"}, files.deleted)

	_, err = svc.GetService(context.Background(), service.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newCatalog()
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, models.CategoryInput{Name: "Plumbing", Types: []string{"Leak repair", "Installation"}})
	require.NoError(t, err)
	assert.Len(t, created.Types, 2)

	_, err = svc.CreateCategory(ctx, models.CategoryInput{Name: " plumbing "})
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	_, err = svc.CreateService(ctx, primitive.NewObjectID(), nil, models.ServiceInput{
		Title: "Fix sink", Category: created.ID.Hex(), Price: price(300),
	}, nil)
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, created.ID)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
}

func TestUnknownCategoryIDIsRejected(t *testing.T) {
	svc, _ := newCatalog()
	_, err := svc.CreateService(context.Background(), primitive.NewObjectID(), nil, models.ServiceInput{
		Title: "x", Category: primitive.NewObjectID().Hex(), Price: price(1),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestEnsureReferencesBackfillsLegacyService(t *testing.T) {
	svc, _ := newCatalog()
	legacy := &models.Service{Title: "Old", CategoryName: "Gardening", TypeName: "Lawn mowing"}
	require.NoError(t, svc.Services.Create(context.Background(), legacy))
	legacy.CategoryID = primitive.NilObjectID

	require.NoError(t, svc.EnsureReferences(context.Background(), legacy))
	assert.False(t, legacy.CategoryID.IsZero())
	assert.False(t, legacy.ServiceTypeID.IsZero())

	stored, err := svc.Services.GetByID(context.Background(), legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, legacy.CategoryID, stored.CategoryID)
}
