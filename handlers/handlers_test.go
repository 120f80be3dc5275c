package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	userRepo "homehub/database/repository/user"
	"homehub/middleware"
	"homehub/models"
	"homehub/services/access"
	"homehub/services/storage"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asSubject stands in for the auth middleware.
func asSubject(subject *access.Subject) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject != nil {
			c.Set(middleware.ContextUserID, subject.ID)
			c.Set(middleware.ContextRole, subject.Role)
			c.Set(middleware.ContextSubject, *subject)
		}
		c.Next()
	}
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeBookings struct {
	lastRequester *access.Subject
	lastKey       string
	existing      *models.Booking
	err           error
}

func (f *fakeBookings) CreateBooking(ctx context.Context, requester *access.Subject, req models.BookingRequest, key string) (*models.Booking, bool, error) {
	f.lastRequester, f.lastKey = requester, key
	if f.err != nil {
		return nil, false, f.err
	}
	if f.existing != nil {
		return f.existing, false, nil
	}
	f.existing = &models.Booking{ID: primitive.NewObjectID(), Status: models.BookingPending}
	return f.existing, true, nil
}

func (f *fakeBookings) GetBooking(ctx context.Context, actor access.Subject, id primitive.ObjectID) (*models.Booking, error) {
	return nil, utils.NotFound("Booking not found")
}

func (f *fakeBookings) ListForUser(ctx context.Context, userID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return []models.Booking{{ID: primitive.NewObjectID(), Status: models.BookingPending}}, 1, nil
}

func (f *fakeBookings) ListForProvider(ctx context.Context, providerID primitive.ObjectID, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookings) ListAll(ctx context.Context, status models.BookingStatus, page utils.Page) ([]models.Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, actor access.Subject, id primitive.ObjectID, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, utils.BadRequest("Unknown booking status %q", status)
	}
	return &models.Booking{ID: id, Status: status}, nil
}

func TestCreateBookingCreatedThenReplayed(t *testing.T) {
	svc := &fakeBookings{}
	h := NewBookingHandler(svc)
	r := gin.New()
	r.POST("/api/bookings", asSubject(nil), h.CreateBookingHandler)

	body := `{"serviceId":"` + primitive.NewObjectID().Hex() + `","date":"2030-01-02","guest":{"name":"Ann","phone":"0700"}}`
	w := doJSON(r, http.MethodPost, "/api/bookings", body, map[string]string{IdempotencyHeader: " abc "})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, svc.lastRequester)
	assert.Equal(t, "abc", svc.lastKey)

	w = doJSON(r, http.MethodPost, "/api/bookings", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, svc.existing.ID, got.ID)
}

func TestCreateBookingPassesSignedInSubject(t *testing.T) {
	svc := &fakeBookings{}
	subject := &access.Subject{ID: primitive.NewObjectID(), Role: models.RoleSeeker}
	r := gin.New()
	r.POST("/api/bookings", asSubject(subject), NewBookingHandler(svc).CreateBookingHandler)

	w := doJSON(r, http.MethodPost, "/api/bookings", `{"serviceId":"x","date":"2030-01-02"}`, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastRequester)
	assert.Equal(t, subject.ID, svc.lastRequester.ID)
}

func TestCreateBookingErrors(t *testing.T) {
	svc := &fakeBookings{err: utils.BadRequest("Guest details (name and phone or email) are required when not signed in")}
	r := gin.New()
	r.POST("/api/bookings", NewBookingHandler(svc).CreateBookingHandler)

	w := doJSON(r, http.MethodPost, "/api/bookings", `{"serviceId":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Guest details")

	w = doJSON(r, http.MethodPost, "/api/bookings", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingRoutesRequireSubjectAndValidID(t *testing.T) {
	h := NewBookingHandler(&fakeBookings{})
	seeker := &access.Subject{ID: primitive.NewObjectID(), Role: models.RoleSeeker}

	r := gin.New()
	r.GET("/anon/my", h.MyBookingsHandler)
	r.GET("/my", asSubject(seeker), h.MyBookingsHandler)
	r.PATCH("/bookings/:id/status", asSubject(seeker), h.UpdateStatusHandler)

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/anon/my", "", nil).Code)

	w := doJSON(r, http.MethodGet, "/my?page=2&limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
		Page  int64 `json:"page"`
		Limit int64 `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int64(2), page.Page)
	assert.Equal(t, int64(5), page.Limit)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, "/bookings/nope/status", `{"status":"confirmed"}`, nil).Code)
	id := primitive.NewObjectID().Hex()
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPatch, "/bookings/"+id+"/status", `{"status":"teleported"}`, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPatch, "/bookings/"+id+"/status", `{"status":"cancelled"}`, nil).Code)
}

type fakeOAuth struct {
	profile models.OAuthProfile
	err     error
}

func (f *fakeOAuth) AuthURL(ctx context.Context, provider string) (string, error) {
	if provider != "google" {
		return "", utils.NotFound("Unknown login provider %q", provider)
	}
	return "https://accounts.example.com/auth?state=s1", nil
}

func (f *fakeOAuth) Exchange(ctx context.Context, provider, state, code string) (models.OAuthProfile, error) {
	return f.profile, f.err
}

type fakeUsers struct {
	user *models.User
	err  error
}

func (f *fakeUsers) Register(ctx context.Context, req models.RegistrationRequest, documents []*multipart.FileHeader) (*models.AuthResponse, error) {
	if req.Email == f.user.Email {
		return nil, utils.BadRequest("Email already registered")
	}
	return &models.AuthResponse{Token: "t", User: &models.User{Email: req.Email, Avatar: "a.png"}}, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return &models.AuthResponse{Token: "t", User: f.user}, f.err
}

func (f *fakeUsers) LoginWithOAuth(ctx context.Context, profile models.OAuthProfile) (*models.AuthResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AuthResponse{Token: "tok en", User: f.user}, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u := *f.user
	return &u, nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate, avatar *multipart.FileHeader) (*models.User, error) {
	return f.user, nil
}

func (f *fakeUsers) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	return nil
}

func (f *fakeUsers) GetReferrals(ctx context.Context, id primitive.ObjectID) ([]models.Referral, error) {
	return nil, nil
}

func (f *fakeUsers) ListUsers(ctx context.Context, filter userRepo.UserFilter, page utils.Page) ([]models.User, int64, error) {
	return []models.User{*f.user}, 1, nil
}

func (f *fakeUsers) SetStatus(ctx context.Context, id primitive.ObjectID, status models.UserStatus) (*models.User, error) {
	return f.user, nil
}

func (f *fakeUsers) SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) (*models.User, error) {
	return f.user, nil
}

func TestOAuthRedirectAndCallback(t *testing.T) {
	users := &fakeUsers{user: &models.User{ID: primitive.NewObjectID(), Email: "a@example.com"}}
	h := NewAuthHandler(users, &fakeOAuth{}, storage.URLResolver{}, "https://app.example.com/")

	r := gin.New()
	r.GET("/oauth/:provider", h.OAuthRedirectHandler)
	r.GET("/oauth/:provider/callback", h.OAuthCallbackHandler)

	w := doJSON(r, http.MethodGet, "/oauth/google", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://accounts.example.com/auth?state=s1", w.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/oauth/myspace", "", nil).Code)

	w = doJSON(r, http.MethodGet, "/oauth/google/callback?state=s1&code=c", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example.com/oauth-success?token=tok+en", w.Header().Get("Location"))

	w = doJSON(r, http.MethodGet, "/oauth/google/callback?error=access_denied", "", nil)
	assert.Equal(t, "https://app.example.com/login?error=oauth_denied", w.Header().Get("Location"))

	users.err = utils.Forbidden("Account is suspended")
	w = doJSON(r, http.MethodGet, "/oauth/google/callback?state=s1&code=c", "", nil)
	assert.Equal(t, "https://app.example.com/login?error=account_suspended", w.Header().Get("Location"))
}

func TestRegisterResolvesAvatarURL(t *testing.T) {
	users := &fakeUsers{user: &models.User{Email: "taken@example.com"}}
	h := NewAuthHandler(users, &fakeOAuth{}, storage.URLResolver{}, "")
	r := gin.New()
	r.POST("/register", h.RegisterHandler)

	w := doJSON(r, http.MethodPost, "/register", `{"email":"new@example.com","password":"longenough"}`, map[string]string{"X-Forwarded-Proto": "https"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"avatar":"https://example.com/uploads/a.png"`)

	w = doJSON(r, http.MethodPost, "/register", `{"email":"taken@example.com","password":"longenough"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandlerReportsUnavailableBeforeFirstProbe(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthHandler)
	w := doJSON(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

type fakeCatalog struct {
	created models.ServiceInput
}

func (f *fakeCatalog) ListCategories(ctx context.Context, activeOnly bool) ([]models.CategoryWithTypes, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.CategoryWithTypes, error) {
	return nil, nil
}

func (f *fakeCatalog) UpdateCategory(ctx context.Context, id primitive.ObjectID, input models.CategoryInput) (*models.CategoryWithTypes, error) {
	return nil, nil
}

func (f *fakeCatalog) DeleteCategory(ctx context.Context, id primitive.ObjectID) error { return nil }

func (f *fakeCatalog) CreateService(ctx context.Context, providerID primitive.ObjectID, ent *access.Entitlement, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, utils.BadRequest("Title is required")
	}
	f.created = input
	return &models.Service{
		ID:         primitive.NewObjectID(),
		ProviderID: providerID,
		Title:      input.Title,
		Photos:     []string{"a.png", "https://res.cloudinary.com/demo/b.jpg"},
	}, nil
}

func (f *fakeCatalog) GetService(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	return nil, utils.NotFound("Service not found")
}

func (f *fakeCatalog) ListServices(ctx context.Context, filter models.ServiceFilter) ([]models.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) ListProviderServices(ctx context.Context, providerID primitive.ObjectID) ([]models.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) UpdateService(ctx context.Context, actor access.Subject, id primitive.ObjectID, input models.ServiceInput, photos []*multipart.FileHeader) (*models.Service, error) {
	return nil, nil
}

func (f *fakeCatalog) DeleteService(ctx context.Context, actor access.Subject, id primitive.ObjectID) error {
	return nil
}

func TestCreateServiceReturnsAbsolutePhotoURLs(t *testing.T) {
	svc := &fakeCatalog{}
	h := NewCatalogHandler(svc, storage.URLResolver{})
	provider := &access.Subject{ID: primitive.NewObjectID(), Role: models.RoleProvider}
	r := gin.New()
	r.POST("/services", asSubject(provider), h.CreateServiceHandler)

	w := doJSON(r, http.MethodPost, "/services", `{"title":"Deep cleaning","category":"Cleaning"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Cleaning", svc.created.Category)

	var service models.Service
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &service))
	assert.Equal(t, []string{
		"http://example.com/uploads/a.png",
		"https://res.cloudinary.com/demo/b.jpg",
	}, service.Photos)

	w = doJSON(r, http.MethodPost, "/services", `{"title":" "}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
