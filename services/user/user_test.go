package user

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"homehub/database"
	userRepo "homehub/database/repository/user"
	"homehub/models"
	"homehub/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[primitive.ObjectID]*models.User{}}
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	if existing, _ := m.GetByEmail(ctx, user.Email); existing != nil {
		return database.ErrDuplicate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == models.NormalizeEmail(email) })
}

func (m *memUsers) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ReferralCode == code })
}

func (m *memUsers) GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.OAuthProvider == provider && u.OAuthSubject == subject })
}

func (m *memUsers) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	raw, err := bson.Marshal(u)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range set {
		doc[k] = v
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return nil, err
	}
	var updated models.User
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	m.users[id] = &updated
	cp := updated
	return &cp, nil
}

func (m *memUsers) AddLoyaltyPoints(ctx context.Context, id primitive.ObjectID, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return database.ErrNotFound
	}
	u.LoyaltyPoints += points
	return nil
}

func (m *memUsers) List(ctx context.Context, filter userRepo.UserFilter, skip, limit int64) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memUsers) CountByRole(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, u := range m.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

type memReferrals struct{ items []models.Referral }

func (m *memReferrals) Create(ctx context.Context, r *models.Referral) error {
	m.items = append(m.items, *r)
	return nil
}

func (m *memReferrals) ListByReferrer(ctx context.Context, id primitive.ObjectID) ([]models.Referral, error) {
	var out []models.Referral
	for _, r := range m.items {
		if r.ReferrerID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

type memCache struct{ deleted []string }

func (c *memCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (c *memCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}
func (c *memCache) GetDel(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func newService() (*DefaultUserService, *memUsers, *memReferrals) {
	users := newMemUsers()
	referrals := &memReferrals{}
	return &DefaultUserService{
		Repo:           users,
		Referrals:      referrals,
		AuthCache:      &memCache{},
		ReferralPoints: 50,
	}, users, referrals
}

func register(t *testing.T, svc *DefaultUserService, email string) *models.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), models.RegistrationRequest{
		Name: "Selam", Email: email, Password: "correct-horse", Role: models.RoleProvider,
	}, nil)
	require.NoError(t, err)
	return resp
}

func TestRegisterIssuesToken(t *testing.T) {
	svc, _, _ := newService()
	resp := register(t, svc, "  Selam@Example.com ")

	assert.Equal(t, "selam@example.com", resp.User.Email)
	assert.Len(t, resp.User.ReferralCode, 8)
	assert.NotEmpty(t, resp.User.PasswordHash)

	claims, err := utils.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.Hex(), claims.Subject)
	assert.Equal(t, "provider", claims.Role)
}

func TestRegisterDuplicateEmailCreatesNoUser(t *testing.T) {
	svc, users, _ := newService()
	register(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), models.RegistrationRequest{
		Name: "Other", Email: "DUP@example.com", Password: "another-pass",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	assert.Len(t, users.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc, users, _ := newService()
	cases := []models.RegistrationRequest{
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "", Email: "a@example.com", Password: "long-enough"},
		{Name: "A", Email: "not-an-email", Password: "long-enough"},
		{Name: "A", Email: "a@example.com", Password: "long-enough", Role: models.RoleAdmin},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req, nil)
		assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
	}
	assert.Empty(t, users.users)
}

func TestRegisterWithReferralCreditsReferrer(t *testing.T) {
	svc, users, referrals := newService()
	referrer := register(t, svc, "ref@example.com")

	resp, err := svc.Register(context.Background(), models.RegistrationRequest{
		Name: "New", Email: "new@example.com", Password: "long-enough",
		ReferralCode: referrer.User.ReferralCode,
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.User.ReferredBy)
	assert.Equal(t, referrer.User.ID, *resp.User.ReferredBy)
	assert.Equal(t, 50, users.users[referrer.User.ID].LoyaltyPoints)
	require.Len(t, referrals.items, 1)
	assert.Equal(t, resp.User.ID, referrals.items[0].ReferredUserID)
}

func TestRegisterUnknownReferralCode(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Register(context.Background(), models.RegistrationRequest{
		Name: "New", Email: "new@example.com", Password: "long-enough", ReferralCode: "NOPE1234",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newService()
	registered := register(t, svc, "login@example.com")

	resp, err := svc.Login(context.Background(), "LOGIN@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)

	_, err = svc.Login(context.Background(), "login@example.com", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, utils.StatusOf(err))

	_, err = svc.Login(context.Background(), "nobody@example.com", "whatever-pass")
	assert.Equal(t, http.StatusUnauthorized, utils.StatusOf(err))
}

func TestSuspendedUserCannotLogin(t *testing.T) {
	svc, _, _ := newService()
	registered := register(t, svc, "sus@example.com")

	_, err := svc.SetStatus(context.Background(), registered.User.ID, models.UserStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, []string{utils.AuthCachePrefix + registered.User.ID.Hex()}, svc.AuthCache.(*memCache).deleted)

	_, err = svc.Login(context.Background(), "sus@example.com", "correct-horse")
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	svc, _, _ := newService()
	registered := register(t, svc, "role@example.com")

	_, err := svc.SetRole(context.Background(), registered.User.ID, "overlord")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	updated, err := svc.SetRole(context.Background(), registered.User.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newService()
	registered := register(t, svc, "pw@example.com")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, registered.User.ID, "bad-current", "brand-new-pass")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	require.NoError(t, svc.ChangePassword(ctx, registered.User.ID, "correct-horse", "brand-new-pass"))
	_, err = svc.Login(ctx, "pw@example.com", "brand-new-pass")
	require.NoError(t, err)
}

func TestUpdateProfileTrimsFields(t *testing.T) {
	svc, _, _ := newService()
	registered := register(t, svc, "profile@example.com")

	name, bio := "  Selam T ", " Plumber "
	updated, err := svc.UpdateProfile(context.Background(), registered.User.ID, models.ProfileUpdate{Name: &name, Bio: &bio}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Selam T", updated.Name)
	assert.Equal(t, "Plumber", updated.Bio)
}

func TestOAuthLoginLinksExistingAccount(t *testing.T) {
	svc, users, _ := newService()
	registered := register(t, svc, "social@example.com")

	resp, err := svc.LoginWithOAuth(context.Background(), models.OAuthProfile{
		Provider: "google", Subject: "g-123", Email: "Social@example.com", EmailVerified: true, Name: "Selam",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.Equal(t, "g-123", users.users[registered.User.ID].OAuthSubject)
	assert.Len(t, users.users, 1)
}

func TestOAuthLoginNeedsVerifiedEmailToLink(t *testing.T) {
	svc, users, _ := newService()
	registered := register(t, svc, "social@example.com")

	_, err := svc.LoginWithOAuth(context.Background(), models.OAuthProfile{
		Provider: "facebook", Subject: "fb-1", Email: "social@example.com", Name: "Mallory",
	})
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	stored := users.users[registered.User.ID]
	assert.Empty(t, stored.OAuthProvider)
	assert.Empty(t, stored.OAuthSubject)
	assert.Len(t, users.users, 1)
}

func TestOAuthLoginCreatesSeeker(t *testing.T) {
	svc, users, _ := newService()

	resp, err := svc.LoginWithOAuth(context.Background(), models.OAuthProfile{
		Provider: "facebook", Subject: "fb-9", Email: "fresh@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeeker, resp.User.Role)
	assert.Equal(t, "fresh", resp.User.Name)

	again, err := svc.LoginWithOAuth(context.Background(), models.OAuthProfile{Provider: "facebook", Subject: "fb-9"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)
	assert.Len(t, users.users, 1)
}
