package socialauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homehub/config"
	"homehub/models"
	"homehub/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

// StateTTL bounds how long a consent redirect may take.
const StateTTL = 10 * time.Minute

// Provider is one external identity provider.
type Provider struct {
	Name       string
	Config     *oauth2.Config
	ProfileURL string
	Parse      func(body []byte) (models.OAuthProfile, error)
}

// Service runs the authorization-code flow against the configured providers.
type Service struct {
	providers map[string]*Provider
	states    utils.Cache
	client    *http.Client
}

func NewService(states utils.Cache, providers ...*Provider) *Service {
	s := &Service{
		providers: make(map[string]*Provider, len(providers)),
		states:    states,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, p := range providers {
		s.providers[p.Name] = p
	}
	return s
}

// NewServiceFromConfig registers Google and Facebook when their credentials are set.
func NewServiceFromConfig(cfg config.Config, states utils.Cache) *Service {
	var providers []*Provider
	callback := func(name string) string {
		return strings.TrimRight(cfg.OAuthRedirectBase, "/") + "/api/auth/oauth/" + name + "/callback"
	}
	if cfg.GoogleClientID != "" {
		providers = append(providers, &Provider{
			Name: "google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  callback("google"),
				Scopes:       []string{"openid", "email", "profile"},
			},
			ProfileURL: "https://www.googleapis.com/oauth2/v3/userinfo",
			Parse:      parseGoogleProfile,
		})
	}
	if cfg.FacebookAppID != "" {
		providers = append(providers, &Provider{
			Name: "facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookAppID,
				ClientSecret: cfg.FacebookAppSecret,
				Endpoint:     facebook.Endpoint,
				RedirectURL:  callback("facebook"),
				Scopes:       []string{"email", "public_profile"},
			},
			ProfileURL: "https://graph.facebook.com/me?fields=id,name,email,picture.type(large)",
			Parse:      parseFacebookProfile,
		})
	}
	return NewService(states, providers...)
}

func (s *Service) provider(name string) (*Provider, error) {
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, utils.NotFound("Login with %s is not available", name)
	}
	return p, nil
}

// AuthURL stores a fresh state and returns the consent page URL.
func (s *Service) AuthURL(ctx context.Context, name string) (string, error) {
	p, err := s.provider(name)
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	if _, err := s.states.SetNX(ctx, utils.OAuthStatePrefix+state, p.Name, StateTTL); err != nil {
		return "", utils.Unavailable("Social login is temporarily unavailable")
	}
	return p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange checks the state, trades the code for a token and fetches the profile.
func (s *Service) Exchange(ctx context.Context, name, state, code string) (models.OAuthProfile, error) {
	p, err := s.provider(name)
	if err != nil {
		return models.OAuthProfile{}, err
	}
	if state == "" || code == "" {
		return models.OAuthProfile{}, utils.BadRequest("Missing state or code")
	}

	key := utils.OAuthStatePrefix + state
	// A state is consumed by the first callback that presents it.
	owner, ok, err := s.states.GetDel(ctx, key)
	if err != nil {
		return models.OAuthProfile{}, utils.Unavailable("Social login is temporarily unavailable")
	}
	if !ok || owner != p.Name {
		return models.OAuthProfile{}, utils.BadRequest("Login session expired, please try again")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		utils.GetLogger().Warn("OAuth code exchange failed", zap.String("provider", p.Name), zap.Error(err))
		return models.OAuthProfile{}, utils.Unauthorized("Could not verify your %s login", p.Name)
	}

	resp, err := p.Config.Client(ctx, token).Get(p.ProfileURL)
	if err != nil {
		return models.OAuthProfile{}, utils.Internal("Failed to fetch profile", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.OAuthProfile{}, utils.Internal("Failed to read profile", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.OAuthProfile{}, utils.Internal("Failed to fetch profile",
			fmt.Errorf("%s profile returned %d", p.Name, resp.StatusCode))
	}

	profile, err := p.Parse(body)
	if err != nil {
		return models.OAuthProfile{}, utils.Internal("Failed to read profile", err)
	}
	profile.Provider = p.Name
	return profile, nil
}

func parseGoogleProfile(body []byte) (models.OAuthProfile, error) {
	var info struct {
		Sub           string          `json:"sub"`
		Email         string          `json:"email"`
		EmailVerified json.RawMessage `json:"email_verified"`
		Name          string          `json:"name"`
		Picture       string          `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return models.OAuthProfile{}, err
	}
	// Some Google endpoints send the flag as a string.
	verified := string(info.EmailVerified)
	return models.OAuthProfile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: verified == "true" || verified == `"true"`,
		Name:          info.Name,
		Avatar:        info.Picture,
	}, nil
}

func parseFacebookProfile(body []byte) (models.OAuthProfile, error) {
	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return models.OAuthProfile{}, err
	}
	// Facebook does not say whether the address was confirmed.
	return models.OAuthProfile{Subject: info.ID, Email: info.Email, Name: info.Name, Avatar: info.Picture.Data.URL}, nil
}
