package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"homehub/models"
	"homehub/services/storage"
	"homehub/services/user"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OAuthFlow is the external login round trip.
type OAuthFlow interface {
	AuthURL(ctx context.Context, provider string) (string, error)
	Exchange(ctx context.Context, provider, state, code string) (models.OAuthProfile, error)
}

// AuthHandler serves registration, login and the signed-in user's account.
type AuthHandler struct {
	UserService user.UserService
	OAuth       OAuthFlow
	URLs        storage.URLResolver
	// ClientURL is the front-end origin OAuth callbacks redirect to.
	ClientURL string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(us user.UserService, oauth OAuthFlow, urls storage.URLResolver, clientURL string) *AuthHandler {
	return &AuthHandler{UserService: us, OAuth: oauth, URLs: urls, ClientURL: strings.TrimRight(clientURL, "/")}
}

func (h *AuthHandler) respondAuth(c *gin.Context, status int, resp *models.AuthResponse) {
	resolveUser(h.URLs, c.Request, resp.User)
	c.JSON(status, resp)
}

// RegisterHandler handles POST /api/auth/register. Providers may attach
// verification documents as multipart "documents".
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req models.RegistrationRequest
	if !bindInput(c, &req) {
		return
	}
	documents := uploadedFiles(c, "documents", "documents[]")

	resp, err := h.UserService.Register(c.Request.Context(), req, documents)
	if err != nil {
		getLogger(c).Warn("Registration failed", zap.String("email", req.Email), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	h.respondAuth(c, http.StatusCreated, resp)
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindInput(c, &req) {
		return
	}

	resp, err := h.UserService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		getLogger(c).Info("Login failed", zap.String("email", req.Email), zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	h.respondAuth(c, http.StatusOK, resp)
}

// OAuthRedirectHandler handles GET /api/auth/oauth/:provider.
func (h *AuthHandler) OAuthRedirectHandler(c *gin.Context) {
	target, err := h.OAuth.AuthURL(c.Request.Context(), c.Param("provider"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// OAuthCallbackHandler handles GET /api/auth/oauth/:provider/callback and
// hands the issued token to the front end.
func (h *AuthHandler) OAuthCallbackHandler(c *gin.Context) {
	logger := getLogger(c)
	provider := c.Param("provider")

	if reason := c.Query("error"); reason != "" {
		logger.Info("OAuth consent declined", zap.String("provider", provider), zap.String("reason", reason))
		h.redirectFailure(c, "oauth_denied")
		return
	}

	profile, err := h.OAuth.Exchange(c.Request.Context(), provider, c.Query("state"), c.Query("code"))
	if err != nil {
		logger.Warn("OAuth exchange failed", zap.String("provider", provider), zap.Error(err))
		h.redirectFailure(c, "oauth_failed")
		return
	}

	resp, err := h.UserService.LoginWithOAuth(c.Request.Context(), profile)
	if err != nil {
		logger.Warn("OAuth login failed", zap.String("provider", provider), zap.Error(err))
		if utils.StatusOf(err) == http.StatusForbidden {
			h.redirectFailure(c, "account_suspended")
			return
		}
		h.redirectFailure(c, "oauth_failed")
		return
	}
	c.Redirect(http.StatusFound, h.ClientURL+"/oauth-success?token="+url.QueryEscape(resp.Token))
}

func (h *AuthHandler) redirectFailure(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.ClientURL+"/login?error="+url.QueryEscape(reason))
}

// MeHandler handles GET /api/auth/me.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	usr, err := h.UserService.GetUserByID(c.Request.Context(), subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveUser(h.URLs, c.Request, usr)
	c.JSON(http.StatusOK, usr)
}

// UpdateProfileHandler handles PUT /api/auth/me; an avatar may be sent as
// multipart "avatar".
func (h *AuthHandler) UpdateProfileHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var update models.ProfileUpdate
	if !bindInput(c, &update) {
		return
	}

	usr, err := h.UserService.UpdateProfile(c.Request.Context(), subject.ID, update, uploadedFile(c, "avatar"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	resolveUser(h.URLs, c.Request, usr)
	c.JSON(http.StatusOK, usr)
}

// ChangePasswordHandler handles PUT /api/auth/password.
func (h *AuthHandler) ChangePasswordHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if !bindInput(c, &req) {
		return
	}

	if err := h.UserService.ChangePassword(c.Request.Context(), subject.ID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// ReferralsHandler handles GET /api/auth/referrals.
func (h *AuthHandler) ReferralsHandler(c *gin.Context) {
	subject, ok := requireSubject(c)
	if !ok {
		return
	}
	referrals, err := h.UserService.GetReferrals(c.Request.Context(), subject.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, referrals)
}
