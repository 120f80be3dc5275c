package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"homehub/database"
	"homehub/models"
	"homehub/services/access"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	ContextUserID  = "userID"
	ContextRole    = "role"
	ContextSubject = "subject"
)

// UserLookup loads the account behind a token on a cache miss.
type UserLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator validates bearer tokens against the current account state.
type Authenticator struct {
	Users UserLookup
	// Cache holds "<status>|<role>" per user; nil disables caching.
	Cache utils.Cache
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// accountState returns the user's current status and role, from Redis when
// cached and from Mongo otherwise.
func (a *Authenticator) accountState(ctx context.Context, id primitive.ObjectID) (models.UserStatus, models.Role, error) {
	logger := utils.GetLogger()
	key := utils.AuthCachePrefix + id.Hex()
	if a.Cache != nil {
		cached, ok, err := a.Cache.Get(ctx, key)
		if err != nil {
			logger.Warn("auth cache read failed, falling back to database", zap.Error(err))
		} else if ok {
			if status, role, found := strings.Cut(cached, "|"); found {
				return models.UserStatus(status), models.Role(role), nil
			}
		}
	}

	user, err := a.Users.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	status := user.Status
	if status == "" {
		status = models.UserStatusActive
	}
	if a.Cache != nil {
		if err := a.Cache.Set(ctx, key, string(status)+"|"+string(user.Role), utils.AuthCacheTTL); err != nil {
			logger.Warn("auth cache write failed", zap.Error(err))
		}
	}
	return status, user.Role, nil
}

// JWTAuth authenticates the bearer token. When required is false a request
// without a token passes through anonymously, but a bad token is still
// rejected.
func (a *Authenticator) JWTAuth(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if required {
				utils.RespondError(c, utils.Unauthorized("Missing or invalid Authorization header"))
				return
			}
			c.Next()
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			utils.RespondError(c, utils.Unauthorized("Invalid or expired token"))
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			utils.RespondError(c, utils.Unauthorized("Invalid or expired token"))
			return
		}

		status, role, err := a.accountState(c.Request.Context(), userID)
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondError(c, utils.Unauthorized("Account no longer exists"))
			return
		}
		if err != nil {
			utils.RespondError(c, utils.Internal("Failed to authenticate", err))
			return
		}
		if status != models.UserStatusActive {
			utils.RespondError(c, utils.Forbidden("Account is suspended"))
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Set(ContextSubject, access.Subject{ID: userID, Role: role})
		c.Next()
	}
}

// SubjectFrom returns the authenticated caller, if any.
func SubjectFrom(c *gin.Context) (access.Subject, bool) {
	v, ok := c.Get(ContextSubject)
	if !ok {
		return access.Subject{}, false
	}
	subject, ok := v.(access.Subject)
	return subject, ok
}

// RequireRoles lets through only callers holding one of roles. It must run
// after JWTAuth(true).
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		subject, ok := SubjectFrom(c)
		if !ok {
			utils.RespondError(c, utils.Unauthorized("Authentication required"))
			return
		}
		if !allowed[subject.Role] {
			utils.GetLogger().Warn("role not permitted",
				zap.String("userId", subject.ID.Hex()),
				zap.String("role", string(subject.Role)),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, utils.ErrorResponse{Error: "You do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}

// IsAdmin admits admins and superadmins.
func IsAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
}
