package middleware

import (
	"homehub/services/access"
	"homehub/utils"

	"github.com/gin-gonic/gin"
)

// ContextEntitlement holds the *access.Entitlement checked by RequireCapability.
const ContextEntitlement = "entitlement"

// RequireCapability asks the policy whether the caller may use capability
// and attaches the entitlement for the handler.
func RequireCapability(policy access.Policy, capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := SubjectFrom(c)
		if !ok {
			utils.RespondError(c, utils.Unauthorized("Authentication required"))
			return
		}
		ent, err := policy.Require(c.Request.Context(), subject, capability)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Set(ContextEntitlement, ent)
		c.Next()
	}
}

// EntitlementFrom returns the entitlement attached by RequireCapability.
func EntitlementFrom(c *gin.Context) *access.Entitlement {
	if v, ok := c.Get(ContextEntitlement); ok {
		if ent, ok := v.(*access.Entitlement); ok {
			return ent
		}
	}
	return nil
}
