package middleware

import (
	"net/http"
	"strings"

	"homehub/utils"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize caps multipart request bodies at limit bytes.
func MaxUploadSize(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utils.ErrorResponse{Error: "Upload is too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
