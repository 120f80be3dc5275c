package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AppError is a domain failure that already knows its HTTP status and a
// message that is safe to show to clients.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, format string, args ...any) *AppError {
	return &AppError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *AppError {
	return newAppError(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *AppError {
	return newAppError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *AppError {
	return newAppError(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...any) *AppError {
	return newAppError(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return newAppError(http.StatusConflict, format, args...)
}

func Unavailable(format string, args ...any) *AppError {
	return newAppError(http.StatusServiceUnavailable, format, args...)
}

// Internal wraps an unexpected error; clients only ever see message.
func Internal(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// StatusOf returns the HTTP status an error maps to.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// RespondError writes err as a JSON error body. Errors that are not
// AppErrors are logged and reported as a generic 500.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			GetLogger().Error(appErr.Message,
				zap.String("path", c.FullPath()),
				zap.Error(appErr.Err))
		}
		c.AbortWithStatusJSON(appErr.Status, ErrorResponse{Error: appErr.Message})
		return
	}

	GetLogger().Error("unhandled error",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// ErrorHandler is a middleware to catch panics and return structured errors.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "Internal server error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response.
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message, zap.String("details", details))
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}
