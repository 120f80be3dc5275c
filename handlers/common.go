package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"homehub/middleware"
	"homehub/services/access"
	"homehub/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PagedResponse wraps a list endpoint's page of results.
type PagedResponse struct {
	Data  any   `json:"data"`
	Total int64 `json:"total"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

func respondPage(c *gin.Context, items any, total int64, page utils.Page) {
	c.JSON(http.StatusOK, PagedResponse{Data: items, Total: total, Page: page.Page, Limit: page.Limit})
}

// requireSubject returns the authenticated caller or writes a 401.
func requireSubject(c *gin.Context) (access.Subject, bool) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.RespondError(c, utils.Unauthorized("Authentication required"))
		return access.Subject{}, false
	}
	return subject, true
}

// optionalSubject returns the caller when the request carried a valid token.
func optionalSubject(c *gin.Context) *access.Subject {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		return nil
	}
	return &subject
}

func idParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := utils.ParseObjectID(c.Param(name), name)
	if err != nil {
		utils.RespondError(c, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindInput binds JSON or form bodies depending on the content type.
func bindInput(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		getLogger(c).Warn("invalid request body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, utils.ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	return true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// uploadedFiles collects the files sent under any of fields.
func uploadedFiles(c *gin.Context, fields ...string) []*multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, field := range fields {
		files = append(files, form.File[field]...)
	}
	return files
}

// uploadedFile returns the single file sent under field, if any.
func uploadedFile(c *gin.Context, field string) *multipart.FileHeader {
	if !isMultipart(c) {
		return nil
	}
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

type statusBody struct {
	Status string `json:"status"`
}
