package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
}

// Skip returns the number of documents to skip for this page.
func (p Page) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

// PageFromQuery reads ?page= and ?limit= with sane bounds.
func PageFromQuery(c *gin.Context) Page {
	page, err := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 64)
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return Page{Page: page, Limit: limit}
}
