// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageSize is used when no page_size query parameter is supplied.
	DefaultPageSize = 20

	// MaxPageSize is the hard cap on page_size. Larger values are clamped,
	// never rejected, to keep dashboard-style callers working.
	MaxPageSize = 100
)

// Page describes a one-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ClampPage normalizes raw pagination values. Page numbers below 1 become 1,
// page sizes below 1 become the default, and page sizes above MaxPageSize are
// clamped to the cap. Out-of-range input is forgiven rather than rejected.
func ClampPage(page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Page{Number: page, Size: pageSize}
}

// ParsePagination reads page and page_size query parameters and clamps them.
// Non-numeric values fall back to the defaults.
func ParsePagination(c *gin.Context) Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil {
		pageSize = DefaultPageSize
	}
	return ClampPage(page, pageSize)
}

// PaginatedResult wraps a page of items with the total row count.
type PaginatedResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
}

// NewPaginatedResult builds a PaginatedResult for the given page of items.
func NewPaginatedResult[T any](items []T, page Page, totalCount int64) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PaginatedResult[T]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalCount: totalCount,
	}
}
