package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		want     Page
	}{
		{"valid values", 2, 25, Page{Number: 2, Size: 25}},
		{"zero page clamps to one", 0, 25, Page{Number: 1, Size: 25}},
		{"negative page clamps to one", -3, 25, Page{Number: 1, Size: 25}},
		{"zero page size uses default", 1, 0, Page{Number: 1, Size: DefaultPageSize}},
		{"oversized page size clamps to cap", 1, 5000, Page{Number: 1, Size: MaxPageSize}},
		{"page size at cap is untouched", 1, MaxPageSize, Page{Number: 1, Size: MaxPageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampPage(tt.page, tt.pageSize))
		})
	}
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 20}.Offset())
	assert.Equal(t, 40, Page{Number: 3, Size: 20}.Offset())
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  Page
	}{
		{"defaults", "", Page{Number: 1, Size: DefaultPageSize}},
		{"explicit values", "page=4&page_size=50", Page{Number: 4, Size: 50}},
		{"non-numeric values fall back", "page=abc&page_size=xyz", Page{Number: 1, Size: DefaultPageSize}},
		{"out of range values clamped", "page=-1&page_size=999", Page{Number: 1, Size: MaxPageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/audit-logs?"+tt.query, nil)
			assert.Equal(t, tt.want, ParsePagination(c))
		})
	}
}

func TestNewPaginatedResult(t *testing.T) {
	page := Page{Number: 1, Size: 20}

	t.Run("nil items become empty slice", func(t *testing.T) {
		result := NewPaginatedResult[string](nil, page, 0)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
	})

	t.Run("items and counts carried through", func(t *testing.T) {
		result := NewPaginatedResult([]int{1, 2, 3}, page, 42)
		assert.Equal(t, []int{1, 2, 3}, result.Items)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 20, result.PageSize)
		assert.Equal(t, int64(42), result.TotalCount)
	})
}
