package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "/users", 1, 10, 0},
		{"explicit", "/users?page=3&per_page=25", 3, 25, 50},
		{"malformed page ignored", "/users?page=abc", 1, 10, 0},
		{"zero page ignored", "/users?page=0", 1, 10, 0},
		{"per_page above cap ignored", "/users?per_page=500", 1, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest("GET", tt.url, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	params := Params{Page: 2, PerPage: 10}
	res := NewResult([]string{"a", "b"}, 25, params)

	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
}

func TestNewResult_NilDataBecomesEmptySlice(t *testing.T) {
	res := NewResult[string](nil, 0, DefaultParams())
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Zero(t, res.TotalPages)
	assert.False(t, res.HasNext)
}
