package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
)

func responseWith(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{
			"not found",
			http.StatusNotFound,
			`{"error":{"code":"NOT_FOUND","message":"user with id u-1 not found"}}`,
			apperrors.ErrNotFound,
		},
		{
			"insufficient stock",
			http.StatusBadRequest,
			`{"error":{"code":"INSUFFICIENT_STOCK","message":"insufficient stock: available 8, requested 1000"}}`,
			apperrors.ErrInsufficientStock,
		},
		{
			"invalid input",
			http.StatusBadRequest,
			`{"error":{"code":"INVALID_INPUT","message":"quantity must be positive"}}`,
			apperrors.ErrInvalidInput,
		},
		{
			"unauthorized",
			http.StatusUnauthorized,
			`{"error":{"code":"UNAUTHORIZED","message":"invalid email or password"}}`,
			apperrors.ErrUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(responseWith(tt.status, tt.body), "product-service")
			assert.True(t, errors.Is(err, tt.sentinel), "got: %v", err)
		})
	}
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(responseWith(http.StatusBadGateway, "upstream choked"), "order-service")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "order-service")
	assert.Contains(t, err.Error(), "502")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(200))
	assert.False(t, IsClientError(500))
}
