package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/httpclient"
)

// HTTPDoer executes HTTP requests against downstream services. Satisfied by
// httpclient.Client and httpclient.CircuitBreakerClient.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// userRef is the slice of the user service response the order service needs.
type userRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// productRef is the slice of the product service response the order service
// needs. Price is in cents.
type productRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock_quantity"`
}

// fetchUser resolves a user by ID from the user service.
func (s *OrderService) fetchUser(ctx context.Context, userID string) (*userRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userServiceURL+"/users/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("create user request: %w", err)
	}

	resp, err := s.userClient.Do(ctx, req)
	if err != nil {
		return nil, mapTransportError("user-service", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "user-service")
	}
	defer resp.Body.Close()

	var envelope struct {
		Data userRef `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}

	return &envelope.Data, nil
}

// fetchProduct resolves a product by ID from the product service.
func (s *OrderService) fetchProduct(ctx context.Context, productID string) (*productRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.productServiceURL+"/products/"+productID, nil)
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	resp, err := s.productClient.Do(ctx, req)
	if err != nil {
		return nil, mapTransportError("product-service", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "product-service")
	}
	defer resp.Body.Close()

	var envelope struct {
		Data productRef `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return &envelope.Data, nil
}

// adjustStock changes the product's stock by delta (negative to reserve,
// positive to restore). The product service rejects adjustments that would
// drive stock negative.
func (s *OrderService) adjustStock(ctx context.Context, productID string, delta int) error {
	payload, err := json.Marshal(struct {
		QuantityChange int `json:"quantity_change"`
	}{QuantityChange: delta})
	if err != nil {
		return fmt.Errorf("marshal stock adjustment: %w", err)
	}

	url := s.productServiceURL + "/products/" + productID + "/stock"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create stock adjustment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.productClient.Do(ctx, req)
	if err != nil {
		return mapTransportError("product-service", err)
	}

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "product-service")
	}
	resp.Body.Close()

	return nil
}

// mapTransportError translates breaker rejections and network failures into
// a 503 for the caller. Both mean the dependency could not serve the request;
// ErrCircuitOpen stays reachable via errors.Is for callers that care.
func mapTransportError(serviceName string, err error) error {
	return apperrors.Unavailable(serviceName, err)
}
