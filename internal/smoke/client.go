package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/utafrali/shopsmoke/pkg/httpclient"
)

// User mirrors the user service's public representation.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Product mirrors the product service's public representation. Price is in
// cents.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock_quantity"`
}

// Order mirrors the order service's public representation.
type Order struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
}

// decodeData unwraps the services' {"data": ...} envelope into v. A missing
// or malformed envelope is a decode error; error responses are left to the
// caller, which inspects the status code instead.
func decodeData(raw []byte, v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if envelope.Data == nil {
		return fmt.Errorf("response has no data field: %s", string(raw))
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// UserAPI is a typed client for the user service. Every method returns the
// HTTP status and a decoded body when the call reached the service; transport
// failures come back as errors.
type UserAPI struct {
	base   string
	client *httpclient.Client
}

// NewUserAPI creates a user service client rooted at base.
func NewUserAPI(base string, client *httpclient.Client) *UserAPI {
	return &UserAPI{base: base, client: client}
}

// Create registers a user via POST /users.
func (a *UserAPI) Create(ctx context.Context, username, email, password string) (int, *User, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPost, a.base+"/users", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusCreated {
		return status, nil, nil
	}

	var user User
	if err := decodeData(raw, &user); err != nil {
		return status, nil, err
	}
	return status, &user, nil
}

// Get fetches a user via GET /users/{id}.
func (a *UserAPI) Get(ctx context.Context, id string) (int, *User, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodGet, a.base+"/users/"+id, nil)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var user User
	if err := decodeData(raw, &user); err != nil {
		return status, nil, err
	}
	return status, &user, nil
}

// Update patches user fields via PUT /users/{id}.
func (a *UserAPI) Update(ctx context.Context, id string, fields map[string]any) (int, *User, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPut, a.base+"/users/"+id, fields)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var user User
	if err := decodeData(raw, &user); err != nil {
		return status, nil, err
	}
	return status, &user, nil
}

// Delete removes a user via DELETE /users/{id}.
func (a *UserAPI) Delete(ctx context.Context, id string) (int, error) {
	status, _, err := a.client.DoJSON(ctx, http.MethodDelete, a.base+"/users/"+id, nil)
	return status, err
}

// Login authenticates via POST /login.
func (a *UserAPI) Login(ctx context.Context, email, password string) (int, error) {
	status, _, err := a.client.DoJSON(ctx, http.MethodPost, a.base+"/login", map[string]string{
		"email":    email,
		"password": password,
	})
	return status, err
}

// ProductAPI is a typed client for the product service.
type ProductAPI struct {
	base   string
	client *httpclient.Client
}

// NewProductAPI creates a product service client rooted at base.
func NewProductAPI(base string, client *httpclient.Client) *ProductAPI {
	return &ProductAPI{base: base, client: client}
}

// Create registers a product via POST /products.
func (a *ProductAPI) Create(ctx context.Context, name, description string, price int64, stock int) (int, *Product, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPost, a.base+"/products", map[string]any{
		"name":           name,
		"description":    description,
		"price":          price,
		"stock_quantity": stock,
	})
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusCreated {
		return status, nil, nil
	}

	var product Product
	if err := decodeData(raw, &product); err != nil {
		return status, nil, err
	}
	return status, &product, nil
}

// Get fetches a product via GET /products/{id}.
func (a *ProductAPI) Get(ctx context.Context, id string) (int, *Product, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodGet, a.base+"/products/"+id, nil)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var product Product
	if err := decodeData(raw, &product); err != nil {
		return status, nil, err
	}
	return status, &product, nil
}

// Update patches product fields via PUT /products/{id}.
func (a *ProductAPI) Update(ctx context.Context, id string, fields map[string]any) (int, *Product, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPut, a.base+"/products/"+id, fields)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var product Product
	if err := decodeData(raw, &product); err != nil {
		return status, nil, err
	}
	return status, &product, nil
}

// AdjustStock changes stock via PATCH /products/{id}/stock.
func (a *ProductAPI) AdjustStock(ctx context.Context, id string, quantityChange int) (int, *Product, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPatch, a.base+"/products/"+id+"/stock", map[string]int{
		"quantity_change": quantityChange,
	})
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var product Product
	if err := decodeData(raw, &product); err != nil {
		return status, nil, err
	}
	return status, &product, nil
}

// Delete removes a product via DELETE /products/{id}.
func (a *ProductAPI) Delete(ctx context.Context, id string) (int, error) {
	status, _, err := a.client.DoJSON(ctx, http.MethodDelete, a.base+"/products/"+id, nil)
	return status, err
}

// OrderAPI is a typed client for the order service.
type OrderAPI struct {
	base   string
	client *httpclient.Client
}

// NewOrderAPI creates an order service client rooted at base.
func NewOrderAPI(base string, client *httpclient.Client) *OrderAPI {
	return &OrderAPI{base: base, client: client}
}

// Create places an order via POST /orders.
func (a *OrderAPI) Create(ctx context.Context, userID, productID string, quantity int) (int, *Order, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPost, a.base+"/orders", map[string]any{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusCreated {
		return status, nil, nil
	}

	var order Order
	if err := decodeData(raw, &order); err != nil {
		return status, nil, err
	}
	return status, &order, nil
}

// Get fetches an order via GET /orders/{id}.
func (a *OrderAPI) Get(ctx context.Context, id string) (int, *Order, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodGet, a.base+"/orders/"+id, nil)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var order Order
	if err := decodeData(raw, &order); err != nil {
		return status, nil, err
	}
	return status, &order, nil
}

// UpdateStatus moves an order to a new status via PUT /orders/{id}.
func (a *OrderAPI) UpdateStatus(ctx context.Context, id, orderStatus string) (int, *Order, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPut, a.base+"/orders/"+id, map[string]string{
		"status": orderStatus,
	})
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var order Order
	if err := decodeData(raw, &order); err != nil {
		return status, nil, err
	}
	return status, &order, nil
}

// Confirm moves a pending order to confirmed via POST /orders/{id}/confirm.
func (a *OrderAPI) Confirm(ctx context.Context, id string) (int, *Order, error) {
	status, raw, err := a.client.DoJSON(ctx, http.MethodPost, a.base+"/orders/"+id+"/confirm", nil)
	if err != nil {
		return 0, nil, err
	}
	if status != http.StatusOK {
		return status, nil, nil
	}

	var order Order
	if err := decodeData(raw, &order); err != nil {
		return status, nil, err
	}
	return status, &order, nil
}

// Delete removes an order via DELETE /orders/{id}.
func (a *OrderAPI) Delete(ctx context.Context, id string) (int, error) {
	status, _, err := a.client.DoJSON(ctx, http.MethodDelete, a.base+"/orders/"+id, nil)
	return status, err
}
