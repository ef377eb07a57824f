package domain

import (
	"time"
)

// Product represents an item in the catalog. Price is stored in cents to
// avoid floating point rounding. Stock is exposed as stock_quantity on the
// wire.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock_quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
