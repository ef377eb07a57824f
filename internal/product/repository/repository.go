package repository

import (
	"context"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns a page of products ordered by creation time.
	List(ctx context.Context, params pagination.Params) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// AdjustStock atomically applies delta to the product's stock and returns
	// the updated product. A delta that would drive stock below zero fails
	// with ErrInsufficientStock and leaves the row unchanged.
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)
}

// ProductCache defines the read-through cache used in front of the repository.
type ProductCache interface {
	// Get retrieves a cached product, or ErrNotFound on a miss.
	Get(ctx context.Context, id string) (*domain.Product, error)

	// Set stores a product in the cache.
	Set(ctx context.Context, product *domain.Product) error

	// Invalidate removes a product from the cache.
	Invalidate(ctx context.Context, id string) error
}
