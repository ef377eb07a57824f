package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	"github.com/utafrali/shopsmoke/internal/product/event"
	"github.com/utafrali/shopsmoke/internal/product/repository"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/pagination"
	"github.com/utafrali/shopsmoke/pkg/slug"
)

// ProductService implements the business logic for catalog and stock operations.
type ProductService struct {
	repo     repository.ProductRepository
	cache    repository.ProductCache // nil when caching is disabled
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	cache repository.ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateInput holds the parameters for creating a product. Price is in cents.
type CreateInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int
}

// UpdateInput holds the parameters for updating a product. Nil fields are
// left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
}

// Create adds a new product to the catalog.
func (s *ProductService) Create(ctx context.Context, input CreateInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be greater than zero")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        slug.Make(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// GetByID retrieves a product, serving from the cache when possible.
func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return cached, nil
		}
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.WarnContext(ctx, "failed to cache product",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return product, nil
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Product], error) {
	products, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewResult(products, total, params), nil
}

// Update modifies a product's fields and invalidates its cache entry.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateInput) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		product.Name = *input.Name
		product.Slug = slug.Make(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, apperrors.InvalidInput("price must be greater than zero")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperrors.InvalidInput("stock must not be negative")
		}
		product.Stock = *input.Stock
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)

	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", product.ID),
	)

	return product, nil
}

// Delete removes a product and invalidates its cache entry.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.invalidateCache(ctx, id)

	if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}

// AdjustStock applies a signed quantity change to the product's stock. A
// change that would drive stock below zero is rejected without modifying the
// row.
func (s *ProductService) AdjustStock(ctx context.Context, id string, quantityChange int) (*domain.Product, error) {
	if quantityChange == 0 {
		return nil, apperrors.InvalidInput("quantity_change must not be zero")
	}

	product, err := s.repo.AdjustStock(ctx, id, quantityChange)
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	s.invalidateCache(ctx, id)

	if err := s.producer.PublishStockChanged(ctx, product, quantityChange); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.stock_changed event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("product_id", product.ID),
		slog.Int("quantity_change", quantityChange),
		slog.Int("stock", product.Stock),
	)

	return product, nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
