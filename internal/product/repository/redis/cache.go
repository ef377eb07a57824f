package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
)

const keyPrefix = "product:"

// ProductCache implements repository.ProductCache using Redis.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a new Redis-backed product cache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached product by ID, or ErrNotFound on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cached product: %w", err)
	}

	return &p, nil
}

// Set stores a product in the cache with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}

// Invalidate removes a product from the cache.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}

	return nil
}
