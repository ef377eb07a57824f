package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
)

func setupTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProductCache(client, 5*time.Minute), mr
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Product{
		ID:          "p-1",
		Name:        "Widget",
		Description: "A widget",
		Price:       1999,
		Stock:       10,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductCache_SetThenGet(t *testing.T) {
	cache, _ := setupTestCache(t)

	p := sampleProduct()
	require.NoError(t, cache.Set(context.Background(), p))

	got, err := cache.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Price, got.Price)
	assert.Equal(t, p.Stock, got.Stock)
}

func TestProductCache_Get_Miss(t *testing.T) {
	cache, _ := setupTestCache(t)

	_, err := cache.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestProductCache_Get_CorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, mr.Set(keyPrefix+"p-1", "{not json"))

	_, err := cache.Get(context.Background(), "p-1")
	assert.Error(t, err)
}

func TestProductCache_Invalidate(t *testing.T) {
	cache, mr := setupTestCache(t)

	p := sampleProduct()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, mr.Set(keyPrefix+p.ID, string(data)))

	require.NoError(t, cache.Invalidate(context.Background(), p.ID))
	assert.False(t, mr.Exists(keyPrefix+p.ID))
}

func TestProductCache_SetAppliesTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	p := sampleProduct()
	require.NoError(t, cache.Set(context.Background(), p))

	mr.FastForward(6 * time.Minute)
	_, err := cache.Get(context.Background(), p.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
