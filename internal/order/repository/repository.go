package repository

import (
	"context"

	"github.com/utafrali/shopsmoke/internal/order/domain"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

// OrderRepository defines storage operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, params pagination.Params) ([]domain.Order, int, error)
	ListByUser(ctx context.Context, userID string, params pagination.Params) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}
