package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/shopsmoke/internal/order/domain"
	"github.com/utafrali/shopsmoke/internal/order/event"
	"github.com/utafrali/shopsmoke/internal/order/repository"
	apperrors "github.com/utafrali/shopsmoke/pkg/errors"
	"github.com/utafrali/shopsmoke/pkg/pagination"
)

// OrderService implements the business logic for order operations. User and
// product references are validated against the owning services over HTTP.
type OrderService struct {
	repo              repository.OrderRepository
	producer          *event.Producer
	userClient        HTTPDoer
	productClient     HTTPDoer
	userServiceURL    string
	productServiceURL string
	logger            *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	repo repository.OrderRepository,
	producer *event.Producer,
	userClient HTTPDoer,
	productClient HTTPDoer,
	userServiceURL string,
	productServiceURL string,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:              repo,
		producer:          producer,
		userClient:        userClient,
		productClient:     productClient,
		userServiceURL:    userServiceURL,
		productServiceURL: productServiceURL,
		logger:            logger,
	}
}

// CreateInput holds the parameters for creating a new order.
type CreateInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

// Create places an order: it validates the user and product against their
// services, computes the total price at the current product price, stores the
// order as pending, and reserves stock. If the stock reservation fails the
// stored order is rolled back.
func (s *OrderService) Create(ctx context.Context, input CreateInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be positive")
	}

	user, err := s.fetchUser(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("validate user: %w", err)
	}

	product, err := s.fetchProduct(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("validate product: %w", err)
	}

	if product.Stock < input.Quantity {
		return nil, apperrors.InsufficientStock(product.Stock, input.Quantity)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		ProductID:  product.ID,
		Quantity:   input.Quantity,
		TotalPrice: product.Price * int64(input.Quantity),
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Reserve stock after the insert; the stock check above is advisory and
	// the product service enforces it authoritatively.
	if err := s.adjustStock(ctx, product.ID, -input.Quantity); err != nil {
		if delErr := s.repo.Delete(ctx, order.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back order after stock reservation failure",
				slog.String("order_id", order.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.String("product_id", order.ProductID),
		slog.Int("quantity", order.Quantity),
		slog.Int64("total_price", order.TotalPrice),
	)

	return order, nil
}

// GetByID retrieves an order by its ID.
func (s *OrderService) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// List returns a page of orders.
func (s *OrderService) List(ctx context.Context, params pagination.Params) (pagination.Result[domain.Order], error) {
	orders, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return pagination.NewResult(orders, total, params), nil
}

// ListByUser returns a page of a user's orders. The user is validated against
// the user service first, so an unknown user yields a 404 rather than an
// empty page.
func (s *OrderService) ListByUser(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Order], error) {
	if _, err := s.fetchUser(ctx, userID); err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("validate user: %w", err)
	}

	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list user orders: %w", err)
	}
	return pagination.NewResult(orders, total, params), nil
}

// UpdateStatus moves an order to target. Only transitions allowed by the
// order lifecycle are accepted; moving a pending order to cancelled restores
// the reserved stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, target domain.OrderStatus) (*domain.Order, error) {
	if !target.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(target) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("cannot transition order from %q to %q", order.Status, target))
	}

	// Restore stock before recording the cancellation so a failed restore
	// leaves the order cancellable again.
	if target == domain.OrderStatusCancelled {
		if err := s.adjustStock(ctx, order.ProductID, order.Quantity); err != nil {
			return nil, fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	from := order.Status
	order.Status = target
	order.UpdatedAt = time.Now().UTC()

	if err := s.producer.PublishStatusChanged(ctx, order.ID, from, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order status event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID),
		slog.String("from", string(from)),
		slog.String("to", string(target)),
	)

	return order, nil
}

// Confirm moves a pending order to confirmed.
func (s *OrderService) Confirm(ctx context.Context, id string) (*domain.Order, error) {
	return s.UpdateStatus(ctx, id, domain.OrderStatusConfirmed)
}

// Cancel moves an order to cancelled, restoring its reserved stock.
func (s *OrderService) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	return s.UpdateStatus(ctx, id, domain.OrderStatusCancelled)
}

// Delete removes a pending or cancelled order. Deleting a pending order
// releases its reserved stock; a cancelled order already restored it.
// Confirmed and shipped orders are retained.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	order, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !order.IsDeletable() {
		return apperrors.InvalidInput(fmt.Sprintf("cannot delete order in status %q", order.Status))
	}

	if order.Status == domain.OrderStatusPending {
		if err := s.adjustStock(ctx, order.ProductID, order.Quantity); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := s.producer.PublishOrderDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", id),
	)

	return nil
}
