package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopsmoke/internal/order/domain"
	pkgkafka "github.com/utafrali/shopsmoke/pkg/kafka"
)

// Kafka topic constants for order domain events.
const (
	TopicOrderCreated       = "shopsmoke.order.created"
	TopicOrderStatusChanged = "shopsmoke.order.status_changed"
	TopicOrderCancelled     = "shopsmoke.order.cancelled"
	TopicOrderDeleted       = "shopsmoke.order.deleted"
)

const AggregateTypeOrder = "order"

const SourceOrderService = "order-service"

// OrderData is the payload for an order.created event.
type OrderData struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
}

// StatusChangedData is the payload for order.status_changed and
// order.cancelled events.
type StatusChangedData struct {
	ID         string `json:"id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// OrderDeletedData is the payload for an order.deleted event.
type OrderDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the order service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published order event",
		slog.String("topic", topic),
		slog.String("order_id", aggregateID),
	)

	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, OrderData{
		ID:         order.ID,
		UserID:     order.UserID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		TotalPrice: order.TotalPrice,
		Status:     string(order.Status),
	})
}

// PublishStatusChanged publishes an order.status_changed event. Transitions
// into cancelled go to the dedicated cancellation topic instead.
func (p *Producer) PublishStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	topic := TopicOrderStatusChanged
	if to == domain.OrderStatusCancelled {
		topic = TopicOrderCancelled
	}
	return p.publish(ctx, topic, orderID, StatusChangedData{
		ID:         orderID,
		FromStatus: string(from),
		ToStatus:   string(to),
	})
}

// PublishOrderDeleted publishes an order.deleted event.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, TopicOrderDeleted, orderID, OrderDeletedData{ID: orderID})
}
