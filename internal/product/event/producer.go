package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopsmoke/internal/product/domain"
	pkgkafka "github.com/utafrali/shopsmoke/pkg/kafka"
)

// Kafka topic constants for product domain events.
const (
	TopicProductCreated      = "shopsmoke.product.created"
	TopicProductUpdated      = "shopsmoke.product.updated"
	TopicProductDeleted      = "shopsmoke.product.deleted"
	TopicProductStockChanged = "shopsmoke.product.stock_changed"
)

const AggregateTypeProduct = "product"

const SourceProductService = "product-service"

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock int    `json:"stock_quantity"`
}

// StockChangedData is the payload for a product.stock_changed event.
type StockChangedData struct {
	ID             string `json:"id"`
	QuantityChange int    `json:"quantity_change"`
	Stock          int    `json:"stock_quantity"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes product domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the product service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeProduct, SourceProductService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.String("product_id", aggregateID),
	)

	return nil
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, ProductData{
		ID: product.ID, Name: product.Name, Price: product.Price, Stock: product.Stock,
	})
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, ProductData{
		ID: product.ID, Name: product.Name, Price: product.Price, Stock: product.Stock,
	})
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductDeleted, productID, ProductDeletedData{ID: productID})
}

// PublishStockChanged publishes a product.stock_changed event.
func (p *Producer) PublishStockChanged(ctx context.Context, product *domain.Product, quantityChange int) error {
	return p.publish(ctx, TopicProductStockChanged, product.ID, StockChangedData{
		ID: product.ID, QuantityChange: quantityChange, Stock: product.Stock,
	})
}
