package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/shopsmoke/internal/user/domain"
	pkgkafka "github.com/utafrali/shopsmoke/pkg/kafka"
)

// Kafka topic constants for user domain events.
const (
	TopicUserCreated = "shopsmoke.user.created"
	TopicUserUpdated = "shopsmoke.user.updated"
	TopicUserDeleted = "shopsmoke.user.deleted"
)

const AggregateTypeUser = "user"

const SourceUserService = "user-service"

// UserData is the payload for user.created and user.updated events.
type UserData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the user service.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishUserCreated publishes a user.created event.
func (p *Producer) PublishUserCreated(ctx context.Context, user *domain.User) error {
	data := UserData{ID: user.ID, Username: user.Username, Email: user.Email}

	event, err := pkgkafka.NewEvent(TopicUserCreated, user.ID, AggregateTypeUser, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create user.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserCreated, event); err != nil {
		return fmt.Errorf("publish user.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.created event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserData{ID: user.ID, Username: user.Username, Email: user.Email}

	event, err := pkgkafka.NewEvent(TopicUserUpdated, user.ID, AggregateTypeUser, SourceUserService, data)
	if err != nil {
		return fmt.Errorf("create user.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserUpdated, event); err != nil {
		return fmt.Errorf("publish user.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.updated event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID string) error {
	event, err := pkgkafka.NewEvent(TopicUserDeleted, userID, AggregateTypeUser, SourceUserService, UserDeletedData{ID: userID})
	if err != nil {
		return fmt.Errorf("create user.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserDeleted, event); err != nil {
		return fmt.Errorf("publish user.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.deleted event",
		slog.String("user_id", userID),
	)

	return nil
}
