package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	pkgkafka "github.com/Epi-Shop/epi-shop/pkg/kafka"
)

// Kafka topics for shop domain events.
const (
	TopicItemCreated    = "epi.item.created"
	TopicItemUpdated    = "epi.item.updated"
	TopicItemDeleted    = "epi.item.deleted"
	TopicCartUpdated    = "epi.cart.updated"
	TopicUserRegistered = "epi.user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeItem = "item"
	AggregateTypeCart = "cart"
	AggregateTypeUser = "user"
)

// Source identifier for events published by this application.
const Source = "epi-shop"

// ItemData is the payload for item.created and item.updated events.
type ItemData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// ItemDeletedData is the payload for an item.deleted event.
type ItemDeletedData struct {
	ID string `json:"id"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID     string `json:"user_id"`
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
	Action     string `json:"action"`
	TotalCents int64  `json:"total_cents,omitempty"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Producer publishes shop domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishItemCreated publishes an item.created event.
func (p *Producer) PublishItemCreated(ctx context.Context, item *domain.Item) error {
	return p.publishItem(ctx, TopicItemCreated, item)
}

// PublishItemUpdated publishes an item.updated event.
func (p *Producer) PublishItemUpdated(ctx context.Context, item *domain.Item) error {
	return p.publishItem(ctx, TopicItemUpdated, item)
}

func (p *Producer) publishItem(ctx context.Context, topic string, item *domain.Item) error {
	data := ItemData{
		ID:         item.ID,
		Name:       item.Name,
		PriceCents: item.PriceCents,
		Quantity:   item.Quantity,
	}

	event, err := pkgkafka.NewEvent(topic, item.ID, AggregateTypeItem, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published item event",
		slog.String("topic", topic),
		slog.String("item_id", item.ID),
	)

	return nil
}

// PublishItemDeleted publishes an item.deleted event.
func (p *Producer) PublishItemDeleted(ctx context.Context, itemID string) error {
	event, err := pkgkafka.NewEvent(TopicItemDeleted, itemID, AggregateTypeItem, Source, ItemDeletedData{ID: itemID})
	if err != nil {
		return fmt.Errorf("create item.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicItemDeleted, event); err != nil {
		return fmt.Errorf("publish item.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published item.deleted event",
		slog.String("item_id", itemID),
	)

	return nil
}

// PublishCartUpdated publishes a cart.updated event keyed by the cart owner.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	event, err := pkgkafka.NewEvent(TopicCartUpdated, data.UserID, AggregateTypeCart, Source, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", data.UserID),
		slog.String("action", data.Action),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, Source, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
	)

	return nil
}
