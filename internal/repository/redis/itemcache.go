package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
)

const keyPrefix = "item:"

// ItemCache implements repository.ItemCache using Redis. It sits in front of
// the item store for single-item reads; the store stays authoritative.
type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewItemCache creates a new Redis-backed item cache.
func NewItemCache(client *redis.Client, ttl time.Duration) *ItemCache {
	return &ItemCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached item by ID.
func (c *ItemCache) Get(ctx context.Context, id string) (*domain.Item, error) {
	key := keyPrefix + id

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("item", id)
		}
		return nil, fmt.Errorf("redis get item: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}

	return &item, nil
}

// Set stores an item with the configured TTL.
func (c *ItemCache) Set(ctx context.Context, item *domain.Item) error {
	key := keyPrefix + item.ID

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set item: %w", err)
	}

	return nil
}

// Invalidate removes an item from the cache. Missing keys are not an error.
func (c *ItemCache) Invalidate(ctx context.Context, id string) error {
	key := keyPrefix + id

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del item: %w", err)
	}

	return nil
}
