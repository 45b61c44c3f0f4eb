package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	"github.com/Epi-Shop/epi-shop/internal/event"
	"github.com/Epi-Shop/epi-shop/internal/repository"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
	"github.com/Epi-Shop/epi-shop/pkg/pagination"
)

// CatalogService implements the business logic for catalog item operations.
type CatalogService struct {
	repo     repository.ItemRepository
	cache    repository.ItemCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ItemRepository, cache repository.ItemCache, producer *event.Producer, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateItemInput holds the parameters for creating an item.
type CreateItemInput struct {
	Name        string
	Description string
	PriceCents  int64
	Quantity    int
	ImageURL    *string
}

// UpdateItemInput holds the parameters for updating an item. Nil fields are
// left unchanged.
type UpdateItemInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Quantity    *int
	ImageURL    *string
}

// CreateItem creates a new catalog item.
func (s *CatalogService) CreateItem(ctx context.Context, input *CreateItemInput) (*domain.Item, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("item name is required")
	}
	if input.PriceCents < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}

	now := time.Now().UTC()
	item := &domain.Item{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Quantity:    input.Quantity,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if err := s.producer.PublishItemCreated(ctx, item); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.created event",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "item created",
		slog.String("item_id", item.ID),
		slog.String("name", item.Name),
	)

	return item, nil
}

// GetItem retrieves an item by its ID, reading through the cache.
func (s *CatalogService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if item, err := s.cache.Get(ctx, id); err == nil {
		return item, nil
	}

	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item by id: %w", err)
	}

	if err := s.cache.Set(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "failed to cache item",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
	}

	return item, nil
}

// ListItems returns a filtered, paginated list of items with the total count.
func (s *CatalogService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = pagination.DefaultPerPage
	}
	if filter.PerPage > pagination.MaxPerPage {
		filter.PerPage = pagination.MaxPerPage
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	return items, total, nil
}

// UpdateItem applies partial updates to an existing item.
func (s *CatalogService) UpdateItem(ctx context.Context, id string, input *UpdateItemInput) (*domain.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("item name must not be empty")
		}
		item.Name = *input.Name
	}

	if input.Description != nil {
		item.Description = *input.Description
	}

	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		item.PriceCents = *input.PriceCents
	}

	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, apperrors.InvalidInput("quantity must not be negative")
		}
		item.Quantity = *input.Quantity
	}

	if input.ImageURL != nil {
		item.ImageURL = input.ImageURL
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.invalidateCache(ctx, item.ID)

	if err := s.producer.PublishItemUpdated(ctx, item); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.updated event",
			slog.String("item_id", item.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item updated",
		slog.String("item_id", item.ID),
	)

	return item, nil
}

// DeleteItem removes an item by its ID.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.invalidateCache(ctx, id)

	if err := s.producer.PublishItemDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish item.deleted event",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "item deleted",
		slog.String("item_id", id),
	)

	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate item cache",
			slog.String("item_id", id),
			slog.String("error", err.Error()),
		)
	}
}
