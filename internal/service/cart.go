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
)

// CartService implements the business logic for cart operations. All
// operations act on the calling user's own cart.
type CartService struct {
	repo     repository.CartRepository
	items    repository.ItemRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, items repository.ItemRepository, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		repo:     repo,
		items:    items,
		producer: producer,
		logger:   logger,
	}
}

// AddItem adds an item to the user's cart. If the item is already in the
// cart, the quantities are merged into the existing line.
func (s *CartService) AddItem(ctx context.Context, userID, itemID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	// The item must exist; a dangling line would break the cart view.
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, fmt.Errorf("get item for cart add: %w", err)
	}

	now := time.Now().UTC()
	line := &domain.CartLine{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		Quantity:  quantity,
		Kind:      domain.KindPurchaseRequest,
		CreatedAt: now,
		UpdatedAt: now,
	}

	merged, err := s.repo.Upsert(ctx, line)
	if err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}

	s.publishCartUpdated(ctx, event.CartUpdatedData{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: merged.Quantity,
		Action:   "add",
	})

	s.logger.InfoContext(ctx, "cart line added",
		slog.String("user_id", userID),
		slog.String("item_id", itemID),
		slog.Int("quantity", merged.Quantity),
	)

	return merged, nil
}

// UpdateQuantity replaces the quantity of one of the user's cart lines.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}

	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("get cart line for update: %w", err)
	}
	if line.UserID != userID {
		return nil, apperrors.Forbidden("cart line belongs to another user")
	}

	updated, err := s.repo.UpdateQuantity(ctx, lineID, quantity)
	if err != nil {
		return nil, fmt.Errorf("update cart line: %w", err)
	}

	s.publishCartUpdated(ctx, event.CartUpdatedData{
		UserID:   userID,
		ItemID:   updated.ItemID,
		Quantity: updated.Quantity,
		Action:   "update",
	})

	s.logger.InfoContext(ctx, "cart line updated",
		slog.String("user_id", userID),
		slog.String("line_id", lineID),
		slog.Int("quantity", quantity),
	)

	return updated, nil
}

// RemoveLine deletes one of the user's cart lines.
func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) error {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return fmt.Errorf("get cart line for delete: %w", err)
	}
	if line.UserID != userID {
		return apperrors.Forbidden("cart line belongs to another user")
	}

	if err := s.repo.Delete(ctx, lineID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	s.publishCartUpdated(ctx, event.CartUpdatedData{
		UserID: userID,
		ItemID: line.ItemID,
		Action: "remove",
	})

	s.logger.InfoContext(ctx, "cart line removed",
		slog.String("user_id", userID),
		slog.String("line_id", lineID),
	)

	return nil
}

// GetCart returns the user's cart with per-line and overall totals. Totals
// are always computed from current item prices.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	lines, err := s.repo.ListByUser(ctx, userID, domain.KindPurchaseRequest)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	return &domain.Cart{
		UserID:     userID,
		Lines:      lines,
		TotalCents: domain.ComputeTotalCents(lines),
	}, nil
}

func (s *CartService) publishCartUpdated(ctx context.Context, data event.CartUpdatedData) {
	if err := s.producer.PublishCartUpdated(ctx, data); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", data.UserID),
			slog.String("error", err.Error()),
		)
	}
}
