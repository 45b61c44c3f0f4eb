package repository

import (
	"context"

	"github.com/Epi-Shop/epi-shop/internal/domain"
)

// ItemFilter defines filter criteria for listing catalog items.
type ItemFilter struct {
	// Search matches name or description as a case-insensitive substring.
	Search  *string
	Page    int
	PerPage int
}

// ItemRepository defines the persistence operations for catalog items.
type ItemRepository interface {
	// Create inserts a new item into the store.
	Create(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Item, error)

	// List returns items matching the filter along with the total count.
	// Order is stable: newest first, ties broken by id.
	List(ctx context.Context, filter ItemFilter) ([]domain.Item, int, error)

	// Update modifies an existing item in the store.
	Update(ctx context.Context, item *domain.Item) error

	// Delete removes an item from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ItemCache is a read-through cache in front of the item store.
type ItemCache interface {
	Get(ctx context.Context, id string) (*domain.Item, error)
	Set(ctx context.Context, item *domain.Item) error
	Invalidate(ctx context.Context, id string) error
}

// CartRepository defines the persistence operations for cart lines.
type CartRepository interface {
	// Upsert adds a cart line, or atomically increments the quantity of the
	// existing line for the same (user, item, kind). The returned line
	// reflects the merged state.
	Upsert(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error)

	// GetLine retrieves a cart line by id, regardless of owner. Callers are
	// responsible for the ownership check.
	GetLine(ctx context.Context, lineID string) (*domain.CartLine, error)

	// UpdateQuantity replaces the quantity of an existing line.
	UpdateQuantity(ctx context.Context, lineID string, quantity int) (*domain.CartLine, error)

	// Delete removes a cart line by id.
	Delete(ctx context.Context, lineID string) error

	// ListByUser returns the user's cart lines of the given kind joined with
	// current item name and price.
	ListByUser(ctx context.Context, userID, kind string) ([]domain.CartLineDetail, error)
}

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// RefreshTokenRepository defines the persistence operations for refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
}
