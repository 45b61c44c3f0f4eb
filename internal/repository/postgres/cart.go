package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	"github.com/Epi-Shop/epi-shop/pkg/database"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
)

// CartRepository implements repository.CartRepository using PostgreSQL.
type CartRepository struct {
	db database.DBTX
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(db database.DBTX) *CartRepository {
	return &CartRepository{db: db}
}

// Upsert adds a cart line or increments the existing one for the same
// (user, item, kind). The merge happens inside the database, so concurrent
// adds for the same item never lose an increment.
func (r *CartRepository) Upsert(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error) {
	query := `
		INSERT INTO cart_lines (id, user_id, item_id, quantity, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, item_id, kind)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, item_id, quantity, kind, created_at, updated_at`

	var merged domain.CartLine
	err := r.db.QueryRow(ctx, query,
		line.ID,
		line.UserID,
		line.ItemID,
		line.Quantity,
		line.Kind,
		line.CreatedAt,
		line.UpdatedAt,
	).Scan(
		&merged.ID,
		&merged.UserID,
		&merged.ItemID,
		&merged.Quantity,
		&merged.Kind,
		&merged.CreatedAt,
		&merged.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}

	return &merged, nil
}

// GetLine retrieves a cart line by its ID.
func (r *CartRepository) GetLine(ctx context.Context, lineID string) (*domain.CartLine, error) {
	query := `
		SELECT id, user_id, item_id, quantity, kind, created_at, updated_at
		FROM cart_lines
		WHERE id = $1`

	var line domain.CartLine
	err := r.db.QueryRow(ctx, query, lineID).Scan(
		&line.ID,
		&line.UserID,
		&line.ItemID,
		&line.Quantity,
		&line.Kind,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart line", lineID)
		}
		return nil, fmt.Errorf("scan cart line: %w", err)
	}

	return &line, nil
}

// UpdateQuantity replaces the quantity of an existing line.
func (r *CartRepository) UpdateQuantity(ctx context.Context, lineID string, quantity int) (*domain.CartLine, error) {
	query := `
		UPDATE cart_lines
		SET quantity = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, user_id, item_id, quantity, kind, created_at, updated_at`

	var line domain.CartLine
	err := r.db.QueryRow(ctx, query, quantity, time.Now().UTC(), lineID).Scan(
		&line.ID,
		&line.UserID,
		&line.ItemID,
		&line.Quantity,
		&line.Kind,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart line", lineID)
		}
		return nil, fmt.Errorf("update cart line quantity: %w", err)
	}

	return &line, nil
}

// Delete removes a cart line by its ID.
func (r *CartRepository) Delete(ctx context.Context, lineID string) error {
	query := `DELETE FROM cart_lines WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, lineID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("cart line", lineID)
	}

	return nil
}

// ListByUser returns the user's cart lines of the given kind joined with the
// current name and price of each item.
func (r *CartRepository) ListByUser(ctx context.Context, userID, kind string) ([]domain.CartLineDetail, error) {
	query := `
		SELECT cl.id, cl.user_id, cl.item_id, cl.quantity, cl.kind, cl.created_at, cl.updated_at,
			   i.name, i.price_cents
		FROM cart_lines cl
		JOIN items i ON i.id = cl.item_id
		WHERE cl.user_id = $1 AND cl.kind = $2
		ORDER BY cl.created_at ASC, cl.id ASC`

	rows, err := r.db.Query(ctx, query, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLineDetail
	for rows.Next() {
		var d domain.CartLineDetail
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.ItemID,
			&d.Quantity,
			&d.Kind,
			&d.CreatedAt,
			&d.UpdatedAt,
			&d.ItemName,
			&d.UnitPriceCents,
		); err != nil {
			return nil, fmt.Errorf("scan cart line row: %w", err)
		}
		lines = append(lines, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart line rows: %w", err)
	}

	if lines == nil {
		lines = []domain.CartLineDetail{}
	}

	return lines, nil
}
