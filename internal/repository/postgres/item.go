package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	"github.com/Epi-Shop/epi-shop/internal/repository"
	"github.com/Epi-Shop/epi-shop/pkg/database"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
	"github.com/Epi-Shop/epi-shop/pkg/pagination"
)

// ItemRepository implements repository.ItemRepository using PostgreSQL.
type ItemRepository struct {
	db database.DBTX
}

// NewItemRepository creates a new PostgreSQL-backed item repository.
func NewItemRepository(db database.DBTX) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item into the database.
func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (id, name, description, price_cents, quantity, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.PriceCents,
		item.Quantity,
		item.ImageURL,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("item", "name", item.Name)
		}
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// GetByID retrieves an item by its ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `
		SELECT id, name, description, price_cents, quantity, image_url, created_at, updated_at
		FROM items
		WHERE id = $1`

	var item domain.Item
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.PriceCents,
		&item.Quantity,
		&item.ImageURL,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("item", id)
		}
		return nil, fmt.Errorf("scan item: %w", err)
	}

	return &item, nil
}

// List returns items matching the given filter with the total count.
func (r *ItemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() gives the total in the same query. The id tiebreak
	// keeps pages stable when items share a creation timestamp.
	query := fmt.Sprintf(`
		SELECT id, name, description, price_cents, quantity, image_url, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM items
		%s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = pagination.DefaultPerPage
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var (
		items      []domain.Item
		totalCount int
	)

	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.PriceCents,
			&item.Quantity,
			&item.ImageURL,
			&item.CreatedAt,
			&item.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate item rows: %w", err)
	}

	if items == nil {
		items = []domain.Item{}
	}

	return items, totalCount, nil
}

// Update modifies an existing item in the database.
func (r *ItemRepository) Update(ctx context.Context, item *domain.Item) error {
	item.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE items
		SET name = $1, description = $2, price_cents = $3, quantity = $4, image_url = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		item.Name,
		item.Description,
		item.PriceCents,
		item.Quantity,
		item.ImageURL,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("item", "name", item.Name)
		}
		return fmt.Errorf("update item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("item", item.ID)
	}

	return nil
}

// Delete removes an item from the database by its ID. Cart lines referencing
// the item go with it via ON DELETE CASCADE.
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM items WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("item", id)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
