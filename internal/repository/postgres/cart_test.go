package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Epi-Shop/epi-shop/internal/domain"
	apperrors "github.com/Epi-Shop/epi-shop/pkg/errors"
)

func newCartTestFixture(t *testing.T) (*CartRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewCartRepository(mock)
	return repo, mock
}

func sampleCartLine() *domain.CartLine {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.CartLine{
		ID:        "line-1234",
		UserID:    "user-1234",
		ItemID:    "item-1234",
		Quantity:  2,
		Kind:      domain.KindPurchaseRequest,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func cartLineColumns() []string {
	return []string{"id", "user_id", "item_id", "quantity", "kind", "created_at", "updated_at"}
}

func cartLineRow(l *domain.CartLine) *pgxmock.Rows {
	return pgxmock.NewRows(cartLineColumns()).AddRow(
		l.ID, l.UserID, l.ItemID, l.Quantity, l.Kind, l.CreatedAt, l.UpdatedAt,
	)
}

// ---------------------------------------------------------------------------
// Upsert
// ---------------------------------------------------------------------------

func TestCartRepository_Upsert_NewLine(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	l := sampleCartLine()

	mock.ExpectQuery("INSERT INTO cart_lines .+ ON CONFLICT").
		WithArgs(l.ID, l.UserID, l.ItemID, l.Quantity, l.Kind, l.CreatedAt, l.UpdatedAt).
		WillReturnRows(cartLineRow(l))

	got, err := repo.Upsert(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, 2, got.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Upsert_MergesQuantity(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	l := sampleCartLine()

	// The existing line had quantity 3; the database returns the merged row
	// with the original line id and 3+2=5.
	merged := *l
	merged.ID = "line-existing"
	merged.Quantity = 5

	mock.ExpectQuery("INSERT INTO cart_lines .+ ON CONFLICT").
		WithArgs(l.ID, l.UserID, l.ItemID, l.Quantity, l.Kind, l.CreatedAt, l.UpdatedAt).
		WillReturnRows(cartLineRow(&merged))

	got, err := repo.Upsert(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "line-existing", got.ID)
	assert.Equal(t, 5, got.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetLine
// ---------------------------------------------------------------------------

func TestCartRepository_GetLine_Success(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	l := sampleCartLine()

	mock.ExpectQuery("SELECT .+ FROM cart_lines WHERE id =").
		WithArgs(l.ID).
		WillReturnRows(cartLineRow(l))

	got, err := repo.GetLine(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.UserID, got.UserID)
	assert.Equal(t, l.ItemID, got.ItemID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_GetLine_NotFound(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cart_lines WHERE id =").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetLine(context.Background(), "missing-id")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// UpdateQuantity
// ---------------------------------------------------------------------------

func TestCartRepository_UpdateQuantity_Success(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	l := sampleCartLine()
	l.Quantity = 7

	mock.ExpectQuery("UPDATE cart_lines SET quantity =").
		WithArgs(7, pgxmock.AnyArg(), l.ID).
		WillReturnRows(cartLineRow(l))

	got, err := repo.UpdateQuantity(context.Background(), l.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_UpdateQuantity_NotFound(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE cart_lines SET quantity =").
		WithArgs(7, pgxmock.AnyArg(), "missing-id").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.UpdateQuantity(context.Background(), "missing-id", 7)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartRepository_Delete_Success(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM cart_lines WHERE id =").
		WithArgs("line-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "line-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM cart_lines WHERE id =").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListByUser
// ---------------------------------------------------------------------------

func TestCartRepository_ListByUser_JoinsItemData(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	l := sampleCartLine()

	rows := pgxmock.NewRows(append(cartLineColumns(), "name", "price_cents")).
		AddRow(l.ID, l.UserID, l.ItemID, l.Quantity, l.Kind, l.CreatedAt, l.UpdatedAt,
			"Safety Helmet", int64(2500))

	mock.ExpectQuery("SELECT .+ FROM cart_lines cl JOIN items i ON").
		WithArgs(l.UserID, domain.KindPurchaseRequest).
		WillReturnRows(rows)

	lines, err := repo.ListByUser(context.Background(), l.UserID, domain.KindPurchaseRequest)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Safety Helmet", lines[0].ItemName)
	assert.Equal(t, int64(2500), lines[0].UnitPriceCents)
	assert.Equal(t, int64(5000), lines[0].LineTotalCents())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartRepository_ListByUser_Empty(t *testing.T) {
	repo, mock := newCartTestFixture(t)
	defer mock.Close()

	rows := pgxmock.NewRows(append(cartLineColumns(), "name", "price_cents"))

	mock.ExpectQuery("SELECT .+ FROM cart_lines cl JOIN items i ON").
		WithArgs("user-1234", domain.KindPurchaseRequest).
		WillReturnRows(rows)

	lines, err := repo.ListByUser(context.Background(), "user-1234", domain.KindPurchaseRequest)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
	assert.NoError(t, mock.ExpectationsWereMet())
}
