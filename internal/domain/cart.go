package domain

import (
	"time"
)

// CartLine kind discriminator. Only purchase requests are exercised today;
// the column exists so other request kinds can share the table later.
const (
	KindPurchaseRequest = "purchase_request"
)

// CartLine links a user to a requested item with a quantity. At most one
// line exists per (user, item, kind); repeated adds merge by incrementing
// the quantity.
type CartLine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Quantity  int       `json:"quantity"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLineDetail is a cart line joined with the current catalog data of its
// item. Unit price is the item's price at query time, never a snapshot.
type CartLineDetail struct {
	CartLine
	ItemName       string `json:"item_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// LineTotalCents returns quantity times the current unit price.
func (d *CartLineDetail) LineTotalCents() int64 {
	return d.UnitPriceCents * int64(d.Quantity)
}

// Cart is a user's cart view.
type Cart struct {
	UserID     string           `json:"user_id"`
	Lines      []CartLineDetail `json:"lines"`
	TotalCents int64            `json:"total_cents"`
}

// ComputeTotalCents sums line totals over the given lines.
func ComputeTotalCents(lines []CartLineDetail) int64 {
	var total int64
	for i := range lines {
		total += lines[i].LineTotalCents()
	}
	return total
}
