package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the per-user container of line items. There is at most one row per
// user; it is created on the first add and cleared in place afterwards.
type Cart struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a stored (product, quantity) selection. Price, name and image
// are never copied here; they are joined from products on every read.
type CartItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CartID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is a line item joined live against the catalog.
type CartLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"-"`
}

// CartView is what clients see. Total and ItemCount are derived on read.
type CartView struct {
	UserID    string          `json:"user_id"`
	Items     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// NewCartView computes the derived totals for the given lines.
func NewCartView(userID string, lines []CartLine) CartView {
	view := CartView{UserID: userID, Items: make([]CartLine, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		line.Subtotal = line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Total = view.Total.Add(line.Subtotal)
		view.ItemCount += line.Quantity
		view.Items = append(view.Items, line)
	}
	return view
}
