package repositories

import (
	"context"

	"storefront/internal/models"
)

// CartRepository persists carts and their line items. Every mutating method
// runs in one transaction and returns the lines as seen by that transaction.
type CartRepository interface {
	Lines(ctx context.Context, userID string) ([]models.CartLine, error)
	AddItem(ctx context.Context, userID, productID string, qty int) ([]models.CartLine, error)
	SetItemQuantity(ctx context.Context, userID, productID string, qty int) ([]models.CartLine, error)
	RemoveItem(ctx context.Context, userID, productID string) ([]models.CartLine, error)
	Clear(ctx context.Context, userID string) error
}
