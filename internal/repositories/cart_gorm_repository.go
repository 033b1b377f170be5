package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// Lines reads the user's line items joined against the live catalog. A user
// without a cart has no lines.
func (r *GORMCartRepository) Lines(ctx context.Context, userID string) ([]models.CartLine, error) {
	lines, err := cartLines(r.db.WithContext(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart for user %s: %w", userID, err)
	}
	return lines, nil
}

// AddItem adds qty units of a product, creating the cart on first use. The
// quantity increment happens in the database so concurrent adds never lose an
// update; a resulting quantity above stock rolls everything back.
func (r *GORMCartRepository) AddItem(ctx context.Context, userID, productID string, qty int) ([]models.CartLine, error) {
	return r.upsertItem(ctx, userID, productID, qty, true)
}

// SetItemQuantity replaces the quantity of a product in the cart.
func (r *GORMCartRepository) SetItemQuantity(ctx context.Context, userID, productID string, qty int) ([]models.CartLine, error) {
	return r.upsertItem(ctx, userID, productID, qty, false)
}

func (r *GORMCartRepository) upsertItem(ctx context.Context, userID, productID string, qty int, increment bool) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id", "name", "stock").First(&product, "id = ?", productID).Error; err != nil {
			if isNotFound(err) {
				return apperr.NotFound(fmt.Sprintf("product %s not found", productID))
			}
			return fmt.Errorf("failed to load product %s: %w", productID, err)
		}
		if qty > product.Stock {
			return insufficientStock(product, qty)
		}

		cart, err := lockCart(tx, userID, true)
		if err != nil {
			return err
		}

		quantity := gorm.Expr("excluded.quantity")
		if increment {
			quantity = gorm.Expr("cart_items.quantity + excluded.quantity")
		}
		item := models.CartItem{
			ID:        uuid.New().String(),
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  qty,
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   quantity,
				"updated_at": time.Now(),
			}),
		}).Create(&item).Error
		if err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}

		var stored int
		err = tx.Model(&models.CartItem{}).
			Select("quantity").
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Scan(&stored).Error
		if err != nil {
			return fmt.Errorf("failed to read cart item quantity: %w", err)
		}
		if stored > product.Stock {
			return insufficientStock(product, stored)
		}

		lines, err = cartLines(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// RemoveItem deletes one product from the cart.
func (r *GORMCartRepository) RemoveItem(ctx context.Context, userID, productID string) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID, false)
		if err != nil {
			return err
		}
		res := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove cart item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(fmt.Sprintf("product %s is not in the cart", productID))
		}
		lines, err = cartLines(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Clear empties the cart in place. The cart row itself is kept.
func (r *GORMCartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, userID, false)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// lockCart returns the user's cart row locked for the rest of the transaction.
// With create set, a missing cart is inserted first; the insert is a no-op
// when a concurrent transaction got there first.
func lockCart(tx *gorm.DB, userID string, create bool) (*models.Cart, error) {
	if create {
		cart := models.Cart{ID: uuid.New().String(), UserID: userID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&cart).Error
		if err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
	}

	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("cart not found")
		}
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	return &cart, nil
}

// clearCartItems empties the user's cart if there is one.
func clearCartItems(tx *gorm.DB, userID string) error {
	sub := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func cartLines(db *gorm.DB, userID string) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := db.Table("cart_items").
		Select("cart_items.product_id, products.name, products.image_url, products.price, products.stock, cart_items.quantity").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("carts.user_id = ?", userID).
		Order("cart_items.created_at, cart_items.product_id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read cart lines: %w", err)
	}
	return lines, nil
}

func insufficientStock(product models.Product, requested int) error {
	return apperr.InsufficientStock(fmt.Sprintf("only %d of %s in stock, %d requested", product.Stock, product.Name, requested))
}
