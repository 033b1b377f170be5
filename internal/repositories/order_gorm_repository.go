package repositories

import (
	"context"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Materialize records a payment confirmation as an order keyed by its
// checkout session. The insert ignores conflicts on stripe_session_id, so a
// redelivered confirmation leaves exactly one row; an existing row only moves
// forward in status. When the order first reaches paid and clearCart is set,
// the buyer's cart is emptied in the same transaction. order itself is never
// modified; the stored row comes back in the result.
func (r *GORMOrderRepository) Materialize(ctx context.Context, order *models.Order, clearCart bool) (*MaterializeResult, error) {
	result := &MaterializeResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advance := func(existing *models.Order) error {
			result.Order = existing
			if !existing.Status.CanTransitionTo(order.Status) {
				return nil
			}
			if err := tx.Model(existing).Update("status", order.Status).Error; err != nil {
				return fmt.Errorf("failed to advance order %s: %w", existing.ID, err)
			}
			existing.Status = order.Status
			result.Advanced = true
			if clearCart && order.Status == models.OrderStatusPaid {
				return clearCartItems(tx, existing.UserID)
			}
			return nil
		}

		existing, err := lockOrder(tx, "stripe_session_id = ?", order.StripeSessionID)
		switch {
		case err == nil:
			return advance(existing)
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}

		row := *order
		if row.ShippingAddress == "" {
			addr, err := defaultAddress(tx, row.UserID, models.AddressTypeShipping)
			switch {
			case err == nil:
				row.ShippingAddress = addr.Formatted()
			case !apperr.Is(err, apperr.KindNotFound):
				return err
			}
		}
		if row.ID == "" {
			row.ID = uuid.New().String()
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_session_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to insert order: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			result.Order = &row
			result.Created = true
			if clearCart && row.Status == models.OrderStatusPaid {
				return clearCartItems(tx, row.UserID)
			}
			return nil
		}

		// A concurrent delivery inserted it first.
		existing, err = lockOrder(tx, "stripe_session_id = ?", order.StripeSessionID)
		if err != nil {
			return err
		}
		return advance(existing)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBySessionID retrieves the order created from a checkout session.
func (r *GORMOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return findOrder(r.db.WithContext(ctx), "stripe_session_id = ?", sessionID)
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return findOrder(r.db.WithContext(ctx), "id = ?", id)
}

// ListByUser retrieves a user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetAll retrieves all orders, newest first.
func (r *GORMOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// Advance moves an order to next, optionally recording a tracking number and
// notes. Moves that are not forward are rejected with a Conflict.
func (r *GORMOrderRepository) Advance(ctx context.Context, id string, next models.OrderStatus, trackingNumber, notes *string) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return apperr.Conflict(fmt.Sprintf("order cannot move from %s to %s", order.Status, next))
		}
		updates := map[string]interface{}{"status": next}
		if trackingNumber != nil {
			updates["tracking_number"] = *trackingNumber
			order.TrackingNumber = *trackingNumber
		}
		if notes != nil {
			updates["notes"] = *notes
			order.Notes = *notes
		}
		if err := tx.Model(order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order %s: %w", id, err)
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func findOrder(db *gorm.DB, query string, arg string) (*models.Order, error) {
	var order models.Order
	if err := db.Where(query, arg).First(&order).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func lockOrder(tx *gorm.DB, query string, arg string) (*models.Order, error) {
	return findOrder(tx.Clauses(clause.Locking{Strength: "UPDATE"}), query, arg)
}
