package repositories

import (
	"context"

	"storefront/internal/models"
)

// MaterializeResult describes what Materialize did with a confirmation.
type MaterializeResult struct {
	Order *models.Order
	// Created is set when this call inserted the row.
	Created bool
	// Advanced is set when an existing row moved to a later status.
	Advanced bool
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Materialize(ctx context.Context, order *models.Order, clearCart bool) (*MaterializeResult, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetAll(ctx context.Context) ([]models.Order, error)
	Advance(ctx context.Context, id string, next models.OrderStatus, trackingNumber, notes *string) (*models.Order, error)
}
