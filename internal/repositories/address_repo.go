package repositories

import (
	"context"

	"storefront/internal/models"
)

// AddressRepository defines the interface for address data access. All
// lookups are scoped to the owning user.
type AddressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	GetForUser(ctx context.Context, userID, id string) (*models.Address, error)
	Create(ctx context.Context, addr *models.Address) error
	Update(ctx context.Context, addr *models.Address) error
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) (*models.Address, bool, error)
	DefaultFor(ctx context.Context, userID, addrType string) (*models.Address, error)
}
