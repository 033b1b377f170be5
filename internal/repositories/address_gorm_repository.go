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

// GORMAddressRepository is a GORM implementation of AddressRepository.
type GORMAddressRepository struct {
	db *gorm.DB
}

// NewGORMAddressRepository creates a new instance of GORMAddressRepository.
func NewGORMAddressRepository(db *gorm.DB) *GORMAddressRepository {
	return &GORMAddressRepository{db: db}
}

func (r *GORMAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	addresses := []models.Address{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("type, created_at").Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

func (r *GORMAddressRepository) GetForUser(ctx context.Context, userID, id string) (*models.Address, error) {
	return findOwnedAddress(r.db.WithContext(ctx), userID, id)
}

// DefaultFor returns the default address of the given type, or NotFound.
func (r *GORMAddressRepository) DefaultFor(ctx context.Context, userID, addrType string) (*models.Address, error) {
	return defaultAddress(r.db.WithContext(ctx), userID, addrType)
}

// Create stores a new address. The first address of a type always becomes the
// default; an explicit default demotes the previous one in the same transaction.
func (r *GORMAddressRepository) Create(ctx context.Context, addr *models.Address) error {
	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAddressBook(tx, addr.UserID); err != nil {
			return err
		}
		set, err := lockAddressSet(tx, addr.UserID, addr.Type)
		if err != nil {
			return err
		}
		if len(set) == 0 {
			addr.IsDefault = true
		}
		if addr.IsDefault {
			if err := clearDefaults(tx, addr.UserID, addr.Type, addr.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(addr).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("address conflicts with a concurrent change")
			}
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
}

var addressColumns = []string{"type", "label", "recipient_name", "line1", "line2", "city", "state", "postal_code", "country", "phone"}

// Update saves the editable fields of an address. The default flag is only
// changed through SetDefault, except that moving a default address to another
// type drops its flag.
func (r *GORMAddressRepository) Update(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAddressBook(tx, addr.UserID); err != nil {
			return err
		}
		current, err := findOwnedAddress(tx.Clauses(clause.Locking{Strength: "UPDATE"}), addr.UserID, addr.ID)
		if err != nil {
			return err
		}
		columns := addressColumns
		addr.IsDefault = current.IsDefault
		if current.IsDefault && current.Type != addr.Type {
			addr.IsDefault = false
			columns = append(columns[:len(columns):len(columns)], "is_default")
		}
		addr.CreatedAt = current.CreatedAt
		err = tx.Model(&models.Address{}).Where("id = ?", addr.ID).Select(columns).Updates(addr).Error
		if err != nil {
			return fmt.Errorf("failed to update address: %w", err)
		}
		return nil
	})
}

// Delete removes an address. Deleting the default leaves the type without one.
func (r *GORMAddressRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("address not found")
	}
	return nil
}

// SetDefault makes id the only default address of its (user, type). The
// boolean result reports whether anything was written; an address that is
// already the default is returned unchanged.
func (r *GORMAddressRepository) SetDefault(ctx context.Context, userID, id string) (*models.Address, bool, error) {
	var (
		result  models.Address
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAddressBook(tx, userID); err != nil {
			return err
		}
		target, err := findOwnedAddress(tx, userID, id)
		if err != nil {
			return err
		}

		set, err := lockAddressSet(tx, userID, target.Type)
		if err != nil {
			return err
		}
		found := false
		for _, a := range set {
			if a.ID == id {
				result = a
				found = true
				break
			}
		}
		// Deleted or retyped between the lookup and the lock.
		if !found {
			return apperr.NotFound("address not found")
		}
		if result.IsDefault {
			return nil
		}

		if err := clearDefaults(tx, userID, result.Type, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Address{}).Where("id = ?", id).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		result.IsDefault = true
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, changed, nil
}

func findOwnedAddress(db *gorm.DB, userID, id string) (*models.Address, error) {
	var addr models.Address
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("address not found")
		}
		return nil, fmt.Errorf("failed to get address %s: %w", id, err)
	}
	return &addr, nil
}

func defaultAddress(db *gorm.DB, userID, addrType string) (*models.Address, error) {
	var addr models.Address
	err := db.Where("user_id = ? AND type = ? AND is_default = ?", userID, addrType, true).First(&addr).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("no default %s address", addrType))
		}
		return nil, fmt.Errorf("failed to get default address: %w", err)
	}
	return &addr, nil
}

// lockAddressBook takes the owner's user row lock. Every write that can move a
// default flag takes it first, so such writes for one user run one at a time
// even when the (user, type) set is still empty. The partial unique index on
// defaults catches anything that gets past it.
func lockAddressBook(tx *gorm.DB, userID string) error {
	var owner []models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Find(&owner).Error
	if err != nil {
		return fmt.Errorf("failed to lock address book: %w", err)
	}
	return nil
}

// lockAddressSet locks every address of (user, type) in id order so that
// concurrent default changes queue behind each other.
func lockAddressSet(tx *gorm.DB, userID, addrType string) ([]models.Address, error) {
	var set []models.Address
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ?", userID, addrType).
		Order("id").
		Find(&set).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock addresses: %w", err)
	}
	return set, nil
}

func clearDefaults(tx *gorm.DB, userID, addrType, exceptID string) error {
	err := tx.Model(&models.Address{}).
		Where("user_id = ? AND type = ? AND id <> ? AND is_default = ?", userID, addrType, exceptID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}
