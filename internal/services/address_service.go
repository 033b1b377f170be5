package services

import (
	"context"
	"log"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// AddressService manages a user's shipping and billing addresses.
type AddressService struct {
	repo repositories.AddressRepository
}

func NewAddressService(repo repositories.AddressRepository) *AddressService {
	return &AddressService{repo: repo}
}

func (s *AddressService) List(ctx context.Context, userID string) ([]models.Address, error) {
	if userID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *AddressService) Create(ctx context.Context, userID string, addr *models.Address) error {
	if userID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	addr.ID = ""
	addr.UserID = userID
	if err := checkAddress(addr); err != nil {
		return err
	}
	return s.repo.Create(ctx, addr)
}

func (s *AddressService) Update(ctx context.Context, userID string, addr *models.Address) error {
	if userID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	addr.UserID = userID
	if err := checkAddress(addr); err != nil {
		return err
	}
	return s.repo.Update(ctx, addr)
}

func (s *AddressService) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	return s.repo.Delete(ctx, userID, id)
}

// SetDefault makes the address the default of its type for the user.
func (s *AddressService) SetDefault(ctx context.Context, userID, addressID string) (*models.Address, error) {
	if userID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if strings.TrimSpace(addressID) == "" {
		return nil, apperr.Validation("address id is required")
	}
	addr, changed, err := s.repo.SetDefault(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	if changed {
		log.Printf("Default %s address for user %s is now %s", addr.Type, userID, addr.ID)
	}
	return addr, nil
}

func checkAddress(addr *models.Address) error {
	addr.Type = strings.ToLower(strings.TrimSpace(addr.Type))
	if addr.Type != models.AddressTypeShipping && addr.Type != models.AddressTypeBilling {
		return apperr.Validation("type must be shipping or billing")
	}
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	return nil
}
