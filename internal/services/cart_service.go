package services

import (
	"context"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartService owns the per-user cart. Totals are derived from the live
// catalog on every read and never stored.
type CartService struct {
	repo repositories.CartRepository
}

func NewCartService(repo repositories.CartRepository) *CartService {
	return &CartService{repo: repo}
}

// GetCart returns the cart view. A user who never added anything gets an
// empty cart rather than NotFound.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.CartView, error) {
	if userID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(userID, lines), nil
}

// AddItem adds qty units of productID to the cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) (*models.CartView, error) {
	if err := checkLine(userID, productID); err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be a positive integer")
	}
	lines, err := s.repo.AddItem(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	return view(userID, lines), nil
}

// UpdateItem sets the quantity of productID. Zero removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, qty int) (*models.CartView, error) {
	if err := checkLine(userID, productID); err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	lines, err := s.repo.SetItemQuantity(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	return view(userID, lines), nil
}

// RemoveItem deletes productID from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.CartView, error) {
	if err := checkLine(userID, productID); err != nil {
		return nil, err
	}
	lines, err := s.repo.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return view(userID, lines), nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID string) (*models.CartView, error) {
	if userID == "" {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return view(userID, nil), nil
}

func checkLine(userID, productID string) error {
	if userID == "" {
		return apperr.AuthenticationRequired("authentication required")
	}
	if strings.TrimSpace(productID) == "" {
		return apperr.Validation("product_id is required")
	}
	return nil
}

func view(userID string, lines []models.CartLine) *models.CartView {
	v := models.NewCartView(userID, lines)
	return &v
}
