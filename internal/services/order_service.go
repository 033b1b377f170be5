package services

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

// GetOrders retrieves the caller's orders. Admins see every order.
func (s *OrderService) GetOrders(ctx context.Context, id auth.Identity) ([]models.Order, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if id.IsAdmin() {
		return s.orderRepo.GetAll(ctx)
	}
	return s.orderRepo.ListByUser(ctx, id.UserID)
}

// GetOrderByID retrieves a single order. Orders of other users are reported
// as missing.
func (s *OrderService) GetOrderByID(ctx context.Context, id auth.Identity, orderID string) (*models.Order, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != id.UserID && !id.IsAdmin() {
		return nil, apperr.NotFound("order not found")
	}
	return order, nil
}

// StatusUpdate is an admin change to an order.
type StatusUpdate struct {
	Status         models.OrderStatus `json:"status" validate:"required"`
	TrackingNumber *string            `json:"tracking_number"`
	Notes          *string            `json:"notes"`
}

// UpdateOrderStatus moves an order forward. Only admins may do this.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id auth.Identity, orderID string, upd StatusUpdate) (*models.Order, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if !id.IsAdmin() {
		return nil, apperr.Forbidden("admin role required")
	}
	if !upd.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("invalid order status: %s", upd.Status))
	}

	order, err := s.orderRepo.Advance(ctx, orderID, upd.Status, upd.TrackingNumber, upd.Notes)
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s moved to %s by %s", order.ID, order.Status, id.UserID)
	return order, nil
}
