package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus moves forward only: pending -> paid -> fulfilled | cancelled.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusFulfilled, OrderStatusCancelled},
}

// Valid reports whether s is part of the status vocabulary.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFulfilled, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a forward move from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is the durable record of a purchase. It only exists once the payment
// processor has confirmed the checkout session it was created from.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user_id" gorm:"type:varchar(36);not null;index"`
	StripeSessionID string          `json:"stripe_session_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	Total           decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Currency        string          `json:"currency" gorm:"type:varchar(3);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	CustomerEmail   string          `json:"customer_email" gorm:"type:varchar(255)"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text"`
	TrackingNumber  string          `json:"tracking_number" gorm:"type:varchar(100)"`
	Notes           string          `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
