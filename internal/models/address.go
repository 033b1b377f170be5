package models

import (
	"strings"
	"time"
)

const (
	AddressTypeShipping = "shipping"
	AddressTypeBilling  = "billing"
)

// Address belongs to a user. At most one address per (user, type) is default.
type Address struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string    `json:"user_id" gorm:"type:varchar(36);not null;index:idx_addresses_user_type"`
	Type          string    `json:"type" gorm:"type:varchar(16);not null;index:idx_addresses_user_type"`
	Label         string    `json:"label" gorm:"type:varchar(100)"`
	RecipientName string    `json:"recipient_name" gorm:"type:varchar(200)"`
	Line1         string    `json:"line1" gorm:"type:varchar(255);not null"`
	Line2         string    `json:"line2" gorm:"type:varchar(255)"`
	City          string    `json:"city" gorm:"type:varchar(100);not null"`
	State         string    `json:"state" gorm:"type:varchar(100)"`
	PostalCode    string    `json:"postal_code" gorm:"type:varchar(20)"`
	Country       string    `json:"country" gorm:"type:varchar(2);not null"`
	Phone         string    `json:"phone" gorm:"type:varchar(30)"`
	IsDefault     bool      `json:"is_default" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Formatted renders the address as a single snapshot string for orders.
func (a Address) Formatted() string {
	parts := []string{a.RecipientName, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
