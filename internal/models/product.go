package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals are emitted as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the store. The cart and checkout code only
// ever reads these rows.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null"`
	ImageURL    string          `json:"image_url" gorm:"type:varchar(500)"`
	CategoryID  *string         `json:"category_id,omitempty" gorm:"type:varchar(36);index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Category groups products. Names are unique.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"uniqueIndex;type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
