package repositories

import (
	"context"
	"fmt"
	"log"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedCatalog inserts the starter products. Existing rows are left alone.
func SeedCatalog(ctx context.Context, db *gorm.DB) error {
	products := []models.Product{
		{ID: "prod-1", Name: "Laptop", Description: "High performance laptop", Price: decimal.NewFromInt(1200), Stock: 10},
		{ID: "prod-2", Name: "Keyboard", Description: "Mechanical keyboard", Price: decimal.NewFromInt(75), Stock: 25},
		{ID: "prod-3", Name: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.NewFromInt(25), Stock: 50},
	}

	for i := range products {
		res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products[i])
		if res.Error != nil {
			return fmt.Errorf("failed to seed product %s: %w", products[i].ID, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
	return nil
}
