// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory database with the full schema.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := repositories.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedCatalog loads the starter products into db.
func SeedCatalog(t testing.TB, db *gorm.DB) {
	t.Helper()
	require.NoError(t, repositories.SeedCatalog(context.Background(), db))
}

// CreateProduct inserts a product with the given price and stock.
func CreateProduct(t testing.TB, db *gorm.DB, id, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}
