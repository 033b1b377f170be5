package models_test

import (
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewCartViewDerivesTotals(t *testing.T) {
	view := models.NewCartView("u1", []models.CartLine{
		{ProductID: "prod-1", Price: decimal.RequireFromString("1200.00"), Quantity: 2},
		{ProductID: "prod-3", Price: decimal.RequireFromString("25.50"), Quantity: 3},
	})

	assert.True(t, decimal.RequireFromString("2476.50").Equal(view.Total))
	assert.Equal(t, 5, view.ItemCount)
	assert.True(t, decimal.RequireFromString("76.50").Equal(view.Items[1].Subtotal))
}

func TestNewCartViewEmpty(t *testing.T) {
	view := models.NewCartView("u1", nil)
	assert.True(t, view.Total.IsZero())
	assert.Equal(t, 0, view.ItemCount)
	assert.NotNil(t, view.Items)
}

func TestOrderStatusNeverRegresses(t *testing.T) {
	assert.True(t, models.OrderStatusPending.CanTransitionTo(models.OrderStatusPaid))
	assert.True(t, models.OrderStatusPaid.CanTransitionTo(models.OrderStatusFulfilled))
	assert.False(t, models.OrderStatusPaid.CanTransitionTo(models.OrderStatusPending))
	assert.False(t, models.OrderStatusPaid.CanTransitionTo(models.OrderStatusPaid))
	assert.False(t, models.OrderStatusFulfilled.CanTransitionTo(models.OrderStatusCancelled))
	assert.False(t, models.OrderStatusCancelled.CanTransitionTo(models.OrderStatusPaid))
	assert.False(t, models.OrderStatus("shipped").Valid())
}

func TestAddressFormatted(t *testing.T) {
	a := models.Address{RecipientName: "Ana", Line1: "1 Main St", City: "Springfield", Country: "US"}
	assert.Equal(t, "Ana, 1 Main St, Springfield, US", a.Formatted())
}
