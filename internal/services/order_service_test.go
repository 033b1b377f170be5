package services_test

import (
	"context"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var admin = auth.Identity{UserID: "admin-1", Role: models.RoleAdmin}

func TestOrderService_GetOrders(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := services.NewOrderService(repo)
	ctx := context.Background()

	repo.On("ListByUser", "u1").Return([]models.Order{{ID: "o1"}}, nil).Once()
	orders, err := svc.GetOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	repo.On("GetAll").Return([]models.Order{{ID: "o1"}, {ID: "o2"}}, nil).Once()
	orders, err = svc.GetOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	_, err = svc.GetOrders(ctx, auth.Identity{})
	assert.True(t, apperr.Is(err, apperr.KindAuthenticationRequired))
	repo.AssertExpectations(t)
}

func TestOrderService_GetOrderByIDHidesOtherUsersOrders(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := services.NewOrderService(repo)
	ctx := context.Background()

	theirs := &models.Order{ID: "o2", UserID: "u2"}
	repo.On("GetByID", "o2").Return(theirs, nil)

	_, err := svc.GetOrderByID(ctx, buyer, "o2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	order, err := svc.GetOrderByID(ctx, admin, "o2")
	require.NoError(t, err)
	assert.Equal(t, theirs, order)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := services.NewOrderService(repo)
	ctx := context.Background()

	tracking := "1Z999"
	upd := services.StatusUpdate{Status: models.OrderStatusFulfilled, TrackingNumber: &tracking}

	_, err := svc.UpdateOrderStatus(ctx, buyer, "o1", upd)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.UpdateOrderStatus(ctx, admin, "o1", services.StatusUpdate{Status: "shipped"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	repo.On("Advance", "o1", models.OrderStatusFulfilled, &tracking, (*string)(nil)).
		Return(&models.Order{ID: "o1", Status: models.OrderStatusFulfilled, TrackingNumber: tracking}, nil).Once()
	order, err := svc.UpdateOrderStatus(ctx, admin, "o1", upd)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, order.Status)

	repo.On("Advance", "o1", models.OrderStatusPaid, mock.Anything, mock.Anything).
		Return(nil, apperr.Conflict("order cannot move from fulfilled to paid")).Once()
	_, err = svc.UpdateOrderStatus(ctx, admin, "o1", services.StatusUpdate{Status: models.OrderStatusPaid})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	repo.AssertExpectations(t)
}
