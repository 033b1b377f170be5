package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func paymentEvent(sessionID string, status events.PaymentStatus) events.PaymentEvent {
	return events.PaymentEvent{
		EventID:       "evt_" + sessionID,
		SessionID:     sessionID,
		Status:        status,
		Metadata:      map[string]string{"user_id": "u1", "total": "2400.00"},
		AmountTotal:   240000,
		Currency:      "usd",
		CustomerEmail: "buyer@example.com",
	}
}

func newReconciler(t *testing.T) (*services.ReconciliationService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	notifier := &recordingNotifier{}
	return services.NewReconciliationService(repositories.NewGORMOrderRepository(db), notifier, nil), db, notifier
}

func TestReconciliation_DuplicateConfirmationCreatesOneOrder(t *testing.T) {
	svc, db, notifier := newReconciler(t)
	ctx := context.Background()

	outcome, err := svc.HandlePaymentEvent(ctx, paymentEvent("cs_123", events.PaymentPaid))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeRecorded, outcome)

	outcome, err = svc.HandlePaymentEvent(ctx, paymentEvent("cs_123", events.PaymentPaid))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, outcome)

	var orders []models.Order
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_123").Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)
	assert.True(t, decimal.NewFromInt(2400).Equal(orders[0].Total))

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationOrderConfirmation, sent[0].Kind)
	assert.Equal(t, orders[0].ID, sent[0].Data["order_id"])
}

func TestReconciliation_OutOfOrderDeliveryOnlyMovesForward(t *testing.T) {
	svc, db, notifier := newReconciler(t)
	ctx := context.Background()

	outcome, err := svc.HandlePaymentEvent(ctx, paymentEvent("cs_async", events.PaymentUnpaid))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeRecorded, outcome)
	assert.Empty(t, notifier.Sent())

	outcome, err = svc.HandlePaymentEvent(ctx, paymentEvent("cs_async", events.PaymentPaid))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAdvanced, outcome)

	// A late "completed but unpaid" redelivery must not pull the order back.
	outcome, err = svc.HandlePaymentEvent(ctx, paymentEvent("cs_async", events.PaymentUnpaid))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, outcome)

	// Neither may a late expiry.
	outcome, err = svc.HandlePaymentEvent(ctx, paymentEvent("cs_async", events.PaymentExpired))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, outcome)

	var order models.Order
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_async").First(&order).Error)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Len(t, notifier.Sent(), 1)
}

func TestReconciliation_FailureBeforeOrderIsAbandoned(t *testing.T) {
	svc, db, _ := newReconciler(t)
	ctx := context.Background()

	outcome, err := svc.HandlePaymentEvent(ctx, paymentEvent("cs_exp", events.PaymentExpired))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAbandoned, outcome)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReconciliation_FailedAsyncPaymentCancelsPendingOrder(t *testing.T) {
	svc, db, _ := newReconciler(t)
	ctx := context.Background()

	_, err := svc.HandlePaymentEvent(ctx, paymentEvent("cs_f", events.PaymentUnpaid))
	require.NoError(t, err)
	outcome, err := svc.HandlePaymentEvent(ctx, paymentEvent("cs_f", events.PaymentFailed))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeAdvanced, outcome)

	var order models.Order
	require.NoError(t, db.Where("stripe_session_id = ?", "cs_f").First(&order).Error)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
}

func TestReconciliation_PaidOrderClearsBuyerCart(t *testing.T) {
	svc, db, _ := newReconciler(t)
	testutil.SeedCatalog(t, db)
	carts := repositories.NewGORMCartRepository(db)
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "prod-1", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u2", "prod-1", 1)
	require.NoError(t, err)

	_, err = svc.HandlePaymentEvent(ctx, paymentEvent("cs_clear", events.PaymentPaid))
	require.NoError(t, err)

	mine, err := carts.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := carts.Lines(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestReconciliation_RejectsEventsWithoutOwner(t *testing.T) {
	svc, _, _ := newReconciler(t)
	ctx := context.Background()

	e := paymentEvent("cs_anon", events.PaymentPaid)
	e.Metadata = nil
	_, err := svc.HandlePaymentEvent(ctx, e)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.NoError(t, svc.Handle(ctx, e), "unprocessable events are acknowledged")

	_, err = svc.HandlePaymentEvent(ctx, events.PaymentEvent{Status: events.PaymentPaid})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestReconciliation_StorageFailureIsReturnedForRedelivery(t *testing.T) {
	orders := new(MockOrderRepository)
	orders.On("Materialize", mock.Anything, true).Return(nil, errors.New("database is locked")).Once()
	svc := services.NewReconciliationService(orders, &recordingNotifier{}, nil)

	err := svc.Handle(context.Background(), paymentEvent("cs_1", events.PaymentPaid))
	assert.Error(t, err)
	orders.AssertExpectations(t)
}
