package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"

	"github.com/shopspring/decimal"
)

// Outcome describes what a payment event did to the order table.
type Outcome string

const (
	OutcomeRecorded  Outcome = "recorded"
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeAbandoned is a failed or expired session that never had an order.
	OutcomeAbandoned Outcome = "abandoned"
)

// ReconciliationService materializes orders from payment confirmations.
// Confirmations may arrive more than once and out of order; the order table
// is keyed by session id and statuses only move forward.
type ReconciliationService struct {
	orders   repositories.OrderRepository
	notifier Notifier
	metrics  *metrics.DomainMetrics
}

func NewReconciliationService(orders repositories.OrderRepository, notifier Notifier, m *metrics.DomainMetrics) *ReconciliationService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReconciliationService{orders: orders, notifier: notifier, metrics: m}
}

// HandlePaymentEvent applies one confirmation.
func (s *ReconciliationService) HandlePaymentEvent(ctx context.Context, e events.PaymentEvent) (Outcome, error) {
	if strings.TrimSpace(e.SessionID) == "" {
		return "", apperr.Validation("payment event has no session id")
	}
	userID := e.Metadata["user_id"]
	if userID == "" {
		return "", apperr.Validation(fmt.Sprintf("session %s carries no user_id metadata", e.SessionID))
	}

	var status models.OrderStatus
	switch e.Status {
	case events.PaymentPaid:
		status = models.OrderStatusPaid
	case events.PaymentUnpaid:
		status = models.OrderStatusPending
	case events.PaymentFailed, events.PaymentExpired:
		status = models.OrderStatusCancelled
	default:
		return "", apperr.Validation(fmt.Sprintf("unknown payment status %q", e.Status))
	}

	if status == models.OrderStatusCancelled {
		existing, err := s.orders.GetBySessionID(ctx, e.SessionID)
		if apperr.Is(err, apperr.KindNotFound) {
			log.Printf("Checkout session %s %s before any order existed", e.SessionID, e.Status)
			s.metrics.OrderMaterialized(string(OutcomeAbandoned))
			return OutcomeAbandoned, nil
		}
		if err != nil {
			return "", err
		}
		// A processor-side failure can only cancel an order still awaiting payment.
		if existing.Status != models.OrderStatusPending {
			s.metrics.DuplicateConfirmation()
			return OutcomeDuplicate, nil
		}
	}

	res, err := s.orders.Materialize(ctx, &models.Order{
		UserID:          userID,
		StripeSessionID: e.SessionID,
		Total:           orderTotal(e),
		Currency:        strings.ToLower(e.Currency),
		Status:          status,
		CustomerEmail:   e.CustomerEmail,
	}, true)
	if err != nil {
		return "", err
	}

	var outcome Outcome
	switch {
	case res.Created:
		outcome = OutcomeRecorded
	case res.Advanced:
		outcome = OutcomeAdvanced
	default:
		s.metrics.DuplicateConfirmation()
		log.Printf("Duplicate confirmation for session %s ignored (order %s is %s)", e.SessionID, res.Order.ID, res.Order.Status)
		return OutcomeDuplicate, nil
	}
	s.metrics.OrderMaterialized(string(outcome))
	log.Printf("Order %s %s from session %s with status %s", res.Order.ID, outcome, e.SessionID, res.Order.Status)

	if res.Order.Status == models.OrderStatusPaid && res.Order.CustomerEmail != "" {
		s.notifier.Notify(ctx, models.Notification{
			Kind:    models.NotificationOrderConfirmation,
			To:      res.Order.CustomerEmail,
			Subject: "Your order is confirmed",
			Data: map[string]string{
				"order_id": res.Order.ID,
				"total":    res.Order.Total.StringFixed(2),
				"currency": res.Order.Currency,
			},
		})
	}
	return outcome, nil
}

// Handle adapts HandlePaymentEvent to events.Handler. Events that can never
// succeed are logged and acknowledged; storage failures are returned so the
// bus redelivers.
func (s *ReconciliationService) Handle(ctx context.Context, e events.PaymentEvent) error {
	_, err := s.HandlePaymentEvent(ctx, e)
	if apperr.Is(err, apperr.KindValidation) {
		log.Printf("Discarding payment event %s: %v", e.EventID, err)
		return nil
	}
	return err
}

// orderTotal prefers the amount the processor charged, in minor units, and
// falls back to the total embedded at session creation.
func orderTotal(e events.PaymentEvent) decimal.Decimal {
	if e.AmountTotal > 0 {
		return decimal.New(e.AmountTotal, -2)
	}
	if t, err := decimal.NewFromString(e.Metadata["total"]); err == nil {
		return t
	}
	return decimal.Zero
}
