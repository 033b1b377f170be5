package payments

import (
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/events"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeWebhookParser verifies Stripe-Signature headers and maps checkout
// session events to payment events.
type StripeWebhookParser struct {
	secret string
}

func NewStripeWebhookParser(secret string) *StripeWebhookParser {
	return &StripeWebhookParser{secret: secret}
}

func (p *StripeWebhookParser) ParseWebhook(payload []byte, signature string) (*events.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status events.PaymentStatus
	switch string(event.Type) {
	case "checkout.session.completed":
		status = events.PaymentUnpaid
	case "checkout.session.async_payment_succeeded":
		status = events.PaymentPaid
	case "checkout.session.async_payment_failed":
		status = events.PaymentFailed
	case "checkout.session.expired":
		status = events.PaymentExpired
	default:
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("webhook event %s has no data", event.ID)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	session := toSession(&cs)
	// Completed sessions with delayed payment methods stay unpaid until the
	// async_payment_succeeded event arrives.
	if status == events.PaymentUnpaid && (cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired) {
		status = events.PaymentPaid
	}

	return &events.PaymentEvent{
		EventID:       event.ID,
		Type:          string(event.Type),
		SessionID:     session.ID,
		Status:        status,
		Metadata:      session.Metadata,
		AmountTotal:   session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: session.CustomerEmail,
		OccurredAt:    time.Unix(event.Created, 0).UTC(),
	}, nil
}
