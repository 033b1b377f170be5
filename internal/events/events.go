// Package events carries payment confirmations from the webhook endpoint to
// order reconciliation over a pluggable message bus.
package events

import (
	"context"
	"time"
)

// PaymentStatus is the processor-side outcome of a checkout session.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentExpired PaymentStatus = "expired"
)

// PaymentEvent is a confirmation notification for one checkout session.
// AmountTotal is in the currency's minor unit.
type PaymentEvent struct {
	EventID       string            `json:"event_id"`
	Type          string            `json:"type"`
	SessionID     string            `json:"session_id"`
	Status        PaymentStatus     `json:"status"`
	Metadata      map[string]string `json:"metadata"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Handler consumes one event. Returning an error asks the bus to redeliver.
type Handler func(ctx context.Context, event PaymentEvent) error

// Bus moves payment events from publishers to the single subscribed handler.
type Bus interface {
	Publish(ctx context.Context, event PaymentEvent) error
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}
