// Package payments wraps the remote payment processor behind small
// interfaces so checkout and webhook handling can be tested without it.
package payments

import (
	"context"
	"errors"

	"storefront/internal/events"
)

var (
	// ErrSessionNotFound is returned when the processor has no such session.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrInvalidSignature is returned for webhook payloads that fail verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrIgnoredEvent is returned for webhook event types reconciliation does not consume.
	ErrIgnoredEvent = errors.New("ignored webhook event")
)

// LineItem is one priced row of a checkout session. UnitAmount is in the
// currency's minor unit.
type LineItem struct {
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	LineItems      []LineItem
	CustomerEmail  string
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Status        string            `json:"status"`
	Metadata      map[string]string `json:"metadata"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
}

// Processor creates and looks up hosted checkout sessions.
type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}

// WebhookParser verifies an inbound notification and turns it into a
// payment event.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*events.PaymentEvent, error)
}
