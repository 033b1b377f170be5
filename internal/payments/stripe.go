package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	// Timeout bounds each API call when Backends is nil.
	Timeout time.Duration
	// Backends overrides the API endpoint, mainly for tests.
	Backends *stripe.Backends
}

// StripeProcessor implements Processor with Stripe Checkout. Calls go
// through a circuit breaker so an outage fails fast instead of piling up
// request goroutines.
type StripeProcessor struct {
	api        *client.API
	successURL string
	cancelURL  string
	breaker    *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	breaker := gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](gobreaker.Settings{
		Name:        "stripe-checkout",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing session is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || isMissing(err)
		},
	})
	backends := cfg.Backends
	if backends == nil && cfg.Timeout > 0 {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				HTTPClient: &http.Client{Timeout: cfg.Timeout},
			}),
		}
	}
	return &StripeProcessor{
		api:        client.New(cfg.SecretKey, backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		breaker:    breaker,
	}
}

func (p *StripeProcessor) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = []*string{stripe.String(item.ImageURL)}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	cs, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return toSession(cs), nil
}

func (p *StripeProcessor) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.api.CheckoutSessions.Get(id, params)
	})
	if err != nil {
		if isMissing(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("stripe: retrieve checkout session %s: %w", id, err)
	}
	return toSession(cs), nil
}

func isMissing(err error) bool {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return serr.HTTPStatusCode == http.StatusNotFound || serr.Code == stripe.ErrorCodeResourceMissing
	}
	return false
}

func toSession(cs *stripe.CheckoutSession) *Session {
	s := &Session{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		Status:        string(cs.Status),
		Metadata:      cs.Metadata,
		AmountTotal:   cs.AmountTotal,
		Currency:      strings.ToLower(string(cs.Currency)),
		CustomerEmail: cs.CustomerEmail,
	}
	if s.CustomerEmail == "" && cs.CustomerDetails != nil {
		s.CustomerEmail = cs.CustomerDetails.Email
	}
	if s.Metadata == nil {
		s.Metadata = map[string]string{}
	}
	return s
}
