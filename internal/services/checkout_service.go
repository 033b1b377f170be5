package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"

	"github.com/shopspring/decimal"
)

// CheckoutItem is one requested (product, quantity) pair.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

// SessionCache remembers created sessions per (user, idempotency key).
type SessionCache interface {
	Get(ctx context.Context, userID, idempotencyKey string) (*payments.Session, error)
	Put(ctx context.Context, userID, idempotencyKey string, s *payments.Session) error
}

type CheckoutConfig struct {
	Currency string
	// RetrieveAttempts bounds session lookups against the processor.
	RetrieveAttempts int
	RetryBackoff     time.Duration
}

// CheckoutService turns a cart snapshot into a hosted payment session and
// later reports on it. It never writes local state; orders only appear once
// the processor confirms payment.
type CheckoutService struct {
	products  repositories.ProductRepository
	carts     repositories.CartRepository
	orders    repositories.OrderRepository
	processor payments.Processor
	cache     SessionCache
	metrics   *metrics.DomainMetrics
	currency  string
	attempts  int
	backoff   time.Duration
}

// NewCheckoutService creates a CheckoutService. cache and m may be nil.
func NewCheckoutService(
	products repositories.ProductRepository,
	carts repositories.CartRepository,
	orders repositories.OrderRepository,
	processor payments.Processor,
	cache SessionCache,
	m *metrics.DomainMetrics,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.RetrieveAttempts <= 0 {
		cfg.RetrieveAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	return &CheckoutService{
		products:  products,
		carts:     carts,
		orders:    orders,
		processor: processor,
		cache:     cache,
		metrics:   m,
		currency:  strings.ToLower(cfg.Currency),
		attempts:  cfg.RetrieveAttempts,
		backoff:   cfg.RetryBackoff,
	}
}

// CreatedSession is what the client needs to redirect to the hosted page.
type CreatedSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// SessionDetails is the caller's view of a checkout session. Status is
// "pending" until the order has been recorded.
type SessionDetails struct {
	SessionID     string          `json:"session_id"`
	PaymentStatus string          `json:"payment_status"`
	AmountTotal   decimal.Decimal `json:"amount_total"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Order         *models.Order   `json:"order,omitempty"`
}

const (
	SessionStatusPending  = "pending"
	SessionStatusRecorded = "recorded"
)

// CreateSession prices items against the catalog and opens a payment
// session. Every validation happens before the processor is contacted.
func (s *CheckoutService) CreateSession(ctx context.Context, id auth.Identity, items []CheckoutItem, idempotencyKey string) (*CreatedSession, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if len(items) == 0 {
		return nil, apperr.Validation("no items to check out")
	}
	quantities := map[string]int{}
	var order []string
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, apperr.Validation("product_id is required")
		}
		if item.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be a positive integer")
		}
		if _, seen := quantities[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	if cached := s.cached(ctx, id.UserID, idempotencyKey); cached != nil {
		return &CreatedSession{SessionID: cached.ID, URL: cached.URL}, nil
	}

	products, err := s.products.GetByIDs(ctx, order)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	count := 0
	lineItems := make([]payments.LineItem, 0, len(order))
	for _, productID := range order {
		p, ok := products[productID]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("product %s not found", productID))
		}
		if !p.Price.IsPositive() {
			return nil, apperr.Validation(fmt.Sprintf("product %s has no valid price", productID))
		}
		qty := quantities[productID]
		if qty > p.Stock {
			return nil, apperr.InsufficientStock(fmt.Sprintf("only %d of %s in stock, %d requested", p.Stock, p.Name, qty))
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
		count += qty
		lineItems = append(lineItems, payments.LineItem{
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			UnitAmount: minorUnits(p.Price),
			Quantity:   int64(qty),
		})
	}

	session, err := s.processor.CreateSession(ctx, payments.SessionRequest{
		LineItems:     lineItems,
		CustomerEmail: id.Email,
		Currency:      s.currency,
		Metadata: map[string]string{
			"user_id":    id.UserID,
			"total":      total.StringFixed(2),
			"item_count": strconv.Itoa(count),
		},
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		s.metrics.UpstreamFailure("create_session")
		return nil, apperr.Upstream("payment processor unavailable, please retry", err)
	}
	log.Printf("Created checkout session %s for user %s (total %s)", session.ID, id.UserID, total.StringFixed(2))

	if idempotencyKey != "" && s.cache != nil {
		if err := s.cache.Put(ctx, id.UserID, idempotencyKey, session); err != nil {
			log.Printf("Warning: failed to cache checkout session %s: %v", session.ID, err)
		}
	}
	return &CreatedSession{SessionID: session.ID, URL: session.URL}, nil
}

// CreateSessionFromCart checks out the caller's current cart.
func (s *CheckoutService) CreateSessionFromCart(ctx context.Context, id auth.Identity, idempotencyKey string) (*CreatedSession, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	lines, err := s.carts.Lines(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	items := make([]CheckoutItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, CheckoutItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return s.CreateSession(ctx, id, items, idempotencyKey)
}

// SessionDetails looks the session up at the processor and joins it with the
// local order. Sessions that belong to another user are reported as missing.
func (s *CheckoutService) SessionDetails(ctx context.Context, id auth.Identity, sessionID string) (*SessionDetails, error) {
	if !id.Authenticated() {
		return nil, apperr.AuthenticationRequired("authentication required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validation("session_id is required")
	}

	session, err := s.retrieve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Metadata["user_id"] != id.UserID {
		log.Printf("User %s asked for checkout session %s owned by someone else", id.UserID, sessionID)
		return nil, apperr.NotFound("checkout session not found")
	}

	details := &SessionDetails{
		SessionID:     session.ID,
		PaymentStatus: session.PaymentStatus,
		AmountTotal:   decimal.New(session.AmountTotal, -2),
		Currency:      session.Currency,
		Status:        SessionStatusPending,
	}
	order, err := s.orders.GetBySessionID(ctx, session.ID)
	switch {
	case err == nil:
		details.Status = SessionStatusRecorded
		details.Order = order
	case !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}
	return details, nil
}

// retrieve is read-only, so transient processor failures are retried with
// a linear backoff.
func (s *CheckoutService) retrieve(ctx context.Context, sessionID string) (*payments.Session, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		session, err := s.processor.RetrieveSession(ctx, sessionID)
		if err == nil {
			return session, nil
		}
		if errors.Is(err, payments.ErrSessionNotFound) {
			return nil, apperr.NotFound("checkout session not found")
		}
		lastErr = err
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperr.Upstream("payment processor did not answer in time", ctx.Err())
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
	s.metrics.UpstreamFailure("retrieve_session")
	return nil, apperr.Upstream("payment processor unavailable, please retry", lastErr)
}

func (s *CheckoutService) cached(ctx context.Context, userID, idempotencyKey string) *payments.Session {
	if idempotencyKey == "" || s.cache == nil {
		return nil
	}
	session, err := s.cache.Get(ctx, userID, idempotencyKey)
	if err != nil {
		log.Printf("Warning: checkout session cache unavailable: %v", err)
		return nil
	}
	if session != nil {
		log.Printf("Replaying checkout session %s for user %s", session.ID, userID)
	}
	return session
}

// minorUnits converts a two-decimal amount to cents.
func minorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
