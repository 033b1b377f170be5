// Package cache keeps short-lived replay data in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/payments"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "storefront:checkout"
	DefaultTTL = 24 * time.Hour
)

// CheckoutSessionCache remembers the session created for a (user,
// idempotency key) pair so a retried request returns the same session.
type CheckoutSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCheckoutSessionCache(client *redis.Client, ttl time.Duration) *CheckoutSessionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CheckoutSessionCache{client: client, ttl: ttl}
}

func (c *CheckoutSessionCache) key(userID, idempotencyKey string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, idempotencyKey)
}

// Get returns the cached session, or nil when there is none.
func (c *CheckoutSessionCache) Get(ctx context.Context, userID, idempotencyKey string) (*payments.Session, error) {
	raw, err := c.client.Get(ctx, c.key(userID, idempotencyKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout session cache: %w", err)
	}
	var s payments.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode cached checkout session: %w", err)
	}
	return &s, nil
}

func (c *CheckoutSessionCache) Put(ctx context.Context, userID, idempotencyKey string, s *payments.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID, idempotencyKey), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write checkout session cache: %w", err)
	}
	return nil
}
