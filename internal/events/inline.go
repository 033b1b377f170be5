package events

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSubscriber is returned by InlineBus.Publish before Subscribe is called.
var ErrNoSubscriber = errors.New("no subscriber for payment events")

// InlineBus runs the handler synchronously inside Publish, so the publisher
// sees the handler's error. Used in single-process deployments and tests.
type InlineBus struct {
	mu      sync.RWMutex
	handler Handler
}

func NewInlineBus() *InlineBus {
	return &InlineBus{}
}

func (b *InlineBus) Publish(ctx context.Context, event PaymentEvent) error {
	b.mu.RLock()
	h := b.handler
	b.mu.RUnlock()
	if h == nil {
		return ErrNoSubscriber
	}
	return h(ctx, event)
}

func (b *InlineBus) Subscribe(_ context.Context, handler Handler) error {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
	return nil
}

func (b *InlineBus) Close() error { return nil }
