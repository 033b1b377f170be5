package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/pkg/kafka"
	"storefront/pkg/rabbitmq"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	PaymentTopic      = "storefront.payment-events"
	reconcilerGroupID = "storefront-reconciler"
)

// KafkaBus publishes events keyed by session id and consumes them with a
// consumer group. An offset is committed only once its message is handled or
// found to be poison. A failing handler is retried with capped backoff until
// it succeeds or the subscription ends, so a message is never skipped.
type KafkaBus struct {
	writer *kafkago.Writer
	reader *kafkago.Reader

	retryBase time.Duration
	retryMax  time.Duration
}

func NewKafkaBus(client *kafka.Client) (*KafkaBus, error) {
	if !client.Enabled() {
		return nil, kafka.ErrDisabled
	}
	return &KafkaBus{
		writer:    client.NewWriter(PaymentTopic),
		reader:    client.NewReader(PaymentTopic, reconcilerGroupID),
		retryBase: 200 * time.Millisecond,
		retryMax:  5 * time.Second,
	}, nil
}

func (b *KafkaBus) Publish(ctx context.Context, event PaymentEvent) error {
	if err := kafka.PublishJSON(ctx, b.writer, event.SessionID, event); err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}
	return nil
}

func (b *KafkaBus) Subscribe(ctx context.Context, handler Handler) error {
	go func() {
		for {
			msg, err := b.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				log.Printf("Kafka fetch failed: %v", err)
				if !sleep(ctx, time.Second) {
					return
				}
				continue
			}
			if !b.handle(ctx, msg, handler) {
				return
			}
			if err := b.reader.CommitMessages(ctx, msg); err != nil {
				log.Printf("Kafka commit failed at offset %d: %v", msg.Offset, err)
			}
		}
	}()
	return nil
}

// handle reports false when ctx ended before the message was settled; the
// offset must then stay uncommitted.
func (b *KafkaBus) handle(ctx context.Context, msg kafkago.Message, handler Handler) bool {
	event, err := Decode(msg.Value)
	if err != nil {
		log.Printf("Dropping payment event at offset %d: %v", msg.Offset, err)
		return true
	}
	for attempt := 1; ; attempt++ {
		err = handler(ctx, event)
		if err == nil {
			return true
		}
		if errors.Is(err, rabbitmq.ErrPoison) {
			log.Printf("Dropping payment event %s: %v", event.EventID, err)
			return true
		}
		log.Printf("Payment event %s attempt %d failed: %v", event.EventID, attempt, err)
		if !sleep(ctx, b.backoff(attempt)) {
			return false
		}
	}
}

func (b *KafkaBus) backoff(attempt int) time.Duration {
	wait := time.Duration(attempt) * b.retryBase
	if wait > b.retryMax {
		return b.retryMax
	}
	return wait
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (b *KafkaBus) Close() error {
	return errors.Join(b.writer.Close(), b.reader.Close())
}
