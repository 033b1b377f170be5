package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"storefront/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
)

// PaymentQueue is the durable queue payment events travel on.
const PaymentQueue = "payment_events"

// RabbitBus publishes events to a RabbitMQ queue and consumes them with
// manual acks, so a failed handler leads to redelivery.
type RabbitBus struct {
	client *rabbitmq.Client
}

func NewRabbitBus(client *rabbitmq.Client) *RabbitBus {
	return &RabbitBus{client: client}
}

func (b *RabbitBus) Publish(_ context.Context, event PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}
	return b.client.Publish("", PaymentQueue, body)
}

func (b *RabbitBus) Subscribe(ctx context.Context, handler Handler) error {
	return b.client.Consume(PaymentQueue, deliver(ctx, handler))
}

// deliver adapts handler to a queue consumer. Undecodable bodies come back as
// ErrPoison so the client drops them instead of requeueing.
func deliver(ctx context.Context, handler Handler) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		event, err := Decode(msg.Body)
		if err != nil {
			return err
		}
		log.Printf("Received payment event %s for session %s", event.EventID, event.SessionID)
		return handler(ctx, event)
	}
}

// Close is a no-op; the RabbitMQ client is owned by whoever created it.
func (b *RabbitBus) Close() error { return nil }

// Decode parses a serialized PaymentEvent. Malformed payloads are poison.
func Decode(body []byte) (PaymentEvent, error) {
	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return PaymentEvent{}, fmt.Errorf("%w: %v", rabbitmq.ErrPoison, err)
	}
	if event.SessionID == "" {
		return PaymentEvent{}, fmt.Errorf("%w: missing session id", rabbitmq.ErrPoison)
	}
	return event, nil
}
