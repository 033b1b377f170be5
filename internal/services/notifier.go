package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"storefront/internal/models"
)

// NotificationQueue is the queue the email worker reads from.
const NotificationQueue = "notifications"

// Notifier sends fire-and-forget messages to customers. Implementations log
// failures instead of returning them.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// Publisher is the subset of the message broker client the notifier needs.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// QueueNotifier hands notifications to the email worker over the broker.
type QueueNotifier struct {
	publisher Publisher
}

func NewQueueNotifier(publisher Publisher) *QueueNotifier {
	return &QueueNotifier{publisher: publisher}
}

func (n *QueueNotifier) Notify(_ context.Context, msg models.Notification) {
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s notification: %v", msg.Kind, err)
		return
	}
	if err := n.publisher.Publish("", NotificationQueue, body); err != nil {
		log.Printf("Warning: Failed to publish %s notification to %s: %v", msg.Kind, msg.To, err)
		return
	}
	log.Printf("Queued %s notification for %s", msg.Kind, msg.To)
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, msg models.Notification) {
	log.Printf("Notification %s to %s: %s", msg.Kind, msg.To, fmt.Sprint(msg.Data))
}
