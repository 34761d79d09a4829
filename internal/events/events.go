// Package events publishes order lifecycle notifications to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

const (
	OrderCreated        = "order.created"
	OrderPaymentStarted = "order.payment_started"
	OrderPaid           = "order.paid"
	OrderPaymentFailed  = "order.payment_failed"
	OrderStatusChanged  = "order.status_changed"
	OrderExpired        = "order.expired"
	ShippingUpdated     = "order.shipping_updated"
	ReviewCreated       = "review.created"
	ReviewDeleted       = "review.deleted"
)

// Event is the JSON payload published for every notification.
type Event struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"order_id,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	ProductID  string            `json:"product_id,omitempty"`
	Status     string            `json:"status,omitempty"`
	Amount     string            `json:"amount,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Key partitions events so one order's events stay ordered.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ProductID
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop logs events instead of sending them. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(_ context.Context, event Event) error {
	log.Printf("event %s (order=%s status=%s) not published: no broker configured", event.Type, event.OrderID, event.Status)
	return nil
}

// RabbitMQSender is satisfied by *rabbitmq.Client.
type RabbitMQSender interface {
	Publish(routingKey string, body []byte) error
}

type rabbitPublisher struct{ client RabbitMQSender }

// NewRabbitMQPublisher routes each event by its type.
func NewRabbitMQPublisher(client RabbitMQSender) Publisher {
	return &rabbitPublisher{client: client}
}

func (p *rabbitPublisher) Publish(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(event.Type, body)
}

// KafkaSender is satisfied by *kafka.Producer.
type KafkaSender interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type kafkaPublisher struct{ producer KafkaSender }

// NewKafkaPublisher keys each message by order id.
func NewKafkaPublisher(producer KafkaSender) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.producer.Publish(ctx, event.Key(), body)
}

// publishTimeout bounds how long Emit waits on a broker.
var publishTimeout = 5 * time.Second

// Emit publishes event and logs, rather than returns, a delivery failure:
// notifications never fail the request that caused them. The publish gets its
// own deadline and outlives a cancelled request.
func Emit(ctx context.Context, pub Publisher, event Event) {
	if pub == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, event); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", event.Type, event.OrderID, err)
	}
}
