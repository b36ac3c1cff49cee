package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_shop/internal/notifier"
)

// OrderEvent is the payload shape the outbox poller publishes.
type OrderEvent struct {
	OrderID     string `json:"order_id"`
	CustomerID  string `json:"customer_id"`
	TotalAmount string `json:"total_amount,omitempty"`
	PaymentMode string `json:"payment_mode,omitempty"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer turns order events into customer notifications. It sits fully
// outside the order core; a lost or duplicated notification never affects
// order state.
type Consumer struct {
	notifier notifier.Notifier
	reader   messageReader
}

func NewConsumer(n notifier.Notifier, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-events",
		GroupID:  "order-notifications",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{notifier: n, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event OrderEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}

	eventType := headerValue(m, "event_type")
	template := templateFor(eventType)
	if template == "" {
		return
	}

	data := map[string]any{
		"order_id": event.OrderID,
	}
	if event.TotalAmount != "" {
		data["total_amount"] = event.TotalAmount
	}
	if event.PaymentMode != "" {
		data["payment_mode"] = event.PaymentMode
	}

	if err := c.notifier.Send(ctx, event.CustomerID, template, data); err != nil {
		log.Printf("failed to notify customer %s for order %s: %v", event.CustomerID, event.OrderID, err)
	}
}

func templateFor(eventType string) string {
	switch eventType {
	case "order.placed":
		return "order-placed"
	case "order.cancelled":
		return "order-cancelled"
	case "order.paid":
		return "order-paid"
	default:
		return ""
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
