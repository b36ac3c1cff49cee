package notifier

import (
	"context"
	"log"
)

// Notifier delivers templated messages to customers. Delivery is
// fire-and-forget; the order core never calls it directly, only the
// order-events consumer does.
type Notifier interface {
	Send(ctx context.Context, address, template string, data map[string]any) error
}

// LogNotifier writes notifications to the process log instead of an
// outbound channel.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, address, template string, data map[string]any) error {
	log.Printf("notify %s template=%s data=%v", address, template, data)
	return nil
}
