package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// Notifier hands order emails to the mail worker through a Kafka topic.
type Notifier struct {
	writer messageWriter
}

func NewNotifier(writer messageWriter) *Notifier {
	return &Notifier{writer: writer}
}

func (n *Notifier) NotifyCustomer(ctx context.Context, note ports.OrderNotification) error {
	return n.send(ctx, note)
}

func (n *Notifier) NotifyOperations(ctx context.Context, note ports.OrderNotification) error {
	return n.send(ctx, note)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

func (n *Notifier) send(ctx context.Context, note ports.OrderNotification) error {
	value, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(note.OrderNumber),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "template", Value: []byte(note.Template)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %q notification: %w", note.Template, err)
	}
	return nil
}
