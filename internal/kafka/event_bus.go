package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// Order event types.
const (
	EventOrderPlaced      = "order.placed"
	EventPaymentCaptured  = "payment.captured"
	EventPaymentFailed    = "payment.failed"
	headerEventType       = "event_type"
	headerContentTypeJSON = "application/json"
)

// OrderEvent is the JSON value published for order lifecycle changes.
type OrderEvent struct {
	Type           string    `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        int64     `json:"order_id,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	CustomerID     int64     `json:"customer_id,omitempty"`
	GrandTotal     string    `json:"grand_total,omitempty"`
	CouponCode     string    `json:"coupon_code,omitempty"`
	PaymentMethod  string    `json:"payment_method,omitempty"`
	PaymentStatus  string    `json:"payment_status,omitempty"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// EventBus publishes order events to a single topic, keyed so every event of
// one order lands on the same partition.
type EventBus struct {
	writer messageWriter
	now    func() time.Time
}

func NewEventBus(writer messageWriter) *EventBus {
	return &EventBus{writer: writer, now: func() time.Time { return time.Now().UTC() }}
}

func (b *EventBus) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	return b.publish(ctx, order.TrackingNumber, orderEvent(EventOrderPlaced, order, b.now()))
}

func (b *EventBus) PublishPaymentCaptured(ctx context.Context, order domain.Order) error {
	return b.publish(ctx, order.TrackingNumber, orderEvent(EventPaymentCaptured, order, b.now()))
}

func (b *EventBus) PublishPaymentFailed(ctx context.Context, gatewayOrderID string, reason string) error {
	return b.publish(ctx, gatewayOrderID, OrderEvent{
		Type:           EventPaymentFailed,
		OccurredAt:     b.now(),
		GatewayOrderID: gatewayOrderID,
		Reason:         reason,
	})
}

// Close flushes pending writes.
func (b *EventBus) Close() error {
	return b.writer.Close()
}

func orderEvent(eventType string, order domain.Order, now time.Time) OrderEvent {
	return OrderEvent{
		Type:           eventType,
		OccurredAt:     now,
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		CustomerID:     order.CustomerID,
		GrandTotal:     order.GrandTotal.StringFixed(2),
		CouponCode:     order.CouponCode,
		PaymentMethod:  string(order.PaymentMethod),
		PaymentStatus:  string(order.PaymentStatus),
		GatewayOrderID: order.TransactionID,
	}
}

func (b *EventBus) publish(ctx context.Context, key string, event OrderEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
			{Key: "content_type", Value: []byte(headerContentTypeJSON)},
		},
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}
