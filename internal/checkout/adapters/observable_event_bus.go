package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/telemetry"
)

// ObservableEventBus traces event publishing and records producer latency.
type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{bus: bus, metrics: metrics}
}

func (e *ObservableEventBus) publish(ctx context.Context, spanName, eventType string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	return telemetry.Trace(ctx, spanName, func(ctx context.Context) error {
		start := time.Now()
		err := fn(ctx)
		e.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), err == nil)
		return err
	}, append(attrs, attribute.String("event.type", eventType))...)
}

func (e *ObservableEventBus) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	return e.publish(ctx, "EventBus.PublishOrderPlaced", kafka.EventOrderPlaced, func(ctx context.Context) error {
		return e.bus.PublishOrderPlaced(ctx, order)
	}, attribute.Int64("order.id", order.ID))
}

func (e *ObservableEventBus) PublishPaymentCaptured(ctx context.Context, order domain.Order) error {
	return e.publish(ctx, "EventBus.PublishPaymentCaptured", kafka.EventPaymentCaptured, func(ctx context.Context) error {
		return e.bus.PublishPaymentCaptured(ctx, order)
	}, attribute.Int64("order.id", order.ID))
}

func (e *ObservableEventBus) PublishPaymentFailed(ctx context.Context, gatewayOrderID string, reason string) error {
	return e.publish(ctx, "EventBus.PublishPaymentFailed", kafka.EventPaymentFailed, func(ctx context.Context) error {
		return e.bus.PublishPaymentFailed(ctx, gatewayOrderID, reason)
	}, attribute.String("payment.gateway_order_id", gatewayOrderID), attribute.String("failure.reason", reason))
}
