package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// NoopEventBus logs events without sending them to Kafka. Used when no brokers are configured.
type NoopEventBus struct{}

func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderPlaced(ctx context.Context, order domain.Order) error {
	slog.DebugContext(ctx, "event::order_placed", "order_id", order.ID, "tracking_number", order.TrackingNumber)
	return nil
}

func (n *NoopEventBus) PublishPaymentCaptured(ctx context.Context, order domain.Order) error {
	slog.DebugContext(ctx, "event::payment_captured", "order_id", order.ID, "gateway_order_id", order.TransactionID)
	return nil
}

func (n *NoopEventBus) PublishPaymentFailed(ctx context.Context, gatewayOrderID string, reason string) error {
	slog.DebugContext(ctx, "event::payment_failed", "gateway_order_id", gatewayOrderID, "reason", reason)
	return nil
}

// LogNotifier writes notifications to the log instead of a mail queue.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyCustomer(ctx context.Context, note ports.OrderNotification) error {
	n.log(ctx, note)
	return nil
}

func (n *LogNotifier) NotifyOperations(ctx context.Context, note ports.OrderNotification) error {
	n.log(ctx, note)
	return nil
}

func (n *LogNotifier) log(ctx context.Context, note ports.OrderNotification) {
	n.logger.InfoContext(ctx, "notification",
		"template", note.Template,
		"recipient", note.Recipient,
		"order_number", note.OrderNumber,
		"order_total", note.OrderTotal,
	)
}
