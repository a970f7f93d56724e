package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the checkout instruments.
type Metrics struct {
	ordersPlacedTotal    metric.Int64Counter
	checkoutAttempts     metric.Int64Counter
	gatewayPayments      metric.Int64Counter
	orderPlacementTime   metric.Float64Histogram
	paymentVerifications metric.Int64Counter
	webhookDeliveries    metric.Int64Counter
	cartMutations        metric.Int64Counter
	wishlistMutations    metric.Int64Counter
	couponApplications   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersPlacedTotal, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Orders persisted by payment method and outcome"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_placed_total counter: %w", err)
	}

	m.checkoutAttempts, err = meter.Int64Counter(
		"checkout_attempts_total",
		metric.WithDescription("Place-order requests by payment method and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create checkout_attempts_total counter: %w", err)
	}

	m.gatewayPayments, err = meter.Int64Counter(
		"gateway_payments_started_total",
		metric.WithDescription("Gateway orders created for checkout hand-off"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create gateway_payments_started_total counter: %w", err)
	}

	m.orderPlacementTime, err = meter.Float64Histogram(
		"order_placement_duration_seconds",
		metric.WithDescription("Duration of place-order and payment confirmation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_placement_duration histogram: %w", err)
	}

	m.paymentVerifications, err = meter.Int64Counter(
		"payment_verifications_total",
		metric.WithDescription("Payment callback verifications by outcome"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_verifications_total counter: %w", err)
	}

	m.webhookDeliveries, err = meter.Int64Counter(
		"payment_webhooks_total",
		metric.WithDescription("Gateway webhook deliveries by event and outcome"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_webhooks_total counter: %w", err)
	}

	m.cartMutations, err = meter.Int64Counter(
		"cart_mutations_total",
		metric.WithDescription("Cart changes by operation and outcome"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create cart_mutations_total counter: %w", err)
	}

	m.wishlistMutations, err = meter.Int64Counter(
		"wishlist_mutations_total",
		metric.WithDescription("Wishlist changes by operation and outcome"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create wishlist_mutations_total counter: %w", err)
	}

	m.couponApplications, err = meter.Int64Counter(
		"coupon_applications_total",
		metric.WithDescription("Coupon apply attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create coupon_applications_total counter: %w", err)
	}

	return m, nil
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (m *Metrics) RecordOrderPlaced(ctx context.Context, paymentMethod string, success bool) {
	m.ordersPlacedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", paymentMethod),
		attribute.String("status", outcome(success)),
	))
}

// RecordCheckoutAttempt counts a place-order request. paymentMethod must be a
// known method or "invalid".
func (m *Metrics) RecordCheckoutAttempt(ctx context.Context, paymentMethod string, success bool) {
	m.checkoutAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", paymentMethod),
		attribute.String("status", outcome(success)),
	))
}

func (m *Metrics) RecordGatewayPaymentStarted(ctx context.Context, success bool) {
	m.gatewayPayments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", outcome(success)),
	))
}

func (m *Metrics) RecordPlacementDuration(ctx context.Context, operation string, durationSeconds float64) {
	m.orderPlacementTime.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *Metrics) RecordPaymentVerification(ctx context.Context, result string) {
	m.paymentVerifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func (m *Metrics) RecordWebhook(ctx context.Context, event, status string) {
	m.webhookDeliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordCartMutation(ctx context.Context, operation string, success bool) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", outcome(success)),
	))
}

func (m *Metrics) RecordWishlistMutation(ctx context.Context, operation string, success bool) {
	m.wishlistMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", outcome(success)),
	))
}

func (m *Metrics) RecordCouponApplication(ctx context.Context, success bool) {
	m.couponApplications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", outcome(success)),
	))
}
