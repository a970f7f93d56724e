package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/metrics"
	"github.com/dejobratic/storefront/internal/telemetry"
)

type ObservablePlaceOrderHandler struct {
	handler PlaceOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservablePlaceOrderHandler(handler PlaceOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservablePlaceOrderHandler {
	return &ObservablePlaceOrderHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservablePlaceOrderHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "PlaceOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	method := paymentMethodLabel(cmd.PaymentMethod)
	var success bool
	defer func() {
		o.metrics.RecordPlacementDuration(ctx, "place_order", time.Since(start).Seconds())
		o.metrics.RecordCheckoutAttempt(ctx, method, success)
		if method == string(domain.PaymentRazorpay) {
			o.metrics.RecordGatewayPaymentStarted(ctx, success)
		}
	}()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("customer.id", cmd.Customer.ID),
		attribute.String("checkout.payment_method", method),
		attribute.String("checkout.shipping_method", cmd.ShippingMethod),
	)
	o.logger.InfoContext(ctx, "placing order",
		"customer_id", cmd.Customer.ID,
		"payment_method", method,
	)

	result, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to place order",
			"error", err,
			"customer_id", cmd.Customer.ID,
		)
		return nil, err
	}

	if result.Order != nil {
		telemetry.AddSpanAttributes(span,
			attribute.Int64("order.id", result.Order.ID),
			attribute.String("order.tracking_number", result.Order.TrackingNumber),
			attribute.String("order.grand_total", result.Order.GrandTotal.StringFixed(2)),
		)
		o.logger.InfoContext(ctx, "order placed",
			"order_id", result.Order.ID,
			"tracking_number", result.Order.TrackingNumber,
		)
	} else if result.Payment != nil {
		telemetry.AddSpanAttributes(span,
			attribute.String("payment.gateway_order_id", result.Payment.GatewayOrderID),
			attribute.Int64("payment.amount_minor", result.Payment.AmountMinor),
		)
		o.logger.InfoContext(ctx, "gateway payment started",
			"gateway_order_id", result.Payment.GatewayOrderID,
			"amount_minor", result.Payment.AmountMinor,
		)
	}

	success = true
	telemetry.SetSpanSuccess(span)
	return result, nil
}

// paymentMethodLabel keeps metric attributes to the known payment methods.
func paymentMethodLabel(raw string) string {
	method, err := domain.ParsePaymentMethod(raw)
	if err != nil {
		return "invalid"
	}
	return string(method)
}

type ObservableConfirmPaymentHandler struct {
	handler ConfirmPaymentHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableConfirmPaymentHandler(handler ConfirmPaymentHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableConfirmPaymentHandler {
	return &ObservableConfirmPaymentHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "ConfirmPaymentCommand.Handle")
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		o.metrics.RecordPlacementDuration(ctx, "confirm_payment", time.Since(start).Seconds())
		o.metrics.RecordPaymentVerification(ctx, result)
	}()

	telemetry.AddSpanAttributes(span,
		attribute.String("payment.gateway_order_id", cmd.GatewayOrderID),
		attribute.String("payment.id", cmd.PaymentID),
	)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentVerificationFailed) {
			result = "invalid_signature"
		}
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to confirm payment",
			"error", err,
			"gateway_order_id", cmd.GatewayOrderID,
			"payment_id", cmd.PaymentID,
		)
		return nil, err
	}

	result = "verified"
	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", order.ID),
		attribute.String("order.tracking_number", order.TrackingNumber),
	)
	o.logger.InfoContext(ctx, "payment confirmed",
		"order_id", order.ID,
		"gateway_order_id", cmd.GatewayOrderID,
	)
	telemetry.SetSpanSuccess(span)
	return order, nil
}

type ObservableWebhookHandler struct {
	handler HandleWebhookHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableWebhookHandler(handler HandleWebhookHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableWebhookHandler {
	return &ObservableWebhookHandler{handler: handler, logger: logger, metrics: metrics}
}

func (o *ObservableWebhookHandler) Handle(ctx context.Context, cmd HandleWebhookCommand) (*WebhookResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "HandleWebhookCommand.Handle")
	defer span.End()

	result, err := o.handler.Handle(ctx, cmd)
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrPaymentVerificationFailed) {
			status = domain.LogInvalidSignature
		} else if errors.Is(err, domain.ErrValidation) {
			status = domain.LogParseError
		}
		o.metrics.RecordWebhook(ctx, "unknown", status)
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "rejected payment webhook", "error", err)
		return nil, err
	}

	o.metrics.RecordWebhook(ctx, result.Event, result.Status)
	telemetry.AddSpanAttributes(span,
		attribute.String("webhook.event", result.Event),
		attribute.String("webhook.status", result.Status),
	)
	o.logger.InfoContext(ctx, "payment webhook processed",
		"event", result.Event,
		"gateway_order_id", result.GatewayOrderID,
		"status", result.Status,
	)
	telemetry.SetSpanSuccess(span)
	return result, nil
}
