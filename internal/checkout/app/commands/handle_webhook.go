package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// Gateway webhook event names.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

type HandleWebhookCommand struct {
	Body      []byte
	Signature string
}

// WebhookResult reports what a delivery did.
type WebhookResult struct {
	Event          string `json:"event"`
	GatewayOrderID string `json:"gateway_order_id,omitempty"`
	Status         string `json:"status"`
}

type HandleWebhookHandler interface {
	Handle(ctx context.Context, cmd HandleWebhookCommand) (*WebhookResult, error)
}

type HandleWebhookCommandHandler struct {
	orders      ports.OrderRepository
	paymentLogs ports.PaymentLogRepository
	gateway     ports.PaymentGateway
	events      ports.EventBus
	now         func() time.Time
	logger      *slog.Logger
}

func NewHandleWebhookCommandHandler(
	orders ports.OrderRepository,
	paymentLogs ports.PaymentLogRepository,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	now func() time.Time,
	logger *slog.Logger,
) *HandleWebhookCommandHandler {
	return &HandleWebhookCommandHandler{
		orders:      orders,
		paymentLogs: paymentLogs,
		gateway:     gateway,
		events:      events,
		now:         now,
		logger:      logger,
	}
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func (e webhookEnvelope) gatewayOrderID() string {
	if id := e.Payload.Payment.Entity.OrderID; id != "" {
		return id
	}
	return e.Payload.Order.Entity.ID
}

func (h *HandleWebhookCommandHandler) Handle(ctx context.Context, cmd HandleWebhookCommand) (*WebhookResult, error) {
	entry := domain.PaymentLog{
		Status:  domain.LogReceived,
		Payload: string(cmd.Body),
	}
	defer func() {
		entry.CreatedAt = h.now()
		if err := h.paymentLogs.Append(ctx, entry); err != nil {
			h.logger.ErrorContext(ctx, "failed to append payment log", "error", err, "event", entry.Event)
		}
	}()

	if !h.gateway.VerifyWebhookSignature(cmd.Body, cmd.Signature) {
		entry.Status = domain.LogInvalidSignature
		return nil, domain.Errorf(domain.ErrPaymentVerificationFailed, "invalid signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(cmd.Body, &envelope); err != nil || envelope.Event == "" {
		entry.Status = domain.LogParseError
		return nil, domain.Errorf(domain.ErrValidation, "malformed webhook payload")
	}

	entry.Event = envelope.Event
	entry.GatewayOrderID = envelope.gatewayOrderID()
	entry.PaymentID = envelope.Payload.Payment.Entity.ID
	result := &WebhookResult{Event: envelope.Event, GatewayOrderID: entry.GatewayOrderID}

	var target domain.PaymentStatus
	switch envelope.Event {
	case EventPaymentCaptured, EventOrderPaid:
		target = domain.PaymentPaid
	case EventPaymentFailed:
		target = domain.PaymentFailed
	default:
		entry.Status = domain.LogIgnored
		result.Status = entry.Status
		return result, nil
	}

	if target == domain.PaymentFailed && entry.GatewayOrderID != "" {
		reason := envelope.Payload.Payment.Entity.ErrorDescription
		if err := h.events.PublishPaymentFailed(ctx, entry.GatewayOrderID, reason); err != nil {
			h.logger.WarnContext(ctx, "failed to publish payment failure", "error", err, "gateway_order_id", entry.GatewayOrderID)
		}
	}

	order, err := h.orders.GetByTransactionID(ctx, entry.GatewayOrderID)
	if errors.Is(err, ports.ErrNotFound) {
		// The client callback materializes the order; nothing to update yet.
		entry.Status = domain.LogIgnored
		result.Status = entry.Status
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find order by transaction: %w", err)
	}

	// A late failure never downgrades a settled payment.
	if order.PaymentStatus == domain.PaymentPaid && target == domain.PaymentFailed {
		entry.Status = domain.LogIgnored
		result.Status = entry.Status
		return result, nil
	}

	paymentID := entry.PaymentID
	if paymentID == "" {
		paymentID = order.PaymentID
	}
	if err := h.orders.UpdatePayment(ctx, order.ID, target, paymentID); err != nil {
		return nil, fmt.Errorf("update order payment: %w", err)
	}

	entry.Status = domain.LogApplied
	result.Status = entry.Status
	return result, nil
}
