package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

const eventPaymentCallback = "payment.callback"

type ConfirmPaymentCommand struct {
	SessionID      string
	Customer       domain.Customer
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

func (c ConfirmPaymentCommand) Validate() error {
	if strings.TrimSpace(c.GatewayOrderID) == "" || strings.TrimSpace(c.PaymentID) == "" {
		return domain.Errorf(domain.ErrValidation, "razorpay_order_id and razorpay_payment_id are required")
	}
	if strings.TrimSpace(c.Signature) == "" {
		return domain.Errorf(domain.ErrValidation, "razorpay_signature is required")
	}
	return nil
}

type ConfirmPaymentHandler interface {
	Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*domain.Order, error)
}

type ConfirmPaymentCommandHandler struct {
	sessions     ports.SessionStore
	addresses    ports.AddressBook
	orders       ports.OrderRepository
	paymentLogs  ports.PaymentLogRepository
	gateway      ports.PaymentGateway
	events       ports.EventBus
	materializer *Materializer
	now          func() time.Time
	logger       *slog.Logger
}

func NewConfirmPaymentCommandHandler(
	sessions ports.SessionStore,
	addresses ports.AddressBook,
	orders ports.OrderRepository,
	paymentLogs ports.PaymentLogRepository,
	gateway ports.PaymentGateway,
	events ports.EventBus,
	materializer *Materializer,
	now func() time.Time,
	logger *slog.Logger,
) *ConfirmPaymentCommandHandler {
	return &ConfirmPaymentCommandHandler{
		sessions:     sessions,
		addresses:    addresses,
		orders:       orders,
		paymentLogs:  paymentLogs,
		gateway:      gateway,
		events:       events,
		materializer: materializer,
		now:          now,
		logger:       logger,
	}
}

// Handle verifies a client payment callback and materializes the pending
// checkout. Exactly one PaymentLog entry is appended per call.
func (h *ConfirmPaymentCommandHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*domain.Order, error) {
	status := domain.LogReceived
	defer func() {
		h.appendLog(ctx, cmd, status)
	}()

	if err := cmd.Validate(); err != nil {
		status = domain.LogParseError
		return nil, err
	}

	if !h.gateway.VerifyPaymentSignature(cmd.GatewayOrderID, cmd.PaymentID, cmd.Signature) {
		status = domain.LogInvalidSignature
		return nil, domain.Errorf(domain.ErrPaymentVerificationFailed, "invalid signature")
	}
	status = domain.LogVerified

	existing, err := h.orders.GetByTransactionID(ctx, cmd.GatewayOrderID)
	switch {
	case err == nil:
		status = domain.LogIgnored
		if existing.CustomerID != cmd.Customer.ID && !cmd.Customer.Staff {
			return nil, domain.Errorf(domain.ErrOrderNotFound, "no order for this payment")
		}
		return existing, nil
	case !errors.Is(err, ports.ErrNotFound):
		return nil, fmt.Errorf("find order by transaction: %w", err)
	}

	data, err := h.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	pending := data.Pending
	if pending == nil || pending.GatewayOrderID != cmd.GatewayOrderID {
		return nil, domain.Errorf(domain.ErrValidation, "no pending checkout for this payment")
	}

	billing, err := resolveAddress(ctx, h.addresses, cmd.Customer.ID, pending.BillingAddressID)
	if err != nil {
		return nil, err
	}
	shipping, err := resolveAddress(ctx, h.addresses, cmd.Customer.ID, pending.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	order, err := h.materializer.Materialize(ctx, MaterializeInput{
		SessionID:      cmd.SessionID,
		Customer:       cmd.Customer,
		Quote:          pending.Quote,
		Billing:        billing,
		Shipping:       shipping,
		ShippingMethod: pending.ShippingMethod,
		PaymentMethod:  domain.PaymentRazorpay,
		PaymentStatus:  domain.PaymentPaid,
		TransactionID:  cmd.GatewayOrderID,
		PaymentID:      cmd.PaymentID,
	})
	if err != nil {
		return nil, err
	}
	status = domain.LogApplied

	if err := h.events.PublishPaymentCaptured(ctx, *order); err != nil {
		h.logger.WarnContext(ctx, "payment captured but failed to publish event", "error", err, "order_id", order.ID)
	}

	return order, nil
}

func (h *ConfirmPaymentCommandHandler) appendLog(ctx context.Context, cmd ConfirmPaymentCommand, status string) {
	entry := domain.PaymentLog{
		GatewayOrderID: cmd.GatewayOrderID,
		PaymentID:      cmd.PaymentID,
		Event:          eventPaymentCallback,
		Status:         status,
		Payload: fmt.Sprintf(`{"razorpay_order_id":%q,"razorpay_payment_id":%q}`,
			cmd.GatewayOrderID, cmd.PaymentID),
		CreatedAt: h.now(),
	}
	if err := h.paymentLogs.Append(ctx, entry); err != nil {
		h.logger.ErrorContext(ctx, "failed to append payment log", "error", err, "gateway_order_id", cmd.GatewayOrderID)
	}
}
