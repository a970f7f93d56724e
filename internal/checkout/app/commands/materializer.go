package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/metrics"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// MaterializeInput is everything needed to persist an order from a priced cart.
type MaterializeInput struct {
	SessionID      string
	Customer       domain.Customer
	Quote          domain.Quote
	Billing        *domain.Address
	Shipping       *domain.Address
	ShippingMethod domain.ShippingMethod
	PaymentMethod  domain.PaymentMethod
	PaymentStatus  domain.PaymentStatus
	TransactionID  string
	PaymentID      string
}

// Materializer persists an order and its lines in one transaction, then
// notifies, publishes and clears the session.
type Materializer struct {
	uow             ports.UnitOfWork
	sessions        ports.SessionStore
	notifier        ports.Notifier
	events          ports.EventBus
	operationsEmail string
	now             func() time.Time
	suffix          func() string
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

type MaterializerOption func(*Materializer)

// WithOrderMetrics counts every committed or failed order transaction.
func WithOrderMetrics(m *metrics.Metrics) MaterializerOption {
	return func(mat *Materializer) { mat.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MaterializerOption {
	return func(m *Materializer) { m.now = now }
}

// WithTrackingSuffix overrides the random tracking-number suffix generator.
func WithTrackingSuffix(suffix func() string) MaterializerOption {
	return func(m *Materializer) { m.suffix = suffix }
}

func NewMaterializer(
	uow ports.UnitOfWork,
	sessions ports.SessionStore,
	notifier ports.Notifier,
	events ports.EventBus,
	operationsEmail string,
	logger *slog.Logger,
	opts ...MaterializerOption,
) *Materializer {
	m := &Materializer{
		uow:             uow,
		sessions:        sessions,
		notifier:        notifier,
		events:          events,
		operationsEmail: operationsEmail,
		now:             func() time.Time { return time.Now().UTC() },
		suffix:          randomSuffix,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Materializer) Materialize(ctx context.Context, in MaterializeInput) (*domain.Order, error) {
	if len(in.Quote.Lines) == 0 {
		return nil, domain.Errorf(domain.ErrEmptyCart, "add a product first")
	}

	now := m.now()
	totals := in.Quote.Totals
	order := &domain.Order{
		CustomerID:        in.Customer.ID,
		CustomerEmail:     in.Customer.Email,
		TrackingNumber:    domain.TrackingNumber(now, in.ShippingMethod, m.suffix()),
		ShippingMethod:    in.ShippingMethod,
		SubTotal:          totals.Subtotal,
		DiscountAmount:    totals.DiscountAmount,
		GrandTotal:        totals.Total.Round(2),
		CouponCode:        totals.CouponCode,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     in.PaymentStatus,
		TransactionID:     in.TransactionID,
		PaymentID:         in.PaymentID,
		Status:            domain.StatusPending,
		BillingAddressID:  in.Billing.ID,
		ShippingAddressID: in.Shipping.ID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	lines := domain.NewOrderLines(in.Quote.Lines)

	err := m.uow.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := repos.Orders.AddLines(ctx, order.ID, lines); err != nil {
			return fmt.Errorf("add order lines: %w", err)
		}
		if order.CouponCode != "" {
			if err := repos.Coupons.IncrementUsage(ctx, order.CouponCode); err != nil {
				return fmt.Errorf("increment coupon usage: %w", err)
			}
		}
		return nil
	})
	if m.metrics != nil {
		m.metrics.RecordOrderPlaced(ctx, string(in.PaymentMethod), err == nil)
	}
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	m.finalize(ctx, order, in)
	return order, nil
}

// finalize runs the post-commit side effects. None of them can undo the order,
// so failures are logged rather than returned.
func (m *Materializer) finalize(ctx context.Context, order *domain.Order, in MaterializeInput) {
	customerNote := buildNotification(order, in, ports.TemplateOrderConfirmation, in.Customer.Email)
	if err := m.notifier.NotifyCustomer(ctx, customerNote); err != nil {
		m.logger.WarnContext(ctx, "failed to send order confirmation", "error", err, "order_id", order.ID)
	}

	if m.operationsEmail != "" {
		opsNote := buildNotification(order, in, ports.TemplateAdminOrder, m.operationsEmail)
		if err := m.notifier.NotifyOperations(ctx, opsNote); err != nil {
			m.logger.WarnContext(ctx, "failed to send operations notification", "error", err, "order_id", order.ID)
		}
	}

	if err := m.events.PublishOrderPlaced(ctx, *order); err != nil {
		m.logger.WarnContext(ctx, "order saved but failed to publish event", "error", err, "order_id", order.ID)
	}

	if in.SessionID == "" {
		return
	}
	// The cart, coupon and pending checkout are all consumed by the order.
	if err := m.sessions.Delete(ctx, in.SessionID); err != nil {
		m.logger.WarnContext(ctx, "failed to clear session after order", "error", err)
	}
}

func buildNotification(order *domain.Order, in MaterializeInput, template, recipient string) ports.OrderNotification {
	items := make([]ports.NotificationItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, ports.NotificationItem{
			Name:     line.ProductName,
			Quantity: line.Quantity,
			Price:    line.Amount.StringFixed(2),
		})
	}

	return ports.OrderNotification{
		Template:        template,
		Recipient:       recipient,
		CustomerName:    in.Customer.Name,
		CustomerEmail:   in.Customer.Email,
		OrderNumber:     order.TrackingNumber,
		OrderDate:       order.CreatedAt,
		OrderTotal:      order.GrandTotal.StringFixed(2),
		DiscountAmount:  order.DiscountAmount.StringFixed(2),
		CouponCode:      order.CouponCode,
		Items:           items,
		BillingAddress:  in.Billing,
		ShippingAddress: in.Shipping,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
