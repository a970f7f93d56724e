package commands_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/storefront/internal/checkout/adapters/memory"
	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/metrics"
	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/payment/razorpay"
	sessionmemory "github.com/dejobratic/storefront/internal/session/memory"
)

const (
	keySecret     = "key-secret"
	webhookSecret = "webhook-secret"
	sessionID     = "sess-1"
)

var (
	fixedNow = time.Date(2026, 3, 9, 8, 35, 7, 0, time.UTC)
	buyer    = domain.Customer{ID: 7, Email: "buyer@example.com", Name: "Asha"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeGateway struct {
	*razorpay.Client
	mu      sync.Mutex
	created []int64
	err     error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*domain.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, amountMinor)
	return &domain.GatewayOrder{
		ID:          fmt.Sprintf("order_gw_%d", len(g.created)),
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     receipt,
	}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []ports.OrderNotification
}

func (n *recordingNotifier) NotifyCustomer(_ context.Context, note ports.OrderNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
	return nil
}

func (n *recordingNotifier) NotifyOperations(ctx context.Context, note ports.OrderNotification) error {
	return n.NotifyCustomer(ctx, note)
}

type recordingBus struct {
	mu       sync.Mutex
	placed   []domain.Order
	captured []domain.Order
	failed   []string
}

func (b *recordingBus) PublishOrderPlaced(_ context.Context, order domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.placed = append(b.placed, order)
	return nil
}

func (b *recordingBus) PublishPaymentCaptured(_ context.Context, order domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.captured = append(b.captured, order)
	return nil
}

func (b *recordingBus) PublishPaymentFailed(_ context.Context, gatewayOrderID string, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = append(b.failed, gatewayOrderID)
	return nil
}

// failingLinesUoW fails every AddLines call inside the transaction.
type failingLinesUoW struct {
	inner ports.UnitOfWork
}

type failingLinesRepo struct {
	ports.OrderRepository
}

func (failingLinesRepo) AddLines(context.Context, int64, []domain.OrderLine) error {
	return fmt.Errorf("disk full")
}

func (u failingLinesUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		repos.Orders = failingLinesRepo{repos.Orders}
		return fn(ctx, repos)
	})
}

type harness struct {
	store     *memory.Store
	sessions  *sessionmemory.Store
	gateway   *fakeGateway
	notifier  *recordingNotifier
	bus       *recordingBus
	uow       ports.UnitOfWork
	metrics   *metrics.Metrics
	addressID int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	store.SaveProduct(domain.Product{ID: 1, Name: "Mug", Price: dec("10"), Stock: 50, Active: true})
	store.SaveProduct(domain.Product{ID: 2, Name: "Spoon", Price: dec("5"), Stock: 50, Active: true})
	store.SaveProduct(domain.Product{ID: 101, Name: "Notebook", Price: dec("9.99"), Stock: 20, Active: true})
	store.SaveAddress(domain.Address{ID: 11, CustomerID: buyer.ID, City: "Pune", Active: true})
	store.SaveAddress(domain.Address{ID: 12, CustomerID: 99, City: "Delhi", Active: true})
	store.SaveCoupon(domain.Coupon{
		ID: 1, Code: "SAVE10", Percent: dec("10"), Active: true,
		StartsAt: fixedNow.Add(-24 * time.Hour), EndsAt: fixedNow.Add(24 * time.Hour),
	})
	store.SaveCoupon(domain.Coupon{
		ID: 2, Code: "OLD", Percent: dec("50"), Active: true,
		StartsAt: fixedNow.Add(-48 * time.Hour), EndsAt: fixedNow.Add(-24 * time.Hour),
	})

	return &harness{
		store:     store,
		sessions:  sessionmemory.NewStore(time.Hour),
		gateway:   &fakeGateway{Client: razorpay.NewClient(razorpay.Config{KeyID: "rzp_test", KeySecret: keySecret, WebhookSecret: webhookSecret})},
		notifier:  &recordingNotifier{},
		bus:       &recordingBus{},
		uow:       store,
		addressID: 11,
	}
}

func (h *harness) now() time.Time { return fixedNow }

func (h *harness) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (h *harness) materializer() *commands.Materializer {
	return commands.NewMaterializer(h.uow, h.sessions, h.notifier, h.bus, "ops@example.com", h.logger(),
		commands.WithClock(h.now),
		commands.WithTrackingSuffix(func() string { return "abc123" }),
		commands.WithOrderMetrics(h.metrics),
	)
}

func (h *harness) placeOrder() *commands.PlaceOrderCommandHandler {
	return commands.NewPlaceOrderCommandHandler(h.sessions, h.store, h.store, h.store, h.gateway, h.materializer(), "INR", h.now)
}

func (h *harness) confirmPayment() *commands.ConfirmPaymentCommandHandler {
	return commands.NewConfirmPaymentCommandHandler(h.sessions, h.store, h.store, h.store, h.gateway, h.bus, h.materializer(), h.now, h.logger())
}

func (h *harness) webhook() *commands.HandleWebhookCommandHandler {
	return commands.NewHandleWebhookCommandHandler(h.store, h.store, h.gateway, h.bus, h.now, h.logger())
}

func (h *harness) cart() *commands.CartCommandHandler {
	return commands.NewCartCommandHandler(h.sessions, h.store, h.store, h.now)
}

// fillCart stores the given cart and optional coupon in the test session.
func (h *harness) fillCart(t *testing.T, cart domain.Cart, coupon string) {
	t.Helper()
	data := &ports.SessionData{Cart: cart}
	if coupon != "" {
		c, err := h.store.GetByCode(context.Background(), coupon)
		require.NoError(t, err)
		snapshot := c.Snapshot()
		data.Coupon = &snapshot
	}
	require.NoError(t, h.sessions.Save(context.Background(), sessionID, data))
}

func (h *harness) placeCmd(method string) commands.PlaceOrderCommand {
	return commands.PlaceOrderCommand{
		SessionID:         sessionID,
		Customer:          buyer,
		BillingAddressID:  h.addressID,
		ShippingAddressID: h.addressID,
		PaymentMethod:     method,
		ShippingMethod:    "std",
	}
}
