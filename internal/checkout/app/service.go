package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/app/queries"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/metrics"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// Deps are the adapters the checkout service runs on.
type Deps struct {
	Sessions        ports.SessionStore
	Catalog         ports.Catalog
	Addresses       ports.AddressBook
	Coupons         ports.CouponRepository
	Orders          ports.OrderRepository
	PaymentLogs     ports.PaymentLogRepository
	UnitOfWork      ports.UnitOfWork
	Gateway         ports.PaymentGateway
	Events          ports.EventBus
	Notifier        ports.Notifier
	Idempotency     ports.IdempotencyStore
	Wishlist        ports.WishlistRepository
	Currency        string
	OperationsEmail string
	Now             func() time.Time
}

// Service bundles the cart, checkout and order use cases for the API.
type Service struct {
	deps       Deps
	metrics    *metrics.Metrics
	cart       *commands.CartCommandHandler
	placeOrder commands.PlaceOrderHandler
	confirm    commands.ConfirmPaymentHandler
	webhook    commands.HandleWebhookHandler
	status     *commands.UpdateOrderStatusCommandHandler
	getOrder   *queries.GetOrderQueryHandler
	listOrders *queries.ListOrdersQueryHandler
	wishlist   *commands.WishlistCommandHandler
	wishlists  *queries.ListWishlistQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Deps, logger *slog.Logger, m *metrics.Metrics, opts ...commands.MaterializerOption) *Service {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	opts = append([]commands.MaterializerOption{commands.WithClock(deps.Now), commands.WithOrderMetrics(m)}, opts...)

	materializer := commands.NewMaterializer(
		deps.UnitOfWork, deps.Sessions, deps.Notifier, deps.Events, deps.OperationsEmail, logger, opts...,
	)

	placeOrder := commands.NewPlaceOrderCommandHandler(
		deps.Sessions, deps.Catalog, deps.Addresses, deps.Coupons, deps.Gateway, materializer, deps.Currency, deps.Now,
	)
	confirm := commands.NewConfirmPaymentCommandHandler(
		deps.Sessions, deps.Addresses, deps.Orders, deps.PaymentLogs, deps.Gateway, deps.Events, materializer, deps.Now, logger,
	)
	webhook := commands.NewHandleWebhookCommandHandler(
		deps.Orders, deps.PaymentLogs, deps.Gateway, deps.Events, deps.Now, logger,
	)

	return &Service{
		deps:       deps,
		metrics:    m,
		cart:       commands.NewCartCommandHandler(deps.Sessions, deps.Catalog, deps.Coupons, deps.Now),
		placeOrder: commands.NewObservablePlaceOrderHandler(placeOrder, logger, m),
		confirm:    commands.NewObservableConfirmPaymentHandler(confirm, logger, m),
		webhook:    commands.NewObservableWebhookHandler(webhook, logger, m),
		status:     commands.NewUpdateOrderStatusCommandHandler(deps.Orders, deps.Now),
		getOrder:   queries.NewGetOrderQueryHandler(deps.Orders),
		listOrders: queries.NewListOrdersQueryHandler(deps.Orders),
		wishlist:   commands.NewWishlistCommandHandler(deps.Catalog, deps.Wishlist, deps.Now),
		wishlists:  queries.NewListWishlistQueryHandler(deps.Wishlist),
	}
}

// Cart returns the priced session cart.
func (s *Service) Cart(ctx context.Context, sessionID string) (*commands.CartView, error) {
	return s.cart.View(ctx, sessionID)
}

// AddToCart adds quantity units of a product to the session cart.
func (s *Service) AddToCart(ctx context.Context, sessionID string, productID int64, quantity int) (*commands.CartView, error) {
	view, err := s.cart.Add(ctx, sessionID, productID, quantity)
	s.metrics.RecordCartMutation(ctx, "add", err == nil)
	return view, err
}

// UpdateCartQuantity moves an existing cart line up or down.
func (s *Service) UpdateCartQuantity(ctx context.Context, sessionID string, productID int64, quantity int, operation string) (*commands.CartView, error) {
	view, err := s.cart.UpdateQuantity(ctx, sessionID, productID, quantity, operation)
	s.metrics.RecordCartMutation(ctx, "update", err == nil)
	return view, err
}

func (s *Service) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (*commands.CartView, error) {
	view, err := s.cart.Remove(ctx, sessionID, productID)
	s.metrics.RecordCartMutation(ctx, "remove", err == nil)
	return view, err
}

func (s *Service) ClearCart(ctx context.Context, sessionID string) (*commands.CartView, error) {
	view, err := s.cart.Clear(ctx, sessionID)
	s.metrics.RecordCartMutation(ctx, "clear", err == nil)
	return view, err
}

// ApplyCoupon validates a code and attaches it to the session cart.
func (s *Service) ApplyCoupon(ctx context.Context, sessionID, code string) (*commands.CouponApplied, error) {
	applied, err := s.cart.ApplyCoupon(ctx, sessionID, code)
	s.metrics.RecordCouponApplication(ctx, err == nil)
	return applied, err
}

func (s *Service) RemoveCoupon(ctx context.Context, sessionID string) (*commands.CartView, error) {
	return s.cart.RemoveCoupon(ctx, sessionID)
}

// CheckoutSummary is what the checkout page needs before placing an order.
type CheckoutSummary struct {
	Cart      *commands.CartView `json:"cart"`
	Addresses []domain.Address   `json:"addresses"`
}

// CheckoutSummary prices the cart and lists the customer's active addresses.
func (s *Service) CheckoutSummary(ctx context.Context, sessionID string, customer domain.Customer) (*CheckoutSummary, error) {
	view, err := s.cart.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if view.ItemCount == 0 {
		return nil, domain.Errorf(domain.ErrEmptyCart, "add a product first")
	}

	addresses, err := s.deps.Addresses.ListAddresses(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	return &CheckoutSummary{Cart: view, Addresses: addresses}, nil
}

// PlaceOrder turns the session cart into an order or a pending gateway payment.
func (s *Service) PlaceOrder(ctx context.Context, cmd commands.PlaceOrderCommand) (*commands.PlaceOrderResult, error) {
	return s.placeOrder.Handle(ctx, cmd)
}

// ConfirmPayment verifies a gateway callback and materializes the order.
func (s *Service) ConfirmPayment(ctx context.Context, cmd commands.ConfirmPaymentCommand) (*domain.Order, error) {
	return s.confirm.Handle(ctx, cmd)
}

// HandleWebhook applies a server-to-server gateway event.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*commands.WebhookResult, error) {
	return s.webhook.Handle(ctx, commands.HandleWebhookCommand{Body: body, Signature: signature})
}

func (s *Service) GetOrder(ctx context.Context, customer domain.Customer, id int64) (*queries.OrderDetail, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id, Customer: customer})
}

func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.listOrders.Handle(ctx, query)
}

// UpdateOrderStatus moves an order forward; staff only.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor domain.Customer, id int64, status string) (*domain.Order, error) {
	return s.status.Handle(ctx, commands.UpdateOrderStatusCommand{Actor: actor, OrderID: id, Status: status})
}

// Wishlist returns one page of the customer's saved products.
func (s *Service) Wishlist(ctx context.Context, customer domain.Customer, page int) (*queries.WishlistPage, error) {
	return s.wishlists.Handle(ctx, queries.ListWishlistQuery{Customer: customer, Page: page})
}

func (s *Service) AddToWishlist(ctx context.Context, customer domain.Customer, productID int64) (*commands.WishlistChange, error) {
	change, err := s.wishlist.Add(ctx, customer, productID)
	s.metrics.RecordWishlistMutation(ctx, "add", err == nil)
	return change, err
}

func (s *Service) RemoveFromWishlist(ctx context.Context, customer domain.Customer, productID int64) error {
	err := s.wishlist.Remove(ctx, customer, productID)
	s.metrics.RecordWishlistMutation(ctx, "remove", err == nil)
	return err
}

func (s *Service) ClearWishlist(ctx context.Context, customer domain.Customer) error {
	err := s.wishlist.Clear(ctx, customer)
	s.metrics.RecordWishlistMutation(ctx, "clear", err == nil)
	return err
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.deps.Idempotency.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.deps.Idempotency.Get(ctx, key)
}
