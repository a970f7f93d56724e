package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type PlaceOrderCommand struct {
	SessionID         string
	Customer          domain.Customer
	BillingAddressID  int64
	ShippingAddressID int64
	PaymentMethod     string
	ShippingMethod    string
}

func (c PlaceOrderCommand) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return domain.Errorf(domain.ErrValidation, "session is required")
	}
	if c.Customer.ID <= 0 {
		return domain.Errorf(domain.ErrValidation, "customer is required")
	}
	if c.BillingAddressID <= 0 || c.ShippingAddressID <= 0 {
		return domain.Errorf(domain.ErrValidation, "billing and shipping addresses are required")
	}
	return nil
}

// PaymentDescriptor is returned for gateway payments so the client can complete them.
type PaymentDescriptor struct {
	GatewayOrderID string          `json:"razorpay_order_id"`
	Amount         decimal.Decimal `json:"amount"`
	AmountMinor    int64           `json:"amount_minor"`
	Currency       string          `json:"currency"`
	KeyID          string          `json:"key_id"`
}

// PlaceOrderResult holds exactly one of Order (cash) or Payment (gateway pending).
type PlaceOrderResult struct {
	Order   *domain.Order      `json:"order,omitempty"`
	Payment *PaymentDescriptor `json:"payment,omitempty"`
}

type PlaceOrderHandler interface {
	Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
}

type PlaceOrderCommandHandler struct {
	sessions     ports.SessionStore
	catalog      ports.Catalog
	addresses    ports.AddressBook
	coupons      ports.CouponRepository
	gateway      ports.PaymentGateway
	materializer *Materializer
	currency     string
	now          func() time.Time
}

func NewPlaceOrderCommandHandler(
	sessions ports.SessionStore,
	catalog ports.Catalog,
	addresses ports.AddressBook,
	coupons ports.CouponRepository,
	gateway ports.PaymentGateway,
	materializer *Materializer,
	currency string,
	now func() time.Time,
) *PlaceOrderCommandHandler {
	return &PlaceOrderCommandHandler{
		sessions:     sessions,
		catalog:      catalog,
		addresses:    addresses,
		coupons:      coupons,
		gateway:      gateway,
		materializer: materializer,
		currency:     currency,
		now:          now,
	}
}

func (h *PlaceOrderCommandHandler) Handle(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	method, err := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}
	shipping, err := domain.ParseShippingMethod(cmd.ShippingMethod)
	if err != nil {
		return nil, err
	}

	data, err := h.sessions.Get(ctx, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data.Cart.IsEmpty() {
		return nil, domain.Errorf(domain.ErrEmptyCart, "add a product first")
	}

	if data.Coupon != nil {
		if _, err := LookupCoupon(ctx, h.coupons, data.Coupon.Code, h.now()); err != nil {
			return nil, err
		}
	}

	quote, err := QuoteCart(ctx, h.catalog, data.Cart, data.Coupon)
	if err != nil {
		return nil, err
	}

	billing, err := resolveAddress(ctx, h.addresses, cmd.Customer.ID, cmd.BillingAddressID)
	if err != nil {
		return nil, err
	}
	shippingAddr, err := resolveAddress(ctx, h.addresses, cmd.Customer.ID, cmd.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	if method == domain.PaymentRazorpay {
		return h.startGatewayPayment(ctx, cmd, data, quote, shipping)
	}

	order, err := h.materializer.Materialize(ctx, MaterializeInput{
		SessionID:      cmd.SessionID,
		Customer:       cmd.Customer,
		Quote:          quote,
		Billing:        billing,
		Shipping:       shippingAddr,
		ShippingMethod: shipping,
		PaymentMethod:  domain.PaymentCash,
		PaymentStatus:  domain.PaymentPending,
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOrderResult{Order: order}, nil
}

// startGatewayPayment creates the remote order and parks the priced cart in the
// session. No local order exists until the payment is confirmed.
func (h *PlaceOrderCommandHandler) startGatewayPayment(
	ctx context.Context,
	cmd PlaceOrderCommand,
	data *ports.SessionData,
	quote domain.Quote,
	shipping domain.ShippingMethod,
) (*PlaceOrderResult, error) {
	amountMinor := domain.MinorUnits(quote.Totals.Total)
	if amountMinor <= 0 {
		return nil, domain.Errorf(domain.ErrValidation, "order total must be positive for online payment")
	}

	receipt := fmt.Sprintf("cust-%d-%d", cmd.Customer.ID, h.now().Unix())
	remote, err := h.gateway.CreateOrder(ctx, amountMinor, h.currency, receipt)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	data.Pending = &domain.PendingCheckout{
		GatewayOrderID:    remote.ID,
		Quote:             quote,
		BillingAddressID:  cmd.BillingAddressID,
		ShippingAddressID: cmd.ShippingAddressID,
		ShippingMethod:    shipping,
		AmountMinor:       remote.AmountMinor,
		Currency:          remote.Currency,
		CreatedAt:         h.now(),
	}
	if err := h.sessions.Save(ctx, cmd.SessionID, data); err != nil {
		return nil, fmt.Errorf("save pending checkout: %w", err)
	}

	return &PlaceOrderResult{
		Payment: &PaymentDescriptor{
			GatewayOrderID: remote.ID,
			Amount:         quote.Totals.Total.Round(2),
			AmountMinor:    remote.AmountMinor,
			Currency:       remote.Currency,
			KeyID:          h.gateway.KeyID(),
		},
	}, nil
}
