package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the fulfilment lifecycle of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo allows only forward moves along pending → processing → shipped → delivered.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// PaymentStatus tracks settlement of an order's payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentMethod is the buyer's choice at checkout.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "payment_cash"
	PaymentRazorpay PaymentMethod = "payment_razorpay"
)

// ParsePaymentMethod validates the checkout payment selector.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	switch PaymentMethod(value) {
	case PaymentCash, PaymentRazorpay:
		return PaymentMethod(value), nil
	default:
		return "", Errorf(ErrValidation, "unsupported payment method %q", value)
	}
}

// ShippingMethod is the three-letter shipping code embedded in tracking numbers.
type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "STD"
	ShippingExpress   ShippingMethod = "EXP"
	ShippingOvernight ShippingMethod = "OVN"
	ShippingPickup    ShippingMethod = "PUP"
)

// ParseShippingMethod defaults to standard shipping when value is empty.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	if value == "" {
		return ShippingStandard, nil
	}
	switch m := ShippingMethod(strings.ToUpper(value)); m {
	case ShippingStandard, ShippingExpress, ShippingOvernight, ShippingPickup:
		return m, nil
	default:
		return "", Errorf(ErrValidation, "unsupported shipping method %q", value)
	}
}

// Order is a persisted purchase. Core fields are fixed at creation; only
// Status and the payment fields change afterwards.
type Order struct {
	ID                int64           `json:"id"`
	CustomerID        int64           `json:"customer_id"`
	CustomerEmail     string          `json:"customer_email"`
	TrackingNumber    string          `json:"tracking_number"`
	ShippingMethod    ShippingMethod  `json:"shipping_method"`
	SubTotal          decimal.Decimal `json:"sub_total"`
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	TransactionID     string          `json:"transaction_id,omitempty"`
	PaymentID         string          `json:"payment_id,omitempty"`
	Status            OrderStatus     `json:"status"`
	BillingAddressID  int64           `json:"billing_address_id"`
	ShippingAddressID int64           `json:"shipping_address_id"`
	Lines             []OrderLine     `json:"lines,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderLine snapshots one product at order time. Amount is pre-discount.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// LinesSubTotal sums the persisted line amounts.
func (o Order) LinesSubTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range o.Lines {
		sum = sum.Add(line.Amount)
	}
	return sum
}

// NewOrderLines converts quote lines into order lines.
func NewOrderLines(lines []QuoteLine) []OrderLine {
	out := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Amount:      line.Amount,
		})
	}
	return out
}

// TrackingNumber builds the human-readable order reference:
// "ORD" + UTC timestamp to the second + shipping code + random suffix.
func TrackingNumber(now time.Time, method ShippingMethod, suffix string) string {
	return "ORD" + now.UTC().Format("20060102150405") + string(method) + strings.ToUpper(suffix)
}

// MinorUnits converts an amount to the gateway's integer minor currency units.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
