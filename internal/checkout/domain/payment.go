package domain

import "time"

// Payment log statuses.
const (
	LogReceived         = "received"
	LogVerified         = "verified"
	LogInvalidSignature = "invalid_signature"
	LogParseError       = "parse_error"
	LogApplied          = "applied"
	LogIgnored          = "ignored"
)

// PaymentLog is an append-only audit record of one gateway delivery.
type PaymentLog struct {
	ID             int64     `json:"id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	PaymentID      string    `json:"payment_id"`
	Event          string    `json:"event"`
	Status         string    `json:"status"`
	Payload        string    `json:"payload"`
	CreatedAt      time.Time `json:"created_at"`
}

// GatewayOrder is the remote payment order the client completes.
type GatewayOrder struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// PendingCheckout is held in the session between gateway order creation and
// payment confirmation. It freezes the priced cart so the materialized order
// matches the amount the customer paid.
type PendingCheckout struct {
	GatewayOrderID    string         `json:"gateway_order_id"`
	Quote             Quote          `json:"quote"`
	BillingAddressID  int64          `json:"billing_address_id"`
	ShippingAddressID int64          `json:"shipping_address_id"`
	ShippingMethod    ShippingMethod `json:"shipping_method"`
	AmountMinor       int64          `json:"amount_minor"`
	Currency          string         `json:"currency"`
	CreatedAt         time.Time      `json:"created_at"`
}
