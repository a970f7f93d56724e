package ports

import (
	"context"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// Notification templates.
const (
	TemplateOrderConfirmation = "Order Confirmation"
	TemplateAdminOrder        = "Admin Order Notification"
)

// OrderNotification is the rendered-template context sent for a placed order.
type OrderNotification struct {
	Template        string             `json:"template"`
	Recipient       string             `json:"recipient"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	OrderNumber     string             `json:"order_number"`
	OrderDate       time.Time          `json:"order_date"`
	OrderTotal      string             `json:"order_total"`
	DiscountAmount  string             `json:"discount_amount"`
	CouponCode      string             `json:"coupon_code,omitempty"`
	Items           []NotificationItem `json:"products"`
	BillingAddress  *domain.Address    `json:"billing_address,omitempty"`
	ShippingAddress *domain.Address    `json:"shipping_address,omitempty"`
}

// NotificationItem is one rendered order line.
type NotificationItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Notifier dispatches order emails. Delivery is fire-and-forget for callers.
type Notifier interface {
	NotifyCustomer(ctx context.Context, n OrderNotification) error
	NotifyOperations(ctx context.Context, n OrderNotification) error
}
