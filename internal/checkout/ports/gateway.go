package ports

import (
	"context"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// PaymentGateway is the remote payment processor.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*domain.GatewayOrder, error)
	VerifyPaymentSignature(gatewayOrderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	KeyID() string
}
