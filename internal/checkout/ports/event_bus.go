package ports

import (
	"context"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
	PublishPaymentCaptured(ctx context.Context, order domain.Order) error
	PublishPaymentFailed(ctx context.Context, gatewayOrderID string, reason string) error
}
