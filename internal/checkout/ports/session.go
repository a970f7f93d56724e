package ports

import (
	"context"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// SessionData is the per-browser state the checkout keeps between requests.
type SessionData struct {
	Cart    domain.Cart             `json:"cart"`
	Coupon  *domain.AppliedCoupon   `json:"applied_coupon,omitempty"`
	Pending *domain.PendingCheckout `json:"pending_checkout,omitempty"`
}

// SessionStore is ephemeral keyed state. Writes are last-write-wins.
type SessionStore interface {
	// Get returns empty data for an unknown session.
	Get(ctx context.Context, sessionID string) (*SessionData, error)
	Save(ctx context.Context, sessionID string, data *SessionData) error
	Delete(ctx context.Context, sessionID string) error
}
