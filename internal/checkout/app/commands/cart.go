package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// CartView is the priced session cart.
type CartView struct {
	Quote     domain.Quote          `json:"quote"`
	ItemCount int                   `json:"item_count"`
	Coupon    *domain.AppliedCoupon `json:"applied_coupon,omitempty"`
	Display   DisplayTotals         `json:"display"`
}

// DisplayTotals carries the quote totals rounded to two places for rendering.
type DisplayTotals struct {
	Subtotal       string `json:"sub_total_amount"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total_amount"`
}

// CouponApplied is returned after a coupon is accepted for the cart.
type CouponApplied struct {
	Code            string `json:"coupon_code"`
	DiscountPercent string `json:"discount_percent"`
	DiscountAmount  string `json:"discount_amount"`
	Total           string `json:"total_amount"`
}

// CartCommandHandler mutates the session cart. Each call loads the session,
// applies one change and saves it back.
type CartCommandHandler struct {
	sessions ports.SessionStore
	catalog  ports.Catalog
	coupons  ports.CouponRepository
	now      func() time.Time
}

func NewCartCommandHandler(sessions ports.SessionStore, catalog ports.Catalog, coupons ports.CouponRepository, now func() time.Time) *CartCommandHandler {
	return &CartCommandHandler{sessions: sessions, catalog: catalog, coupons: coupons, now: now}
}

func (h *CartCommandHandler) View(ctx context.Context, sessionID string) (*CartView, error) {
	data, err := h.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return h.view(ctx, data)
}

func (h *CartCommandHandler) Add(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, error) {
	return h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		product, err := h.product(ctx, productID)
		if err != nil {
			return err
		}
		return data.Cart.Add(*product, quantity)
	})
}

func (h *CartCommandHandler) UpdateQuantity(ctx context.Context, sessionID string, productID int64, delta int, operation string) (*CartView, error) {
	direction, err := domain.ParseDirection(operation)
	if err != nil {
		return nil, err
	}
	return h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		if _, ok := data.Cart[productID]; !ok {
			return domain.Errorf(domain.ErrCartItemNotFound, "product is not in your cart")
		}
		product, err := h.product(ctx, productID)
		if err != nil {
			return err
		}
		return data.Cart.UpdateQuantity(*product, delta, direction)
	})
}

func (h *CartCommandHandler) Remove(ctx context.Context, sessionID string, productID int64) (*CartView, error) {
	return h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		return data.Cart.Remove(productID)
	})
}

// Clear empties the cart and drops any applied coupon or pending checkout.
func (h *CartCommandHandler) Clear(ctx context.Context, sessionID string) (*CartView, error) {
	return h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		data.Cart = domain.Cart{}
		data.Coupon = nil
		data.Pending = nil
		return nil
	})
}

// ApplyCoupon replaces the applied coupon. Usage is only counted when an order is placed.
func (h *CartCommandHandler) ApplyCoupon(ctx context.Context, sessionID, code string) (*CouponApplied, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Errorf(domain.ErrValidation, "coupon code is required")
	}

	coupon, err := LookupCoupon(ctx, h.coupons, code, h.now())
	if err != nil {
		return nil, err
	}

	var view *CartView
	view, err = h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		snapshot := coupon.Snapshot()
		data.Coupon = &snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}

	totals := view.Quote.Totals
	return &CouponApplied{
		Code:            coupon.Code,
		DiscountPercent: totals.DiscountPercent.String(),
		DiscountAmount:  totals.DiscountAmount.StringFixed(2),
		Total:           totals.Total.StringFixed(2),
	}, nil
}

func (h *CartCommandHandler) RemoveCoupon(ctx context.Context, sessionID string) (*CartView, error) {
	return h.mutate(ctx, sessionID, func(data *ports.SessionData) error {
		data.Coupon = nil
		data.Pending = nil
		return nil
	})
}

func (h *CartCommandHandler) mutate(ctx context.Context, sessionID string, change func(*ports.SessionData) error) (*CartView, error) {
	data, err := h.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Work on a copy so a rejected change leaves the stored cart untouched.
	data.Cart = data.Cart.Clone()
	if err := change(data); err != nil {
		return nil, err
	}

	view, err := h.view(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, sessionID, data); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return view, nil
}

func (h *CartCommandHandler) load(ctx context.Context, sessionID string) (*ports.SessionData, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "session is required")
	}
	data, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data.Cart == nil {
		data.Cart = domain.Cart{}
	}
	return data, nil
}

func (h *CartCommandHandler) view(ctx context.Context, data *ports.SessionData) (*CartView, error) {
	quote, err := QuoteCart(ctx, h.catalog, data.Cart, data.Coupon)
	if err != nil {
		return nil, err
	}
	return &CartView{
		Quote:     quote,
		ItemCount: data.Cart.ItemCount(),
		Coupon:    data.Coupon,
		Display: DisplayTotals{
			Subtotal:       quote.Totals.Subtotal.StringFixed(2),
			DiscountAmount: quote.Totals.DiscountAmount.StringFixed(2),
			Total:          quote.Totals.Total.StringFixed(2),
		},
	}, nil
}

func (h *CartCommandHandler) product(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := h.catalog.GetProduct(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrProductNotFound, "product %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}
