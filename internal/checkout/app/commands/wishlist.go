package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// WishlistChange reports the outcome of adding a product to a wishlist.
type WishlistChange struct {
	Added     bool `json:"added"`
	ItemCount int  `json:"wishlist_item_count"`
}

// WishlistCommandHandler mutates a customer's saved products.
type WishlistCommandHandler struct {
	catalog  ports.Catalog
	wishlist ports.WishlistRepository
	now      func() time.Time
}

func NewWishlistCommandHandler(catalog ports.Catalog, wishlist ports.WishlistRepository, now func() time.Time) *WishlistCommandHandler {
	return &WishlistCommandHandler{catalog: catalog, wishlist: wishlist, now: now}
}

// Add saves an active product. Saving a product twice is not an error.
func (h *WishlistCommandHandler) Add(ctx context.Context, customer domain.Customer, productID int64) (*WishlistChange, error) {
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrProductNotFound, "invalid product id")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.Active {
		return nil, domain.Errorf(domain.ErrProductNotFound, "invalid product id")
	}

	added, err := h.wishlist.AddWishlistItem(ctx, customer.ID, productID, h.now())
	if err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}

	_, count, err := h.wishlist.ListWishlist(ctx, customer.ID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("count wishlist: %w", err)
	}
	return &WishlistChange{Added: added, ItemCount: count}, nil
}

func (h *WishlistCommandHandler) Remove(ctx context.Context, customer domain.Customer, productID int64) error {
	err := h.wishlist.RemoveWishlistItem(ctx, customer.ID, productID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return domain.Errorf(domain.ErrWishlistItemNotFound, "item not found in wishlist")
	case err != nil:
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (h *WishlistCommandHandler) Clear(ctx context.Context, customer domain.Customer) error {
	if err := h.wishlist.ClearWishlist(ctx, customer.ID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
