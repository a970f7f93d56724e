package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// QuoteCart prices a cart with live catalog prices and the applied coupon snapshot.
func QuoteCart(ctx context.Context, catalog ports.Catalog, cart domain.Cart, coupon *domain.AppliedCoupon) (domain.Quote, error) {
	ids := make([]int64, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}

	products := map[int64]domain.Product{}
	if len(ids) > 0 {
		var err error
		products, err = catalog.GetProducts(ctx, ids)
		if err != nil {
			return domain.Quote{}, fmt.Errorf("load cart products: %w", err)
		}
	}

	return domain.PriceCart(cart, products, coupon)
}

// LookupCoupon resolves a code to a coupon usable at now.
func LookupCoupon(ctx context.Context, coupons ports.CouponRepository, code string, now time.Time) (*domain.Coupon, error) {
	coupon, err := coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrInvalidCoupon, "invalid coupon code")
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if err := coupon.Check(now); err != nil {
		return nil, err
	}
	return coupon, nil
}

func resolveAddress(ctx context.Context, addresses ports.AddressBook, customerID, id int64) (*domain.Address, error) {
	address, err := addresses.GetAddress(ctx, customerID, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrAddressNotFound, "address %d not found", id)
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return address, nil
}
