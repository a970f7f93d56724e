package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

func TestCartAddAndView(t *testing.T) {
	h := newHarness(t)
	cart := h.cart()
	ctx := context.Background()

	_, err := cart.Add(ctx, sessionID, 1, 2)
	require.NoError(t, err)
	view, err := cart.Add(ctx, sessionID, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Quote.Totals.Subtotal.Equal(dec("25")))
	assert.True(t, view.Quote.Totals.Total.Equal(dec("25")))

	again, err := cart.View(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, view.Quote.Totals.Subtotal.String(), again.Quote.Totals.Subtotal.String())
}

func TestCartRejectedChangeKeepsStoredCart(t *testing.T) {
	h := newHarness(t)
	cart := h.cart()
	ctx := context.Background()

	_, err := cart.Add(ctx, sessionID, 1, 8)
	require.NoError(t, err)

	_, err = cart.Add(ctx, sessionID, 1, 3)
	require.ErrorIs(t, err, domain.ErrQuantityLimitExceeded)
	assert.Equal(t, "you can only add 2 more of this product to your cart", err.Error())

	view, err := cart.View(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 8, view.ItemCount)
}

func TestCartUnknownProduct(t *testing.T) {
	h := newHarness(t)

	_, err := h.cart().Add(context.Background(), sessionID, 404, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCartUpdateQuantity(t *testing.T) {
	h := newHarness(t)
	cart := h.cart()
	ctx := context.Background()

	_, err := cart.Add(ctx, sessionID, 1, 2)
	require.NoError(t, err)

	view, err := cart.UpdateQuantity(ctx, sessionID, 1, 1, "cart_quantity_up")
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)

	view, err = cart.UpdateQuantity(ctx, sessionID, 1, 2, "decrease")
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	_, err = cart.UpdateQuantity(ctx, sessionID, 1, 1, "decrease")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = cart.UpdateQuantity(ctx, sessionID, 2, 1, "increase")
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	_, err = cart.UpdateQuantity(ctx, sessionID, 1, 1, "sideways")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCartRemoveAndClear(t *testing.T) {
	h := newHarness(t)
	cart := h.cart()
	ctx := context.Background()

	_, err := cart.Add(ctx, sessionID, 1, 1)
	require.NoError(t, err)
	_, err = cart.Add(ctx, sessionID, 2, 1)
	require.NoError(t, err)

	view, err := cart.Remove(ctx, sessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)

	_, err = cart.Remove(ctx, sessionID, 1)
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	_, err = cart.ApplyCoupon(ctx, sessionID, "SAVE10")
	require.NoError(t, err)

	data, err := h.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	data.Pending = &domain.PendingCheckout{GatewayOrderID: "order_rzp_stale"}
	require.NoError(t, h.sessions.Save(ctx, sessionID, data))

	view, err = cart.Clear(ctx, sessionID)
	require.NoError(t, err)
	assert.Zero(t, view.ItemCount)
	assert.Nil(t, view.Coupon)

	data, err = h.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, data.Pending)
}

func TestCartApplyCoupon(t *testing.T) {
	h := newHarness(t)
	cart := h.cart()
	ctx := context.Background()

	_, err := cart.Add(ctx, sessionID, 101, 3)
	require.NoError(t, err)

	applied, err := cart.ApplyCoupon(ctx, sessionID, " SAVE10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", applied.Code)
	assert.Equal(t, "10", applied.DiscountPercent)
	assert.Equal(t, "3.00", applied.DiscountAmount)
	assert.Equal(t, "26.97", applied.Total)

	coupon, err := h.store.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Zero(t, coupon.UsedCount, "applying a coupon does not redeem it")

	for _, code := range []string{"", "NOPE", "OLD"} {
		_, err := cart.ApplyCoupon(ctx, sessionID, code)
		assert.Error(t, err, "code %q", code)
	}

	view, err := cart.RemoveCoupon(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, view.Coupon)
	assert.True(t, view.Quote.Totals.Total.Equal(dec("29.97")))
	assert.Equal(t, "29.97", view.Display.Total)
	assert.Equal(t, "0.00", view.Display.DiscountAmount)
}
