package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/payment/razorpay"
)

func startRazorpayCheckout(t *testing.T, h *harness) string {
	t.Helper()
	h.fillCart(t, domain.Cart{1: 2, 2: 1}, "SAVE10")
	result, err := h.placeOrder().Handle(context.Background(), h.placeCmd("payment_razorpay"))
	require.NoError(t, err)
	return result.Payment.GatewayOrderID
}

func confirmCmd(gatewayOrderID, paymentID, secret string) commands.ConfirmPaymentCommand {
	return commands.ConfirmPaymentCommand{
		SessionID:      sessionID,
		Customer:       buyer,
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      razorpay.Sign([]byte(gatewayOrderID+"|"+paymentID), secret),
	}
}

func TestConfirmPaymentMaterializesPaidOrder(t *testing.T) {
	h := newHarness(t)
	gatewayOrderID := startRazorpayCheckout(t, h)
	ctx := context.Background()

	order, err := h.confirmPayment().Handle(ctx, confirmCmd(gatewayOrderID, "pay_1", keySecret))
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentRazorpay, order.PaymentMethod)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, gatewayOrderID, order.TransactionID)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, "22.50", order.GrandTotal.StringFixed(2))
	assert.Equal(t, int64(2250), domain.MinorUnits(order.GrandTotal))
	assert.Len(t, order.Lines, 2)
	assert.Len(t, h.bus.placed, 1)
	assert.Len(t, h.bus.captured, 1)

	coupon, err := h.store.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)

	session, err := h.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, session.Pending)
	assert.True(t, session.Cart.IsEmpty())

	logs := h.store.PaymentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogApplied, logs[0].Status)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t)
	gatewayOrderID := startRazorpayCheckout(t, h)
	ctx := context.Background()

	first, err := h.confirmPayment().Handle(ctx, confirmCmd(gatewayOrderID, "pay_1", keySecret))
	require.NoError(t, err)

	second, err := h.confirmPayment().Handle(ctx, confirmCmd(gatewayOrderID, "pay_1", keySecret))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, h.store.OrderCount())
	assert.Len(t, h.store.PaymentLogs(), 2)
}

func TestConfirmPaymentReplayHidesOtherCustomersOrder(t *testing.T) {
	h := newHarness(t)
	gatewayOrderID := startRazorpayCheckout(t, h)
	ctx := context.Background()

	_, err := h.confirmPayment().Handle(ctx, confirmCmd(gatewayOrderID, "pay_1", keySecret))
	require.NoError(t, err)

	replay := confirmCmd(gatewayOrderID, "pay_1", keySecret)
	replay.Customer = domain.Customer{ID: 99, Email: "other@example.com"}
	order, err := h.confirmPayment().Handle(ctx, replay)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Nil(t, order)

	replay.Customer = domain.Customer{ID: 50, Email: "ops@example.com", Staff: true}
	order, err = h.confirmPayment().Handle(ctx, replay)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, order.CustomerID)
	assert.Equal(t, 1, h.store.OrderCount())
	assert.Len(t, h.store.PaymentLogs(), 3)
}

func TestConfirmPaymentRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	gatewayOrderID := startRazorpayCheckout(t, h)
	ctx := context.Background()

	_, err := h.confirmPayment().Handle(ctx, confirmCmd(gatewayOrderID, "pay_1", "wrong-secret"))
	require.ErrorIs(t, err, domain.ErrPaymentVerificationFailed)
	assert.Equal(t, "invalid signature", err.Error())
	assert.Zero(t, h.store.OrderCount())

	logs := h.store.PaymentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogInvalidSignature, logs[0].Status)

	session, err := h.sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.NotNil(t, session.Pending, "pending checkout stays for a legitimate retry")
}

func TestConfirmPaymentRequiresMatchingPendingCheckout(t *testing.T) {
	h := newHarness(t)
	startRazorpayCheckout(t, h)

	_, err := h.confirmPayment().Handle(context.Background(), confirmCmd("order_other", "pay_1", keySecret))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, h.store.OrderCount())
}

func TestConfirmPaymentRequiresFields(t *testing.T) {
	h := newHarness(t)

	_, err := h.confirmPayment().Handle(context.Background(), commands.ConfirmPaymentCommand{SessionID: sessionID})
	require.ErrorIs(t, err, domain.ErrValidation)

	logs := h.store.PaymentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.LogParseError, logs[0].Status)
}
