package commands_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/payment/razorpay"
)

func webhookBody(event, gatewayOrderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q,"error_description":"card declined"}}}}`,
		event, paymentID, gatewayOrderID,
	))
}

func signedWebhook(body []byte) commands.HandleWebhookCommand {
	return commands.HandleWebhookCommand{Body: body, Signature: razorpay.Sign(body, webhookSecret)}
}

func seedGatewayOrder(t *testing.T, h *harness, status domain.PaymentStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		CustomerID:     buyer.ID,
		TrackingNumber: "ORD1",
		TransactionID:  "order_gw_9",
		PaymentMethod:  domain.PaymentRazorpay,
		PaymentStatus:  status,
		Status:         domain.StatusPending,
	}
	require.NoError(t, h.store.Create(context.Background(), order))
	return order
}

func TestWebhookMarksOrderPaid(t *testing.T) {
	h := newHarness(t)
	order := seedGatewayOrder(t, h, domain.PaymentPending)

	result, err := h.webhook().Handle(context.Background(), signedWebhook(webhookBody("payment.captured", "order_gw_9", "pay_9")))
	require.NoError(t, err)
	assert.Equal(t, domain.LogApplied, result.Status)

	stored, err := h.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "pay_9", stored.PaymentID)

	logs := h.store.PaymentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "payment.captured", logs[0].Event)
	assert.Equal(t, "order_gw_9", logs[0].GatewayOrderID)
}

func TestWebhookPaymentFailed(t *testing.T) {
	h := newHarness(t)
	order := seedGatewayOrder(t, h, domain.PaymentPending)

	result, err := h.webhook().Handle(context.Background(), signedWebhook(webhookBody("payment.failed", "order_gw_9", "pay_9")))
	require.NoError(t, err)
	assert.Equal(t, domain.LogApplied, result.Status)
	assert.Equal(t, []string{"order_gw_9"}, h.bus.failed)

	stored, err := h.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, stored.PaymentStatus)
}

func TestWebhookNeverDowngradesPaidOrder(t *testing.T) {
	h := newHarness(t)
	order := seedGatewayOrder(t, h, domain.PaymentPaid)

	result, err := h.webhook().Handle(context.Background(), signedWebhook(webhookBody("payment.failed", "order_gw_9", "pay_9")))
	require.NoError(t, err)
	assert.Equal(t, domain.LogIgnored, result.Status)

	stored, err := h.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
}

func TestWebhookOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		cmd        commands.HandleWebhookCommand
		wantErr    error
		wantStatus string
	}{
		{
			name:       "invalid signature",
			cmd:        commands.HandleWebhookCommand{Body: webhookBody("payment.captured", "order_gw_9", "pay_9"), Signature: "deadbeef"},
			wantErr:    domain.ErrPaymentVerificationFailed,
			wantStatus: domain.LogInvalidSignature,
		},
		{
			name:       "malformed body",
			cmd:        signedWebhook([]byte(`not json`)),
			wantErr:    domain.ErrValidation,
			wantStatus: domain.LogParseError,
		},
		{
			name:       "unknown event",
			cmd:        signedWebhook(webhookBody("refund.created", "order_gw_9", "pay_9")),
			wantStatus: domain.LogIgnored,
		},
		{
			name:       "unknown order",
			cmd:        signedWebhook(webhookBody("order.paid", "order_gw_missing", "pay_9")),
			wantStatus: domain.LogIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.webhook().Handle(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			logs := h.store.PaymentLogs()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantStatus, logs[0].Status)
		})
	}
}
