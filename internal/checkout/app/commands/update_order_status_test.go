package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/storefront/internal/checkout/app/commands"
	"github.com/dejobratic/storefront/internal/checkout/domain"
)

func TestUpdateOrderStatus(t *testing.T) {
	h := newHarness(t)
	order := seedGatewayOrder(t, h, domain.PaymentPaid)
	handler := commands.NewUpdateOrderStatusCommandHandler(h.store, h.now)
	staff := domain.Customer{ID: 1, Staff: true}
	ctx := context.Background()

	updated, err := handler.Handle(ctx, commands.UpdateOrderStatusCommand{Actor: staff, OrderID: order.ID, Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, updated.Status)

	tests := []struct {
		name    string
		cmd     commands.UpdateOrderStatusCommand
		wantErr error
	}{
		{"customer cannot update", commands.UpdateOrderStatusCommand{Actor: buyer, OrderID: order.ID, Status: "delivered"}, domain.ErrForbidden},
		{"backwards", commands.UpdateOrderStatusCommand{Actor: staff, OrderID: order.ID, Status: "processing"}, domain.ErrValidation},
		{"same status", commands.UpdateOrderStatusCommand{Actor: staff, OrderID: order.ID, Status: "shipped"}, domain.ErrValidation},
		{"unknown status", commands.UpdateOrderStatusCommand{Actor: staff, OrderID: order.ID, Status: "lost"}, domain.ErrValidation},
		{"missing order", commands.UpdateOrderStatusCommand{Actor: staff, OrderID: 999, Status: "delivered"}, domain.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
