package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type UpdateOrderStatusCommand struct {
	Actor   domain.Customer
	OrderID int64
	Status  string
}

func (c UpdateOrderStatusCommand) Validate() error {
	if !c.Actor.Staff {
		return domain.Errorf(domain.ErrForbidden, "only staff can change order status")
	}
	if c.OrderID <= 0 {
		return domain.Errorf(domain.ErrValidation, "order id is required")
	}
	if !domain.OrderStatus(c.Status).Valid() {
		return domain.Errorf(domain.ErrValidation, "unknown order status %q", c.Status)
	}
	return nil
}

type UpdateOrderStatusCommandHandler struct {
	orders ports.OrderRepository
	now    func() time.Time
}

func NewUpdateOrderStatusCommandHandler(orders ports.OrderRepository, now func() time.Time) *UpdateOrderStatusCommandHandler {
	return &UpdateOrderStatusCommandHandler{orders: orders, now: now}
}

// Handle moves an order forward through its fulfilment lifecycle.
func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.orders.GetByID(ctx, cmd.OrderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrOrderNotFound, "order %d not found", cmd.OrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	next := domain.OrderStatus(cmd.Status)
	if !order.Status.CanTransitionTo(next) {
		return nil, domain.Errorf(domain.ErrValidation, "cannot move order from %s to %s", order.Status, next)
	}

	if err := h.orders.UpdateStatus(ctx, order.ID, next); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order.Status = next
	order.UpdatedAt = h.now()
	return order, nil
}
