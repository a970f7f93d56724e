package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// GetOrderQuery represents a request to retrieve one of the customer's orders.
type GetOrderQuery struct {
	OrderID  int64
	Customer domain.Customer
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if q.OrderID <= 0 {
		return domain.Errorf(domain.ErrValidation, "order id is required")
	}
	return nil
}

// OrderDetail is an order with the amounts shown on the order page.
type OrderDetail struct {
	Order    *domain.Order   `json:"order"`
	SubTotal decimal.Decimal `json:"sub_total"`
	Discount decimal.Decimal `json:"discount"`
}

// GetOrderQueryHandler executes GetOrderQuery.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle loads the order with its lines. Orders of other customers are
// reported as not found unless the caller is staff.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*OrderDetail, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrOrderNotFound, "order %d not found", query.OrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.CustomerID != query.Customer.ID && !query.Customer.Staff {
		return nil, domain.Errorf(domain.ErrOrderNotFound, "order %d not found", query.OrderID)
	}

	subTotal := order.LinesSubTotal()
	return &OrderDetail{
		Order:    order,
		SubTotal: subTotal,
		Discount: subTotal.Sub(order.GrandTotal),
	}, nil
}
