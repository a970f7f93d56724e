package queries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// OrdersPageSize is the number of orders per listing page.
const OrdersPageSize = 10

const dateLayout = "2006-01-02"

// ListOrdersQuery carries the order history filters as submitted.
type ListOrdersQuery struct {
	Customer       domain.Customer
	TrackingNumber string
	Status         string
	DateFrom       string
	DateTo         string
	Page           int
}

// ListOrdersQueryHandler executes ListOrdersQuery.
type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter, err := query.Filter()
	if err != nil {
		return nil, err
	}

	orders, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Filter converts the submitted values into a repository filter. Dates are
// whole days; DateTo includes the whole day.
func (q ListOrdersQuery) Filter() (ports.ListFilter, error) {
	customerID := q.Customer.ID
	filter := ports.ListFilter{
		CustomerID:     &customerID,
		TrackingNumber: strings.TrimSpace(q.TrackingNumber),
		Page:           q.Page,
		PageSize:       OrdersPageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	if q.Status != "" {
		status := domain.OrderStatus(q.Status)
		if !status.Valid() {
			return ports.ListFilter{}, domain.Errorf(domain.ErrValidation, "unknown order status %q", q.Status)
		}
		filter.Status = &status
	}

	from, err := parseDate("date_from", q.DateFrom)
	if err != nil {
		return ports.ListFilter{}, err
	}
	to, err := parseDate("date_to", q.DateTo)
	if err != nil {
		return ports.ListFilter{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return ports.ListFilter{}, domain.Errorf(domain.ErrValidation, "date_from cannot be after date_to")
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}
	filter.From = from
	filter.To = to

	return filter, nil
}

func parseDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "%s must be formatted as YYYY-MM-DD", field)
	}
	return &parsed, nil
}
