package adapters

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/telemetry"
)

// ObservableRepository traces order repository calls and records their latency.
type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) observe(ctx context.Context, spanName, operation string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	return telemetry.Trace(ctx, spanName, func(ctx context.Context) error {
		start := time.Now()
		err := fn(ctx)
		r.metrics.RecordQuery(ctx, operation, queryOutcome(err), time.Since(start).Seconds())
		return err
	}, append(attrs, attribute.String("operation", operation))...)
}

func (r *ObservableRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.observe(ctx, "OrderRepository.Create", "create_order", func(ctx context.Context) error {
		return r.repo.Create(ctx, order)
	}, attribute.String("order.tracking_number", order.TrackingNumber))
}

func (r *ObservableRepository) AddLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	return r.observe(ctx, "OrderRepository.AddLines", "add_order_lines", func(ctx context.Context) error {
		return r.repo.AddLines(ctx, orderID, lines)
	}, attribute.Int64("order.id", orderID), attribute.Int("order.line_count", len(lines)))
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := r.observe(ctx, "OrderRepository.GetByID", "get_order_by_id", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByID(ctx, id)
		return err
	}, attribute.Int64("order.id", id))
	return order, err
}

func (r *ObservableRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	var order *domain.Order
	err := r.observe(ctx, "OrderRepository.GetByTransactionID", "get_order_by_transaction", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByTransactionID(ctx, transactionID)
		return err
	}, attribute.String("payment.gateway_order_id", transactionID))
	return order, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}

	var orders []domain.Order
	err := r.observe(ctx, "OrderRepository.List", "list_orders", func(ctx context.Context) error {
		var err error
		orders, err = r.repo.List(ctx, filter)
		return err
	}, attrs...)
	return orders, err
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	return r.observe(ctx, "OrderRepository.UpdateStatus", "update_order_status", func(ctx context.Context) error {
		return r.repo.UpdateStatus(ctx, id, status)
	}, attribute.Int64("order.id", id), attribute.String("order.new_status", string(status)))
}

func (r *ObservableRepository) UpdatePayment(ctx context.Context, id int64, status domain.PaymentStatus, paymentID string) error {
	return r.observe(ctx, "OrderRepository.UpdatePayment", "update_order_payment", func(ctx context.Context) error {
		return r.repo.UpdatePayment(ctx, id, status, paymentID)
	}, attribute.Int64("order.id", id), attribute.String("order.payment_status", string(status)))
}

func queryOutcome(err error) string {
	switch {
	case err == nil:
		return database.OutcomeOK
	case errors.Is(err, ports.ErrNotFound):
		return database.OutcomeNotFound
	default:
		return database.OutcomeError
	}
}

// ObservableUnitOfWork traces each transaction and the repositories used inside it.
type ObservableUnitOfWork struct {
	uow     ports.UnitOfWork
	metrics *database.Metrics
}

func NewObservableUnitOfWork(uow ports.UnitOfWork, metrics *database.Metrics) *ObservableUnitOfWork {
	return &ObservableUnitOfWork{uow: uow, metrics: metrics}
}

func (u *ObservableUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	return telemetry.Trace(ctx, "UnitOfWork.WithinTx", func(ctx context.Context) error {
		start := time.Now()
		err := u.uow.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			repos.Orders = NewObservableRepository(repos.Orders, u.metrics)
			return fn(ctx, repos)
		})
		u.metrics.RecordTransaction(ctx, err == nil, time.Since(start).Seconds())
		return err
	})
}
