package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type OrderRepository struct {
	db querier
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: pool}
}

const orderColumns = `
	id, customer_id, customer_email, tracking_number, shipping_method,
	sub_total, discount_amount, grand_total, coupon_code, payment_method,
	payment_status, transaction_id, payment_id, status,
	billing_address_id, shipping_address_id, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			customer_id, customer_email, tracking_number, shipping_method,
			sub_total, discount_amount, grand_total, coupon_code, payment_method,
			payment_status, transaction_id, payment_id, status,
			billing_address_id, shipping_address_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		order.CustomerID,
		order.CustomerEmail,
		order.TrackingNumber,
		order.ShippingMethod,
		order.SubTotal,
		order.DiscountAmount,
		order.GrandTotal,
		nullableString(order.CouponCode),
		order.PaymentMethod,
		order.PaymentStatus,
		nullableString(order.TransactionID),
		nullableString(order.PaymentID),
		order.Status,
		nullableID(order.BillingAddressID),
		nullableID(order.ShippingAddressID),
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) AddLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_id, product_id, product_name, unit_price, quantity, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range lines {
		lines[i].OrderID = orderID
		err := r.db.QueryRow(ctx, query,
			orderID,
			nullableID(lines[i].ProductID),
			lines[i].ProductName,
			lines[i].UnitPrice,
			lines[i].Quantity,
			lines[i].Amount,
		).Scan(&lines[i].ID)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                     domain.Order
		coupon, txID, payID   *string
		billingID, shippingID *int64
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerEmail, &o.TrackingNumber, &o.ShippingMethod,
		&o.SubTotal, &o.DiscountAmount, &o.GrandTotal, &coupon, &o.PaymentMethod,
		&o.PaymentStatus, &txID, &payID, &o.Status,
		&billingID, &shippingID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.CouponCode = derefString(coupon)
	o.TransactionID = derefString(txID)
	o.PaymentID = derefString(payID)
	o.BillingAddressID = derefID(billingID)
	o.ShippingAddressID = derefID(shippingID)
	return &o, nil
}

func (r *OrderRepository) getOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where

	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	order.Lines, err = r.lines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *OrderRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.getOne(ctx, "transaction_id = $1", transactionID)
}

func (r *OrderRepository) lines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, amount
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			line      domain.OrderLine
			productID *int64
		)
		if err := rows.Scan(&line.ID, &line.OrderID, &productID, &line.ProductName,
			&line.UnitPrice, &line.Quantity, &line.Amount); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		line.ProductID = derefID(productID)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return lines, nil
}

// List returns order headers newest first. Lines are not loaded.
func (r *OrderRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::bigint IS NULL OR customer_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR tracking_number ILIKE '%' || $3 || '%')
		  AND ($4::timestamptz IS NULL OR created_at >= $4)
		  AND ($5::timestamptz IS NULL OR created_at < $5)
		ORDER BY created_at DESC, id DESC
		LIMIT $6 OFFSET $7
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.db.Query(ctx, query,
		filter.CustomerID,
		statusFilter,
		nullableString(filter.TrackingNumber),
		filter.From,
		filter.To,
		pageSize,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, id int64, status domain.PaymentStatus, paymentID string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, payment_id = COALESCE($2, payment_id), updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, status, nullableString(paymentID), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
