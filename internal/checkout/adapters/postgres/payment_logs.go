package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

type PaymentLogRepository struct {
	db querier
}

func NewPaymentLogRepository(pool *pgxpool.Pool) *PaymentLogRepository {
	return &PaymentLogRepository{db: pool}
}

func (r *PaymentLogRepository) Append(ctx context.Context, entry domain.PaymentLog) error {
	query := `
		INSERT INTO payment_logs (gateway_order_id, payment_id, event, status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		entry.GatewayOrderID,
		entry.PaymentID,
		entry.Event,
		entry.Status,
		entry.Payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment log: %w", err)
	}
	return nil
}
