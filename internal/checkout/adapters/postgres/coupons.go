package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type CouponRepository struct {
	db querier
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{db: pool}
}

func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, name, description, discount_percent, is_active, used_count, starts_at, ends_at
		FROM coupons
		WHERE code = $1
	`

	var c domain.Coupon
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Name, &c.Description, &c.Percent,
		&c.Active, &c.UsedCount, &c.StartsAt, &c.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select coupon: %w", err)
	}
	return &c, nil
}

// IncrementUsage bumps used_count in a single statement so concurrent
// redemptions are never lost.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	result, err := r.db.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
