package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// IdempotencyStore persists place-order responses keyed by Idempotency-Key.
type IdempotencyStore struct {
	db querier
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: pool}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id
		FROM idempotency_keys
		WHERE key = $1
	`

	var resp ports.StoredResponse
	err := s.db.QueryRow(ctx, query, key).Scan(&resp.StatusCode, &resp.Body, &resp.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}
	return &resp, nil
}

// Save keeps the first response stored for a key.
func (s *IdempotencyStore) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, query, key, response.StatusCode, response.Body, response.OrderID); err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	return nil
}
