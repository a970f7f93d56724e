package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type WishlistRepository struct {
	db querier
}

func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{db: pool}
}

// AddWishlistItem relies on the (customer_id, product_id) unique key so
// concurrent adds of the same product store one row.
func (r *WishlistRepository) AddWishlistItem(ctx context.Context, customerID, productID int64, at time.Time) (bool, error) {
	query := `
		INSERT INTO wishlist_items (customer_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, product_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, customerID, productID, at)
	if err != nil {
		return false, fmt.Errorf("insert wishlist item: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *WishlistRepository) RemoveWishlistItem(ctx context.Context, customerID, productID int64) error {
	query := `DELETE FROM wishlist_items WHERE customer_id = $1 AND product_id = $2`

	tag, err := r.db.Exec(ctx, query, customerID, productID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *WishlistRepository) ClearWishlist(ctx context.Context, customerID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM wishlist_items WHERE customer_id = $1`, customerID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}

func (r *WishlistRepository) ListWishlist(ctx context.Context, customerID int64, limit, offset int) ([]domain.WishlistItem, int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wishlist_items WHERE customer_id = $1`, customerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count wishlist items: %w", err)
	}

	query := `
		SELECT w.customer_id, w.product_id, p.name, p.price, p.is_active, w.added_at
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.customer_id = $1
		ORDER BY w.added_at DESC, w.product_id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query wishlist items: %w", err)
	}
	defer rows.Close()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.CustomerID, &item.ProductID, &item.ProductName, &item.Price, &item.Active, &item.AddedAt); err != nil {
			return nil, 0, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate wishlist items: %w", err)
	}
	return items, total, nil
}
