package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

func (s *Store) AddWishlistItem(_ context.Context, customerID, productID int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, ok := s.wishlists[customerID]
	if !ok {
		saved = make(map[int64]time.Time)
		s.wishlists[customerID] = saved
	}
	if _, exists := saved[productID]; exists {
		return false, nil
	}
	saved[productID] = at
	return true, nil
}

func (s *Store) RemoveWishlistItem(_ context.Context, customerID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wishlists[customerID][productID]; !ok {
		return ports.ErrNotFound
	}
	delete(s.wishlists[customerID], productID)
	return nil
}

func (s *Store) ClearWishlist(_ context.Context, customerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wishlists, customerID)
	return nil
}

// ListWishlist joins saved products with the catalog, newest first.
func (s *Store) ListWishlist(_ context.Context, customerID int64, limit, offset int) ([]domain.WishlistItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.WishlistItem, 0, len(s.wishlists[customerID]))
	for productID, addedAt := range s.wishlists[customerID] {
		item := domain.WishlistItem{CustomerID: customerID, ProductID: productID, AddedAt: addedAt}
		if p, ok := s.products[productID]; ok {
			item.ProductName = p.Name
			item.Price = p.Price
			item.Active = p.Active
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.After(items[j].AddedAt)
		}
		return items[i].ProductID > items[j].ProductID
	})

	total := len(items)
	if offset >= total {
		return []domain.WishlistItem{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return items[offset:end], total, nil
}
