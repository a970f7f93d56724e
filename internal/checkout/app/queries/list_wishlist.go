package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

type ListWishlistQuery struct {
	Customer domain.Customer
	Page     int
}

// WishlistPage is one page of saved products.
type WishlistPage struct {
	Items      []domain.WishlistItem `json:"items"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
	ItemCount  int                   `json:"wishlist_item_count"`
}

type ListWishlistQueryHandler struct {
	repo ports.WishlistRepository
}

func NewListWishlistQueryHandler(repo ports.WishlistRepository) *ListWishlistQueryHandler {
	return &ListWishlistQueryHandler{repo: repo}
}

// Handle returns the requested page. Pages below one read the first page and
// pages past the end read the last one.
func (h *ListWishlistQueryHandler) Handle(ctx context.Context, query ListWishlistQuery) (*WishlistPage, error) {
	page := max(query.Page, 1)

	items, total, err := h.repo.ListWishlist(ctx, query.Customer.ID, domain.WishlistPageSize, (page-1)*domain.WishlistPageSize)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}

	totalPages := max((total+domain.WishlistPageSize-1)/domain.WishlistPageSize, 1)
	if page > totalPages {
		page = totalPages
		items, total, err = h.repo.ListWishlist(ctx, query.Customer.ID, domain.WishlistPageSize, (page-1)*domain.WishlistPageSize)
		if err != nil {
			return nil, fmt.Errorf("list wishlist: %w", err)
		}
	}

	return &WishlistPage{Items: items, Page: page, TotalPages: totalPages, ItemCount: total}, nil
}
