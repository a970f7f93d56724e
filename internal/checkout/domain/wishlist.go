package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistPageSize is the number of saved products per wishlist page.
const WishlistPageSize = 6

// WishlistItem is a product a customer saved for later. A product appears at
// most once per customer.
type WishlistItem struct {
	CustomerID  int64           `json:"customer_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	AddedAt     time.Time       `json:"added_at"`
}
