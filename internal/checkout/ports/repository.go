package ports

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
)

// Catalog is the read-only product lookup.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}

// AddressBook resolves a customer's saved addresses.
type AddressBook interface {
	GetAddress(ctx context.Context, customerID, id int64) (*domain.Address, error)
	ListAddresses(ctx context.Context, customerID int64) ([]domain.Address, error)
}

// CouponRepository reads coupons and counts redemptions.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUsage bumps the usage counter atomically.
	IncrementUsage(ctx context.Context, code string) error
}

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	// Create inserts the order header and sets its ID.
	Create(ctx context.Context, order *domain.Order) error
	// AddLines inserts the lines of an order and sets their IDs.
	AddLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	UpdatePayment(ctx context.Context, id int64, status domain.PaymentStatus, paymentID string) error
}

// WishlistRepository stores each customer's saved products.
type WishlistRepository interface {
	// AddWishlistItem saves productID for the customer and reports whether it was new.
	AddWishlistItem(ctx context.Context, customerID, productID int64, at time.Time) (bool, error)
	// RemoveWishlistItem returns ErrNotFound when the product was not saved.
	RemoveWishlistItem(ctx context.Context, customerID, productID int64) error
	ClearWishlist(ctx context.Context, customerID int64) error
	// ListWishlist returns one page, newest first, and the customer's total item count.
	ListWishlist(ctx context.Context, customerID int64, limit, offset int) ([]domain.WishlistItem, int, error)
}

// PaymentLogRepository is the append-only gateway audit trail.
type PaymentLogRepository interface {
	Append(ctx context.Context, entry domain.PaymentLog) error
}

// TxRepositories are the repositories bound to a single transaction.
type TxRepositories struct {
	Orders  OrderRepository
	Coupons CouponRepository
}

// UnitOfWork runs fn in one transaction; any error returned by fn rolls everything back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

// ListFilter narrows order queries.
type ListFilter struct {
	CustomerID     *int64
	TrackingNumber string
	Status         *domain.OrderStatus
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)
