package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
)

// Store is an in-memory implementation of every checkout repository, useful
// for local development and tests.
type Store struct {
	mu          sync.RWMutex
	txMu        sync.Mutex
	products    map[int64]domain.Product
	addresses   map[int64]domain.Address
	coupons     map[string]domain.Coupon
	orders      map[int64]domain.Order
	lines       map[int64][]domain.OrderLine
	paymentLogs []domain.PaymentLog
	wishlists   map[int64]map[int64]time.Time
	nextOrderID int64
	nextLineID  int64
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		products:  make(map[int64]domain.Product),
		addresses: make(map[int64]domain.Address),
		coupons:   make(map[string]domain.Coupon),
		orders:    make(map[int64]domain.Order),
		lines:     make(map[int64][]domain.OrderLine),
		wishlists: make(map[int64]map[int64]time.Time),
	}
}

// SaveProduct inserts or replaces a catalog product.
func (s *Store) SaveProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SaveAddress inserts or replaces a customer address.
func (s *Store) SaveAddress(a domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses[a.ID] = a
}

// SaveCoupon inserts or replaces a coupon by code.
func (s *Store) SaveCoupon(c domain.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.Code] = c
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) GetAddress(_ context.Context, customerID, id int64) (*domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.addresses[id]
	if !ok || a.CustomerID != customerID {
		return nil, ports.ErrNotFound
	}
	return &a, nil
}

// ListAddresses returns the customer's active addresses ordered by id.
func (s *Store) ListAddresses(_ context.Context, customerID int64) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []domain.Address{}
	for _, a := range s.addresses {
		if a.CustomerID == customerID && a.Active {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coupons[code]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &c, nil
}

func (s *Store) IncrementUsage(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok {
		return ports.ErrNotFound
	}
	c.UsedCount++
	s.coupons[code] = c
	return nil
}

func (s *Store) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.TrackingNumber == order.TrackingNumber {
			return domain.Errorf(domain.ErrValidation, "duplicate tracking number %s", order.TrackingNumber)
		}
		if order.TransactionID != "" && existing.TransactionID == order.TransactionID {
			return domain.Errorf(domain.ErrValidation, "duplicate transaction id %s", order.TransactionID)
		}
	}

	s.nextOrderID++
	order.ID = s.nextOrderID
	stored := *order
	stored.Lines = nil
	s.orders[order.ID] = stored
	return nil
}

func (s *Store) AddLines(_ context.Context, orderID int64, lines []domain.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[orderID]; !ok {
		return ports.ErrNotFound
	}
	for i := range lines {
		s.nextLineID++
		lines[i].ID = s.nextLineID
		lines[i].OrderID = orderID
		s.lines[orderID] = append(s.lines[orderID], lines[i])
	}
	return nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	order.Lines = append([]domain.OrderLine(nil), s.lines[id]...)
	return &order, nil
}

func (s *Store) GetByTransactionID(_ context.Context, transactionID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, order := range s.orders {
		if transactionID != "" && order.TransactionID == transactionID {
			order.Lines = append([]domain.OrderLine(nil), s.lines[id]...)
			return &order, nil
		}
	}
	return nil, ports.ErrNotFound
}

// List returns orders newest first. Pagination is 1-based.
func (s *Store) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Order
	for _, order := range s.orders {
		if filter.CustomerID != nil && order.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.TrackingNumber != "" && !strings.Contains(strings.ToUpper(order.TrackingNumber), strings.ToUpper(filter.TrackingNumber)) {
			continue
		}
		if filter.From != nil && order.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !order.CreatedAt.Before(*filter.To) {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}
	end := min(start+pageSize, len(result))

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])
	return slice, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	return nil
}

func (s *Store) UpdatePayment(_ context.Context, id int64, status domain.PaymentStatus, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	order.PaymentStatus = status
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	order.UpdatedAt = time.Now().UTC()
	s.orders[id] = order
	return nil
}

func (s *Store) Append(_ context.Context, entry domain.PaymentLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = int64(len(s.paymentLogs) + 1)
	s.paymentLogs = append(s.paymentLogs, entry)
	return nil
}

// PaymentLogs returns a copy of the audit trail.
func (s *Store) PaymentLogs() []domain.PaymentLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PaymentLog(nil), s.paymentLogs...)
}

// OrderCount reports how many orders are stored.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// WithinTx serializes transactions and restores the previous order, line and
// coupon state when fn fails.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, ports.TxRepositories{Orders: s, Coupons: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	coupons     map[string]domain.Coupon
	orders      map[int64]domain.Order
	lines       map[int64][]domain.OrderLine
	nextOrderID int64
	nextLineID  int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		coupons:     make(map[string]domain.Coupon, len(s.coupons)),
		orders:      make(map[int64]domain.Order, len(s.orders)),
		lines:       make(map[int64][]domain.OrderLine, len(s.lines)),
		nextOrderID: s.nextOrderID,
		nextLineID:  s.nextLineID,
	}
	for k, v := range s.coupons {
		snap.coupons[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = append([]domain.OrderLine(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = snap.coupons
	s.orders = snap.orders
	s.lines = snap.lines
	s.nextOrderID = snap.nextOrderID
	s.nextLineID = snap.nextLineID
}
