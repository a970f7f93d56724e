//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dejobratic/storefront/internal/checkout/adapters/postgres"
	"github.com/dejobratic/storefront/internal/checkout/domain"
	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/database"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	require.NoError(t, err, "failed to start postgres container")

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationsPath := filepath.Join(findProjectRoot(t), "migrations")
	_, err = database.RunMigrations(connStr, migrationsPath)
	require.NoError(t, err)

	pool, err := database.NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

type fixture struct {
	productA, productB int64
	addressID          int64
	customerID         int64
}

func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{customerID: 7}

	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock) VALUES ('Mug', 10.00, 50) RETURNING id`).Scan(&f.productA))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock, is_active) VALUES ('Spoon', 5.00, 3, FALSE) RETURNING id`).Scan(&f.productB))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO addresses (customer_id, country, state, city, pincode, street_address, phone_number)
		VALUES ($1, 'IN', 'KA', 'Bengaluru', '560001', '1 MG Road', '+910000000000')
		RETURNING id`, f.customerID).Scan(&f.addressID))

	_, err := pool.Exec(ctx, `
		INSERT INTO coupons (code, discount_percent, starts_at, ends_at)
		VALUES ('SAVE10', 10, NOW() - INTERVAL '1 day', NOW() + INTERVAL '1 day')`)
	require.NoError(t, err)

	return f
}

func newOrder(f fixture, tracking, transactionID string, createdAt time.Time) *domain.Order {
	return &domain.Order{
		CustomerID:        f.customerID,
		CustomerEmail:     "buyer@example.com",
		TrackingNumber:    tracking,
		ShippingMethod:    domain.ShippingStandard,
		SubTotal:          decimal.RequireFromString("25"),
		DiscountAmount:    decimal.RequireFromString("2.5"),
		GrandTotal:        decimal.RequireFromString("22.50"),
		CouponCode:        "SAVE10",
		PaymentMethod:     domain.PaymentRazorpay,
		PaymentStatus:     domain.PaymentPaid,
		TransactionID:     transactionID,
		Status:            domain.StatusPending,
		BillingAddressID:  f.addressID,
		ShippingAddressID: f.addressID,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
}

func TestCatalogRepository(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	repo := postgres.NewCatalogRepository(pool)
	ctx := context.Background()

	product, err := repo.GetProduct(ctx, f.productA)
	require.NoError(t, err)
	assert.Equal(t, "Mug", product.Name)
	assert.True(t, product.Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, product.Active)

	products, err := repo.GetProducts(ctx, []int64{f.productA, f.productB, 9999})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.False(t, products[f.productB].Active)

	_, err = repo.GetProduct(ctx, 9999)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	address, err := repo.GetAddress(ctx, f.customerID, f.addressID)
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", address.City)
	assert.Empty(t, address.ApartmentNumber)

	_, err = repo.GetAddress(ctx, f.customerID+1, f.addressID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	addresses, err := repo.ListAddresses(ctx, f.customerID)
	require.NoError(t, err)
	assert.Len(t, addresses, 1)
}

func TestUnitOfWorkCommitsOrderLinesAndCouponUsage(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	uow := postgres.NewUnitOfWork(pool)
	orders := postgres.NewOrderRepository(pool)
	coupons := postgres.NewCouponRepository(pool)
	ctx := context.Background()

	order := newOrder(f, "ORD20260101000000STDAAAAAA", "order_gw_1", time.Now().UTC())
	lines := []domain.OrderLine{{
		ProductID:   f.productA,
		ProductName: "Mug",
		UnitPrice:   decimal.NewFromInt(10),
		Quantity:    2,
		Amount:      decimal.NewFromInt(20),
	}}

	err := uow.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.Orders.AddLines(ctx, order.ID, lines); err != nil {
			return err
		}
		return repos.Coupons.IncrementUsage(ctx, order.CouponCode)
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)
	assert.NotZero(t, lines[0].ID)

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TrackingNumber, stored.TrackingNumber)
	assert.True(t, stored.GrandTotal.Equal(decimal.RequireFromString("22.50")))
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, 2, stored.Lines[0].Quantity)

	byTx, err := orders.GetByTransactionID(ctx, "order_gw_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byTx.ID)

	coupon, err := coupons.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	uow := postgres.NewUnitOfWork(pool)
	orders := postgres.NewOrderRepository(pool)
	coupons := postgres.NewCouponRepository(pool)
	ctx := context.Background()

	boom := errors.New("line insert failed")
	order := newOrder(f, "ORD20260101000000STDBBBBBB", "", time.Now().UTC())

	err := uow.WithinTx(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.Coupons.IncrementUsage(ctx, "SAVE10"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = orders.GetByID(ctx, order.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	coupon, err := coupons.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 0, coupon.UsedCount)
}

func TestOrderRepositoryRejectsDuplicateTransaction(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	orders := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	require.NoError(t, orders.Create(ctx, newOrder(f, "ORD1", "order_gw_dup", time.Now().UTC())))
	assert.Error(t, orders.Create(ctx, newOrder(f, "ORD2", "order_gw_dup", time.Now().UTC())))
}

func TestOrderRepositoryKeepsExactDiscount(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	orders := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	order := newOrder(f, "ORDEXACT", "order_gw_exact", time.Now().UTC())
	order.SubTotal = decimal.RequireFromString("9.99")
	order.DiscountAmount = decimal.RequireFromString("1.232766")
	order.GrandTotal = decimal.RequireFromString("8.76")
	require.NoError(t, orders.Create(ctx, order))

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.DiscountAmount.Equal(order.DiscountAmount), "discount %s", stored.DiscountAmount)
	assert.True(t, stored.SubTotal.Equal(order.SubTotal))
}

func TestOrderRepositoryListFilters(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	orders := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, tracking := range []string{"ORDAAA", "ORDBBB", "ORDCCC"} {
		require.NoError(t, orders.Create(ctx, newOrder(f, tracking, "", base.AddDate(0, 0, i))))
	}

	customerID := f.customerID
	all, err := orders.List(ctx, ports.ListFilter{CustomerID: &customerID, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ORDCCC", all[0].TrackingNumber)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, err := orders.List(ctx, ports.ListFilter{CustomerID: &customerID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "ORDBBB", ranged[0].TrackingNumber)

	byTracking, err := orders.List(ctx, ports.ListFilter{CustomerID: &customerID, TrackingNumber: "aaa"})
	require.NoError(t, err)
	require.Len(t, byTracking, 1)

	other := customerID + 1
	none, err := orders.List(ctx, ports.ListFilter{CustomerID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)

	paged, err := orders.List(ctx, ports.ListFilter{CustomerID: &customerID, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestOrderRepositoryUpdates(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	orders := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	order := newOrder(f, "ORDUPD", "order_gw_upd", time.Now().UTC())
	order.PaymentStatus = domain.PaymentPending
	require.NoError(t, orders.Create(ctx, order))

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, domain.StatusShipped))
	require.NoError(t, orders.UpdatePayment(ctx, order.ID, domain.PaymentPaid, "pay_1"))
	require.NoError(t, orders.UpdatePayment(ctx, order.ID, domain.PaymentPaid, ""))

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, stored.Status)
	assert.Equal(t, domain.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "pay_1", stored.PaymentID)

	assert.ErrorIs(t, orders.UpdateStatus(ctx, 9999, domain.StatusShipped), ports.ErrNotFound)
}

func TestWishlistRepository(t *testing.T) {
	pool := setupTestDB(t)
	f := seed(t, pool)
	wishlist := postgres.NewWishlistRepository(pool)
	ctx := context.Background()
	now := time.Now().UTC()

	added, err := wishlist.AddWishlistItem(ctx, f.customerID, f.productA, now)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = wishlist.AddWishlistItem(ctx, f.customerID, f.productA, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, added)
	added, err = wishlist.AddWishlistItem(ctx, f.customerID, f.productB, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, added)

	items, total, err := wishlist.ListWishlist(ctx, f.customerID, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, f.productB, items[0].ProductID)
	assert.Equal(t, "Spoon", items[0].ProductName)
	assert.False(t, items[0].Active)

	require.NoError(t, wishlist.RemoveWishlistItem(ctx, f.customerID, f.productB))
	assert.ErrorIs(t, wishlist.RemoveWishlistItem(ctx, f.customerID, f.productB), ports.ErrNotFound)

	require.NoError(t, wishlist.ClearWishlist(ctx, f.customerID))
	_, total, err = wishlist.ListWishlist(ctx, f.customerID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPaymentLogAndIdempotencyStores(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	logs := postgres.NewPaymentLogRepository(pool)
	require.NoError(t, logs.Append(ctx, domain.PaymentLog{
		GatewayOrderID: "order_gw_1",
		Event:          "payment.captured",
		Status:         domain.LogApplied,
		Payload:        `{"event":"payment.captured"}`,
		CreatedAt:      time.Now().UTC(),
	}))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_logs`).Scan(&count))
	assert.Equal(t, 1, count)

	idem := postgres.NewIdempotencyStore(pool)
	missing, err := idem.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, idem.Save(ctx, "7:key-1", ports.StoredResponse{StatusCode: 201, Body: []byte(`{"a":1}`), OrderID: "1"}))
	require.NoError(t, idem.Save(ctx, "7:key-1", ports.StoredResponse{StatusCode: 500, Body: []byte(`{}`)}))

	stored, err := idem.Get(ctx, "7:key-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.StatusCode)
	assert.Equal(t, "1", stored.OrderID)
}

func TestCheckHealthAfterMigrations(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CheckHealth(ctx, pool))

	_, err := pool.Exec(ctx, `UPDATE schema_migrations SET dirty = true`)
	require.NoError(t, err)
	assert.ErrorIs(t, database.CheckHealth(ctx, pool), database.ErrDirtySchema)
}
