package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/dejobratic/storefront/internal/checkout/adapters"
	httpadapter "github.com/dejobratic/storefront/internal/checkout/adapters/http"
	checkoutpostgres "github.com/dejobratic/storefront/internal/checkout/adapters/postgres"
	"github.com/dejobratic/storefront/internal/checkout/app"
	checkoutmetrics "github.com/dejobratic/storefront/internal/checkout/metrics"
	"github.com/dejobratic/storefront/internal/checkout/ports"
	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/payment/razorpay"
	sessionmemory "github.com/dejobratic/storefront/internal/session/memory"
	sessionredis "github.com/dejobratic/storefront/internal/session/redis"
	"github.com/dejobratic/storefront/internal/telemetry"
)

const meterName = "github.com/dejobratic/storefront/checkout"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel)).With(
		"service", cfg.Service.Name,
		"environment", cfg.Service.Environment,
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing && cfg.Telemetry.OTelEndpoint != "",
		EnableMetrics:  cfg.Telemetry.EnableMetrics && cfg.Telemetry.OTelEndpoint != "",
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(meterName)
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	checkoutMetrics, err := checkoutmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return err
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
		if err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully", "version", version)
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	events, notifier, closeKafka := newMessaging(cfg, logger)
	defer closeKafka()

	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:       cfg.Razorpay.BaseURL,
		KeyID:         cfg.Razorpay.KeyID,
		KeySecret:     cfg.Razorpay.KeySecret,
		WebhookSecret: cfg.Razorpay.WebhookSecret,
		Timeout:       cfg.Razorpay.Timeout,
	})
	if cfg.Razorpay.KeySecret == "" {
		logger.Warn("razorpay key secret is empty; gateway payments will fail verification")
	}

	catalog := checkoutpostgres.NewCatalogRepository(pool)
	service := app.NewService(app.Deps{
		Sessions:        sessions,
		Catalog:         catalog,
		Addresses:       catalog,
		Coupons:         checkoutpostgres.NewCouponRepository(pool),
		Orders:          adapters.NewObservableRepository(checkoutpostgres.NewOrderRepository(pool), dbMetrics),
		PaymentLogs:     checkoutpostgres.NewPaymentLogRepository(pool),
		UnitOfWork:      adapters.NewObservableUnitOfWork(checkoutpostgres.NewUnitOfWork(pool), dbMetrics),
		Gateway:         gateway,
		Events:          adapters.NewObservableEventBus(events, kafkaMetrics),
		Notifier:        notifier,
		Idempotency:     checkoutpostgres.NewIdempotencyStore(pool),
		Wishlist:        checkoutpostgres.NewWishlistRepository(pool),
		Currency:        cfg.Razorpay.Currency,
		OperationsEmail: cfg.Checkout.OperationsEmail,
	}, logger, checkoutMetrics)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty; authenticated endpoints will reject every request")
	}
	handler := httpadapter.NewHandler(
		service,
		httpadapter.NewSessionMiddleware(cfg.Checkout.SessionCookie, cfg.Checkout.SessionTTL, cfg.Service.Environment != "development"),
		httpadapter.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		httpadapter.NewRateLimiter(cfg.Checkout.CartRateLimit, cfg.Checkout.CartRateBurst, httpMetrics),
		logger,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	handler.Register(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           httpadapter.WithRecovery(httpadapter.WithLogging(httpadapter.WithMetrics(mux, httpMetrics), logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

// newSessionStore uses Redis when REDIS_ADDR is set and process memory otherwise.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.SessionStore, func(), error) {
	if cfg.Redis.Addr == "" {
		logger.Warn("REDIS_ADDR is empty; sessions are kept in memory")
		return sessionmemory.NewStore(cfg.Checkout.SessionTTL), func() {}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
	return sessionredis.NewStore(client, cfg.Checkout.SessionTTL), closeFn, nil
}

// newMessaging publishes to Kafka when brokers are configured and logs otherwise.
func newMessaging(cfg *config.Config, logger *slog.Logger) (ports.EventBus, ports.Notifier, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("KAFKA_BROKERS is empty; events are dropped and notifications are logged")
		return kafka.NewNoopEventBus(), kafka.NewLogNotifier(logger), func() {}
	}

	bus := kafka.NewEventBus(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic))
	notifier := kafka.NewNotifier(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic))

	closeFn := func() {
		for name, c := range map[string]io.Closer{"event bus": bus, "notifier": notifier} {
			if err := c.Close(); err != nil {
				logger.Error("failed to close kafka writer", "writer", name, "error", err)
			}
		}
	}
	return bus, notifier, closeFn
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
