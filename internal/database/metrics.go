package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Query outcomes reported by repository decorators.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics records checkout storage latency and transaction results.
type Metrics struct {
	queryDuration metric.Float64Histogram
	transactions  metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	m.transactions, err = meter.Int64Counter(
		"db_transactions_total",
		metric.WithDescription("Checkout transactions by result"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_transactions_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordQuery(ctx context.Context, operation, outcome string, durationSeconds float64) {
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// RecordTransaction counts a unit of work as committed or rolled back.
func (m *Metrics) RecordTransaction(ctx context.Context, committed bool, durationSeconds float64) {
	result := "commit"
	if !committed {
		result = "rollback"
	}
	m.transactions.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	m.queryDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("operation", "transaction"),
		attribute.String("outcome", result),
	))
}
