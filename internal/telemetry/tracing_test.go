package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(trace.NewTracerProvider(trace.WithSyncer(exp)))
	t.Cleanup(func() { otel.SetTracerProvider(nil) })
	return exp
}

func TestStartSpanNestsUnderParent(t *testing.T) {
	exp := setupTracerProvider(t)

	ctx, parent := StartSpan(context.Background(), "checkout.place_order")
	_, child := StartSpan(ctx, "repository.create")
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "repository.create" || spans[1].Name != "checkout.place_order" {
		t.Errorf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("expected child span to reference parent")
	}
	if spans[0].InstrumentationScope.Name != tracerName {
		t.Errorf("expected scope %q, got %q", tracerName, spans[0].InstrumentationScope.Name)
	}
}

func TestSpanHelpers(t *testing.T) {
	t.Run("attributes and events", func(t *testing.T) {
		exp := setupTracerProvider(t)

		_, span := StartSpan(context.Background(), "payment.webhook")
		AddSpanAttributes(span, attribute.String("event", "payment.captured"), attribute.Int64("order.id", 9))
		AddSpanEvent(span, "signature_verified", attribute.String("gateway", "razorpay"))
		span.End()

		got := exp.GetSpans()[0]
		attrs := map[attribute.Key]attribute.Value{}
		for _, kv := range got.Attributes {
			attrs[kv.Key] = kv.Value
		}
		if attrs["event"].AsString() != "payment.captured" || attrs["order.id"].AsInt64() != 9 {
			t.Errorf("unexpected attributes %v", got.Attributes)
		}
		if len(got.Events) != 1 || got.Events[0].Name != "signature_verified" {
			t.Errorf("unexpected events %v", got.Events)
		}
	})

	t.Run("error then success status", func(t *testing.T) {
		exp := setupTracerProvider(t)

		_, failed := StartSpan(context.Background(), "failed")
		RecordSpanError(failed, errors.New("gateway timeout"))
		failed.End()

		_, ok := StartSpan(context.Background(), "ok")
		RecordSpanError(ok, nil)
		SetSpanSuccess(ok)
		ok.End()

		spans := exp.GetSpans()
		if spans[0].Status.Code != codes.Error || spans[0].Status.Description != "gateway timeout" {
			t.Errorf("expected error status, got %+v", spans[0].Status)
		}
		if len(spans[0].Events) != 1 || spans[0].Events[0].Name != "exception" {
			t.Errorf("expected recorded exception event, got %v", spans[0].Events)
		}
		if spans[1].Status.Code != codes.Ok {
			t.Errorf("expected ok status, got %+v", spans[1].Status)
		}
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		AddSpanAttributes(nil, attribute.String("k", "v"))
		AddSpanEvent(nil, "event")
		RecordSpanError(nil, errors.New("boom"))
		SetSpanSuccess(nil)
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Fatal("expected empty ids without a span")
	}

	setupTracerProvider(t)
	ctx, span := StartSpan(context.Background(), "cart.add")
	defer span.End()

	if got := TraceID(ctx); got != span.SpanContext().TraceID().String() {
		t.Errorf("TraceID() = %q", got)
	}
	if got := SpanID(ctx); got != span.SpanContext().SpanID().String() {
		t.Errorf("SpanID() = %q", got)
	}
}

func TestTrace(t *testing.T) {
	exp := setupTracerProvider(t)
	boom := errors.New("insert failed")

	err := Trace(context.Background(), "OrderRepository.Create", func(ctx context.Context) error {
		if TraceID(ctx) == "" {
			t.Error("expected span in callback context")
		}
		return boom
	}, attribute.String("operation", "create_order"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	if err := Trace(context.Background(), "OrderRepository.GetByID", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error || spans[1].Status.Code != codes.Ok {
		t.Errorf("unexpected statuses %v, %v", spans[0].Status, spans[1].Status)
	}
	if len(spans[0].Attributes) != 1 || spans[0].Attributes[0].Value.AsString() != "create_order" {
		t.Errorf("unexpected attributes %v", spans[0].Attributes)
	}
}
