package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dealerhub/inventory/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans swaps in a recording tracer provider for the duration of the
// test and returns the recorder.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(recorder),
	)

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})

	return recorder
}

func attributeMap(span sdktrace.ReadOnlySpan) map[string]interface{} {
	m := make(map[string]interface{})
	for _, attr := range span.Attributes() {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartSpan(t *testing.T) {
	t.Run("defaults to an internal span", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.transfer")
		require.NotNil(t, span)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "stock.transfer", spans[0].Name())
		assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	})

	t.Run("honors options", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.transfer",
			telemetry.WithAttribute(telemetry.SpanAttrDealerID, "dealer-42"),
			telemetry.WithSpanKind(trace.SpanKindClient),
		)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
		assert.Equal(t, "dealer-42", attributeMap(spans[0])[telemetry.SpanAttrDealerID])
	})
}

func TestStartServiceSpanNaming(t *testing.T) {
	recorder := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "stock", "adjust")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "stock.adjust", spans[0].Name())
}

func TestSetAttributes(t *testing.T) {
	t.Run("records typed values", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.reserve")
		telemetry.SetAttributes(span,
			telemetry.SpanAttrReference, "TRF-001",
			telemetry.SpanAttrQuantity, 42,
			"applied", true,
		)
		span.End()

		attrs := attributeMap(recorder.Ended()[0])
		assert.Equal(t, "TRF-001", attrs[telemetry.SpanAttrReference])
		assert.Equal(t, int64(42), attrs[telemetry.SpanAttrQuantity])
		assert.Equal(t, true, attrs["applied"])
	})

	t.Run("drops a trailing key without a value", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.reserve")
		telemetry.SetAttributes(span,
			"key1", "value1",
			"key2", "value2",
			"orphan",
		)
		span.End()

		assert.Len(t, recorder.Ended()[0].Attributes(), 2)
	})

	t.Run("skips pairs with non-string keys", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.reserve")
		telemetry.SetAttributes(span,
			"valid", "value",
			123, "dropped",
		)
		span.End()

		assert.Len(t, recorder.Ended()[0].Attributes(), 1)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		telemetry.SetAttributes(nil, "key", "value")
	})
}

func TestSetAttribute(t *testing.T) {
	t.Run("records one attribute", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.release")
		telemetry.SetAttribute(span, telemetry.SpanAttrReference, "ADJ-77")
		span.End()

		assert.Equal(t, "ADJ-77", attributeMap(recorder.Ended()[0])[telemetry.SpanAttrReference])
	})

	t.Run("stringers render through String", func(t *testing.T) {
		recorder := recordSpans(t)

		productID := uuid.New()
		_, span := telemetry.StartSpan(context.Background(), "stock.release")
		telemetry.SetAttribute(span, telemetry.SpanAttrProductID, productID)
		span.End()

		assert.Equal(t, productID.String(), attributeMap(recorder.Ended()[0])[telemetry.SpanAttrProductID])
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		telemetry.SetAttribute(nil, "key", "value")
	})
}

func TestAttributeTypeCoverage(t *testing.T) {
	recorder := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "stock.adjust")
	telemetry.SetAttributes(span,
		"string", "value",
		"int", 42,
		"int64", int64(100),
		"float64", 3.14,
		"bool", true,
		"string_slice", []string{"a", "b"},
		"int_slice", []int{1, 2, 3},
		"int64_slice", []int64{10, 20},
		"float64_slice", []float64{1.1, 2.2},
		"bool_slice", []bool{true, false},
	)
	span.End()

	assert.GreaterOrEqual(t, len(recorder.Ended()[0].Attributes()), 10)
}

func TestRecordError(t *testing.T) {
	t.Run("flips status and records an exception event", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.transfer")
		telemetry.RecordError(span, errors.New("insufficient stock"))
		span.End()

		recorded := recorder.Ended()[0]
		assert.Equal(t, codes.Error, recorded.Status().Code)
		assert.Equal(t, "insufficient stock", recorded.Status().Description)

		events := recorded.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "exception", events[0].Name)
	})

	t.Run("nil error leaves the span alone", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.transfer")
		telemetry.RecordError(span, nil)
		span.End()

		assert.NotEqual(t, codes.Error, recorder.Ended()[0].Status().Code)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		telemetry.RecordError(nil, errors.New("insufficient stock"))
	})
}

func TestSetOK(t *testing.T) {
	t.Run("marks the span successful", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.adjust")
		telemetry.SetOK(span)
		span.End()

		assert.Equal(t, codes.Ok, recorder.Ended()[0].Status().Code)
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		telemetry.SetOK(nil)
	})
}

func TestAddEvent(t *testing.T) {
	t.Run("records the event with attributes", func(t *testing.T) {
		recorder := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.reserve")
		telemetry.AddEvent(span, "reservation_released",
			telemetry.SpanAttrProductID, "prod-123",
			telemetry.SpanAttrQuantity, 10,
		)
		span.End()

		events := recorder.Ended()[0].Events()
		require.Len(t, events, 1)
		assert.Equal(t, "reservation_released", events[0].Name)

		attrs := make(map[string]interface{})
		for _, attr := range events[0].Attributes {
			attrs[string(attr.Key)] = attr.Value.AsInterface()
		}
		assert.Equal(t, "prod-123", attrs[telemetry.SpanAttrProductID])
		assert.Equal(t, int64(10), attrs[telemetry.SpanAttrQuantity])
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		telemetry.AddEvent(nil, "reservation_released", "key", "value")
	})
}

func TestSpanContextHelpers(t *testing.T) {
	t.Run("SpanFromContext round-trips", func(t *testing.T) {
		recordSpans(t)

		ctx := context.Background()
		assert.NotNil(t, telemetry.SpanFromContext(ctx))

		ctx, span := telemetry.StartSpan(ctx, "stock.transfer")
		defer span.End()

		got := telemetry.SpanFromContext(ctx)
		assert.Equal(t, span.SpanContext().SpanID(), got.SpanContext().SpanID())
	})

	t.Run("ContextWithSpan stores the span", func(t *testing.T) {
		recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "stock.transfer")
		defer span.End()

		ctx := telemetry.ContextWithSpan(context.Background(), span)
		got := telemetry.SpanFromContext(ctx)
		assert.Equal(t, span.SpanContext().SpanID(), got.SpanContext().SpanID())
	})

	t.Run("GetTraceID", func(t *testing.T) {
		recordSpans(t)

		ctx := context.Background()
		assert.Empty(t, telemetry.GetTraceID(ctx))

		ctx, span := telemetry.StartSpan(ctx, "stock.transfer")
		defer span.End()

		traceID := telemetry.GetTraceID(ctx)
		assert.Len(t, traceID, 32)
	})

	t.Run("GetSpanID", func(t *testing.T) {
		recordSpans(t)

		ctx := context.Background()
		assert.Empty(t, telemetry.GetSpanID(ctx))

		ctx, span := telemetry.StartSpan(ctx, "stock.transfer")
		defer span.End()

		spanID := telemetry.GetSpanID(ctx)
		assert.Len(t, spanID, 16)
	})
}

func TestNestedSpansShareATrace(t *testing.T) {
	recorder := recordSpans(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "stock.transfer")
	_, child := telemetry.StartSpan(ctx, "stock.transfer.ledger_write")
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	byName := make(map[string]sdktrace.ReadOnlySpan, 2)
	for _, s := range spans {
		byName[s.Name()] = s
	}
	parentSpan, ok := byName["stock.transfer"]
	require.True(t, ok)
	childSpan, ok := byName["stock.transfer.ledger_write"]
	require.True(t, ok)

	assert.Equal(t, parentSpan.SpanContext().TraceID(), childSpan.SpanContext().TraceID())
	assert.Equal(t, parentSpan.SpanContext().SpanID(), childSpan.Parent().SpanID())
}
