package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/dealerhub/inventory/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func tracerConfig(enabled bool) telemetry.Config {
	return telemetry.Config{
		Enabled:           enabled,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "dealerhub-inventory-test",
	}
}

// disabledProvider builds a provider with export turned off, the mode
// unit tests run in.
func disabledProvider(t *testing.T) *telemetry.TracerProvider {
	t.Helper()

	tp, err := telemetry.NewTracerProvider(context.Background(), tracerConfig(false), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, tp)
	return tp
}

func TestTracerProviderDisabled(t *testing.T) {
	ctx := context.Background()
	tp := disabledProvider(t)

	assert.False(t, tp.IsEnabled())

	gotCfg := tp.GetConfig()
	assert.Equal(t, "dealerhub-inventory-test", gotCfg.ServiceName)
	assert.False(t, gotCfg.Enabled)

	t.Run("tracer is a working no-op", func(t *testing.T) {
		tracer := tp.Tracer("allocations")
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "stock.transfer")
		span.End()
	})

	t.Run("flush and shutdown succeed", func(t *testing.T) {
		assert.NoError(t, tp.ForceFlush(ctx))

		// Even a cancelled context must not fail a no-op shutdown.
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		assert.NoError(t, tp.Shutdown(cancelled))
	})
}

func TestTracerProviderSamplingRatios(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	// Export stays off in unit tests; the ratio only has to be accepted.
	for _, ratio := range []float64{0.0, 0.5, 1.0} {
		cfg := tracerConfig(false)
		cfg.SamplingRatio = ratio

		tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
		require.NoError(t, err, "ratio %v", ratio)
		assert.False(t, tp.IsEnabled())
		assert.NoError(t, tp.Shutdown(ctx))
	}
}

func TestTracerProviderEnabled(t *testing.T) {
	// Needs a collector listening on localhost:14317.
	if testing.Short() {
		t.Skip("skipping collector-backed test in short mode")
	}

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, tracerConfig(true), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.True(t, tp.IsEnabled())

	_, span := tp.Tracer("allocations").Start(ctx, "stock.adjust")
	span.End()

	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestTracerProviderInvalidEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping collector-backed test in short mode")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cfg := tracerConfig(true)
	cfg.CollectorEndpoint = "invalid-host:99999"

	// The gRPC exporter connects lazily, so either outcome is acceptable.
	tp, err := telemetry.NewTracerProvider(ctx, cfg, logger)
	if err != nil {
		t.Logf("connection refused as expected: %v", err)
		return
	}
	_ = tp.Shutdown(context.Background())
}

func TestSpanProfiles(t *testing.T) {
	t.Run("stays off when telemetry is disabled", func(t *testing.T) {
		tp := disabledProvider(t)

		assert.NoError(t, tp.EnableSpanProfiles())
		assert.False(t, tp.IsSpanProfilesEnabled())
		assert.NoError(t, tp.Shutdown(context.Background()))
	})

	t.Run("off by default", func(t *testing.T) {
		tp := disabledProvider(t)
		assert.False(t, tp.IsSpanProfilesEnabled())
	})

	t.Run("concurrent enable calls keep state consistent", func(t *testing.T) {
		tp := disabledProvider(t)

		done := make(chan struct{})
		for i := 0; i < 10; i++ {
			go func() {
				defer func() { done <- struct{}{} }()
				_ = tp.EnableSpanProfiles()
				_ = tp.IsSpanProfilesEnabled()
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		assert.False(t, tp.IsSpanProfilesEnabled())
	})

	t.Run("idempotent against a live collector", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping collector-backed test in short mode")
		}

		ctx := context.Background()
		tp, err := telemetry.NewTracerProvider(ctx, tracerConfig(true), zaptest.NewLogger(t))
		require.NoError(t, err)
		defer func() { _ = tp.Shutdown(ctx) }()

		assert.False(t, tp.IsSpanProfilesEnabled())

		require.NoError(t, tp.EnableSpanProfiles())
		assert.True(t, tp.IsSpanProfilesEnabled())

		require.NoError(t, tp.EnableSpanProfiles())
		assert.True(t, tp.IsSpanProfilesEnabled())
	})

	t.Run("spans carry pprof labels once enabled", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping collector-backed test in short mode")
		}

		ctx := context.Background()
		tp, err := telemetry.NewTracerProvider(ctx, tracerConfig(true), zaptest.NewLogger(t))
		require.NoError(t, err)
		defer func() { _ = tp.Shutdown(ctx) }()

		require.NoError(t, tp.EnableSpanProfiles())

		_, span := tp.Tracer("allocations").Start(ctx, "stock.deliver_to_customer")
		time.Sleep(15 * time.Millisecond) // long enough for the CPU profiler to sample
		span.End()

		assert.NoError(t, tp.ForceFlush(ctx))
	})
}
