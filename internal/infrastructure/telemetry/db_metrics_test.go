package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collectMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics(t *testing.T) {
	_, provider := newTestMeter(t)
	meter := provider.Meter("test")

	t.Run("creates all instruments", func(t *testing.T) {
		m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, m.poolConnections)
		assert.NotNil(t, m.poolConnectionsMax)
		assert.NotNil(t, m.queryTotal)
		assert.NotNil(t, m.queryDuration)
		assert.NotNil(t, m.slowQueryTotal)
	})

	t.Run("zero config gets defaults", func(t *testing.T) {
		m, err := NewDBMetrics(meter, DBMetricsConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
		assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
	})

	t.Run("nil logger is replaced with nop", func(t *testing.T) {
		m, err := NewDBMetrics(meter, DefaultDBMetricsConfig(), nil)
		require.NoError(t, err)
		require.NotNil(t, m.logger)
	})
}

func TestRecordQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("records count and duration", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "SELECT", "allocations", 50*time.Millisecond, nil)

		names := collectMetricNames(t, reader)
		assert.Contains(t, names, "db_query_total")
		assert.Contains(t, names, "db_query_duration_seconds")
	})

	t.Run("flags queries over the threshold", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 100 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "SELECT", "stock_transactions", 250*time.Millisecond, nil)

		names := collectMetricNames(t, reader)
		slow, ok := names["db_slow_query_total"]
		require.True(t, ok)
		sum := slow.Data.(metricdata.Sum[int64])
		require.NotEmpty(t, sum.DataPoints)
		assert.EqualValues(t, 1, sum.DataPoints[0].Value)
	})

	t.Run("fast queries do not count as slow", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "SELECT", "allocations", 10*time.Millisecond, nil)

		names := collectMetricNames(t, reader)
		if slow, ok := names["db_slow_query_total"]; ok {
			for _, dp := range slow.Data.(metricdata.Sum[int64]).DataPoints {
				assert.Zero(t, dp.Value)
			}
		}
	})

	t.Run("empty operation records as UNKNOWN without panic", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "", "allocations", 10*time.Millisecond, nil)
		m.RecordQuery(ctx, "select", "allocations", 10*time.Millisecond, nil)

		assert.Contains(t, collectMetricNames(t, reader), "db_query_total")
	})
}

func TestPoolStatsCollection(t *testing.T) {
	t.Run("samples pool stats", func(t *testing.T) {
		reader, provider := newTestMeter(t)

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
			Enabled:           true,
			PoolStatsInterval: 50 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		m.SetSQLDB(mockDB)
		m.StartPoolStatsCollection(context.Background())
		time.Sleep(100 * time.Millisecond)
		m.Stop()

		names := collectMetricNames(t, reader)
		assert.Contains(t, names, "db_pool_connections")
		assert.Contains(t, names, "db_pool_connections_max")
	})

	t.Run("refuses to start without a sql.DB", func(t *testing.T) {
		_, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.StartPoolStatsCollection(context.Background())
		m.Stop()
	})

	t.Run("stop is idempotent and does not block", func(t *testing.T) {
		_, provider := newTestMeter(t)

		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()

		m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
			Enabled:           true,
			PoolStatsInterval: 50 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		m.SetSQLDB(mockDB)
		m.StartPoolStatsCollection(context.Background())

		done := make(chan struct{})
		go func() {
			m.Stop()
			m.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop() blocked")
		}
	})
}

func TestDBMetricsPlugin(t *testing.T) {
	_, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	plugin := NewDBMetricsPlugin(m, zap.NewNop())
	assert.Equal(t, "db_metrics", plugin.Name())

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	assert.NoError(t, plugin.Initialize(gormDB))
}

func TestDetectOperationType(t *testing.T) {
	tests := []struct {
		sql      string
		expected string
	}{
		{"SELECT * FROM allocations", "SELECT"},
		{"  select id from allocations", "SELECT"},
		{"INSERT INTO stock_transactions VALUES (1)", "INSERT"},
		{"update allocations set quantity = 0", "UPDATE"},
		{"DELETE FROM allocations WHERE id = 1", "DELETE"},
		{"CREATE TABLE allocations", "OTHER"},
		{"TRUNCATE TABLE allocations", "OTHER"},
		{"", "OTHER"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, detectOperationType(tc.sql), "sql: %q", tc.sql)
	}
}

func TestRecordQueryConcurrent(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	operations := []string{"SELECT", "INSERT", "UPDATE", "DELETE"}
	tables := []string{"allocations", "stock_transactions"}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordQuery(context.Background(), operations[i%4], tables[i%2],
				time.Duration(i)*time.Millisecond, nil)
		}(i)
	}
	wg.Wait()

	assert.Contains(t, collectMetricNames(t, reader), "db_query_total")
}
