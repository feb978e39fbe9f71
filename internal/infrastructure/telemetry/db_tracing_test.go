package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stockRow struct {
	ID       uint   `gorm:"primaryKey"`
	SKU      string `gorm:"size:64"`
	Quantity int64
}

func openTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&stockRow{}))
	return db
}

func newSpanRecorder() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), recorder
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.True(t, cfg.WithoutVariables)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPluginInitialize(t *testing.T) {
	t.Run("disabled config registers nothing", func(t *testing.T) {
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
		assert.NoError(t, openTracedDB(t).Use(plugin))
	})

	t.Run("enabled config registers callbacks", func(t *testing.T) {
		plugin := NewDBTracingPlugin(DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: 200 * time.Millisecond,
			DBSystem:        "sqlite",
		}, zap.NewNop())
		assert.NoError(t, openTracedDB(t).Use(plugin))
	})

	t.Run("double registration fails", func(t *testing.T) {
		db := openTracedDB(t)
		cfg := DBTracingConfig{Enabled: true, SlowQueryThresh: 200 * time.Millisecond, DBSystem: "sqlite"}

		require.NoError(t, db.Use(NewDBTracingPlugin(cfg, zap.NewNop())))
		assert.Error(t, NewDBTracingPlugin(cfg, zap.NewNop()).Initialize(db))
	})

	t.Run("plugin has a stable name", func(t *testing.T) {
		assert.Equal(t, "db_tracing", NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop()).Name())
	})
}

func TestMarkQuerySpan(t *testing.T) {
	newPlugin := func(thresh time.Duration) *DBTracingPlugin {
		return NewDBTracingPlugin(DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: thresh,
			DBSystem:        "sqlite",
		}, zap.NewNop())
	}

	t.Run("annotates rows affected and table", func(t *testing.T) {
		db := openTracedDB(t)
		tp, recorder := newSpanRecorder()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "receive-stock")
		result := db.WithContext(ctx).Create(&[]stockRow{{SKU: "A"}, {SKU: "B"}, {SKU: "C"}})
		require.NoError(t, result.Error)

		newPlugin(time.Minute).markQuerySpan(result.Statement.DB)
		span.End()

		spans := recorder.Ended()
		require.NotEmpty(t, spans)

		attrs := map[string]interface{}{}
		for _, attr := range spans[0].Attributes() {
			attrs[string(attr.Key)] = attr.Value.AsInterface()
		}
		assert.EqualValues(t, 3, attrs["db.rows_affected"])
		assert.Equal(t, "stock_rows", attrs["db.sql.table"])
	})

	t.Run("flags slow queries with an event", func(t *testing.T) {
		db := openTracedDB(t)
		tp, recorder := newSpanRecorder()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "slow-lookup")
		ctx = WithQueryStartTime(ctx)
		time.Sleep(time.Millisecond)

		tx := db.WithContext(ctx)
		var row stockRow
		tx.First(&row)

		newPlugin(time.Nanosecond).markQuerySpan(tx.Statement.DB)
		span.End()

		spans := recorder.Ended()
		require.NotEmpty(t, spans)

		slow := false
		for _, attr := range spans[0].Attributes() {
			if attr.Key == "db.slow_query" && attr.Value.AsBool() {
				slow = true
			}
		}
		assert.True(t, slow)

		events := spans[0].Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "slow_query_warning", events[0].Name)
	})

	t.Run("record-not-found is not a span error", func(t *testing.T) {
		db := openTracedDB(t)
		tp, recorder := newSpanRecorder()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("test").Start(context.Background(), "missing-lookup")
		var row stockRow
		tx := db.WithContext(ctx).First(&row, 99999)

		newPlugin(time.Minute).markQuerySpan(tx)
		span.End()

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("tolerates missing span", func(t *testing.T) {
		db := openTracedDB(t)
		tx := db.WithContext(context.Background())
		// Must not panic without a recording span
		newPlugin(time.Minute).markQuerySpan(tx.Statement.DB)
	})
}

func TestQueriesThroughRegisteredPlugin(t *testing.T) {
	db := openTracedDB(t)
	tp, recorder := newSpanRecorder()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	require.NoError(t, db.Use(NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		LogFullSQL:      true,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}, zap.NewNop())))

	ctx, span := tp.Tracer("test").Start(context.Background(), "transfer")
	tx := db.WithContext(ctx)

	require.NoError(t, tx.Create(&stockRow{SKU: "DH-100", Quantity: 7}).Error)

	var found stockRow
	require.NoError(t, tx.First(&found, "sku = ?", "DH-100").Error)
	assert.EqualValues(t, 7, found.Quantity)

	span.End()
	assert.NotEmpty(t, recorder.Ended())
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := WithQueryStartTime(context.Background())

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), startTime, time.Second)
}
