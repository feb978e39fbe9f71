package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func queryFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("logs queries at debug", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		gl.Trace(ctx, time.Now(), queryFunc("SELECT * FROM allocations", 3), nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
		assert.Equal(t, "SQL Query", entries[0].Message)
		assert.Equal(t, "SELECT * FROM allocations", entries[0].ContextMap()["sql"])
		assert.EqualValues(t, 3, entries[0].ContextMap()["rows"])
	})

	t.Run("promotes slow queries to warn", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		gl.Trace(ctx, time.Now().Add(-time.Second), queryFunc("SELECT 1", 1), nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
		assert.Contains(t, entries[0].Message, "SLOW SQL")
	})

	t.Run("logs errors with the failing statement", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(ctx, time.Now(), queryFunc("INSERT INTO stock_transactions", 0), assert.AnError)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zap.ErrorLevel, entries[0].Level)
		assert.Equal(t, "SQL Error", entries[0].Message)
	})

	t.Run("skips record-not-found by default", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(ctx, time.Now(), queryFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Empty(t, logs.All())
	})

	t.Run("logs record-not-found when configured", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(ctx, time.Now(), queryFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Len(t, logs.All(), 1)
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(ctx, time.Now(), queryFunc("SELECT 1", 1), assert.AnError)
		assert.Empty(t, logs.All())
	})

	t.Run("includes request id from context", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		reqCtx := context.WithValue(ctx, RequestIDKey, "req-42")
		gl.Trace(reqCtx, time.Now(), queryFunc("SELECT 1", 1), nil)

		require.Len(t, logs.All(), 1)
		assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLoggerLevelMethods(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	gl.Info(context.Background(), "info %s", "msg")
	gl.Warn(context.Background(), "warn %s", "msg")
	gl.Error(context.Background(), "error %s", "msg")
	assert.Len(t, logs.All(), 3)

	quiet := gl.LogMode(gormlogger.Silent)
	quiet.Info(context.Background(), "dropped")
	assert.Len(t, logs.All(), 3)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
