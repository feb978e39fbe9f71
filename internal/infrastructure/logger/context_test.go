package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestWithContextAndFromContext(t *testing.T) {
	log := zap.NewNop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestFromContextReturnsNopWhenMissing(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	// Must be usable without panicking
	log.Info("no-op")
}

func TestAnnotateHelpers(t *testing.T) {
	log, logs := observedLogger()

	ctx, log := WithRequestID(context.Background(), log, "req-1")
	ctx, log = WithTenantID(ctx, log, "tenant-1")
	ctx, log = WithUserID(ctx, log, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))

	log.Info("annotated")
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-1", fields["tenant_id"])
	assert.Equal(t, "user-1", fields["user_id"])
}

func TestGettersReturnEmptyWhenUnset(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetTenantID(ctx))
	assert.Empty(t, GetUserID(ctx))
}

func TestTraceHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))

	log := zap.NewNop()
	assert.Same(t, log, WithTraceContext(ctx, log))
}

func TestContextLogger(t *testing.T) {
	t.Run("L picks up context logger and identifiers", func(t *testing.T) {
		log, logs := observedLogger()
		ctx := WithContext(context.Background(), log)
		ctx = context.WithValue(ctx, TenantIDKey, "tenant-9")
		ctx = context.WithValue(ctx, RequestIDKey, "req-9")

		L(ctx).Info("operation complete", zap.String("op", "transfer"))

		entries := logs.All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "tenant-9", fields["tenant_id"])
		assert.Equal(t, "req-9", fields["request_id"])
		assert.Equal(t, "transfer", fields["op"])
	})

	t.Run("WithLogger overrides the context logger", func(t *testing.T) {
		log, logs := observedLogger()
		WithLogger(context.Background(), log).Warn("explicit logger")
		require.Len(t, logs.All(), 1)
		assert.Equal(t, "explicit logger", logs.All()[0].Message)
	})

	t.Run("With adds persistent fields", func(t *testing.T) {
		log, logs := observedLogger()
		cl := WithLogger(context.Background(), log).With(zap.String("component", "scan"))
		cl.Info("first")
		cl.Info("second")

		for _, entry := range logs.All() {
			assert.Equal(t, "scan", entry.ContextMap()["component"])
		}
	})

	t.Run("nil logger degrades to no-op", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		cl.Info("must not panic")
	})

	t.Run("Zap and Sugar return enriched loggers", func(t *testing.T) {
		log, logs := observedLogger()
		ctx := context.WithValue(context.Background(), UserIDKey, "user-3")
		cl := WithLogger(ctx, log)

		cl.Zap().Info("via zap")
		cl.Sugar().Infow("via sugar")

		require.Len(t, logs.All(), 2)
		for _, entry := range logs.All() {
			assert.Equal(t, "user-3", entry.ContextMap()["user_id"])
		}
	})
}
