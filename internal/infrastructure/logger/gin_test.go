package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc, route gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(handler)
	engine.GET("/stock/:id", route)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs successful requests at info", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		log := zap.New(core)

		performRequest(GinMiddleware(log), func(c *gin.Context) {
			c.Status(http.StatusOK)
		}, "/stock/abc?page=2")

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "HTTP Request", entries[0].Message)
		assert.Equal(t, zap.InfoLevel, entries[0].Level)

		fields := entries[0].ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/stock/abc", fields["path"])
		assert.Equal(t, "page=2", fields["query"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		performRequest(GinMiddleware(zap.New(core)), func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		}, "/stock/missing")

		require.Len(t, logs.All(), 1)
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
	})

	t.Run("logs server errors at error", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		performRequest(GinMiddleware(zap.New(core)), func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		}, "/stock/boom")

		require.Len(t, logs.All(), 1)
		assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("collects gin errors", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		performRequest(GinMiddleware(zap.New(core)), func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusBadRequest)
		}, "/stock/bad")

		require.Len(t, logs.All(), 1)
		assert.Contains(t, logs.All()[0].ContextMap(), "errors")
	})

	t.Run("stores request-scoped logger in gin context", func(t *testing.T) {
		core, _ := observer.New(zap.DebugLevel)
		var inHandler *zap.Logger
		performRequest(GinMiddleware(zap.New(core)), func(c *gin.Context) {
			inHandler = GetGinLogger(c)
			c.Status(http.StatusOK)
		}, "/stock/ctx")

		require.NotNil(t, inHandler)
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := performRequest(Recovery(zap.New(core)), func(c *gin.Context) {
		panic("ledger exploded")
	}, "/stock/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, logs.All(), 1)
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "ledger exploded", entry.ContextMap()["error"])
}

func TestGetGinLoggerWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	log := GetGinLogger(c)
	require.NotNil(t, log)
	log.Info("no-op logger")
}
