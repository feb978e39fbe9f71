package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postBody(limit int64, body string, contentLength int64) *httptest.ResponseRecorder {
	engine := gin.New()
	engine.Use(BodyLimit(limit))
	engine.POST("/stock/adjust", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "read %d bytes", len(data))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stock/adjust", strings.NewReader(body))
	req.ContentLength = contentLength
	engine.ServeHTTP(w, req)
	return w
}

func TestBodyLimit(t *testing.T) {
	t.Run("accepts bodies within the limit", func(t *testing.T) {
		w := postBody(64, `{"quantity":"5"}`, 16)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects declared oversize up front", func(t *testing.T) {
		w := postBody(8, strings.Repeat("x", 32), 32)
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
	})

	t.Run("caps streamed bodies with no declared length", func(t *testing.T) {
		// ContentLength -1 mimics a chunked request
		w := postBody(8, strings.Repeat("x", 32), -1)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}
