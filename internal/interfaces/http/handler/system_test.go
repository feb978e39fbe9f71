package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandlerGetSystemInfo(t *testing.T) {
	h := NewSystemHandler()
	require.False(t, h.startTime.IsZero())

	c, w := newHandlerContext(t)
	h.GetSystemInfo(c)

	assert.Equal(t, 200, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, serviceName, data["name"])
	assert.Equal(t, serviceVersion, data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandlerPing(t *testing.T) {
	h := NewSystemHandler()

	c, w := newHandlerContext(t)
	h.Ping(c)

	assert.Equal(t, 200, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pong", data["message"])

	_, err := time.Parse(time.RFC3339, data["timestamp"].(string))
	assert.NoError(t, err)
}
