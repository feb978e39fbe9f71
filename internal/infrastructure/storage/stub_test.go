package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStubArchiveStorage(t *testing.T) {
	s := NewStubArchiveStorage()
	require.NotNil(t, s)
	assert.Equal(t, "https://storage.example.com", s.BaseURL)
}

func TestStubArchiveStorage_Upload(t *testing.T) {
	s := NewStubArchiveStorage()
	ctx := context.Background()

	t.Run("stores data in memory", func(t *testing.T) {
		err := s.Upload(ctx, "ledger-archives/tenant/export.csv", []byte("id,quantity\n"), "text/csv")
		require.NoError(t, err)

		data, ok := s.Get("ledger-archives/tenant/export.csv")
		require.True(t, ok)
		assert.Equal(t, []byte("id,quantity\n"), data)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.Upload(ctx, "", []byte("data"), "text/csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestStubArchiveStorage_GenerateDownloadURL(t *testing.T) {
	s := NewStubArchiveStorage()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, "ledger-archives/tenant/export.csv", 1*time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/ledger-archives/tenant/export.csv")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty storage key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", 1*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}
