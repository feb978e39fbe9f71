// Package storage provides object storage implementations for ledger
// archive exports.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	appalloc "github.com/dealerhub/inventory/internal/application/allocation"
)

// StubArchiveStorage is an in-memory implementation of ArchiveStorage.
// Use this for development and testing when no S3-compatible backend is
// configured; uploaded archives live only for the process lifetime.
type StubArchiveStorage struct {
	// BaseURL is the base URL for generated download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewStubArchiveStorage creates a new StubArchiveStorage
func NewStubArchiveStorage() *StubArchiveStorage {
	return &StubArchiveStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure StubArchiveStorage implements ArchiveStorage
var _ appalloc.ArchiveStorage = (*StubArchiveStorage)(nil)

// Upload stores data in the in-memory object map
func (s *StubArchiveStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[storageKey] = stored
	return nil
}

// GenerateDownloadURL generates a stub download URL for a stored archive
func (s *StubArchiveStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// Get returns a stored object (for testing)
func (s *StubArchiveStorage) Get(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	return data, ok
}
