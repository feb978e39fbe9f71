// Package cache provides the idempotency stores that keep replayed events
// from moving stock twice, backed by Redis or by process memory.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dealerhub/inventory/internal/domain/shared"
)

const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed keys in a map guarded by a
// read-write mutex. State is local to the process, so a multi-instance
// deployment behind it can still process the same event twice.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	seen      map[string]time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore creates the store and starts its background
// sweeper. Call Close to stop the sweeper.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		seen: make(map[string]time.Time),
		stop: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// MarkProcessed records a key for ttl. It reports true when the key is new.
// A key whose previous recording has lapsed counts as new again.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[key]; ok && time.Now().Before(expiry) {
		return false, nil
	}

	s.seen[key] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether a key is recorded and still within its TTL.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, ok := s.seen[key]
	return ok && time.Now().Before(expiry), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup drops every lapsed key. Lapsed keys are already invisible to
// reads; this just reclaims the memory.
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, key)
		}
	}
}

// Size returns the number of recorded keys, lapsed ones included until the
// sweeper runs.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
