package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which operation keys have already run, so a
// replayed event or retried request does not move stock twice.
type IdempotencyStore interface {
	// MarkProcessed records a key for the given TTL. It reports true when
	// the key is new, false when the key was already recorded.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a key is currently recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// IdempotencyConfig controls duplicate suppression.
type IdempotencyConfig struct {
	// TTL bounds how long a key stays recorded. Once it lapses the same
	// key may run again.
	TTL time.Duration

	// Enabled switches the check off entirely when false.
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
