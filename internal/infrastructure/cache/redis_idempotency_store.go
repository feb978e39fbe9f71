package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "inventory:idempotency:"

// RedisIdempotencyStore records processed keys in Redis so every instance
// of the service shares one view of what has already run.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// RedisConfig holds the connection settings the store needs.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore dials Redis and verifies the connection with a
// ping before returning the store.
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client, sharing the
// connection pool with whoever owns it.
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a key for ttl via SETNX, so the set and the
// already-exists check are one atomic step even across instances. It
// reports true when the key is new.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark key as processed: %w", err)
	}
	return set, nil
}

// IsProcessed reports whether a key is currently recorded. Redis expires
// the key itself when the TTL lapses.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed key: %w", err)
	}
	return n > 0, nil
}

// Close closes the underlying client.
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// GetClient exposes the client for health checks and tests.
func (s *RedisIdempotencyStore) GetClient() *redis.Client {
	return s.client
}
