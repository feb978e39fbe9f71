package pool

import (
	"context"
	"strings"
	"time"
)

// ParameterPool stores values harvested from API responses, keyed by
// semantic type, so later requests can reuse real dealer, product and
// reference identifiers instead of fabricating them.
type ParameterPool interface {
	// Add stores a value under its semantic type and reports how many
	// values were evicted to make room.
	Add(ctx context.Context, value *ParameterValue) (evicted int, err error)

	// Get returns a live value for the semantic type, or nil when none is
	// available.
	Get(ctx context.Context, semanticType SemanticType) (*ParameterValue, error)

	// GetRandom returns a randomly chosen live value, or nil when none is
	// available.
	GetRandom(ctx context.Context, semanticType SemanticType) (*ParameterValue, error)

	// GetAll returns every live value for the semantic type.
	GetAll(ctx context.Context, semanticType SemanticType) ([]*ParameterValue, error)

	// Count reports how many values are stored for the semantic type,
	// expired ones included.
	Count(ctx context.Context, semanticType SemanticType) (int, error)

	// Remove deletes one value, reporting whether it was present.
	Remove(ctx context.Context, value *ParameterValue) (bool, error)

	// Clear drops every value for one semantic type and reports how many
	// were dropped.
	Clear(ctx context.Context, semanticType SemanticType) (int, error)

	// ClearAll empties the pool.
	ClearAll(ctx context.Context) error

	// Cleanup drops expired values and reports how many were dropped.
	Cleanup(ctx context.Context) (int, error)

	// Stats snapshots the pool counters.
	Stats(ctx context.Context) (Stats, error)

	// Types lists the semantic types that currently hold values.
	Types(ctx context.Context) ([]SemanticType, error)

	// Close stops background work and rejects further operations.
	Close() error
}

// EvictionPolicy selects which value gets dropped when a type is full.
type EvictionPolicy int

const (
	// EvictionFIFO drops the oldest value.
	EvictionFIFO EvictionPolicy = iota

	// EvictionLRU drops the value that has gone longest without a read.
	EvictionLRU

	// EvictionRandom drops an arbitrary value.
	EvictionRandom
)

func (e EvictionPolicy) String() string {
	switch e {
	case EvictionFIFO:
		return "FIFO"
	case EvictionLRU:
		return "LRU"
	case EvictionRandom:
		return "Random"
	default:
		return "Unknown"
	}
}

// ParseEvictionPolicy maps a config string to a policy, defaulting to FIFO.
func ParseEvictionPolicy(s string) EvictionPolicy {
	switch strings.ToLower(s) {
	case "lru":
		return EvictionLRU
	case "random":
		return EvictionRandom
	default:
		return EvictionFIFO
	}
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// TotalValues counts everything currently stored.
	TotalValues int64

	// ValuesByType breaks TotalValues down per semantic type.
	ValuesByType map[SemanticType]int64

	// HitCount counts reads that produced a value.
	HitCount int64

	// MissCount counts reads that came back empty.
	MissCount int64

	// EvictionCount counts values dropped to make room.
	EvictionCount int64

	// ExpiredCount counts values dropped because their TTL lapsed.
	ExpiredCount int64

	// AddCount counts every Add since the pool started.
	AddCount int64

	// Uptime is time since the pool was created.
	Uptime time.Duration
}

// HitRate reports hits as a percentage of all reads.
func (s Stats) HitRate() float64 {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(total) * 100
}

// PoolConfig tunes pool capacity and lifecycle behavior.
type PoolConfig struct {
	// DefaultTTL applies to values added without an explicit TTL; zero
	// disables expiration.
	DefaultTTL time.Duration

	// MaxValuesPerType caps storage per semantic type; zero means
	// unlimited.
	MaxValuesPerType int

	// EvictionPolicy picks the victim when a type hits its cap.
	EvictionPolicy EvictionPolicy

	// CleanupInterval schedules background expiry sweeps; zero disables
	// them.
	CleanupInterval time.Duration

	// ShardCount sizes the sharded pool; rounded up to a power of two.
	ShardCount int
}

// DefaultPoolConfig returns the settings the load generator ships with.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		DefaultTTL:       5 * time.Minute,
		MaxValuesPerType: 1000,
		EvictionPolicy:   EvictionFIFO,
		CleanupInterval:  time.Minute,
		ShardCount:       16,
	}
}
