package pool

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// shard owns a slice of the semantic-type space, one ring buffer per type.
type shard struct {
	mu      sync.RWMutex
	buffers map[SemanticType]*RingBuffer

	hitCount    atomic.Int64
	missCount   atomic.Int64
	addCount    atomic.Int64
	expireCount atomic.Int64
}

// ShardedParameterPool hashes semantic types across shards so concurrent
// workers rarely contend on the same lock.
type ShardedParameterPool struct {
	shards    []*shard
	shardMask uint64 // shard count minus one, for masking FNV hashes

	config    PoolConfig
	startedAt time.Time

	evictionCount atomic.Int64

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closed        atomic.Bool
}

// NewShardedParameterPool builds a pool with ShardCount shards, rounded up
// to a power of two so the hash can be masked instead of divided.
func NewShardedParameterPool(config PoolConfig) *ShardedParameterPool {
	shardCount := config.ShardCount
	if shardCount <= 0 {
		shardCount = 16
	}
	shardCount = nextPowerOfTwo(shardCount)

	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{buffers: make(map[SemanticType]*RingBuffer)}
	}

	p := &ShardedParameterPool{
		shards:      shards,
		shardMask:   uint64(shardCount - 1),
		config:      config,
		startedAt:   time.Now(),
		cleanupDone: make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		p.cleanupTicker = time.NewTicker(config.CleanupInterval)
		go p.cleanupLoop()
	}

	return p
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func (p *ShardedParameterPool) shardFor(semanticType SemanticType) *shard {
	h := fnv.New64a()
	h.Write([]byte(semanticType))
	return p.shards[h.Sum64()&p.shardMask]
}

// buffer looks up the ring buffer for a type, if one exists.
func (s *shard) buffer(semanticType SemanticType) (*RingBuffer, bool) {
	s.mu.RLock()
	rb, ok := s.buffers[semanticType]
	s.mu.RUnlock()
	return rb, ok
}

// Add stores a value, creating the type's ring buffer on first use.
func (p *ShardedParameterPool) Add(ctx context.Context, value *ParameterValue) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	s := p.shardFor(value.SemanticType)

	s.mu.Lock()
	rb, ok := s.buffers[value.SemanticType]
	if !ok {
		capacity := p.config.MaxValuesPerType
		if capacity <= 0 {
			capacity = 1000
		}
		rb = NewRingBuffer(capacity, p.config.EvictionPolicy)
		s.buffers[value.SemanticType] = rb
	}
	evicted := rb.Add(value)
	s.addCount.Add(1)
	s.mu.Unlock()

	if evicted > 0 {
		p.evictionCount.Add(int64(evicted))
	}

	return evicted, nil
}

// Get returns the oldest live value for the type, or nil on a miss.
func (p *ShardedParameterPool) Get(ctx context.Context, semanticType SemanticType) (*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	s := p.shardFor(semanticType)
	rb, ok := s.buffer(semanticType)
	if !ok {
		s.missCount.Add(1)
		return nil, nil
	}

	v := rb.Get()
	if v == nil || v.IsExpired() {
		s.missCount.Add(1)
		return nil, nil
	}

	s.hitCount.Add(1)
	return v, nil
}

// GetRandom returns an arbitrary live value for the type, or nil on a miss.
func (p *ShardedParameterPool) GetRandom(ctx context.Context, semanticType SemanticType) (*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	s := p.shardFor(semanticType)
	rb, ok := s.buffer(semanticType)
	if !ok {
		s.missCount.Add(1)
		return nil, nil
	}

	v := rb.GetRandom()
	if v == nil || v.IsExpired() {
		s.missCount.Add(1)
		return nil, nil
	}

	s.hitCount.Add(1)
	return v, nil
}

// GetAll returns every live value for the type.
func (p *ShardedParameterPool) GetAll(ctx context.Context, semanticType SemanticType) ([]*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	rb, ok := p.shardFor(semanticType).buffer(semanticType)
	if !ok {
		return nil, nil
	}

	return liveValues(rb.GetAll()), nil
}

// Count reports stored values for the type, expired ones included.
func (p *ShardedParameterPool) Count(ctx context.Context, semanticType SemanticType) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	rb, ok := p.shardFor(semanticType).buffer(semanticType)
	if !ok {
		return 0, nil
	}

	return rb.Count(), nil
}

// Remove deletes one value, reporting whether it was present.
func (p *ShardedParameterPool) Remove(ctx context.Context, value *ParameterValue) (bool, error) {
	if p.closed.Load() {
		return false, ErrPoolClosed
	}

	s := p.shardFor(value.SemanticType)

	s.mu.Lock()
	defer s.mu.Unlock()

	rb, ok := s.buffers[value.SemanticType]
	if !ok {
		return false, nil
	}
	return rb.Remove(value), nil
}

// Clear drops every value of one type along with its ring buffer.
func (p *ShardedParameterPool) Clear(ctx context.Context, semanticType SemanticType) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	s := p.shardFor(semanticType)

	s.mu.Lock()
	defer s.mu.Unlock()

	rb, ok := s.buffers[semanticType]
	if !ok {
		return 0, nil
	}
	dropped := rb.Clear()
	delete(s.buffers, semanticType)
	return dropped, nil
}

// ClearAll empties every shard.
func (p *ShardedParameterPool) ClearAll(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	for _, s := range p.shards {
		s.mu.Lock()
		for st, rb := range s.buffers {
			rb.Clear()
			delete(s.buffers, st)
		}
		s.mu.Unlock()
	}

	return nil
}

// Cleanup drops expired values across all shards.
func (p *ShardedParameterPool) Cleanup(ctx context.Context) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	total := 0
	for _, s := range p.shards {
		s.mu.Lock()
		for _, rb := range s.buffers {
			removed := rb.RemoveExpired()
			total += removed
			s.expireCount.Add(int64(removed))
		}
		s.mu.Unlock()
	}

	return total, nil
}

func (p *ShardedParameterPool) cleanupLoop() {
	for {
		select {
		case <-p.cleanupTicker.C:
			_, _ = p.Cleanup(context.Background())
		case <-p.cleanupDone:
			return
		}
	}
}

// Stats aggregates counters across every shard.
func (p *ShardedParameterPool) Stats(ctx context.Context) (Stats, error) {
	if p.closed.Load() {
		return Stats{}, ErrPoolClosed
	}

	stats := Stats{
		ValuesByType:  make(map[SemanticType]int64),
		EvictionCount: p.evictionCount.Load(),
		Uptime:        time.Since(p.startedAt),
	}

	for _, s := range p.shards {
		s.mu.RLock()
		stats.HitCount += s.hitCount.Load()
		stats.MissCount += s.missCount.Load()
		stats.AddCount += s.addCount.Load()
		stats.ExpiredCount += s.expireCount.Load()

		for st, rb := range s.buffers {
			n := int64(rb.Count())
			stats.TotalValues += n
			stats.ValuesByType[st] += n
		}
		s.mu.RUnlock()
	}

	return stats, nil
}

// Types lists semantic types that currently hold values.
func (p *ShardedParameterPool) Types(ctx context.Context) ([]SemanticType, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	types := make([]SemanticType, 0)
	for _, s := range p.shards {
		s.mu.RLock()
		for st, rb := range s.buffers {
			if rb.Count() > 0 {
				types = append(types, st)
			}
		}
		s.mu.RUnlock()
	}

	return types, nil
}

// Close stops the sweeper. A second Close reports ErrPoolClosed.
func (p *ShardedParameterPool) Close() error {
	if p.closed.Swap(true) {
		return ErrPoolClosed
	}

	if p.cleanupTicker != nil {
		p.cleanupTicker.Stop()
		close(p.cleanupDone)
	}

	return nil
}

// ShardCount reports how many shards the pool runs with.
func (p *ShardedParameterPool) ShardCount() int {
	return len(p.shards)
}

// EvictionCount reports the lifetime eviction total.
func (p *ShardedParameterPool) EvictionCount() int64 {
	return p.evictionCount.Load()
}
