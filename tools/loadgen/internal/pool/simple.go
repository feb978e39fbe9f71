package pool

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// SimpleParameterPool guards everything with one lock. It is the easy
// baseline; under heavy worker counts ShardedParameterPool fares better.
type SimpleParameterPool struct {
	mu        sync.RWMutex
	byType    map[SemanticType][]*ParameterValue
	config    PoolConfig
	startedAt time.Time

	hitCount      atomic.Int64
	missCount     atomic.Int64
	addCount      atomic.Int64
	evictionCount atomic.Int64
	expireCount   atomic.Int64

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	closed        atomic.Bool

	rng *rand.Rand
}

// NewSimpleParameterPool builds a pool and, when a cleanup interval is
// configured, starts its expiry sweeper.
func NewSimpleParameterPool(config PoolConfig) *SimpleParameterPool {
	p := &SimpleParameterPool{
		byType:      make(map[SemanticType][]*ParameterValue),
		config:      config,
		startedAt:   time.Now(),
		cleanupDone: make(chan struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if config.CleanupInterval > 0 {
		p.cleanupTicker = time.NewTicker(config.CleanupInterval)
		go p.cleanupLoop()
	}

	return p
}

// Add stores a value, evicting one first when the type is at its cap.
func (p *SimpleParameterPool) Add(ctx context.Context, value *ParameterValue) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.addCount.Add(1)

	evicted := 0
	if p.config.MaxValuesPerType > 0 && len(p.byType[value.SemanticType]) >= p.config.MaxValuesPerType {
		evicted = p.evictOne(value.SemanticType)
	}

	p.byType[value.SemanticType] = append(p.byType[value.SemanticType], value)
	return evicted, nil
}

// evictOne drops one value of the given type per the policy. Caller holds
// the lock.
func (p *SimpleParameterPool) evictOne(semanticType SemanticType) int {
	values := p.byType[semanticType]
	if len(values) == 0 {
		return 0
	}

	victim := 0
	switch p.config.EvictionPolicy {
	case EvictionLRU:
		coldest := values[0].LastAccessedAt()
		for i, v := range values {
			if at := v.LastAccessedAt(); at.Before(coldest) {
				coldest = at
				victim = i
			}
		}
	case EvictionRandom:
		victim = p.rng.Intn(len(values))
	}

	p.byType[semanticType] = append(values[:victim], values[victim+1:]...)
	p.evictionCount.Add(1)
	return 1
}

// Get returns the oldest live value for the type, or nil on a miss.
func (p *SimpleParameterPool) Get(ctx context.Context, semanticType SemanticType) (*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.byType[semanticType] {
		if !v.IsExpired() {
			v.Touch()
			p.hitCount.Add(1)
			return v, nil
		}
	}

	p.missCount.Add(1)
	return nil, nil
}

// GetRandom returns a randomly chosen live value for the type, or nil on a
// miss.
func (p *SimpleParameterPool) GetRandom(ctx context.Context, semanticType SemanticType) (*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	live := liveValues(p.byType[semanticType])
	if len(live) == 0 {
		p.missCount.Add(1)
		return nil, nil
	}

	v := live[p.rng.Intn(len(live))]
	v.Touch()
	p.hitCount.Add(1)
	return v, nil
}

// GetAll returns every live value for the type.
func (p *SimpleParameterPool) GetAll(ctx context.Context, semanticType SemanticType) ([]*ParameterValue, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return liveValues(p.byType[semanticType]), nil
}

// liveValues filters out expired entries.
func liveValues(values []*ParameterValue) []*ParameterValue {
	live := make([]*ParameterValue, 0, len(values))
	for _, v := range values {
		if !v.IsExpired() {
			live = append(live, v)
		}
	}
	return live
}

// Count reports stored values for the type, expired ones included.
func (p *SimpleParameterPool) Count(ctx context.Context, semanticType SemanticType) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.byType[semanticType]), nil
}

// Remove deletes one value, reporting whether it was present.
func (p *SimpleParameterPool) Remove(ctx context.Context, value *ParameterValue) (bool, error) {
	if p.closed.Load() {
		return false, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	values := p.byType[value.SemanticType]
	for i, v := range values {
		if v == value {
			p.byType[value.SemanticType] = append(values[:i], values[i+1:]...)
			return true, nil
		}
	}

	return false, nil
}

// Clear drops every value of one type.
func (p *SimpleParameterPool) Clear(ctx context.Context, semanticType SemanticType) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dropped := len(p.byType[semanticType])
	delete(p.byType, semanticType)
	return dropped, nil
}

// ClearAll empties the pool.
func (p *SimpleParameterPool) ClearAll(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.byType = make(map[SemanticType][]*ParameterValue)
	return nil
}

// Cleanup drops every expired value and reports how many were dropped.
func (p *SimpleParameterPool) Cleanup(ctx context.Context) (int, error) {
	if p.closed.Load() {
		return 0, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for st, values := range p.byType {
		live := liveValues(values)
		if dropped := len(values) - len(live); dropped > 0 {
			p.byType[st] = live
			total += dropped
		}
	}

	p.expireCount.Add(int64(total))
	return total, nil
}

func (p *SimpleParameterPool) cleanupLoop() {
	for {
		select {
		case <-p.cleanupTicker.C:
			_, _ = p.Cleanup(context.Background())
		case <-p.cleanupDone:
			return
		}
	}
}

// Stats snapshots the pool counters.
func (p *SimpleParameterPool) Stats(ctx context.Context) (Stats, error) {
	if p.closed.Load() {
		return Stats{}, ErrPoolClosed
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := Stats{
		ValuesByType:  make(map[SemanticType]int64),
		HitCount:      p.hitCount.Load(),
		MissCount:     p.missCount.Load(),
		EvictionCount: p.evictionCount.Load(),
		ExpiredCount:  p.expireCount.Load(),
		AddCount:      p.addCount.Load(),
		Uptime:        time.Since(p.startedAt),
	}

	for st, values := range p.byType {
		n := int64(len(values))
		stats.TotalValues += n
		stats.ValuesByType[st] = n
	}

	return stats, nil
}

// Types lists semantic types that currently hold values.
func (p *SimpleParameterPool) Types(ctx context.Context) ([]SemanticType, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	types := make([]SemanticType, 0, len(p.byType))
	for st, values := range p.byType {
		if len(values) > 0 {
			types = append(types, st)
		}
	}

	return types, nil
}

// Close stops the sweeper. A second Close reports ErrPoolClosed.
func (p *SimpleParameterPool) Close() error {
	if p.closed.Swap(true) {
		return ErrPoolClosed
	}

	if p.cleanupTicker != nil {
		p.cleanupTicker.Stop()
		close(p.cleanupDone)
	}

	return nil
}

// EvictionCount reports the lifetime eviction total.
func (p *SimpleParameterPool) EvictionCount() int64 {
	return p.evictionCount.Load()
}
