package pool

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newShardedPool builds a pool with the background sweeper disabled so
// tests control expiry explicitly.
func newShardedPool(t *testing.T, mutate func(*PoolConfig)) *ShardedParameterPool {
	t.Helper()

	config := DefaultPoolConfig()
	config.CleanupInterval = 0
	if mutate != nil {
		mutate(&config)
	}

	p := NewShardedParameterPool(config)
	t.Cleanup(func() { p.Close() })
	return p
}

func addValues(t *testing.T, p *ShardedParameterPool, st SemanticType, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if _, err := p.Add(ctx, NewParameterValue(i, st, 0)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
}

func TestShardedPoolAddGetCount(t *testing.T) {
	p := newShardedPool(t, nil)
	ctx := context.Background()

	if _, err := p.Add(ctx, NewParameterValue("dealer-123", SemanticTypeDealerID, 0)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := p.Get(ctx, SemanticTypeDealerID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Value != "dealer-123" {
		t.Errorf("Get = %v, want dealer-123", got)
	}

	if count, _ := p.Count(ctx, SemanticTypeDealerID); count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestShardedPoolTypeIsolation(t *testing.T) {
	p := newShardedPool(t, nil)
	ctx := context.Background()

	types := []SemanticType{
		SemanticTypeDealerID,
		SemanticTypeProductID,
		SemanticTypeOrderID,
		SemanticTypeTenantID,
	}
	for _, st := range types {
		if _, err := p.Add(ctx, NewParameterValue("value-"+string(st), st, 0)); err != nil {
			t.Fatalf("Add %s: %v", st, err)
		}
	}

	for _, st := range types {
		if count, _ := p.Count(ctx, st); count != 1 {
			t.Errorf("Count for %s = %d, want 1", st, count)
		}
	}

	gotTypes, err := p.Types(ctx)
	if err != nil {
		t.Fatalf("Types: %v", err)
	}
	if len(gotTypes) != len(types) {
		t.Errorf("Types = %d entries, want %d", len(gotTypes), len(types))
	}
}

func TestShardedPoolReads(t *testing.T) {
	t.Run("GetRandom never misses on a populated type", func(t *testing.T) {
		p := newShardedPool(t, nil)
		addValues(t, p, SemanticTypeDealerID, 10)

		for range 20 {
			got, err := p.GetRandom(context.Background(), SemanticTypeDealerID)
			if err != nil {
				t.Fatalf("GetRandom: %v", err)
			}
			if got == nil {
				t.Error("GetRandom returned nil")
			}
		}
	})

	t.Run("GetAll returns every live value", func(t *testing.T) {
		p := newShardedPool(t, nil)
		addValues(t, p, SemanticTypeDealerID, 5)

		all, err := p.GetAll(context.Background(), SemanticTypeDealerID)
		if err != nil {
			t.Fatalf("GetAll: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("GetAll = %d values, want 5", len(all))
		}
	})

	t.Run("Get on an empty type is a counted miss", func(t *testing.T) {
		p := newShardedPool(t, nil)

		got, err := p.Get(context.Background(), SemanticTypeDealerID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Error("Get on an empty pool should return nil")
		}

		stats, _ := p.Stats(context.Background())
		if stats.MissCount != 1 {
			t.Errorf("MissCount = %d, want 1", stats.MissCount)
		}
	})

	t.Run("Get skips expired values", func(t *testing.T) {
		p := newShardedPool(t, nil)
		ctx := context.Background()

		p.Add(ctx, NewParameterValue("stale", SemanticTypeDealerID, time.Nanosecond))
		time.Sleep(time.Millisecond)

		got, err := p.Get(ctx, SemanticTypeDealerID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Error("Get should not return an expired value")
		}
	})
}

func TestShardedPoolRemoveAndClear(t *testing.T) {
	ctx := context.Background()

	t.Run("Remove", func(t *testing.T) {
		p := newShardedPool(t, nil)
		v := NewParameterValue("to-remove", SemanticTypeDealerID, 0)
		p.Add(ctx, v)

		removed, err := p.Remove(ctx, v)
		if err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if !removed {
			t.Error("Remove should report true")
		}
		if count, _ := p.Count(ctx, SemanticTypeDealerID); count != 0 {
			t.Errorf("Count = %d, want 0", count)
		}
	})

	t.Run("Clear one type", func(t *testing.T) {
		p := newShardedPool(t, nil)
		addValues(t, p, SemanticTypeDealerID, 10)

		cleared, err := p.Clear(ctx, SemanticTypeDealerID)
		if err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if cleared != 10 {
			t.Errorf("Clear = %d, want 10", cleared)
		}
	})

	t.Run("ClearAll", func(t *testing.T) {
		p := newShardedPool(t, nil)
		p.Add(ctx, NewParameterValue("d1", SemanticTypeDealerID, 0))
		p.Add(ctx, NewParameterValue("p1", SemanticTypeProductID, 0))

		if err := p.ClearAll(ctx); err != nil {
			t.Fatalf("ClearAll: %v", err)
		}

		c1, _ := p.Count(ctx, SemanticTypeDealerID)
		c2, _ := p.Count(ctx, SemanticTypeProductID)
		if c1+c2 != 0 {
			t.Errorf("total count = %d, want 0", c1+c2)
		}
	})
}

func TestShardedPoolCleanup(t *testing.T) {
	p := newShardedPool(t, nil)
	ctx := context.Background()

	p.Add(ctx, NewParameterValue("stale", SemanticTypeDealerID, time.Millisecond))
	p.Add(ctx, NewParameterValue("fresh", SemanticTypeDealerID, time.Hour))
	time.Sleep(10 * time.Millisecond)

	cleaned, err := p.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if cleaned != 1 {
		t.Errorf("Cleanup = %d, want 1", cleaned)
	}
	if count, _ := p.Count(ctx, SemanticTypeDealerID); count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestShardedPoolStats(t *testing.T) {
	p := newShardedPool(t, nil)
	ctx := context.Background()

	addValues(t, p, SemanticTypeDealerID, 5)
	for range 3 {
		p.Get(ctx, SemanticTypeDealerID)
	}
	p.Get(ctx, SemanticTypeProductID) // miss

	stats, err := p.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalValues != 5 {
		t.Errorf("TotalValues = %d, want 5", stats.TotalValues)
	}
	if stats.AddCount != 5 {
		t.Errorf("AddCount = %d, want 5", stats.AddCount)
	}
	if stats.HitCount != 3 {
		t.Errorf("HitCount = %d, want 3", stats.HitCount)
	}
	if stats.MissCount != 1 {
		t.Errorf("MissCount = %d, want 1", stats.MissCount)
	}
}

func TestShardedPoolEvictionAtCap(t *testing.T) {
	p := newShardedPool(t, func(c *PoolConfig) {
		c.MaxValuesPerType = 3
		c.EvictionPolicy = EvictionFIFO
	})
	addValues(t, p, SemanticTypeDealerID, 5)

	if count, _ := p.Count(context.Background(), SemanticTypeDealerID); count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
	if p.EvictionCount() != 2 {
		t.Errorf("EvictionCount = %d, want 2", p.EvictionCount())
	}
}

func TestShardedPoolClose(t *testing.T) {
	config := DefaultPoolConfig()
	config.CleanupInterval = 10 * time.Millisecond
	p := NewShardedParameterPool(config)

	ctx := context.Background()
	p.Add(ctx, NewParameterValue("x", SemanticTypeDealerID, 0))

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Get(ctx, SemanticTypeDealerID); err != ErrPoolClosed {
		t.Errorf("Get after Close = %v, want ErrPoolClosed", err)
	}
	if err := p.Close(); err != ErrPoolClosed {
		t.Errorf("second Close = %v, want ErrPoolClosed", err)
	}
}

func TestShardedPoolConcurrentAccess(t *testing.T) {
	p := newShardedPool(t, func(c *PoolConfig) {
		c.ShardCount = 16
		c.MaxValuesPerType = 100
	})
	ctx := context.Background()

	const workers = 100
	const ops = 100

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := range ops {
				p.Add(ctx, NewParameterValue(id*1000+j, SemanticTypeDealerID, 0))
			}
		}(i)
		go func() {
			defer wg.Done()
			for range ops {
				p.Get(ctx, SemanticTypeDealerID)
				p.GetRandom(ctx, SemanticTypeDealerID)
				p.Count(ctx, SemanticTypeDealerID)
			}
		}()
	}
	wg.Wait()

	stats, _ := p.Stats(ctx)
	if stats.TotalValues <= 0 {
		t.Error("pool should hold values after concurrent writes")
	}
}

func TestShardedPoolShardSizing(t *testing.T) {
	cases := []struct {
		configured int
		want       int
	}{
		{0, 16},
		{1, 1},
		{8, 8},
		{10, 16},
		{17, 32},
	}

	for _, tc := range cases {
		p := newShardedPool(t, func(c *PoolConfig) { c.ShardCount = tc.configured })
		if got := p.ShardCount(); got != tc.want {
			t.Errorf("ShardCount(%d) = %d, want %d", tc.configured, got, tc.want)
		}
	}
}

func TestEvictionPolicyString(t *testing.T) {
	cases := map[EvictionPolicy]string{
		EvictionFIFO:       "FIFO",
		EvictionLRU:        "LRU",
		EvictionRandom:     "Random",
		EvictionPolicy(99): "Unknown",
	}
	for policy, want := range cases {
		if got := policy.String(); got != want {
			t.Errorf("EvictionPolicy(%d).String() = %s, want %s", policy, got, want)
		}
	}
}

func TestParseEvictionPolicy(t *testing.T) {
	cases := map[string]EvictionPolicy{
		"LRU":     EvictionLRU,
		"lru":     EvictionLRU,
		"Random":  EvictionRandom,
		"RANDOM":  EvictionRandom,
		"fifo":    EvictionFIFO,
		"unknown": EvictionFIFO,
		"":        EvictionFIFO,
	}
	for in, want := range cases {
		if got := ParseEvictionPolicy(in); got != want {
			t.Errorf("ParseEvictionPolicy(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStatsHitRate(t *testing.T) {
	cases := []struct {
		hits, misses int64
		want         float64
	}{
		{0, 0, 0},
		{10, 0, 100},
		{0, 10, 0},
		{50, 50, 50},
		{3, 1, 75},
	}
	for _, tc := range cases {
		s := Stats{HitCount: tc.hits, MissCount: tc.misses}
		if got := s.HitRate(); got != tc.want {
			t.Errorf("HitRate(%d, %d) = %f, want %f", tc.hits, tc.misses, got, tc.want)
		}
	}
}
