package pool

import (
	"sync"
	"testing"
	"time"
)

func fillBuffer(rb *RingBuffer, n int) []*ParameterValue {
	values := make([]*ParameterValue, n)
	for i := range values {
		values[i] = NewParameterValue(i, SemanticTypeDealerID, 0)
		rb.Add(values[i])
	}
	return values
}

func TestRingBufferAddGet(t *testing.T) {
	rb := NewRingBuffer(5, EvictionFIFO)

	if !rb.IsEmpty() || rb.IsFull() {
		t.Fatal("fresh buffer should be empty and not full")
	}

	v := NewParameterValue("DLR-001", SemanticTypeDealerID, 0)
	if evicted := rb.Add(v); evicted != 0 {
		t.Errorf("Add evicted %d, want 0", evicted)
	}
	if rb.Count() != 1 {
		t.Errorf("Count = %d, want 1", rb.Count())
	}
	if got := rb.Get(); got != v {
		t.Error("Get should return the stored value")
	}
}

func TestRingBufferEviction(t *testing.T) {
	t.Run("FIFO drops the oldest", func(t *testing.T) {
		rb := NewRingBuffer(3, EvictionFIFO)
		values := fillBuffer(rb, 3)

		overflow := NewParameterValue("overflow", SemanticTypeDealerID, 0)
		if evicted := rb.Add(overflow); evicted != 1 {
			t.Errorf("Add evicted %d, want 1", evicted)
		}
		if rb.Count() != 3 {
			t.Errorf("Count = %d, want 3", rb.Count())
		}
		if rb.EvictionCount() != 1 {
			t.Errorf("EvictionCount = %d, want 1", rb.EvictionCount())
		}

		for _, v := range rb.GetAll() {
			if v == values[0] {
				t.Error("oldest value should have been evicted")
			}
		}
	})

	t.Run("LRU drops the coldest", func(t *testing.T) {
		rb := NewRingBuffer(3, EvictionLRU)
		fillBuffer(rb, 3)

		// Reading warms the oldest slot so it is no longer the victim.
		time.Sleep(time.Millisecond)
		rb.Get()

		if evicted := rb.Add(NewParameterValue("overflow", SemanticTypeDealerID, 0)); evicted != 1 {
			t.Errorf("Add evicted %d, want 1", evicted)
		}
		if rb.Count() != 3 {
			t.Errorf("Count = %d, want 3", rb.Count())
		}
	})

	t.Run("Random drops exactly one", func(t *testing.T) {
		rb := NewRingBuffer(3, EvictionRandom)
		fillBuffer(rb, 3)

		if evicted := rb.Add(NewParameterValue("overflow", SemanticTypeDealerID, 0)); evicted != 1 {
			t.Errorf("Add evicted %d, want 1", evicted)
		}
		if rb.Count() != 3 {
			t.Errorf("Count = %d, want 3", rb.Count())
		}
		if rb.EvictionCount() != 1 {
			t.Errorf("EvictionCount = %d, want 1", rb.EvictionCount())
		}
	})
}

func TestRingBufferGetRandom(t *testing.T) {
	rb := NewRingBuffer(10, EvictionFIFO)

	if rb.GetRandom() != nil {
		t.Error("GetRandom on an empty buffer should return nil")
	}

	fillBuffer(rb, 5)

	got := rb.GetRandom()
	if got == nil {
		t.Fatal("GetRandom should return a value")
	}

	seed := got.AccessCount()
	for range 10 {
		rb.GetRandom()
	}

	var total int64
	for _, v := range rb.GetAll() {
		total += v.AccessCount()
	}
	if total <= seed {
		t.Error("GetRandom should bump access counts")
	}
}

func TestRingBufferRemove(t *testing.T) {
	rb := NewRingBuffer(5, EvictionFIFO)
	values := fillBuffer(rb, 2)

	if !rb.Remove(values[0]) {
		t.Error("Remove should report true for a stored value")
	}
	if rb.Count() != 1 {
		t.Errorf("Count = %d, want 1", rb.Count())
	}
	if rb.Remove(values[0]) {
		t.Error("Remove should report false the second time")
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(5, EvictionFIFO)
	fillBuffer(rb, 5)

	if cleared := rb.Clear(); cleared != 5 {
		t.Errorf("Clear = %d, want 5", cleared)
	}
	if !rb.IsEmpty() {
		t.Error("buffer should be empty after Clear")
	}
}

func TestRingBufferRemoveExpired(t *testing.T) {
	rb := NewRingBuffer(5, EvictionFIFO)
	rb.Add(NewParameterValue("stale-1", SemanticTypeDealerID, time.Millisecond))
	rb.Add(NewParameterValue("fresh", SemanticTypeDealerID, time.Hour))
	rb.Add(NewParameterValue("stale-2", SemanticTypeDealerID, time.Millisecond))

	time.Sleep(10 * time.Millisecond)

	if removed := rb.RemoveExpired(); removed != 2 {
		t.Errorf("RemoveExpired = %d, want 2", removed)
	}
	if rb.Count() != 1 {
		t.Errorf("Count = %d, want 1", rb.Count())
	}
}

func TestRingBufferConcurrentAccess(t *testing.T) {
	rb := NewRingBuffer(100, EvictionFIFO)

	const workers = 10
	const ops = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				rb.Add(NewParameterValue(id*1000+j, SemanticTypeDealerID, 0))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				rb.Get()
				rb.GetRandom()
				rb.Count()
			}
		}()
	}
	wg.Wait()

	if rb.Count() > rb.Capacity() {
		t.Errorf("Count %d exceeds capacity %d", rb.Count(), rb.Capacity())
	}
}

func TestNewRingBufferCapacity(t *testing.T) {
	if got := NewRingBuffer(10, EvictionFIFO).Capacity(); got != 10 {
		t.Errorf("Capacity = %d, want 10", got)
	}

	// Non-positive capacities fall back to the default.
	for _, capacity := range []int{0, -5} {
		if got := NewRingBuffer(capacity, EvictionFIFO).Capacity(); got != 1000 {
			t.Errorf("Capacity(%d) = %d, want 1000", capacity, got)
		}
	}
}
