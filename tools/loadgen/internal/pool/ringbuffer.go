package pool

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// RingBuffer holds the values of one semantic type in a fixed-capacity
// circular buffer. When full, Add evicts according to the configured policy.
// All methods are safe for concurrent use.
type RingBuffer struct {
	mu       sync.RWMutex
	slots    []*ParameterValue
	head     int // next write slot
	tail     int // oldest slot, where FIFO eviction starts
	count    int
	capacity int

	policy        EvictionPolicy
	evictionCount atomic.Int64

	// Slot indices ordered oldest read first. Maintained only under LRU.
	accessOrder []int

	rng *rand.Rand
}

// NewRingBuffer builds a buffer holding at most capacity values.
func NewRingBuffer(capacity int, policy EvictionPolicy) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer{
		slots:       make([]*ParameterValue, capacity),
		capacity:    capacity,
		policy:      policy,
		accessOrder: make([]int, 0, capacity),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Add stores a value, evicting one first if the buffer is full. Returns the
// number of values evicted.
func (rb *RingBuffer) Add(value *ParameterValue) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	evicted := 0
	if rb.count >= rb.capacity {
		evicted = rb.evictOne()
	}

	rb.slots[rb.head] = value
	if rb.policy == EvictionLRU {
		rb.accessOrder = append(rb.accessOrder, rb.head)
	}
	rb.head = (rb.head + 1) % rb.capacity
	rb.count++

	return evicted
}

// evictOne frees a slot per the policy. Caller holds the lock.
func (rb *RingBuffer) evictOne() int {
	if rb.count == 0 {
		return 0
	}

	victim := rb.tail

	switch rb.policy {
	case EvictionLRU:
		if len(rb.accessOrder) > 0 {
			victim = rb.accessOrder[0]
			rb.accessOrder = rb.accessOrder[1:]
		}
	case EvictionRandom:
		victim = rb.randomOccupiedSlot()
	}

	if victim == rb.tail {
		rb.tail = (rb.tail + 1) % rb.capacity
	}

	rb.slots[victim] = nil
	rb.count--
	rb.evictionCount.Add(1)

	return 1
}

// randomOccupiedSlot returns an occupied slot index. Caller holds the lock
// and guarantees count > 0.
func (rb *RingBuffer) randomOccupiedSlot() int {
	start := (rb.tail + rb.rng.Intn(rb.count)) % rb.capacity
	for i := 0; i < rb.capacity; i++ {
		idx := (start + i) % rb.capacity
		if rb.slots[idx] != nil {
			return idx
		}
	}
	return rb.tail
}

// Get returns the oldest value without removing it, or nil when empty.
func (rb *RingBuffer) Get() *ParameterValue {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil
	}

	for i := 0; i < rb.capacity; i++ {
		idx := (rb.tail + i) % rb.capacity
		if v := rb.slots[idx]; v != nil {
			v.Touch()
			rb.markRead(idx)
			return v
		}
	}
	return nil
}

// GetRandom returns an arbitrary value without removing it, or nil when
// empty.
func (rb *RingBuffer) GetRandom() *ParameterValue {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil
	}

	start := rb.rng.Intn(rb.capacity)
	for i := 0; i < rb.capacity; i++ {
		idx := (start + i) % rb.capacity
		if v := rb.slots[idx]; v != nil {
			v.Touch()
			rb.markRead(idx)
			return v
		}
	}
	return nil
}

// markRead moves a slot to the most-recently-read end of the access order.
// Caller holds the lock.
func (rb *RingBuffer) markRead(idx int) {
	if rb.policy != EvictionLRU {
		return
	}
	rb.dropFromAccessOrder(idx)
	rb.accessOrder = append(rb.accessOrder, idx)
}

// dropFromAccessOrder removes one slot index from the LRU ordering. Caller
// holds the lock.
func (rb *RingBuffer) dropFromAccessOrder(idx int) {
	for i, slot := range rb.accessOrder {
		if slot == idx {
			rb.accessOrder = append(rb.accessOrder[:i], rb.accessOrder[i+1:]...)
			return
		}
	}
}

// GetAll returns every stored value.
func (rb *RingBuffer) GetAll() []*ParameterValue {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	values := make([]*ParameterValue, 0, rb.count)
	for _, v := range rb.slots {
		if v != nil {
			values = append(values, v)
		}
	}
	return values
}

// Count returns how many values are stored.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Capacity returns the fixed buffer size.
func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

// EvictionCount returns how many values have been evicted so far.
func (rb *RingBuffer) EvictionCount() int64 {
	return rb.evictionCount.Load()
}

// Remove deletes one value, reporting whether it was present.
func (rb *RingBuffer) Remove(value *ParameterValue) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i, v := range rb.slots {
		if v == value {
			rb.slots[i] = nil
			rb.count--
			if rb.policy == EvictionLRU {
				rb.dropFromAccessOrder(i)
			}
			return true
		}
	}
	return false
}

// Clear empties the buffer and returns how many values were dropped.
func (rb *RingBuffer) Clear() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	dropped := rb.count
	for i := range rb.slots {
		rb.slots[i] = nil
	}
	rb.head = 0
	rb.tail = 0
	rb.count = 0
	rb.accessOrder = rb.accessOrder[:0]

	return dropped
}

// RemoveExpired drops every value whose TTL has lapsed and returns the count.
func (rb *RingBuffer) RemoveExpired() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	removed := 0
	for i, v := range rb.slots {
		if v != nil && v.IsExpired() {
			rb.slots[i] = nil
			rb.count--
			removed++
			if rb.policy == EvictionLRU {
				rb.dropFromAccessOrder(i)
			}
		}
	}
	return removed
}

// IsFull reports whether the buffer is at capacity.
func (rb *RingBuffer) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count >= rb.capacity
}

// IsEmpty reports whether the buffer holds nothing.
func (rb *RingBuffer) IsEmpty() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count == 0
}
