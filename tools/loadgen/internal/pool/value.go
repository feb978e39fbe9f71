// Package pool stores parameter values for the load generator, keyed by
// semantic type, with optional TTL expiration.
package pool

import (
	"sync/atomic"
	"time"
)

// SemanticType classifies a pooled value, e.g. entity.dealer.id or
// ledger.reference_number.
type SemanticType string

// Semantic types used when driving the inventory API.
const (
	// Entity types
	SemanticTypeTenantID  SemanticType = "entity.tenant.id"
	SemanticTypeProductID SemanticType = "entity.product.id"
	SemanticTypeDealerID  SemanticType = "entity.dealer.id"

	// Order types
	SemanticTypeOrderID         SemanticType = "order.customer_order.id"
	SemanticTypePurchaseOrderID SemanticType = "order.purchase_order.id"

	// Ledger types
	SemanticTypeAllocationID    SemanticType = "ledger.allocation.id"
	SemanticTypeTransactionID   SemanticType = "ledger.transaction.id"
	SemanticTypeReferenceNumber SemanticType = "ledger.reference_number"

	// Common types
	SemanticTypeEmail     SemanticType = "common.email"
	SemanticTypePhone     SemanticType = "common.phone"
	SemanticTypeSKU       SemanticType = "common.sku"
	SemanticTypeTimestamp SemanticType = "common.timestamp"
	SemanticTypeUUID      SemanticType = "common.uuid"
)

// ParameterValue is one pooled value plus provenance and expiry metadata.
// Value is treated as immutable after creation; the access counters use
// atomics so Touch may be called concurrently.
type ParameterValue struct {
	// Value is the stored payload, any JSON-compatible type.
	Value any

	// SemanticType classifies the value.
	SemanticType SemanticType

	// SourceEndpoint records which endpoint produced the value,
	// e.g. "POST /inventory/receipts".
	SourceEndpoint string

	// ResponsePath is the JSONPath the value was extracted from.
	ResponsePath string

	// CreatedAt is when the value entered the pool.
	CreatedAt time.Time

	// ExpiresAt marks the value stale after this instant; zero means it
	// never expires.
	ExpiresAt time.Time

	accessCount    atomic.Int64
	lastAccessedAt atomic.Int64 // Unix nanoseconds
}

// NewParameterValue wraps value under the given semantic type. A ttl of
// zero disables expiration.
func NewParameterValue(value any, semanticType SemanticType, ttl time.Duration) *ParameterValue {
	now := time.Now()
	pv := &ParameterValue{
		Value:        value,
		SemanticType: semanticType,
		CreatedAt:    now,
	}
	pv.lastAccessedAt.Store(now.UnixNano())
	if ttl > 0 {
		pv.ExpiresAt = now.Add(ttl)
	}
	return pv
}

// WithSource records where the value came from and returns the receiver
// for chaining.
func (pv *ParameterValue) WithSource(endpoint, path string) *ParameterValue {
	pv.SourceEndpoint = endpoint
	pv.ResponsePath = path
	return pv
}

// IsExpired reports whether the TTL has lapsed.
func (pv *ParameterValue) IsExpired() bool {
	return !pv.ExpiresAt.IsZero() && time.Now().After(pv.ExpiresAt)
}

// Touch bumps the access counters.
func (pv *ParameterValue) Touch() {
	pv.accessCount.Add(1)
	pv.lastAccessedAt.Store(time.Now().UnixNano())
}

// AccessCount reports how many times the value has been read.
func (pv *ParameterValue) AccessCount() int64 {
	return pv.accessCount.Load()
}

// LastAccessedAt reports when the value was last read.
func (pv *ParameterValue) LastAccessedAt() time.Time {
	return time.Unix(0, pv.lastAccessedAt.Load())
}

// Clone copies the value and its counters. The Value field is shared, not
// deep-copied.
func (pv *ParameterValue) Clone() *ParameterValue {
	clone := &ParameterValue{
		Value:          pv.Value,
		SemanticType:   pv.SemanticType,
		SourceEndpoint: pv.SourceEndpoint,
		ResponsePath:   pv.ResponsePath,
		CreatedAt:      pv.CreatedAt,
		ExpiresAt:      pv.ExpiresAt,
	}
	clone.accessCount.Store(pv.accessCount.Load())
	clone.lastAccessedAt.Store(pv.lastAccessedAt.Load())
	return clone
}
