package allocation

import (
	"context"
	"time"

	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationFilter narrows allocation queries. Zero-value fields are
// ignored. Inactive (soft-deleted) allocations are excluded unless
// IncludeInactive is set.
type AllocationFilter struct {
	shared.Filter
	ProductID       *uuid.UUID
	DealerID        *uuid.UUID
	Status          *AllocationStatus
	IncludeInactive bool
}

// TransactionFilter narrows ledger queries. Results are ordered
// newest-first by default.
type TransactionFilter struct {
	shared.Filter
	ProductID       *uuid.UUID
	DealerID        *uuid.UUID
	TransactionType *TransactionType
	ReferenceNumber string
	FromDate        *time.Time
	ToDate          *time.Time
}

// StockSummary aggregates the alerting buckets over active allocations
type StockSummary struct {
	TotalAllocations int64           `json:"total_allocations"`
	TotalAvailable   decimal.Decimal `json:"total_available"`
	TotalReserved    decimal.Decimal `json:"total_reserved"`
	LowStockCount    int64           `json:"low_stock_count"`
	CriticalCount    int64           `json:"critical_count"`
	OutOfStockCount  int64           `json:"out_of_stock_count"`
}

// LedgerSummary aggregates ledger entries for one dealer or product
type LedgerSummary struct {
	EntryCount int64           `json:"entry_count"`
	TotalIn    decimal.Decimal `json:"total_in"`
	TotalOut   decimal.Decimal `json:"total_out"`
	NetChange  decimal.Decimal `json:"net_change"`
}

// AllocationRepository is the persistence boundary for the Allocation
// aggregate. The stock operations engine is the only writer; reads from
// other components go through the query methods and may lag in-flight
// writes.
type AllocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Allocation, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Allocation, error)
	FindByProductAndDealer(ctx context.Context, tenantID, productID, dealerID uuid.UUID) (*Allocation, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter AllocationFilter) ([]Allocation, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter AllocationFilter) (int64, error)

	// FindLowStock returns active allocations with 0 < available <= minimum
	FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]Allocation, error)
	// FindCriticalStock returns active allocations with 0 < available <= minimum/2
	FindCriticalStock(ctx context.Context, tenantID uuid.UUID) ([]Allocation, error)
	// FindOutOfStock returns active allocations with available <= 0
	FindOutOfStock(ctx context.Context, tenantID uuid.UUID) ([]Allocation, error)
	// Summarize computes the stock summary over active allocations
	Summarize(ctx context.Context, tenantID uuid.UUID) (*StockSummary, error)

	// Save persists a new allocation
	Save(ctx context.Context, a *Allocation) error
	// SaveWithLock persists an existing allocation with an optimistic
	// version check. Returns ErrConcurrencyConflict when the row was
	// modified by another writer since it was read.
	SaveWithLock(ctx context.Context, a *Allocation) error
	// GetOrCreate returns the allocation for the product-dealer pair,
	// creating one with default thresholds if none exists. Creation is
	// race-safe: concurrent callers converge on a single row.
	GetOrCreate(ctx context.Context, tenantID, productID, dealerID uuid.UUID) (*Allocation, error)
}

// StockTransactionRepository is the persistence boundary for the ledger.
// The ledger is append-only: Create is the only write, and entries are
// immutable once stored.
type StockTransactionRepository interface {
	Create(ctx context.Context, tx *StockTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransaction, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*StockTransaction, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]StockTransaction, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) (int64, error)
	// FindByReference returns all entries sharing a reference number,
	// e.g. both halves of one transfer
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceNumber string) ([]StockTransaction, error)
	// SummarizeByDealer aggregates entries for one dealer
	SummarizeByDealer(ctx context.Context, tenantID, dealerID uuid.UUID) (*LedgerSummary, error)
	// SummarizeByProduct aggregates entries for one product
	SummarizeByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*LedgerSummary, error)
}
