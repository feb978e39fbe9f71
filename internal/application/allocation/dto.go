package allocation

import (
	"time"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	DealerID          uuid.UUID       `json:"dealer_id"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	MinimumStock      decimal.Decimal `json:"minimum_stock"`
	MaximumStock      decimal.Decimal `json:"maximum_stock"`
	Status            string          `json:"status"`
	Priority          string          `json:"priority"`
	IsLowStock        bool            `json:"is_low_stock"`
	IsCriticalStock   bool            `json:"is_critical_stock"`
	LastRestockDate   *time.Time      `json:"last_restock_date,omitempty"`
	NextRestockDate   *time.Time      `json:"next_restock_date,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	AllocationID    uuid.UUID       `json:"allocation_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	DealerID        *uuid.UUID      `json:"dealer_id,omitempty"`
	OrderID         *uuid.UUID      `json:"order_id,omitempty"`
	ProcessedBy     *uuid.UUID      `json:"processed_by,omitempty"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	SignedQuantity  decimal.Decimal `json:"signed_quantity"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	Reason          string          `json:"reason"`
	ReferenceNumber string          `json:"reference_number"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransferRequest represents a dealer-to-dealer stock transfer
type TransferRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	FromDealerID   uuid.UUID       `json:"from_dealer_id" binding:"required"`
	ToDealerID     uuid.UUID       `json:"to_dealer_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Notes          string          `json:"notes"`
	ActorID        *uuid.UUID      `json:"-"`
	IdempotencyKey string          `json:"-"`
}

// TransferResult is returned after a successful transfer
type TransferResult struct {
	ReferenceNumber string             `json:"reference_number"`
	Source          AllocationResponse `json:"source"`
	Destination     AllocationResponse `json:"destination"`
}

// AdjustRequest represents a signed manual stock correction
type AdjustRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	DealerID       uuid.UUID       `json:"dealer_id" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"` // signed
	Reason         string          `json:"reason" binding:"required,oneof=SALE PURCHASE TRANSFER DAMAGE RETURN CORRECTION OTHER"`
	Notes          string          `json:"notes"`
	ActorID        *uuid.UUID      `json:"-"`
	IdempotencyKey string          `json:"-"`
}

// AdjustResult is returned after a successful adjustment
type AdjustResult struct {
	ReferenceNumber string             `json:"reference_number"`
	Allocation      AllocationResponse `json:"allocation"`
}

// ReserveRequest earmarks stock within an allocation
type ReserveRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	DealerID  uuid.UUID       `json:"dealer_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	ActorID   *uuid.UUID      `json:"-"`
}

// ReleaseRequest returns earmarked stock
type ReleaseRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	DealerID  uuid.UUID       `json:"dealer_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	ActorID   *uuid.UUID      `json:"-"`
}

// DeliverRequest consumes one unit on order fulfillment
type DeliverRequest struct {
	OrderID   uuid.UUID  `json:"order_id" binding:"required"`
	DealerID  uuid.UUID  `json:"dealer_id" binding:"required"`
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	ActorID   *uuid.UUID `json:"-"`
}

// DeliverResult reports whether the delivery touched an allocation.
// Applied is false when no matching allocation exists; the order workflow
// proceeds regardless.
type DeliverResult struct {
	Applied    bool                `json:"applied"`
	Allocation *AllocationResponse `json:"allocation,omitempty"`
}

// ReceiveRequest books stock in from a delivered purchase order
type ReceiveRequest struct {
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id" binding:"required"`
	DealerID        uuid.UUID       `json:"dealer_id" binding:"required"`
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	ActorID         *uuid.UUID      `json:"-"`
}

// ReceiveResult is returned after a successful receipt
type ReceiveResult struct {
	ReferenceNumber string             `json:"reference_number"`
	Allocation      AllocationResponse `json:"allocation"`
}

// CreateAllocationRequest creates an allocation explicitly
type CreateAllocationRequest struct {
	ProductID       uuid.UUID        `json:"product_id" binding:"required"`
	DealerID        uuid.UUID        `json:"dealer_id" binding:"required"`
	MinimumStock    *decimal.Decimal `json:"minimum_stock"`
	MaximumStock    *decimal.Decimal `json:"maximum_stock"`
	InitialQuantity *decimal.Decimal `json:"initial_quantity"`
	Priority        string           `json:"priority" binding:"omitempty,oneof=HIGH NORMAL LOW"`
	Notes           string           `json:"notes"`
	ActorID         *uuid.UUID       `json:"-"`
}

// UpdateAllocationRequest updates thresholds and metadata; quantities are
// only mutable through stock operations
type UpdateAllocationRequest struct {
	MinimumStock    *decimal.Decimal `json:"minimum_stock"`
	MaximumStock    *decimal.Decimal `json:"maximum_stock"`
	Priority        string           `json:"priority" binding:"omitempty,oneof=HIGH NORMAL LOW"`
	Notes           *string          `json:"notes"`
	NextRestockDate *time.Time       `json:"next_restock_date"`
	Suspended       *bool            `json:"suspended"`
}

// AllocationListFilter represents filter options for allocation lists
type AllocationListFilter struct {
	ProductID       *uuid.UUID `form:"product_id"`
	DealerID        *uuid.UUID `form:"dealer_id"`
	Status          string     `form:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED OUT_OF_STOCK"`
	IncludeInactive bool       `form:"include_inactive"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionListFilter represents filter options for ledger queries
type TransactionListFilter struct {
	ProductID       *uuid.UUID `form:"product_id"`
	DealerID        *uuid.UUID `form:"dealer_id"`
	TransactionType string     `form:"transaction_type" binding:"omitempty,oneof=IN OUT TRANSFER ADJUSTMENT"`
	ReferenceNumber string     `form:"reference_number"`
	FromDate        *time.Time `form:"from_date" time_format:"2006-01-02T15:04:05Z07:00"`
	ToDate          *time.Time `form:"to_date" time_format:"2006-01-02T15:04:05Z07:00"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
	PageSize        int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToAllocationResponse converts a domain Allocation to a response DTO
func ToAllocationResponse(a *allocation.Allocation) AllocationResponse {
	return AllocationResponse{
		ID:                a.ID,
		TenantID:          a.TenantID,
		ProductID:         a.ProductID,
		DealerID:          a.DealerID,
		AllocatedQuantity: a.AllocatedQuantity,
		ReservedQuantity:  a.ReservedQuantity,
		AvailableQuantity: a.AvailableQuantity,
		MinimumStock:      a.MinimumStock,
		MaximumStock:      a.MaximumStock,
		Status:            string(a.Status),
		Priority:          string(a.Priority),
		IsLowStock:        a.IsLowStock(),
		IsCriticalStock:   a.IsCriticalStock(),
		LastRestockDate:   a.LastRestockDate,
		NextRestockDate:   a.NextRestockDate,
		Notes:             a.Notes,
		IsActive:          a.IsActive,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
		Version:           a.Version,
	}
}

// ToAllocationResponses converts a slice of domain Allocations to responses
func ToAllocationResponses(items []allocation.Allocation) []AllocationResponse {
	responses := make([]AllocationResponse, len(items))
	for i := range items {
		responses[i] = ToAllocationResponse(&items[i])
	}
	return responses
}

// ToTransactionResponse converts a domain StockTransaction to a response DTO
func ToTransactionResponse(tx *allocation.StockTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		TenantID:        tx.TenantID,
		AllocationID:    tx.AllocationID,
		ProductID:       tx.ProductID,
		DealerID:        tx.DealerID,
		OrderID:         tx.OrderID,
		ProcessedBy:     tx.ProcessedBy,
		TransactionType: string(tx.TransactionType),
		Quantity:        tx.Quantity,
		SignedQuantity:  tx.SignedQuantity(),
		QuantityBefore:  tx.QuantityBefore,
		QuantityAfter:   tx.QuantityAfter,
		Reason:          string(tx.Reason),
		ReferenceNumber: tx.ReferenceNumber,
		Status:          string(tx.Status),
		Notes:           tx.Notes,
		TransactionDate: tx.TransactionDate,
		CreatedAt:       tx.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions to responses
func ToTransactionResponses(txs []allocation.StockTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToTransactionResponse(&txs[i])
	}
	return responses
}
