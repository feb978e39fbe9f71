package allocation

import (
	"fmt"
	"time"

	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStatus represents the stock status of an allocation
type AllocationStatus string

const (
	StatusActive     AllocationStatus = "ACTIVE"
	StatusSuspended  AllocationStatus = "SUSPENDED"
	StatusOutOfStock AllocationStatus = "OUT_OF_STOCK"
)

// AllocationPriority indicates restocking priority; informational only
type AllocationPriority string

const (
	PriorityHigh   AllocationPriority = "HIGH"
	PriorityNormal AllocationPriority = "NORMAL"
	PriorityLow    AllocationPriority = "LOW"
)

// IsValid checks if the priority is a known value
func (p AllocationPriority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Default thresholds applied when an allocation is created implicitly
// (first transfer-in or purchase-order receipt for a new product-dealer pair)
var (
	DefaultMinimumStock = decimal.NewFromInt(5)
	DefaultMaximumStock = decimal.NewFromInt(100)
)

// Allocation is the aggregate root for a dealer's stock of one product.
// There is exactly one allocation per (tenant, product, dealer). Quantities
// are split three ways: AllocatedQuantity is the total assigned to the
// dealer, ReservedQuantity is earmarked but not consumed, and
// AvailableQuantity is sellable right now.
//
// All mutations go through domain methods so that invariants hold after
// every committed operation:
//   - AvailableQuantity >= 0
//   - 0 <= ReservedQuantity <= AllocatedQuantity
//
// Status is derived state: it is recomputed inside every mutating method
// and persisted so that reads never observe a stale value. A manual
// Suspend sticks until Resume; recomputation only toggles between
// ACTIVE and OUT_OF_STOCK.
type Allocation struct {
	shared.TenantAggregateRoot
	// Uniqueness over (tenant_id, product_id, dealer_id) is enforced by
	// the idx_allocation_product_dealer index created in migrations
	ProductID         uuid.UUID          `gorm:"type:uuid;not null;index"`
	DealerID          uuid.UUID          `gorm:"type:uuid;not null;index"`
	AllocatedQuantity decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0"`
	ReservedQuantity  decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0"`
	AvailableQuantity decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0"`
	MinimumStock      decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0"`
	MaximumStock      decimal.Decimal    `gorm:"type:decimal(20,4);not null;default:0"`
	Status            AllocationStatus   `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	Priority          AllocationPriority `gorm:"type:varchar(10);not null;default:'NORMAL'"`
	LastRestockDate   *time.Time
	NextRestockDate   *time.Time
	Notes             string `gorm:"type:text"`
	IsActive          bool   `gorm:"not null;default:true;index"`
}

// TableName returns the database table name
func (Allocation) TableName() string {
	return "allocations"
}

// NewAllocation creates an allocation with explicit thresholds
func NewAllocation(tenantID, productID, dealerID uuid.UUID, minStock, maxStock decimal.Decimal) (*Allocation, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product ID is required")
	}
	if dealerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Dealer ID is required")
	}
	if err := validateThresholds(minStock, maxStock); err != nil {
		return nil, err
	}

	a := &Allocation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		DealerID:            dealerID,
		AllocatedQuantity:   decimal.Zero,
		ReservedQuantity:    decimal.Zero,
		AvailableQuantity:   decimal.Zero,
		MinimumStock:        minStock,
		MaximumStock:        maxStock,
		Status:              StatusOutOfStock,
		Priority:            PriorityNormal,
		IsActive:            true,
	}
	a.AddDomainEvent(NewAllocationCreatedEvent(a))
	return a, nil
}

// NewAllocationWithDefaults creates an allocation with the implicit-creation
// thresholds used by transfer-in and purchase-order receipt
func NewAllocationWithDefaults(tenantID, productID, dealerID uuid.UUID) (*Allocation, error) {
	return NewAllocation(tenantID, productID, dealerID, DefaultMinimumStock, DefaultMaximumStock)
}

func validateThresholds(minStock, maxStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Minimum stock cannot be negative")
	}
	if maxStock.LessThanOrEqual(minStock) {
		return shared.NewDomainError("INVALID_INPUT", "Maximum stock must be greater than minimum stock")
	}
	return nil
}

// validateUnits rejects non-positive or fractional quantities. Stock is
// counted in whole units (vehicles); decimals exist for platform-wide
// arithmetic consistency, not for fractional stock.
func validateUnits(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	if !quantity.IsInteger() {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be a whole number of units")
	}
	return nil
}

// TransferOut removes quantity from this allocation as the source side of a
// transfer. Fails with INSUFFICIENT_STOCK when available stock cannot cover
// the requested quantity.
func (a *Allocation) TransferOut(quantity decimal.Decimal) error {
	if err := validateUnits(quantity); err != nil {
		return err
	}
	if a.AvailableQuantity.LessThan(quantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Available stock %s is less than requested %s",
				a.AvailableQuantity.String(), quantity.String()))
	}
	newAllocated := a.AllocatedQuantity.Sub(quantity)
	if newAllocated.LessThan(a.ReservedQuantity) {
		return shared.NewDomainError("RESERVATION_EXCEEDED",
			"Transfer would leave allocated quantity below reserved quantity")
	}

	a.AvailableQuantity = a.AvailableQuantity.Sub(quantity)
	a.AllocatedQuantity = newAllocated
	a.touch()

	a.AddDomainEvent(NewStockTransferredOutEvent(a, quantity))
	a.checkStockLevel()
	return nil
}

// TransferIn adds quantity to this allocation as the destination side of a
// transfer and records the restock time.
func (a *Allocation) TransferIn(quantity decimal.Decimal) error {
	if err := validateUnits(quantity); err != nil {
		return err
	}

	a.AvailableQuantity = a.AvailableQuantity.Add(quantity)
	a.AllocatedQuantity = a.AllocatedQuantity.Add(quantity)
	now := time.Now()
	a.LastRestockDate = &now
	a.touch()

	a.AddDomainEvent(NewStockTransferredInEvent(a, quantity))
	return nil
}

// Adjust applies a signed manual correction to both available and allocated
// quantities. A negative adjustment that would drive available stock below
// zero, or allocated below the reserved quantity, is rejected.
func (a *Allocation) Adjust(signedQuantity decimal.Decimal, reason string) error {
	if signedQuantity.IsZero() {
		return shared.NewDomainError("INVALID_INPUT", "Adjustment quantity cannot be zero")
	}
	if !signedQuantity.IsInteger() {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be a whole number of units")
	}

	newAvailable := a.AvailableQuantity.Add(signedQuantity)
	if newAvailable.IsNegative() {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Adjustment of %s would drive available stock below zero (current %s)",
				signedQuantity.String(), a.AvailableQuantity.String()))
	}
	newAllocated := a.AllocatedQuantity.Add(signedQuantity)
	if newAllocated.LessThan(a.ReservedQuantity) {
		return shared.NewDomainError("RESERVATION_EXCEEDED",
			"Adjustment would leave allocated quantity below reserved quantity")
	}

	a.AvailableQuantity = newAvailable
	a.AllocatedQuantity = newAllocated
	if signedQuantity.IsPositive() {
		now := time.Now()
		a.LastRestockDate = &now
	}
	a.touch()

	a.AddDomainEvent(NewStockAdjustedEvent(a, signedQuantity, reason))
	a.checkStockLevel()
	return nil
}

// Reserve earmarks quantity within the allocation without touching
// available stock. Reservations are bounded by the allocated quantity.
func (a *Allocation) Reserve(quantity decimal.Decimal) error {
	if err := validateUnits(quantity); err != nil {
		return err
	}
	newReserved := a.ReservedQuantity.Add(quantity)
	if newReserved.GreaterThan(a.AllocatedQuantity) {
		return shared.NewDomainError("RESERVATION_EXCEEDED",
			fmt.Sprintf("Reserving %s would exceed allocated quantity %s (reserved %s)",
				quantity.String(), a.AllocatedQuantity.String(), a.ReservedQuantity.String()))
	}

	a.ReservedQuantity = newReserved
	a.touch()
	a.AddDomainEvent(NewStockReservedEvent(a, quantity))
	return nil
}

// Release returns previously reserved quantity
func (a *Allocation) Release(quantity decimal.Decimal) error {
	if err := validateUnits(quantity); err != nil {
		return err
	}
	if quantity.GreaterThan(a.ReservedQuantity) {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Cannot release %s, only %s is reserved",
				quantity.String(), a.ReservedQuantity.String()))
	}

	a.ReservedQuantity = a.ReservedQuantity.Sub(quantity)
	a.touch()
	a.AddDomainEvent(NewStockReleasedEvent(a, quantity))
	return nil
}

// Receive adds quantity from a purchase-order receipt
func (a *Allocation) Receive(quantity decimal.Decimal) error {
	if err := validateUnits(quantity); err != nil {
		return err
	}

	a.AvailableQuantity = a.AvailableQuantity.Add(quantity)
	a.AllocatedQuantity = a.AllocatedQuantity.Add(quantity)
	now := time.Now()
	a.LastRestockDate = &now
	a.touch()

	a.AddDomainEvent(NewStockReceivedEvent(a, quantity))
	return nil
}

// Deliver consumes one unit for a fulfilled customer order
func (a *Allocation) Deliver() error {
	one := decimal.NewFromInt(1)
	if a.AvailableQuantity.LessThan(one) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "No available stock to deliver")
	}
	newAllocated := a.AllocatedQuantity.Sub(one)
	if newAllocated.LessThan(a.ReservedQuantity) {
		return shared.NewDomainError("RESERVATION_EXCEEDED",
			"Delivery would leave allocated quantity below reserved quantity")
	}

	a.AvailableQuantity = a.AvailableQuantity.Sub(one)
	a.AllocatedQuantity = newAllocated
	a.touch()

	a.AddDomainEvent(NewStockDeliveredEvent(a))
	a.checkStockLevel()
	return nil
}

// SetThresholds updates the minimum/maximum stock thresholds
func (a *Allocation) SetThresholds(minStock, maxStock decimal.Decimal) error {
	if err := validateThresholds(minStock, maxStock); err != nil {
		return err
	}
	a.MinimumStock = minStock
	a.MaximumStock = maxStock
	a.touch()
	a.checkStockLevel()
	return nil
}

// SetPriority updates the restocking priority
func (a *Allocation) SetPriority(priority AllocationPriority) error {
	if !priority.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown priority %q", priority))
	}
	a.Priority = priority
	a.touch()
	return nil
}

// Suspend marks the allocation as manually suspended. Stock operations on a
// suspended allocation are rejected at the service layer.
func (a *Allocation) Suspend() {
	a.Status = StatusSuspended
	a.touch()
}

// Resume lifts a manual suspension and recomputes the derived status
func (a *Allocation) Resume() {
	a.Status = StatusActive
	a.recomputeStatus()
	a.touch()
}

// SoftDelete marks the allocation as logically deleted. Ledger history is
// never removed.
func (a *Allocation) SoftDelete() {
	a.IsActive = false
	a.touch()
}

// IsSuspended reports whether the allocation is manually suspended
func (a *Allocation) IsSuspended() bool {
	return a.Status == StatusSuspended
}

// IsLowStock reports whether available stock is at or below the minimum
// threshold while some stock remains
func (a *Allocation) IsLowStock() bool {
	return a.AvailableQuantity.IsPositive() &&
		a.AvailableQuantity.LessThanOrEqual(a.MinimumStock)
}

// IsCriticalStock reports whether available stock is at or below half the
// minimum threshold while some stock remains
func (a *Allocation) IsCriticalStock() bool {
	half := a.MinimumStock.Div(decimal.NewFromInt(2))
	return a.AvailableQuantity.IsPositive() &&
		a.AvailableQuantity.LessThanOrEqual(half)
}

// IsOutOfStock reports whether no stock is available
func (a *Allocation) IsOutOfStock() bool {
	return a.AvailableQuantity.LessThanOrEqual(decimal.Zero)
}

// touch updates the modification timestamp and recomputes derived status
func (a *Allocation) touch() {
	a.recomputeStatus()
	a.UpdatedAt = time.Now()
}

// recomputeStatus keeps the persisted status consistent with the current
// available quantity. Manual suspension is sticky.
func (a *Allocation) recomputeStatus() {
	if a.Status == StatusSuspended {
		return
	}
	if a.IsOutOfStock() {
		a.Status = StatusOutOfStock
	} else {
		a.Status = StatusActive
	}
}

// checkStockLevel raises alerting events after a downward mutation
func (a *Allocation) checkStockLevel() {
	if a.IsOutOfStock() {
		a.AddDomainEvent(NewAllocationOutOfStockEvent(a))
		return
	}
	if a.IsLowStock() {
		a.AddDomainEvent(NewStockBelowMinimumEvent(a))
	}
}
