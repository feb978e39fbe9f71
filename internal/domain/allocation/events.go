package allocation

import (
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeAllocation = "Allocation"

// Event type constants
const (
	EventTypeAllocationCreated    = "AllocationCreated"
	EventTypeStockTransferredOut  = "StockTransferredOut"
	EventTypeStockTransferredIn   = "StockTransferredIn"
	EventTypeStockAdjusted        = "StockAdjusted"
	EventTypeStockReserved        = "StockReserved"
	EventTypeStockReleased        = "StockReleased"
	EventTypeStockReceived        = "StockReceived"
	EventTypeStockDelivered       = "StockDelivered"
	EventTypeStockBelowMinimum    = "StockBelowMinimum"
	EventTypeAllocationOutOfStock = "AllocationOutOfStock"
)

// AllocationCreatedEvent is raised when a new product-dealer allocation is created
type AllocationCreatedEvent struct {
	shared.BaseDomainEvent
	AllocationID uuid.UUID       `json:"allocation_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	DealerID     uuid.UUID       `json:"dealer_id"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	MaximumStock decimal.Decimal `json:"maximum_stock"`
}

// NewAllocationCreatedEvent creates a new AllocationCreatedEvent
func NewAllocationCreatedEvent(a *Allocation) *AllocationCreatedEvent {
	return &AllocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationCreated, AggregateTypeAllocation, a.ID, a.TenantID),
		AllocationID:    a.ID,
		ProductID:       a.ProductID,
		DealerID:        a.DealerID,
		MinimumStock:    a.MinimumStock,
		MaximumStock:    a.MaximumStock,
	}
}

// EventType returns the event type name
func (e *AllocationCreatedEvent) EventType() string {
	return EventTypeAllocationCreated
}

// stockMovementEvent carries the fields shared by all quantity-change events
type stockMovementEvent struct {
	shared.BaseDomainEvent
	AllocationID      uuid.UUID       `json:"allocation_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	DealerID          uuid.UUID       `json:"dealer_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
}

func newStockMovementEvent(eventType string, a *Allocation, quantity decimal.Decimal) stockMovementEvent {
	return stockMovementEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, AggregateTypeAllocation, a.ID, a.TenantID),
		AllocationID:      a.ID,
		ProductID:         a.ProductID,
		DealerID:          a.DealerID,
		Quantity:          quantity,
		AvailableQuantity: a.AvailableQuantity,
		AllocatedQuantity: a.AllocatedQuantity,
		ReservedQuantity:  a.ReservedQuantity,
	}
}

// StockTransferredOutEvent is raised on the source side of a transfer
type StockTransferredOutEvent struct {
	stockMovementEvent
}

// NewStockTransferredOutEvent creates a new StockTransferredOutEvent
func NewStockTransferredOutEvent(a *Allocation, quantity decimal.Decimal) *StockTransferredOutEvent {
	return &StockTransferredOutEvent{newStockMovementEvent(EventTypeStockTransferredOut, a, quantity)}
}

// EventType returns the event type name
func (e *StockTransferredOutEvent) EventType() string {
	return EventTypeStockTransferredOut
}

// StockTransferredInEvent is raised on the destination side of a transfer
type StockTransferredInEvent struct {
	stockMovementEvent
}

// NewStockTransferredInEvent creates a new StockTransferredInEvent
func NewStockTransferredInEvent(a *Allocation, quantity decimal.Decimal) *StockTransferredInEvent {
	return &StockTransferredInEvent{newStockMovementEvent(EventTypeStockTransferredIn, a, quantity)}
}

// EventType returns the event type name
func (e *StockTransferredInEvent) EventType() string {
	return EventTypeStockTransferredIn
}

// StockAdjustedEvent is raised when stock is manually corrected
type StockAdjustedEvent struct {
	stockMovementEvent
	Reason string `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(a *Allocation, signedQuantity decimal.Decimal, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		stockMovementEvent: newStockMovementEvent(EventTypeStockAdjusted, a, signedQuantity),
		Reason:             reason,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// StockReservedEvent is raised when stock is earmarked
type StockReservedEvent struct {
	stockMovementEvent
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(a *Allocation, quantity decimal.Decimal) *StockReservedEvent {
	return &StockReservedEvent{newStockMovementEvent(EventTypeStockReserved, a, quantity)}
}

// EventType returns the event type name
func (e *StockReservedEvent) EventType() string {
	return EventTypeStockReserved
}

// StockReleasedEvent is raised when a reservation is returned
type StockReleasedEvent struct {
	stockMovementEvent
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(a *Allocation, quantity decimal.Decimal) *StockReleasedEvent {
	return &StockReleasedEvent{newStockMovementEvent(EventTypeStockReleased, a, quantity)}
}

// EventType returns the event type name
func (e *StockReleasedEvent) EventType() string {
	return EventTypeStockReleased
}

// StockReceivedEvent is raised on a purchase-order receipt
type StockReceivedEvent struct {
	stockMovementEvent
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(a *Allocation, quantity decimal.Decimal) *StockReceivedEvent {
	return &StockReceivedEvent{newStockMovementEvent(EventTypeStockReceived, a, quantity)}
}

// EventType returns the event type name
func (e *StockReceivedEvent) EventType() string {
	return EventTypeStockReceived
}

// StockDeliveredEvent is raised when one unit is delivered to a customer
type StockDeliveredEvent struct {
	stockMovementEvent
}

// NewStockDeliveredEvent creates a new StockDeliveredEvent
func NewStockDeliveredEvent(a *Allocation) *StockDeliveredEvent {
	return &StockDeliveredEvent{newStockMovementEvent(EventTypeStockDelivered, a, decimal.NewFromInt(1))}
}

// EventType returns the event type name
func (e *StockDeliveredEvent) EventType() string {
	return EventTypeStockDelivered
}

// StockBelowMinimumEvent is raised whenever a mutation leaves available
// stock at or below the minimum threshold while some stock remains
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	AllocationID      uuid.UUID       `json:"allocation_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	DealerID          uuid.UUID       `json:"dealer_id"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	MinimumStock      decimal.Decimal `json:"minimum_stock"`
	Critical          bool            `json:"critical"`
}

// NewStockBelowMinimumEvent creates a new StockBelowMinimumEvent
func NewStockBelowMinimumEvent(a *Allocation) *StockBelowMinimumEvent {
	return &StockBelowMinimumEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, AggregateTypeAllocation, a.ID, a.TenantID),
		AllocationID:      a.ID,
		ProductID:         a.ProductID,
		DealerID:          a.DealerID,
		AvailableQuantity: a.AvailableQuantity,
		MinimumStock:      a.MinimumStock,
		Critical:          a.IsCriticalStock(),
	}
}

// EventType returns the event type name
func (e *StockBelowMinimumEvent) EventType() string {
	return EventTypeStockBelowMinimum
}

// AllocationOutOfStockEvent is raised when available stock reaches zero
type AllocationOutOfStockEvent struct {
	shared.BaseDomainEvent
	AllocationID uuid.UUID `json:"allocation_id"`
	ProductID    uuid.UUID `json:"product_id"`
	DealerID     uuid.UUID `json:"dealer_id"`
}

// NewAllocationOutOfStockEvent creates a new AllocationOutOfStockEvent
func NewAllocationOutOfStockEvent(a *Allocation) *AllocationOutOfStockEvent {
	return &AllocationOutOfStockEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAllocationOutOfStock, AggregateTypeAllocation, a.ID, a.TenantID),
		AllocationID:    a.ID,
		ProductID:       a.ProductID,
		DealerID:        a.DealerID,
	}
}

// EventType returns the event type name
func (e *AllocationOutOfStockEvent) EventType() string {
	return EventTypeAllocationOutOfStock
}
