package allocation

import (
	"fmt"
	"time"

	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry by direction
type TransactionType string

const (
	TransactionTypeIn         TransactionType = "IN"
	TransactionTypeOut        TransactionType = "OUT"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// IsValid checks if the transaction type is a known value
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIn, TransactionTypeOut, TransactionTypeTransfer, TransactionTypeAdjustment:
		return true
	}
	return false
}

// IsIncrease reports whether the entry adds stock
func (t TransactionType) IsIncrease() bool {
	return t == TransactionTypeIn
}

// IsDecrease reports whether the entry removes stock
func (t TransactionType) IsDecrease() bool {
	return t == TransactionTypeOut
}

// TransactionReason classifies why a stock movement happened
type TransactionReason string

const (
	ReasonSale       TransactionReason = "SALE"
	ReasonPurchase   TransactionReason = "PURCHASE"
	ReasonTransfer   TransactionReason = "TRANSFER"
	ReasonDamage     TransactionReason = "DAMAGE"
	ReasonReturn     TransactionReason = "RETURN"
	ReasonCorrection TransactionReason = "CORRECTION"
	ReasonOther      TransactionReason = "OTHER"
)

// IsValid checks if the reason is a known value
func (r TransactionReason) IsValid() bool {
	switch r {
	case ReasonSale, ReasonPurchase, ReasonTransfer, ReasonDamage, ReasonReturn, ReasonCorrection, ReasonOther:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Reference number prefixes correlating paired or sourced entries
const (
	referencePrefixTransfer   = "TRF"
	referencePrefixAdjustment = "ADJ"
	referencePrefixPurchase   = "PO"
	referencePrefixOrder      = "ORD"
)

// NewTransferReference generates the shared reference for the two halves of
// one transfer
func NewTransferReference() string {
	return fmt.Sprintf("%s-%d", referencePrefixTransfer, time.Now().UnixNano())
}

// NewAdjustmentReference generates a reference for a manual adjustment
func NewAdjustmentReference() string {
	return fmt.Sprintf("%s-%d", referencePrefixAdjustment, time.Now().UnixNano())
}

// NewPurchaseOrderReference derives a reference from a purchase order ID
func NewPurchaseOrderReference(purchaseOrderID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", referencePrefixPurchase, purchaseOrderID.String())
}

// NewOrderReference derives a reference from a customer order ID
func NewOrderReference(orderID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", referencePrefixOrder, orderID.String())
}

// StockTransaction is one immutable entry in the stock-movement ledger.
// Entries are created exactly once per committed operation and are never
// updated or deleted afterwards; corrections are new ADJUSTMENT-reason
// entries, not edits.
//
// Quantity is always positive; direction is carried by TransactionType.
// QuantityBefore/QuantityAfter snapshot the allocation's available quantity
// around the mutation so the ledger replays to the current balance.
type StockTransaction struct {
	shared.BaseEntity
	TenantID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	AllocationID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_stock_tx_product"`
	DealerID        *uuid.UUID        `gorm:"type:uuid;index:idx_stock_tx_dealer"`
	OrderID         *uuid.UUID        `gorm:"type:uuid;index"`
	ProcessedBy     *uuid.UUID        `gorm:"type:uuid"`
	TransactionType TransactionType   `gorm:"type:varchar(20);not null;index"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	QuantityBefore  decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	QuantityAfter   decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	Reason          TransactionReason `gorm:"type:varchar(20);not null"`
	ReferenceNumber string            `gorm:"type:varchar(100);not null;index"`
	Status          TransactionStatus `gorm:"type:varchar(20);not null;default:'COMPLETED'"`
	Notes           string            `gorm:"type:text"`
	TransactionDate time.Time         `gorm:"not null;index"`
}

// TableName returns the database table name
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates a ledger entry and validates its internal
// consistency: positive whole-unit quantity, known type and reason, and
// before/after snapshots that differ by exactly the signed quantity.
func NewStockTransaction(
	tenantID, allocationID, productID uuid.UUID,
	txType TransactionType,
	quantity, quantityBefore, quantityAfter decimal.Decimal,
	reason TransactionReason,
	referenceNumber string,
) (*StockTransaction, error) {
	if allocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Allocation ID is required")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product ID is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown transaction type %q", txType))
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown transaction reason %q", reason))
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be a positive whole number of units")
	}
	if referenceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Reference number is required")
	}

	tx := &StockTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		AllocationID:    allocationID,
		ProductID:       productID,
		TransactionType: txType,
		Quantity:        quantity,
		QuantityBefore:  quantityBefore,
		QuantityAfter:   quantityAfter,
		Reason:          reason,
		ReferenceNumber: referenceNumber,
		Status:          TransactionStatusCompleted,
		TransactionDate: time.Now(),
	}

	if !quantityAfter.Sub(quantityBefore).Equal(tx.SignedQuantity()) {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Balance snapshots do not match the applied quantity")
	}
	return tx, nil
}

// SignedQuantity returns the quantity with its direction applied: positive
// for IN, negative for OUT. TRANSFER and ADJUSTMENT entries are not written
// directly by the operations engine, which decomposes them into IN/OUT, so
// their signed quantity is the raw quantity.
func (t *StockTransaction) SignedQuantity() decimal.Decimal {
	if t.TransactionType.IsDecrease() {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// WithDealer attaches the dealer the movement belongs to
func (t *StockTransaction) WithDealer(dealerID uuid.UUID) *StockTransaction {
	t.DealerID = &dealerID
	return t
}

// WithOrder links the entry to an external customer order
func (t *StockTransaction) WithOrder(orderID uuid.UUID) *StockTransaction {
	t.OrderID = &orderID
	return t
}

// WithProcessedBy records the acting user for audit attribution
func (t *StockTransaction) WithProcessedBy(userID uuid.UUID) *StockTransaction {
	t.ProcessedBy = &userID
	return t
}

// WithNotes attaches free-text notes
func (t *StockTransaction) WithNotes(notes string) *StockTransaction {
	t.Notes = notes
	return t
}

// WithTransactionDate overrides the default transaction date
func (t *StockTransaction) WithTransactionDate(date time.Time) *StockTransaction {
	t.TransactionDate = date
	return t
}

// NewTransferOutTransaction creates the source half of a transfer
func NewTransferOutTransaction(a *Allocation, quantity, before, after decimal.Decimal, reference string) (*StockTransaction, error) {
	tx, err := NewStockTransaction(a.TenantID, a.ID, a.ProductID,
		TransactionTypeOut, quantity, before, after, ReasonTransfer, reference)
	if err != nil {
		return nil, err
	}
	return tx.WithDealer(a.DealerID), nil
}

// NewTransferInTransaction creates the destination half of a transfer
func NewTransferInTransaction(a *Allocation, quantity, before, after decimal.Decimal, reference string) (*StockTransaction, error) {
	tx, err := NewStockTransaction(a.TenantID, a.ID, a.ProductID,
		TransactionTypeIn, quantity, before, after, ReasonTransfer, reference)
	if err != nil {
		return nil, err
	}
	return tx.WithDealer(a.DealerID), nil
}

// NewAdjustmentTransaction creates the entry for a signed manual adjustment.
// Direction is derived from the sign; the stored quantity is the magnitude.
func NewAdjustmentTransaction(a *Allocation, signedQuantity, before, after decimal.Decimal, reason TransactionReason, reference string) (*StockTransaction, error) {
	txType := TransactionTypeIn
	if signedQuantity.IsNegative() {
		txType = TransactionTypeOut
	}
	tx, err := NewStockTransaction(a.TenantID, a.ID, a.ProductID,
		txType, signedQuantity.Abs(), before, after, reason, reference)
	if err != nil {
		return nil, err
	}
	return tx.WithDealer(a.DealerID), nil
}

// NewInboundTransaction creates the entry for a purchase-order receipt
func NewInboundTransaction(a *Allocation, quantity, before, after decimal.Decimal, purchaseOrderID uuid.UUID) (*StockTransaction, error) {
	tx, err := NewStockTransaction(a.TenantID, a.ID, a.ProductID,
		TransactionTypeIn, quantity, before, after, ReasonPurchase,
		NewPurchaseOrderReference(purchaseOrderID))
	if err != nil {
		return nil, err
	}
	return tx.WithDealer(a.DealerID), nil
}

// NewOutboundTransaction creates the entry for a customer delivery
func NewOutboundTransaction(a *Allocation, quantity, before, after decimal.Decimal, orderID uuid.UUID) (*StockTransaction, error) {
	tx, err := NewStockTransaction(a.TenantID, a.ID, a.ProductID,
		TransactionTypeOut, quantity, before, after, ReasonSale,
		NewOrderReference(orderID))
	if err != nil {
		return nil, err
	}
	return tx.WithDealer(a.DealerID).WithOrder(orderID), nil
}
