package allocation

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockTransaction(t *testing.T) {
	tenantID := uuid.New()
	allocationID := uuid.New()
	productID := uuid.New()

	t.Run("creates a valid entry", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, allocationID, productID,
			TransactionTypeIn, decimal.NewFromInt(4),
			decimal.NewFromInt(6), decimal.NewFromInt(10),
			ReasonPurchase, "PO-123")

		require.NoError(t, err)
		assert.Equal(t, tenantID, tx.TenantID)
		assert.Equal(t, allocationID, tx.AllocationID)
		assert.Equal(t, TransactionStatusCompleted, tx.Status)
		assert.False(t, tx.TransactionDate.IsZero())
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, allocationID, productID,
			TransactionTypeIn, decimal.Zero,
			decimal.NewFromInt(10), decimal.NewFromInt(10),
			ReasonPurchase, "PO-123")

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, allocationID, productID,
			TransactionType("BOGUS"), decimal.NewFromInt(1),
			decimal.NewFromInt(0), decimal.NewFromInt(1),
			ReasonPurchase, "PO-123")

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("rejects missing reference", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, allocationID, productID,
			TransactionTypeIn, decimal.NewFromInt(1),
			decimal.NewFromInt(0), decimal.NewFromInt(1),
			ReasonPurchase, "")

		require.Error(t, err)
		assert.Nil(t, tx)
	})

	t.Run("rejects inconsistent balance snapshots", func(t *testing.T) {
		tx, err := NewStockTransaction(tenantID, allocationID, productID,
			TransactionTypeOut, decimal.NewFromInt(4),
			decimal.NewFromInt(10), decimal.NewFromInt(10),
			ReasonSale, "ORD-1")

		require.Error(t, err)
		assert.Nil(t, tx)
		assert.Contains(t, err.Error(), "snapshots")
	})
}

func TestStockTransaction_SignedQuantity(t *testing.T) {
	tenantID := uuid.New()
	allocationID := uuid.New()
	productID := uuid.New()

	in, err := NewStockTransaction(tenantID, allocationID, productID,
		TransactionTypeIn, decimal.NewFromInt(3),
		decimal.NewFromInt(0), decimal.NewFromInt(3),
		ReasonPurchase, "PO-1")
	require.NoError(t, err)
	assert.Equal(t, "3", in.SignedQuantity().String())

	out, err := NewStockTransaction(tenantID, allocationID, productID,
		TransactionTypeOut, decimal.NewFromInt(3),
		decimal.NewFromInt(3), decimal.NewFromInt(0),
		ReasonSale, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "-3", out.SignedQuantity().String())
}

func TestTransferTransactionPair(t *testing.T) {
	source := stockAllocation(t, 10)
	dest := stockAllocation(t, 0)
	ref := NewTransferReference()
	q := decimal.NewFromInt(4)

	outTx, err := NewTransferOutTransaction(source, q,
		decimal.NewFromInt(10), decimal.NewFromInt(6), ref)
	require.NoError(t, err)

	inTx, err := NewTransferInTransaction(dest, q,
		decimal.NewFromInt(0), decimal.NewFromInt(4), ref)
	require.NoError(t, err)

	assert.Equal(t, outTx.ReferenceNumber, inTx.ReferenceNumber)
	assert.True(t, strings.HasPrefix(ref, "TRF-"))
	assert.Equal(t, TransactionTypeOut, outTx.TransactionType)
	assert.Equal(t, TransactionTypeIn, inTx.TransactionType)
	assert.Equal(t, ReasonTransfer, outTx.Reason)
	require.NotNil(t, outTx.DealerID)
	assert.Equal(t, source.DealerID, *outTx.DealerID)
}

func TestNewAdjustmentTransaction(t *testing.T) {
	t.Run("negative adjustment becomes OUT", func(t *testing.T) {
		a := stockAllocation(t, 10)

		tx, err := NewAdjustmentTransaction(a, decimal.NewFromInt(-4),
			decimal.NewFromInt(10), decimal.NewFromInt(6),
			ReasonDamage, NewAdjustmentReference())

		require.NoError(t, err)
		assert.Equal(t, TransactionTypeOut, tx.TransactionType)
		assert.Equal(t, "4", tx.Quantity.String())
		assert.True(t, strings.HasPrefix(tx.ReferenceNumber, "ADJ-"))
	})

	t.Run("positive adjustment becomes IN", func(t *testing.T) {
		a := stockAllocation(t, 10)

		tx, err := NewAdjustmentTransaction(a, decimal.NewFromInt(4),
			decimal.NewFromInt(10), decimal.NewFromInt(14),
			ReasonCorrection, NewAdjustmentReference())

		require.NoError(t, err)
		assert.Equal(t, TransactionTypeIn, tx.TransactionType)
	})
}

func TestNewOutboundTransaction(t *testing.T) {
	a := stockAllocation(t, 5)
	orderID := uuid.New()

	tx, err := NewOutboundTransaction(a, decimal.NewFromInt(1),
		decimal.NewFromInt(5), decimal.NewFromInt(4), orderID)

	require.NoError(t, err)
	require.NotNil(t, tx.OrderID)
	assert.Equal(t, orderID, *tx.OrderID)
	assert.Equal(t, ReasonSale, tx.Reason)
	assert.True(t, strings.HasPrefix(tx.ReferenceNumber, "ORD-"))
}

func TestNewInboundTransaction(t *testing.T) {
	a := stockAllocation(t, 0)
	poID := uuid.New()

	tx, err := NewInboundTransaction(a, decimal.NewFromInt(20),
		decimal.NewFromInt(0), decimal.NewFromInt(20), poID)

	require.NoError(t, err)
	assert.Equal(t, ReasonPurchase, tx.Reason)
	assert.True(t, strings.HasPrefix(tx.ReferenceNumber, "PO-"))
}
