package allocation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestAllocation(t *testing.T) *Allocation {
	t.Helper()
	a, err := NewAllocation(uuid.New(), uuid.New(), uuid.New(),
		decimal.NewFromInt(5), decimal.NewFromInt(50))
	require.NoError(t, err)
	a.ClearDomainEvents()
	return a
}

func stockAllocation(t *testing.T, available int64) *Allocation {
	t.Helper()
	a := createTestAllocation(t)
	a.AvailableQuantity = decimal.NewFromInt(available)
	a.AllocatedQuantity = decimal.NewFromInt(available)
	a.recomputeStatus()
	return a
}

func TestNewAllocation(t *testing.T) {
	tenantID := uuid.New()
	productID := uuid.New()
	dealerID := uuid.New()

	t.Run("creates allocation successfully", func(t *testing.T) {
		a, err := NewAllocation(tenantID, productID, dealerID,
			decimal.NewFromInt(5), decimal.NewFromInt(100))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, tenantID, a.TenantID)
		assert.Equal(t, productID, a.ProductID)
		assert.Equal(t, dealerID, a.DealerID)
		assert.True(t, a.AvailableQuantity.IsZero())
		assert.True(t, a.ReservedQuantity.IsZero())
		assert.Equal(t, StatusOutOfStock, a.Status)
		assert.True(t, a.IsActive)
	})

	t.Run("emits AllocationCreated event", func(t *testing.T) {
		a, err := NewAllocation(tenantID, productID, dealerID,
			decimal.NewFromInt(5), decimal.NewFromInt(100))

		require.NoError(t, err)
		events := a.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeAllocationCreated, events[0].EventType())
	})

	t.Run("fails with nil product ID", func(t *testing.T) {
		a, err := NewAllocation(tenantID, uuid.Nil, dealerID,
			decimal.NewFromInt(5), decimal.NewFromInt(100))

		require.Error(t, err)
		assert.Nil(t, a)
		assert.Contains(t, err.Error(), "Product ID")
	})

	t.Run("fails with nil dealer ID", func(t *testing.T) {
		a, err := NewAllocation(tenantID, productID, uuid.Nil,
			decimal.NewFromInt(5), decimal.NewFromInt(100))

		require.Error(t, err)
		assert.Nil(t, a)
		assert.Contains(t, err.Error(), "Dealer ID")
	})

	t.Run("fails when maximum does not exceed minimum", func(t *testing.T) {
		a, err := NewAllocation(tenantID, productID, dealerID,
			decimal.NewFromInt(10), decimal.NewFromInt(10))

		require.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("fails with negative minimum", func(t *testing.T) {
		a, err := NewAllocation(tenantID, productID, dealerID,
			decimal.NewFromInt(-1), decimal.NewFromInt(10))

		require.Error(t, err)
		assert.Nil(t, a)
	})

	t.Run("defaults are 5 and 100", func(t *testing.T) {
		a, err := NewAllocationWithDefaults(tenantID, productID, dealerID)

		require.NoError(t, err)
		assert.Equal(t, "5", a.MinimumStock.String())
		assert.Equal(t, "100", a.MaximumStock.String())
	})
}

func TestAllocation_TransferOut(t *testing.T) {
	t.Run("decrements available and allocated", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.TransferOut(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, "6", a.AvailableQuantity.String())
		assert.Equal(t, "6", a.AllocatedQuantity.String())
	})

	t.Run("fails when quantity exceeds available", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.TransferOut(decimal.NewFromInt(999))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "less than requested")
		assert.Equal(t, "10", a.AvailableQuantity.String())
	})

	t.Run("fails with zero quantity", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.TransferOut(decimal.Zero)

		require.Error(t, err)
	})

	t.Run("fails with fractional quantity", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.TransferOut(decimal.NewFromFloat(1.5))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "whole number")
	})

	t.Run("fails when reserved stock would be stranded", func(t *testing.T) {
		a := stockAllocation(t, 10)
		require.NoError(t, a.Reserve(decimal.NewFromInt(8)))

		err := a.TransferOut(decimal.NewFromInt(5))

		require.Error(t, err)
		assert.Equal(t, "10", a.AllocatedQuantity.String())
	})

	t.Run("emits low stock event when threshold is crossed", func(t *testing.T) {
		a := stockAllocation(t, 10)
		a.ClearDomainEvents()

		err := a.TransferOut(decimal.NewFromInt(6))

		require.NoError(t, err)
		events := a.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeStockTransferredOut, events[0].EventType())
		assert.Equal(t, EventTypeStockBelowMinimum, events[1].EventType())
	})

	t.Run("emits out of stock event when drained", func(t *testing.T) {
		a := stockAllocation(t, 10)
		a.ClearDomainEvents()

		err := a.TransferOut(decimal.NewFromInt(10))

		require.NoError(t, err)
		events := a.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeAllocationOutOfStock, events[1].EventType())
		assert.Equal(t, StatusOutOfStock, a.Status)
	})
}

func TestAllocation_TransferIn(t *testing.T) {
	t.Run("increments quantities and records restock", func(t *testing.T) {
		a := stockAllocation(t, 3)

		err := a.TransferIn(decimal.NewFromInt(7))

		require.NoError(t, err)
		assert.Equal(t, "10", a.AvailableQuantity.String())
		assert.Equal(t, "10", a.AllocatedQuantity.String())
		require.NotNil(t, a.LastRestockDate)
	})

	t.Run("recovers out of stock status", func(t *testing.T) {
		a := stockAllocation(t, 0)
		assert.Equal(t, StatusOutOfStock, a.Status)

		err := a.TransferIn(decimal.NewFromInt(1))

		require.NoError(t, err)
		assert.Equal(t, StatusActive, a.Status)
	})
}

func TestAllocation_Adjust(t *testing.T) {
	t.Run("applies positive adjustment", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.Adjust(decimal.NewFromInt(5), "recount")

		require.NoError(t, err)
		assert.Equal(t, "15", a.AvailableQuantity.String())
		assert.Equal(t, "15", a.AllocatedQuantity.String())
		require.NotNil(t, a.LastRestockDate)
	})

	t.Run("applies negative adjustment", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.Adjust(decimal.NewFromInt(-4), "damage")

		require.NoError(t, err)
		assert.Equal(t, "6", a.AvailableQuantity.String())
		assert.Nil(t, a.LastRestockDate)
	})

	t.Run("rejects zero adjustment", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.Adjust(decimal.Zero, "noop")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "zero")
	})

	t.Run("rejects adjustment that would go negative", func(t *testing.T) {
		a := stockAllocation(t, 3)

		err := a.Adjust(decimal.NewFromInt(-5), "shrinkage")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "below zero")
		assert.Equal(t, "3", a.AvailableQuantity.String())
	})

	t.Run("rejects adjustment below reserved quantity", func(t *testing.T) {
		a := stockAllocation(t, 10)
		require.NoError(t, a.Reserve(decimal.NewFromInt(9)))

		err := a.Adjust(decimal.NewFromInt(-2), "recount")

		require.Error(t, err)
		assert.Equal(t, "10", a.AllocatedQuantity.String())
	})
}

func TestAllocation_ReserveRelease(t *testing.T) {
	t.Run("reserve within allocation succeeds", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.Reserve(decimal.NewFromInt(6))

		require.NoError(t, err)
		assert.Equal(t, "6", a.ReservedQuantity.String())
		assert.Equal(t, "10", a.AvailableQuantity.String())
	})

	t.Run("reserve beyond allocation fails", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.Reserve(decimal.NewFromInt(11))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceed allocated")
		assert.True(t, a.ReservedQuantity.IsZero())
	})

	t.Run("release returns reserved quantity", func(t *testing.T) {
		a := stockAllocation(t, 10)
		require.NoError(t, a.Reserve(decimal.NewFromInt(6)))

		err := a.Release(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.Equal(t, "2", a.ReservedQuantity.String())
	})

	t.Run("release more than reserved fails", func(t *testing.T) {
		a := stockAllocation(t, 10)
		require.NoError(t, a.Reserve(decimal.NewFromInt(2)))

		err := a.Release(decimal.NewFromInt(3))

		require.Error(t, err)
		assert.Equal(t, "2", a.ReservedQuantity.String())
	})
}

func TestAllocation_Deliver(t *testing.T) {
	t.Run("consumes one unit", func(t *testing.T) {
		a := stockAllocation(t, 2)

		err := a.Deliver()

		require.NoError(t, err)
		assert.Equal(t, "1", a.AvailableQuantity.String())
		assert.Equal(t, "1", a.AllocatedQuantity.String())
	})

	t.Run("fails with no available stock", func(t *testing.T) {
		a := stockAllocation(t, 0)

		err := a.Deliver()

		require.Error(t, err)
	})
}

func TestAllocation_StatusDerivation(t *testing.T) {
	t.Run("out of stock iff available is zero or less", func(t *testing.T) {
		a := stockAllocation(t, 1)
		assert.Equal(t, StatusActive, a.Status)

		require.NoError(t, a.TransferOut(decimal.NewFromInt(1)))
		assert.Equal(t, StatusOutOfStock, a.Status)
	})

	t.Run("suspension is sticky across mutations", func(t *testing.T) {
		a := stockAllocation(t, 10)
		a.Suspend()

		require.NoError(t, a.TransferIn(decimal.NewFromInt(5)))
		assert.Equal(t, StatusSuspended, a.Status)

		a.Resume()
		assert.Equal(t, StatusActive, a.Status)
	})

	t.Run("resume on empty allocation derives out of stock", func(t *testing.T) {
		a := stockAllocation(t, 0)
		a.Suspend()
		a.Resume()

		assert.Equal(t, StatusOutOfStock, a.Status)
	})
}

func TestAllocation_StockLevelChecks(t *testing.T) {
	t.Run("low stock boundaries", func(t *testing.T) {
		a := stockAllocation(t, 5) // minimum is 5
		assert.True(t, a.IsLowStock())

		a = stockAllocation(t, 6)
		assert.False(t, a.IsLowStock())

		a = stockAllocation(t, 0)
		assert.False(t, a.IsLowStock())
		assert.True(t, a.IsOutOfStock())
	})

	t.Run("critical stock is half the minimum", func(t *testing.T) {
		a := stockAllocation(t, 2) // min 5, half = 2.5
		assert.True(t, a.IsCriticalStock())

		a = stockAllocation(t, 3)
		assert.False(t, a.IsCriticalStock())
		assert.True(t, a.IsLowStock())
	})
}

func TestAllocation_SoftDelete(t *testing.T) {
	a := stockAllocation(t, 10)

	a.SoftDelete()

	assert.False(t, a.IsActive)
}

func TestAllocation_SetThresholds(t *testing.T) {
	t.Run("updates thresholds", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.SetThresholds(decimal.NewFromInt(8), decimal.NewFromInt(80))

		require.NoError(t, err)
		assert.Equal(t, "8", a.MinimumStock.String())
		assert.True(t, a.IsLowStock())
	})

	t.Run("rejects inverted thresholds", func(t *testing.T) {
		a := stockAllocation(t, 10)

		err := a.SetThresholds(decimal.NewFromInt(80), decimal.NewFromInt(8))

		require.Error(t, err)
	})
}
