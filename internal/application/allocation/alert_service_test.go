package allocation

import (
	"context"
	"testing"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStockAlertService_LowStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockAllocationRepository)
	service := NewStockAlertService(repo)

	low := newStockedAllocation(t, tenantID, uuid.New(), uuid.New(), 3)
	repo.On("FindLowStock", mock.Anything, tenantID).
		Return([]allocation.Allocation{*low}, nil).Once()

	items, err := service.LowStock(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsLowStock)
	assert.True(t, items[0].AvailableQuantity.Equal(decimal.NewFromInt(3)))
	repo.AssertExpectations(t)
}

func TestStockAlertService_CriticalStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockAllocationRepository)
	service := NewStockAlertService(repo)

	// Minimum is 5, so 2 is at or below half the threshold
	critical := newStockedAllocation(t, tenantID, uuid.New(), uuid.New(), 2)
	repo.On("FindCriticalStock", mock.Anything, tenantID).
		Return([]allocation.Allocation{*critical}, nil).Once()

	items, err := service.CriticalStock(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsCriticalStock)
}

func TestStockAlertService_OutOfStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockAllocationRepository)
	service := NewStockAlertService(repo)

	empty := newEmptyAllocation(t, tenantID, uuid.New(), uuid.New())
	repo.On("FindOutOfStock", mock.Anything, tenantID).
		Return([]allocation.Allocation{*empty}, nil).Once()

	items, err := service.OutOfStock(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, string(allocation.StatusOutOfStock), items[0].Status)
}

func TestStockAlertService_Summary(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockAllocationRepository)
	service := NewStockAlertService(repo)

	repo.On("Summarize", mock.Anything, tenantID).Return(&allocation.StockSummary{
		TotalAllocations: 12,
		TotalAvailable:   decimal.NewFromInt(340),
		TotalReserved:    decimal.NewFromInt(25),
		LowStockCount:    3,
		CriticalCount:    1,
		OutOfStockCount:  2,
	}, nil).Once()

	summary, err := service.Summary(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), summary.TotalAllocations)
	assert.Equal(t, int64(3), summary.LowStockCount)
	assert.True(t, summary.TotalAvailable.Equal(decimal.NewFromInt(340)))
}
