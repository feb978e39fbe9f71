package allocation

import (
	"context"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/google/uuid"
)

// StockAlertService exposes the read-only alerting buckets over the
// allocation store. All queries are pure projections of current state;
// they never mutate anything and may lag in-flight writes.
type StockAlertService struct {
	allocationRepo allocation.AllocationRepository
}

// NewStockAlertService creates a new stock alert service
func NewStockAlertService(allocationRepo allocation.AllocationRepository) *StockAlertService {
	return &StockAlertService{allocationRepo: allocationRepo}
}

// LowStock returns active allocations with 0 < available <= minimum
func (s *StockAlertService) LowStock(ctx context.Context, tenantID uuid.UUID) ([]AllocationResponse, error) {
	items, err := s.allocationRepo.FindLowStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToAllocationResponses(items), nil
}

// CriticalStock returns active allocations with 0 < available <= minimum/2
func (s *StockAlertService) CriticalStock(ctx context.Context, tenantID uuid.UUID) ([]AllocationResponse, error) {
	items, err := s.allocationRepo.FindCriticalStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToAllocationResponses(items), nil
}

// OutOfStock returns active allocations with available <= 0
func (s *StockAlertService) OutOfStock(ctx context.Context, tenantID uuid.UUID) ([]AllocationResponse, error) {
	items, err := s.allocationRepo.FindOutOfStock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToAllocationResponses(items), nil
}

// Summary returns totals and bucket counts over active allocations
func (s *StockAlertService) Summary(ctx context.Context, tenantID uuid.UUID) (*allocation.StockSummary, error) {
	return s.allocationRepo.Summarize(ctx, tenantID)
}
