// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAllocationMetricsProvider implements AllocationMetricsProvider using GORM.
// It queries the allocations table directly for aggregated metrics.
type GormAllocationMetricsProvider struct {
	db *gorm.DB
}

// NewGormAllocationMetricsProvider creates a new GormAllocationMetricsProvider.
func NewGormAllocationMetricsProvider(db *gorm.DB) *GormAllocationMetricsProvider {
	return &GormAllocationMetricsProvider{db: db}
}

// GetReservedQuantityByDealer returns total reserved quantity per dealer for a tenant.
// Fractional quantities are truncated to whole units for the gauge.
func (p *GormAllocationMetricsProvider) GetReservedQuantityByDealer(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error) {
	type result struct {
		DealerID         uuid.UUID `gorm:"column:dealer_id"`
		ReservedQuantity int64     `gorm:"column:reserved_quantity"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("allocations").
		Select("dealer_id, COALESCE(SUM(reserved_quantity), 0) as reserved_quantity").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Group("dealer_id").
		Having("SUM(reserved_quantity) > 0").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.DealerID] = r.ReservedQuantity
	}

	return m, nil
}

// GetLowStockCount returns count of allocations at or below their minimum threshold for a tenant.
func (p *GormAllocationMetricsProvider) GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("allocations").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where("minimum_stock > 0 AND available_quantity > 0 AND available_quantity <= minimum_stock").
		Count(&count).Error

	return count, err
}

// GetOutOfStockCount returns count of allocations with nothing available for a tenant.
func (p *GormAllocationMetricsProvider) GetOutOfStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("allocations").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where("available_quantity <= 0").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns every tenant holding at least one active allocation.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("allocations").
		Distinct("tenant_id").
		Where("is_active = ?", true).
		Pluck("tenant_id", &ids).Error

	return ids, err
}
