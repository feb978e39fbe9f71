package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByIDForTenant finds an allocation by ID within a tenant
func (r *GormAllocationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByProductAndDealer finds the allocation for a product-dealer pair
func (r *GormAllocationRepository) FindByProductAndDealer(ctx context.Context, tenantID, productID, dealerID uuid.UUID) (*allocation.Allocation, error) {
	var a allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND dealer_id = ?", tenantID, productID, dealerID).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindAllForTenant finds all allocations for a tenant
func (r *GormAllocationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter allocation.AllocationFilter) ([]allocation.Allocation, error) {
	var items []allocation.Allocation
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&allocation.Allocation{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Count counts allocations for a tenant
func (r *GormAllocationRepository) Count(ctx context.Context, tenantID uuid.UUID, filter allocation.AllocationFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&allocation.Allocation{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLowStock finds active allocations at or below their minimum threshold
func (r *GormAllocationRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID) ([]allocation.Allocation, error) {
	var items []allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ? AND minimum_stock > 0 AND available_quantity > 0 AND available_quantity <= minimum_stock", tenantID, true).
		Order("available_quantity / minimum_stock ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindCriticalStock finds active allocations at or below half their minimum threshold
func (r *GormAllocationRepository) FindCriticalStock(ctx context.Context, tenantID uuid.UUID) ([]allocation.Allocation, error) {
	var items []allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ? AND minimum_stock > 0 AND available_quantity > 0 AND available_quantity <= minimum_stock / 2", tenantID, true).
		Order("available_quantity / minimum_stock ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindOutOfStock finds active allocations with nothing available
func (r *GormAllocationRepository) FindOutOfStock(ctx context.Context, tenantID uuid.UUID) ([]allocation.Allocation, error) {
	var items []allocation.Allocation
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ? AND available_quantity <= 0", tenantID, true).
		Order("updated_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetAllActiveTenantIDs returns every tenant that holds at least one
// active allocation. Used by the background scan trigger.
func (r *GormAllocationRepository) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&allocation.Allocation{}).
		Distinct("tenant_id").
		Where("is_active = ?", true).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// Summarize computes totals and alert bucket counts over active allocations
func (r *GormAllocationRepository) Summarize(ctx context.Context, tenantID uuid.UUID) (*allocation.StockSummary, error) {
	var summary allocation.StockSummary
	if err := r.db.WithContext(ctx).
		Model(&allocation.Allocation{}).
		Select(`COUNT(*) as total_allocations,
			COALESCE(SUM(available_quantity), 0) as total_available,
			COALESCE(SUM(reserved_quantity), 0) as total_reserved,
			COUNT(*) FILTER (WHERE minimum_stock > 0 AND available_quantity > 0 AND available_quantity <= minimum_stock) as low_stock_count,
			COUNT(*) FILTER (WHERE minimum_stock > 0 AND available_quantity > 0 AND available_quantity <= minimum_stock / 2) as critical_count,
			COUNT(*) FILTER (WHERE available_quantity <= 0) as out_of_stock_count`).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

// Save persists a new allocation
func (r *GormAllocationRepository) Save(ctx context.Context, a *allocation.Allocation) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		if isDuplicateKeyError(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking. The update only matches the
// version the aggregate was loaded with; a lost race surfaces as
// ErrConcurrencyConflict and the caller retries from a fresh read.
func (r *GormAllocationRepository) SaveWithLock(ctx context.Context, a *allocation.Allocation) error {
	result := r.db.WithContext(ctx).
		Model(a).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]interface{}{
			"allocated_quantity": a.AllocatedQuantity,
			"reserved_quantity":  a.ReservedQuantity,
			"available_quantity": a.AvailableQuantity,
			"minimum_stock":      a.MinimumStock,
			"maximum_stock":      a.MaximumStock,
			"status":             a.Status,
			"priority":           a.Priority,
			"last_restock_date":  a.LastRestockDate,
			"next_restock_date":  a.NextRestockDate,
			"notes":              a.Notes,
			"is_active":          a.IsActive,
			"version":            a.Version + 1,
			"updated_at":         a.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	a.IncrementVersion()
	return nil
}

// GetOrCreate gets the existing allocation or creates one with default thresholds
func (r *GormAllocationRepository) GetOrCreate(ctx context.Context, tenantID, productID, dealerID uuid.UUID) (*allocation.Allocation, error) {
	a, err := r.FindByProductAndDealer(ctx, tenantID, productID, dealerID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	a, err = allocation.NewAllocationWithDefaults(tenantID, productID, dealerID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race where two writers create the same pair
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "product_id"}, {Name: "dealer_id"}},
			DoNothing: true,
		}).
		Create(a)
	if result.Error != nil {
		return nil, result.Error
	}

	// Zero rows affected means a concurrent writer won the race and our
	// aggregate has no backing row; load the winner instead.
	if result.RowsAffected == 0 {
		return r.FindByProductAndDealer(ctx, tenantID, productID, dealerID)
	}

	return a, nil
}

// applyFilter applies filter options to the query
func (r *GormAllocationRepository) applyFilter(query *gorm.DB, filter allocation.AllocationFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, AllocationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAllocationRepository) applyFilterWithoutPagination(query *gorm.DB, filter allocation.AllocationFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	return query
}

// isDuplicateKeyError reports whether err is a unique constraint violation
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ allocation.AllocationRepository = (*GormAllocationRepository)(nil)
