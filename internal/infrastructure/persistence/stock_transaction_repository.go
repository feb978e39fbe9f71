package persistence

import (
	"context"
	"errors"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements StockTransactionRepository
// using GORM. The ledger is append-only; there is no update or delete.
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// Create appends a new ledger entry
func (r *GormStockTransactionRepository) Create(ctx context.Context, tx *allocation.StockTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// FindByID finds a ledger entry by its ID
func (r *GormStockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*allocation.StockTransaction, error) {
	var tx allocation.StockTransaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByIDForTenant finds a ledger entry by ID within a tenant
func (r *GormStockTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*allocation.StockTransaction, error) {
	var tx allocation.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindAllForTenant finds ledger entries for a tenant
func (r *GormStockTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter allocation.TransactionFilter) ([]allocation.StockTransaction, error) {
	var txs []allocation.StockTransaction
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&allocation.StockTransaction{}).
			Where("tenant_id = ?", tenantID),
		filter,
	)

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Count counts ledger entries for a tenant
func (r *GormStockTransactionRepository) Count(ctx context.Context, tenantID uuid.UUID, filter allocation.TransactionFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&allocation.StockTransaction{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByReference finds all entries sharing a reference number, e.g. both
// halves of one transfer
func (r *GormStockTransactionRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceNumber string) ([]allocation.StockTransaction, error) {
	var txs []allocation.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_number = ?", tenantID, referenceNumber).
		Order("transaction_date ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// SummarizeByDealer aggregates ledger entries for one dealer
func (r *GormStockTransactionRepository) SummarizeByDealer(ctx context.Context, tenantID, dealerID uuid.UUID) (*allocation.LedgerSummary, error) {
	return r.summarize(ctx, r.db.WithContext(ctx).
		Model(&allocation.StockTransaction{}).
		Where("tenant_id = ? AND dealer_id = ?", tenantID, dealerID))
}

// SummarizeByProduct aggregates ledger entries for one product
func (r *GormStockTransactionRepository) SummarizeByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*allocation.LedgerSummary, error) {
	return r.summarize(ctx, r.db.WithContext(ctx).
		Model(&allocation.StockTransaction{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID))
}

func (r *GormStockTransactionRepository) summarize(ctx context.Context, query *gorm.DB) (*allocation.LedgerSummary, error) {
	var summary allocation.LedgerSummary
	if err := query.
		Select(`COUNT(*) as entry_count,
			COALESCE(SUM(quantity) FILTER (WHERE transaction_type = 'IN'), 0) as total_in,
			COALESCE(SUM(quantity) FILTER (WHERE transaction_type = 'OUT'), 0) as total_out`).
		Scan(&summary).Error; err != nil {
		return nil, err
	}
	summary.NetChange = summary.TotalIn.Sub(summary.TotalOut)
	return &summary, nil
}

// applyFilter applies filter options to the query
func (r *GormStockTransactionRepository) applyFilter(query *gorm.DB, filter allocation.TransactionFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, StockTransactionSortFields, "transaction_date")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockTransactionRepository) applyFilterWithoutPagination(query *gorm.DB, filter allocation.TransactionFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.TransactionType != nil {
		query = query.Where("transaction_type = ?", *filter.TransactionType)
	}
	if filter.ReferenceNumber != "" {
		query = query.Where("reference_number = ?", filter.ReferenceNumber)
	}
	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", *filter.ToDate)
	}
	return query
}

// Ensure GormStockTransactionRepository implements StockTransactionRepository
var _ allocation.StockTransactionRepository = (*GormStockTransactionRepository)(nil)
