// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the inventory service.
// It tracks stock operation activity and allocation health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	stockOperationTotal  *Counter
	quantityMovedTotal   *Counter
	operationRetryTotal  *Counter
	stockAlertTotal      *Counter

	// Gauge metrics (point-in-time values)
	allocationLowStockCount   *Gauge
	allocationOutOfStockCount *Gauge
	reservedQuantityByDealer  *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	allocationProvider AllocationMetricsProvider
}

// AllocationMetricsProvider provides allocation data for periodic metrics
// collection. This interface allows the telemetry layer to query stock
// state without depending on the allocation domain directly.
type AllocationMetricsProvider interface {
	// GetReservedQuantityByDealer returns total reserved quantity per dealer for a tenant
	GetReservedQuantityByDealer(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error)

	// GetLowStockCount returns count of allocations at or below their minimum threshold
	GetLowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// GetOutOfStockCount returns count of allocations with nothing available
	GetOutOfStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter              metric.Meter
	Logger             *zap.Logger
	CollectInterval    time.Duration // Default: 5 minutes
	AllocationProvider AllocationMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:              cfg.Meter,
		logger:             logger,
		stopChan:           make(chan struct{}),
		allocationProvider: cfg.AllocationProvider,
	}

	// Initialize counter metrics
	var err error

	bm.stockOperationTotal, err = NewCounter(
		cfg.Meter,
		"inventory_stock_operation_total",
		"Total number of stock operations processed",
		"{operations}",
	)
	if err != nil {
		return nil, err
	}

	bm.quantityMovedTotal, err = NewCounter(
		cfg.Meter,
		"inventory_quantity_moved_total",
		"Total stock quantity moved, in whole units",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.operationRetryTotal, err = NewCounter(
		cfg.Meter,
		"inventory_operation_retry_total",
		"Total number of stock operation retries after version conflicts",
		"{retries}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockAlertTotal, err = NewCounter(
		cfg.Meter,
		"inventory_stock_alert_total",
		"Total number of stock level alerts emitted",
		"{alerts}",
	)
	if err != nil {
		return nil, err
	}

	// Allocation gauge metrics
	bm.allocationLowStockCount, err = NewGauge(
		cfg.Meter,
		"inventory_low_stock_count",
		"Number of allocations at or below their minimum stock threshold",
		"{allocations}",
	)
	if err != nil {
		return nil, err
	}

	bm.allocationOutOfStockCount, err = NewGauge(
		cfg.Meter,
		"inventory_out_of_stock_count",
		"Number of allocations with nothing available",
		"{allocations}",
	)
	if err != nil {
		return nil, err
	}

	bm.reservedQuantityByDealer, err = NewGauge(
		cfg.Meter,
		"inventory_reserved_quantity",
		"Current reserved stock quantity per dealer",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Stock Operation Metrics
// =============================================================================

// OperationStatus represents the outcome of a stock operation for metrics labeling.
type OperationStatus string

const (
	OperationStatusSuccess  OperationStatus = "success"
	OperationStatusRejected OperationStatus = "rejected"
	OperationStatusConflict OperationStatus = "conflict"
)

// RecordStockOperation records a processed stock operation.
// This should be called from the application layer after an operation completes.
func (bm *BusinessMetrics) RecordStockOperation(ctx context.Context, tenantID uuid.UUID, operation string, status OperationStatus) {
	bm.stockOperationTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
		AttrOperationStatus.String(string(status)),
	)
}

// RecordQuantityMoved records the stock quantity moved by an operation.
// Fractional quantities are rounded to whole units for the counter.
func (bm *BusinessMetrics) RecordQuantityMoved(ctx context.Context, tenantID uuid.UUID, operation string, quantity decimal.Decimal) {
	bm.quantityMovedTotal.Add(ctx, quantity.Round(0).IntPart(),
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
	)
}

// RecordOperationRetry records a stock operation retry after a version conflict.
func (bm *BusinessMetrics) RecordOperationRetry(ctx context.Context, tenantID uuid.UUID, operation string) {
	bm.operationRetryTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
	)
}

// RecordStockAlert records an emitted stock level alert.
func (bm *BusinessMetrics) RecordStockAlert(ctx context.Context, tenantID uuid.UUID, alertType string) {
	bm.stockAlertTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrAlertType.String(alertType),
	)
}

// =============================================================================
// Allocation Gauge Metrics
// =============================================================================

// RecordReservedQuantity records the current reserved quantity for a dealer.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordReservedQuantity(ctx context.Context, tenantID, dealerID uuid.UUID, quantity int64) {
	bm.reservedQuantityByDealer.Record(ctx, quantity,
		AttrTenantID.String(tenantID.String()),
		AttrDealerID.String(dealerID.String()),
	)
}

// RecordLowStockCount records the number of allocations below minimum threshold.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.allocationLowStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordOutOfStockCount records the number of allocations with nothing available.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOutOfStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	bm.allocationOutOfStockCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects allocation metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectAllocationMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectAllocationMetrics(ctx, tenantProvider)
		}
	}
}

// collectAllocationMetrics collects allocation gauge metrics for all tenants.
func (bm *BusinessMetrics) collectAllocationMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.allocationProvider == nil {
		bm.logger.Debug("No allocation provider configured, skipping allocation metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		bm.collectTenantAllocationMetrics(ctx, tenantID)
	}
}

// collectTenantAllocationMetrics collects allocation metrics for a single tenant.
func (bm *BusinessMetrics) collectTenantAllocationMetrics(ctx context.Context, tenantID uuid.UUID) {
	// Collect reserved quantity by dealer
	reservedByDealer, err := bm.allocationProvider.GetReservedQuantityByDealer(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get reserved quantity for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		for dealerID, quantity := range reservedByDealer {
			bm.RecordReservedQuantity(ctx, tenantID, dealerID, quantity)
		}
	}

	// Collect low stock count
	lowStockCount, err := bm.allocationProvider.GetLowStockCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordLowStockCount(ctx, tenantID, lowStockCount)
	}

	// Collect out of stock count
	outOfStockCount, err := bm.allocationProvider.GetOutOfStockCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to get out of stock count for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOutOfStockCount(ctx, tenantID, outOfStockCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
