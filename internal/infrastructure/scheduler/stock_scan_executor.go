package scheduler

import (
	"context"
	"time"

	appalloc "github.com/dealerhub/inventory/internal/application/allocation"
	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockScanExecutor executes background scan jobs. Stock level scans
// walk the allocation store and re-emit alerts for anything below its
// minimum, so alerts missed at write time (notifier outage, restart)
// are delivered on the next pass. Ledger archive scans export the
// previous day's ledger slice to object storage.
type StockScanExecutor struct {
	allocationRepo allocation.AllocationRepository
	notifier       appalloc.StockAlertNotifier
	archiveService *appalloc.LedgerArchiveService
	logger         *zap.Logger
}

// NewStockScanExecutor creates a new stock scan executor
func NewStockScanExecutor(
	allocationRepo allocation.AllocationRepository,
	notifier appalloc.StockAlertNotifier,
	archiveService *appalloc.LedgerArchiveService,
	logger *zap.Logger,
) *StockScanExecutor {
	return &StockScanExecutor{
		allocationRepo: allocationRepo,
		notifier:       notifier,
		archiveService: archiveService,
		logger:         logger,
	}
}

// Ensure StockScanExecutor implements JobExecutor
var _ JobExecutor = (*StockScanExecutor)(nil)

// Execute runs a single scan job
func (e *StockScanExecutor) Execute(ctx context.Context, job *Job) error {
	if job.TenantID == uuid.Nil {
		return ErrMissingTenant
	}

	switch job.ScanType {
	case ScanTypeStockLevels:
		return e.scanStockLevels(ctx, job.TenantID)
	case ScanTypeLedgerArchive:
		return e.archiveLedger(ctx, job.TenantID)
	default:
		return ErrInvalidScanType
	}
}

// scanStockLevels queries the alert buckets and sends one alert per
// affected allocation. Notifier failures are logged and counted but do
// not abort the scan; the next pass will retry them anyway.
func (e *StockScanExecutor) scanStockLevels(ctx context.Context, tenantID uuid.UUID) error {
	lowStock, err := e.allocationRepo.FindLowStock(ctx, tenantID)
	if err != nil {
		return err
	}
	outOfStock, err := e.allocationRepo.FindOutOfStock(ctx, tenantID)
	if err != nil {
		return err
	}

	sent := 0
	failed := 0
	for i := range lowStock {
		a := &lowStock[i]
		alertType := "low_stock"
		if a.IsCriticalStock() {
			alertType = "critical_stock"
		}
		if e.sendAlert(ctx, a, alertType) {
			sent++
		} else {
			failed++
		}
	}
	for i := range outOfStock {
		if e.sendAlert(ctx, &outOfStock[i], "out_of_stock") {
			sent++
		} else {
			failed++
		}
	}

	e.logger.Info("Stock level scan completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("low_stock", len(lowStock)),
		zap.Int("out_of_stock", len(outOfStock)),
		zap.Int("alerts_sent", sent),
		zap.Int("alerts_failed", failed),
	)
	return nil
}

func (e *StockScanExecutor) sendAlert(ctx context.Context, a *allocation.Allocation, alertType string) bool {
	alert := appalloc.StockAlert{
		TenantID:          a.TenantID.String(),
		AllocationID:      a.ID.String(),
		ProductID:         a.ProductID.String(),
		DealerID:          a.DealerID.String(),
		AvailableQuantity: a.AvailableQuantity.String(),
		MinimumStock:      a.MinimumStock.String(),
		AlertType:         alertType,
	}
	if err := e.notifier.SendAlert(ctx, alert); err != nil {
		e.logger.Error("Failed to send stock alert during scan",
			zap.String("allocation_id", alert.AllocationID),
			zap.String("alert_type", alertType),
			zap.Error(err),
		)
		return false
	}
	return true
}

// archiveLedger exports the previous day's ledger entries
func (e *StockScanExecutor) archiveLedger(ctx context.Context, tenantID uuid.UUID) error {
	if e.archiveService == nil {
		e.logger.Debug("Ledger archive scan skipped, no archive service configured",
			zap.String("tenant_id", tenantID.String()),
		)
		return nil
	}

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	from := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	result, err := e.archiveService.Archive(ctx, tenantID, appalloc.ArchiveRequest{
		FromDate: &from,
		ToDate:   &to,
	})
	if err != nil {
		return err
	}

	e.logger.Info("Daily ledger archive completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("storage_key", result.StorageKey),
		zap.Int("entries", result.EntryCount),
	)
	return nil
}
