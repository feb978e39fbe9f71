package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider provides a list of tenants for scheduling
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StockScanTriggerConfig holds configuration for the scan trigger
type StockScanTriggerConfig struct {
	// ScanInterval is how often stock level scans run
	ScanInterval time.Duration

	// ArchiveHour is the local hour after which the daily ledger
	// archive runs (once per day)
	ArchiveHour int

	// ArchiveEnabled turns the daily ledger archive on or off
	ArchiveEnabled bool
}

// DefaultStockScanTriggerConfig returns default trigger configuration
func DefaultStockScanTriggerConfig() StockScanTriggerConfig {
	return StockScanTriggerConfig{
		ScanInterval:   time.Hour,
		ArchiveHour:    2, // 2am
		ArchiveEnabled: true,
	}
}

// StockScanTrigger periodically submits scan jobs for every active
// tenant. Stock level scans run every ScanInterval; the ledger archive
// runs at most once per day, on the first tick at or after ArchiveHour.
type StockScanTrigger struct {
	config         StockScanTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.Mutex
	isRunning       bool
	lastArchiveDate string // Track which date we last archived for
}

// NewStockScanTrigger creates a new stock scan trigger
func NewStockScanTrigger(
	config StockScanTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *StockScanTrigger {
	if config.ScanInterval <= 0 {
		config.ScanInterval = time.Hour
	}
	return &StockScanTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start starts the scan trigger
func (t *StockScanTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Stock scan trigger started",
		zap.Duration("scan_interval", t.config.ScanInterval),
		zap.Int("archive_hour", t.config.ArchiveHour),
		zap.Bool("archive_enabled", t.config.ArchiveEnabled),
	)

	return nil
}

// Stop stops the scan trigger
func (t *StockScanTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Stock scan trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop submits scan jobs on every tick
func (t *StockScanTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.triggerScans(ctx)
		}
	}
}

// triggerScans schedules stock level scans for all tenants and, once
// per day, the ledger archive
func (t *StockScanTrigger) triggerScans(ctx context.Context) {
	tenantIDs, err := t.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to get tenant IDs for stock scans", zap.Error(err))
		return
	}

	archive := t.shouldArchive(time.Now())

	t.logger.Debug("Scheduling stock scans",
		zap.Int("tenant_count", len(tenantIDs)),
		zap.Bool("with_archive", archive),
	)

	for _, tenantID := range tenantIDs {
		if err := t.scheduler.ScheduleScan(tenantID, ScanTypeStockLevels); err != nil {
			t.logger.Error("Failed to schedule stock level scan",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
		if archive {
			if err := t.scheduler.ScheduleScan(tenantID, ScanTypeLedgerArchive); err != nil {
				t.logger.Error("Failed to schedule ledger archive",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// shouldArchive reports whether the daily archive is due and records
// the run date when it is
func (t *StockScanTrigger) shouldArchive(now time.Time) bool {
	if !t.config.ArchiveEnabled {
		return false
	}

	currentDate := now.Format("2006-01-02")

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastArchiveDate == currentDate {
		return false
	}
	if now.Hour() < t.config.ArchiveHour {
		return false
	}

	t.lastArchiveDate = currentDate
	return true
}

// TriggerManualScan allows on-demand scheduling of a scan for a tenant
func (t *StockScanTrigger) TriggerManualScan(tenantID uuid.UUID, scanType ScanType) error {
	switch scanType {
	case ScanTypeStockLevels, ScanTypeLedgerArchive:
		return t.scheduler.ScheduleScan(tenantID, scanType)
	default:
		return ErrInvalidScanType
	}
}
