package allocation

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArchiveStorage is the object storage boundary for ledger exports.
// Implementations live in the infrastructure layer (S3-compatible
// storage, or a stub for development).
type ArchiveStorage interface {
	// Upload stores data under the given key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	// GenerateDownloadURL returns a time-limited download URL for a key
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ArchiveRequest selects the ledger slice to export
type ArchiveRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	DealerID  *uuid.UUID `json:"dealer_id"`
	FromDate  *time.Time `json:"from_date"`
	ToDate    *time.Time `json:"to_date"`
}

// ArchiveResult describes a completed ledger export
type ArchiveResult struct {
	StorageKey  string    `json:"storage_key"`
	EntryCount  int       `json:"entry_count"`
	DownloadURL string    `json:"download_url"`
	URLExpires  time.Time `json:"url_expires"`
}

// LedgerArchiveService exports ledger slices as CSV files to object
// storage for long-term audit retention
type LedgerArchiveService struct {
	ledgerRepo allocation.StockTransactionRepository
	storage    ArchiveStorage
	logger     *zap.Logger
}

// NewLedgerArchiveService creates a new ledger archive service
func NewLedgerArchiveService(
	ledgerRepo allocation.StockTransactionRepository,
	storage ArchiveStorage,
	logger *zap.Logger,
) *LedgerArchiveService {
	return &LedgerArchiveService{
		ledgerRepo: ledgerRepo,
		storage:    storage,
		logger:     logger,
	}
}

// archivePageSize bounds memory while walking the ledger
const archivePageSize = 500

// Archive serializes the selected ledger slice to CSV, uploads it and
// returns a time-limited download URL. The export walks the ledger in
// pages; entries written after the walk started may or may not be
// included, which is acceptable for an advisory audit export.
func (s *LedgerArchiveService) Archive(ctx context.Context, tenantID uuid.UUID, req ArchiveRequest) (*ArchiveResult, error) {
	filter := allocation.TransactionFilter{
		Filter:    shared.DefaultFilter(),
		ProductID: req.ProductID,
		DealerID:  req.DealerID,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
	}
	filter.OrderBy = "transaction_date"
	filter.OrderDir = "asc"
	filter.PageSize = archivePageSize

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"id", "transaction_date", "transaction_type", "reason",
		"product_id", "dealer_id", "order_id", "quantity",
		"quantity_before", "quantity_after", "reference_number",
		"processed_by", "notes",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write archive header: %w", err)
	}

	count := 0
	for page := 1; ; page++ {
		filter.Page = page
		entries, err := s.ledgerRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			if err := w.Write(archiveRow(&entries[i])); err != nil {
				return nil, fmt.Errorf("failed to write archive row: %w", err)
			}
			count++
		}
		if len(entries) < archivePageSize {
			break
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush archive: %w", err)
	}

	key := fmt.Sprintf("ledger-archives/%s/%s.csv", tenantID.String(), time.Now().UTC().Format("20060102T150405Z"))
	if err := s.storage.Upload(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, fmt.Errorf("failed to upload ledger archive: %w", err)
	}

	url, expires, err := s.storage.GenerateDownloadURL(ctx, key, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to presign ledger archive: %w", err)
	}

	s.logger.Info("ledger archive exported",
		zap.String("tenant_id", tenantID.String()),
		zap.String("storage_key", key),
		zap.Int("entries", count),
	)
	return &ArchiveResult{
		StorageKey:  key,
		EntryCount:  count,
		DownloadURL: url,
		URLExpires:  expires,
	}, nil
}

func archiveRow(tx *allocation.StockTransaction) []string {
	dealerID := ""
	if tx.DealerID != nil {
		dealerID = tx.DealerID.String()
	}
	orderID := ""
	if tx.OrderID != nil {
		orderID = tx.OrderID.String()
	}
	processedBy := ""
	if tx.ProcessedBy != nil {
		processedBy = tx.ProcessedBy.String()
	}
	return []string{
		tx.ID.String(),
		tx.TransactionDate.UTC().Format(time.RFC3339),
		string(tx.TransactionType),
		string(tx.Reason),
		tx.ProductID.String(),
		dealerID,
		orderID,
		tx.Quantity.String(),
		tx.QuantityBefore.String(),
		tx.QuantityAfter.String(),
		tx.ReferenceNumber,
		processedBy,
		tx.Notes,
	}
}
