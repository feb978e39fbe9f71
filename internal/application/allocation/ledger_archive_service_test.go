package allocation

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturingArchiveStorage records uploads in memory
type capturingArchiveStorage struct {
	keys        []string
	data        [][]byte
	contentType string
}

func (s *capturingArchiveStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	s.keys = append(s.keys, storageKey)
	s.data = append(s.data, data)
	s.contentType = contentType
	return nil
}

func (s *capturingArchiveStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://storage.example.com/" + storageKey, time.Now().Add(expiresIn), nil
}

func newLedgerEntry(t *testing.T, a *allocation.Allocation, quantity int64) allocation.StockTransaction {
	t.Helper()
	q := decimal.NewFromInt(quantity)
	tx, err := allocation.NewInboundTransaction(a, q, decimal.Zero, q, uuid.New())
	require.NoError(t, err)
	return *tx
}

func TestLedgerArchiveService_Archive(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	a := newStockedAllocation(t, tenantID, uuid.New(), uuid.New(), 10)

	ledger := new(MockStockTransactionRepository)
	storage := &capturingArchiveStorage{}
	service := NewLedgerArchiveService(ledger, storage, zap.NewNop())

	entries := []allocation.StockTransaction{
		newLedgerEntry(t, a, 5),
		newLedgerEntry(t, a, 7),
	}

	var captured allocation.TransactionFilter
	ledger.On("FindAllForTenant", mock.Anything, tenantID, mock.AnythingOfType("allocation.TransactionFilter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(allocation.TransactionFilter)
		}).Return(entries, nil).Once()

	result, err := service.Archive(ctx, tenantID, ArchiveRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntryCount)
	assert.Contains(t, result.StorageKey, "ledger-archives/"+tenantID.String()+"/")
	assert.True(t, strings.HasSuffix(result.StorageKey, ".csv"))
	assert.Contains(t, result.DownloadURL, result.StorageKey)
	assert.True(t, result.URLExpires.After(time.Now()))

	// Exports walk the ledger oldest-first so the file replays in order
	assert.Equal(t, "transaction_date", captured.OrderBy)
	assert.Equal(t, "asc", captured.OrderDir)

	require.Len(t, storage.data, 1)
	assert.Equal(t, "text/csv", storage.contentType)

	records, err := csv.NewReader(bytes.NewReader(storage.data[0])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "IN", records[1][2])
	assert.Equal(t, "5", records[1][7])
	assert.Equal(t, "7", records[2][7])
	assert.Equal(t, entries[0].ReferenceNumber, records[1][10])

	ledger.AssertExpectations(t)
}

func TestLedgerArchiveService_Archive_WalksAllPages(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	a := newStockedAllocation(t, tenantID, uuid.New(), uuid.New(), 10)

	ledger := new(MockStockTransactionRepository)
	storage := &capturingArchiveStorage{}
	service := NewLedgerArchiveService(ledger, storage, zap.NewNop())

	fullPage := make([]allocation.StockTransaction, archivePageSize)
	for i := range fullPage {
		fullPage[i] = newLedgerEntry(t, a, 1)
	}
	lastPage := []allocation.StockTransaction{newLedgerEntry(t, a, 1)}

	ledger.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f allocation.TransactionFilter) bool {
		return f.Page == 1
	})).Return(fullPage, nil).Once()
	ledger.On("FindAllForTenant", mock.Anything, tenantID, mock.MatchedBy(func(f allocation.TransactionFilter) bool {
		return f.Page == 2
	})).Return(lastPage, nil).Once()

	result, err := service.Archive(ctx, tenantID, ArchiveRequest{})
	require.NoError(t, err)
	assert.Equal(t, archivePageSize+1, result.EntryCount)
	ledger.AssertExpectations(t)
}

func TestLedgerArchiveService_Archive_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	ledger := new(MockStockTransactionRepository)
	storage := &capturingArchiveStorage{}
	service := NewLedgerArchiveService(ledger, storage, zap.NewNop())

	ledger.On("FindAllForTenant", mock.Anything, tenantID, mock.Anything).
		Return([]allocation.StockTransaction{}, nil).Once()

	result, err := service.Archive(ctx, tenantID, ArchiveRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.EntryCount)

	// Header-only file is still uploaded so the export is auditable
	require.Len(t, storage.data, 1)
	records, err := csv.NewReader(bytes.NewReader(storage.data[0])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
