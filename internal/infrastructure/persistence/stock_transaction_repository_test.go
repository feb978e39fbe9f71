package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dealerhub/inventory/internal/domain/allocation"
	"github.com/dealerhub/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockStockTransactionRepository(t *testing.T) (*GormStockTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockTransactionRepository(gormDB), mock, mockDB
}

func ledgerRows(id, tenantID, allocationID, productID uuid.UUID, txType string, qty decimal.Decimal) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "allocation_id", "product_id",
		"transaction_type", "reason", "quantity",
		"quantity_before", "quantity_after", "reference_number",
		"status", "transaction_date",
	}).AddRow(
		id, tenantID, allocationID, productID,
		txType, "TRANSFER", qty,
		decimal.Zero, qty, "TRF-1001",
		"COMPLETED", time.Now(),
	)
}

func TestGormStockTransactionRepository_FindByID(t *testing.T) {
	t.Run("finds existing ledger entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		txID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_transactions" WHERE id = \$1`).
			WithArgs(txID, 1).
			WillReturnRows(ledgerRows(txID, tenantID, uuid.New(), uuid.New(), "IN", decimal.NewFromInt(10)))

		tx, err := repo.FindByID(context.Background(), txID)

		assert.NoError(t, err)
		assert.NotNil(t, tx)
		assert.Equal(t, txID, tx.ID)
		assert.Equal(t, allocation.TransactionTypeIn, tx.TransactionType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		txID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_transactions" WHERE id = \$1`).
			WithArgs(txID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tx, err := repo.FindByID(context.Background(), txID)

		assert.Error(t, err)
		assert.Nil(t, tx)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransactionRepository_Create(t *testing.T) {
	t.Run("appends ledger entry", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		alloc, err := allocation.NewAllocationWithDefaults(uuid.New(), uuid.New(), uuid.New())
		require.NoError(t, err)

		tx, err := allocation.NewInboundTransaction(
			alloc,
			decimal.NewFromInt(100),
			decimal.Zero,
			decimal.NewFromInt(100),
			uuid.New(),
		)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "stock_transactions"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Create(context.Background(), tx)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransactionRepository_FindByReference(t *testing.T) {
	t.Run("finds both halves of a transfer", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "allocation_id", "product_id",
			"transaction_type", "reason", "quantity",
			"quantity_before", "quantity_after", "reference_number",
			"status", "transaction_date",
		}).
			AddRow(uuid.New(), tenantID, uuid.New(), productID, "OUT", "TRANSFER", decimal.NewFromInt(10), decimal.NewFromInt(50), decimal.NewFromInt(40), "TRF-1001", "COMPLETED", time.Now()).
			AddRow(uuid.New(), tenantID, uuid.New(), productID, "IN", "TRANSFER", decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(15), "TRF-1001", "COMPLETED", time.Now())

		mock.ExpectQuery(`SELECT \* FROM "stock_transactions" WHERE tenant_id = \$1 AND reference_number = \$2`).
			WithArgs(tenantID, "TRF-1001").
			WillReturnRows(rows)

		txs, err := repo.FindByReference(context.Background(), tenantID, "TRF-1001")

		assert.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, allocation.TransactionTypeOut, txs[0].TransactionType)
		assert.Equal(t, allocation.TransactionTypeIn, txs[1].TransactionType)
		assert.Equal(t, txs[0].ReferenceNumber, txs[1].ReferenceNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransactionRepository_Count(t *testing.T) {
	t.Run("counts entries for tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_transactions" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		count, err := repo.Count(context.Background(), tenantID, allocation.TransactionFilter{})

		assert.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies type filter", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		txType := allocation.TransactionTypeOut

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_transactions" WHERE tenant_id = \$1 AND transaction_type = \$2`).
			WithArgs(tenantID, txType).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(context.Background(), tenantID, allocation.TransactionFilter{TransactionType: &txType})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransactionRepository_SummarizeByDealer(t *testing.T) {
	t.Run("aggregates dealer movements", func(t *testing.T) {
		repo, mock, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		dealerID := uuid.New()

		rows := sqlmock.NewRows([]string{"entry_count", "total_in", "total_out"}).
			AddRow(9, decimal.NewFromInt(120), decimal.NewFromInt(45))

		mock.ExpectQuery(`SELECT COUNT\(\*\) as entry_count`).
			WithArgs(tenantID, dealerID).
			WillReturnRows(rows)

		summary, err := repo.SummarizeByDealer(context.Background(), tenantID, dealerID)

		assert.NoError(t, err)
		require.NotNil(t, summary)
		assert.Equal(t, int64(9), summary.EntryCount)
		assert.True(t, summary.TotalIn.Equal(decimal.NewFromInt(120)))
		assert.True(t, summary.TotalOut.Equal(decimal.NewFromInt(45)))
		assert.True(t, summary.NetChange.Equal(decimal.NewFromInt(75)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransactionRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements StockTransactionRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockStockTransactionRepository(t)
		defer mockDB.Close()

		var _ allocation.StockTransactionRepository = repo
	})
}
