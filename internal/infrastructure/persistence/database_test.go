package persistence

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

type allocationRow struct {
	ID       uint
	TenantID string
	DealerID string
	OnHand   int
}

func TestWithTenant(t *testing.T) {
	t.Run("scopes queries to the tenant", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		tenantID := "tenant-123"

		mock.ExpectQuery(`SELECT \* FROM "allocation_rows" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "dealer_id", "on_hand"}).
				AddRow(1, tenantID, "dealer-7", 40))

		var rows []allocationRow
		require.NoError(t, db.WithTenant(tenantID).Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "dealer-7", rows[0].DealerID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("leaves the shared handle untouched", func(t *testing.T) {
		db, _ := newMockDatabase(t)
		original := db.DB

		scoped := db.WithTenant("tenant-456")

		assert.NotEqual(t, original, scoped)
		assert.Equal(t, original, db.DB)
	})

	t.Run("empty tenant ID panics", func(t *testing.T) {
		db, _ := newMockDatabase(t)
		assert.Panics(t, func() { db.WithTenant("") })
	})

	t.Run("tenant ID is parameterized, not interpolated", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		tenantID := `tenant'; DROP TABLE allocation_rows; --`

		mock.ExpectQuery(`SELECT \* FROM "allocation_rows" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}))

		var rows []allocationRow
		require.NoError(t, db.WithTenant(tenantID).Find(&rows).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("composes with further clauses", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		tenantID := "tenant-789"

		mock.ExpectQuery(`SELECT \* FROM "allocation_rows" WHERE tenant_id = \$1 AND on_hand > \$2 ORDER BY dealer_id ASC LIMIT \$3`).
			WithArgs(tenantID, 0, 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "dealer_id", "on_hand"}).
				AddRow(1, tenantID, "dealer-1", 5).
				AddRow(2, tenantID, "dealer-2", 8))

		var rows []allocationRow
		err := db.WithTenant(tenantID).
			Where("on_hand > ?", 0).
			Order("dealer_id ASC").
			Limit(10).
			Find(&rows).Error
		require.NoError(t, err)
		assert.Len(t, rows, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("different tenants get distinct sessions", func(t *testing.T) {
		db, _ := newMockDatabase(t)
		assert.NotEqual(t, db.WithTenant("tenant-1"), db.WithTenant("tenant-2"))
	})
}

func TestTransaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		// gorm's postgres dialect issues INSERT ... RETURNING as a query
		mock.ExpectQuery(`INSERT INTO "allocation_rows"`).
			WithArgs("tenant-1", "dealer-1", 10).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&allocationRow{TenantID: "tenant-1", DealerID: "dealer-1", OnHand: 10}).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStats(t *testing.T) {
	db, _ := newMockDatabase(t)

	stats, err := db.Stats()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, stats.MaxOpenConnections, 0)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
	assert.GreaterOrEqual(t, stats.WaitCount, int64(0))
	assert.GreaterOrEqual(t, stats.WaitDuration, time.Duration(0))
}

func TestPing(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// gorm pings once while opening
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	db := &Database{DB: gormDB}

	mock.ExpectPing()
	require.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	db := &Database{DB: gormDB}

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
