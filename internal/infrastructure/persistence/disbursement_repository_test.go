package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
)

// newMockDisbursementRepository creates a GormDisbursementRepository with a mocked SQL connection
func newMockDisbursementRepository(t *testing.T) (*GormDisbursementRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormDisbursementRepository(gormDB), mock, mockDB
}

func TestGormDisbursementRepository_FindByID(t *testing.T) {
	t.Run("returns nil for non-existent disbursement", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "disbursements" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		disbursement, err := repo.FindByID(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, disbursement)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDisbursementRepository_ExistsByVoucherNumber(t *testing.T) {
	t.Run("returns true when voucher number is taken", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "disbursements" WHERE check_voucher_number = \$1`).
			WithArgs("CV-2026-001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByVoucherNumber(context.Background(), "CV-2026-001", nil)

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the excluded disbursement", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		excludeID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "disbursements" WHERE check_voucher_number = \$1 AND id <> \$2`).
			WithArgs("CV-2026-001", excludeID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByVoucherNumber(context.Background(), "CV-2026-001", &excludeID)

		assert.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDisbursementRepository_SaveWithLock(t *testing.T) {
	t.Run("returns concurrency conflict on stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		disbursement := &payables.Disbursement{
			BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		}
		disbursement.IncrementVersion()

		mock.ExpectExec(`UPDATE "disbursements" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), disbursement)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDisbursementRepository_ReplaceLinks(t *testing.T) {
	t.Run("clears all links for empty id set", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		disbursementID := uuid.New()

		mock.ExpectExec(`DELETE FROM "disbursement_check_requisitions" WHERE disbursement_id = \$1`).
			WithArgs(disbursementID).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.ReplaceLinks(context.Background(), disbursementID, nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rewrites pivot rows", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		disbursementID := uuid.New()
		crID1 := uuid.New()
		crID2 := uuid.New()

		mock.ExpectExec(`DELETE FROM "disbursement_check_requisitions" WHERE disbursement_id = \$1`).
			WithArgs(disbursementID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "disbursement_check_requisitions"`).
			WithArgs(disbursementID, crID1, sqlmock.AnyArg(), disbursementID, crID2, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.ReplaceLinks(context.Background(), disbursementID, []uuid.UUID{crID1, crID2})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDisbursementRepository_FindByDateRange(t *testing.T) {
	t.Run("matches scheduled or released dates", func(t *testing.T) {
		repo, mock, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
		id := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "check_voucher_number", "date_check_scheduled", "remarks", "version"}).
			AddRow(id, "CV-2026-002", from.AddDate(0, 0, 10), "", 1)

		mock.ExpectQuery(`SELECT \* FROM "disbursements" WHERE \(date_check_scheduled BETWEEN \$1 AND \$2\) OR \(date_check_released_to_vendor BETWEEN \$3 AND \$4\)`).
			WithArgs(from, to, from, to).
			WillReturnRows(rows)
		mock.ExpectQuery(`SELECT \* FROM "disbursement_check_requisitions" WHERE "disbursement_check_requisitions"\."disbursement_id" = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"disbursement_id", "check_requisition_id"}))

		disbursements, err := repo.FindByDateRange(context.Background(), from, to)

		assert.NoError(t, err)
		assert.Len(t, disbursements, 1)
		assert.Equal(t, payables.DisbursementStateScheduled, disbursements[0].State())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormDisbursementRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements DisbursementRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockDisbursementRepository(t)
		defer mockDB.Close()

		var _ payables.DisbursementRepository = repo
	})
}
