package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelaskita/affiliate-api/internal/models"
)

func TestPayoutCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	mock.ExpectExec("INSERT INTO payout_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	payout := &models.PayoutRequest{
		AffiliateID:       "aff-1",
		Amount:            decimal.NewFromInt(40000),
		BankName:          "BCA",
		AccountNumber:     "1234567890",
		AccountHolderName: "Jane Doe",
	}
	require.NoError(t, repo.Create(context.Background(), payout))
	assert.NotEmpty(t, payout.ID)
	assert.Equal(t, models.PayoutPending, payout.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutUpdateStatusCoalescesProcessedAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payout_requests SET status = $2, processed_at = COALESCE(processed_at, $3) WHERE id = $1")).
		WithArgs("po-1", string(models.PayoutPaid), &now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "po-1", models.PayoutPaid, &now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutUpdateStatusNilProcessedAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	mock.ExpectExec("UPDATE payout_requests SET status").
		WithArgs("po-1", string(models.PayoutPending), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "po-1", models.PayoutPending, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	mock.ExpectExec("UPDATE payout_requests SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "po-missing", models.PayoutPaid, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutSumByAffiliate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM payout_requests WHERE affiliate_id = $1")).
		WithArgs("aff-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("60000"))

	total, err := repo.SumByAffiliate(context.Background(), "aff-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60000).Equal(total))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutListByAffiliate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPayoutRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "affiliate_id", "amount", "bank_name", "account_number", "account_holder_name", "status", "processed_at", "created_at"}).
		AddRow("po-1", "aff-1", "40000", "BCA", "1234567890", "Jane Doe", string(models.PayoutPending), nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, affiliate_id, amount, bank_name, account_number, account_holder_name, status, processed_at, created_at FROM payout_requests WHERE affiliate_id = $1 ORDER BY created_at DESC")).
		WithArgs("aff-1").
		WillReturnRows(rows)

	payouts, err := repo.ListByAffiliate(context.Background(), "aff-1")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Nil(t, payouts[0].ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
