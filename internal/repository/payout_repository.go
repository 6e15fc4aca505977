package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/kelaskita/affiliate-api/internal/models"
)

// PayoutRepository provides database access for payout requests.
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository creates a new instance of PayoutRepository.
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

const payoutColumns = `id, affiliate_id, amount, bank_name, account_number, account_holder_name, status, processed_at, created_at`

// FindByID returns a payout request by identifier.
func (r *PayoutRepository) FindByID(ctx context.Context, id string) (*models.PayoutRequest, error) {
	const query = `SELECT ` + payoutColumns + ` FROM payout_requests WHERE id = $1 LIMIT 1`
	var payout models.PayoutRequest
	if err := r.db.GetContext(ctx, &payout, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payout by id: %w", err)
	}
	return &payout, nil
}

// List returns all payout requests, newest first.
func (r *PayoutRepository) List(ctx context.Context) ([]models.PayoutRequest, error) {
	const query = `SELECT ` + payoutColumns + ` FROM payout_requests ORDER BY created_at DESC`
	payouts := []models.PayoutRequest{}
	if err := r.db.SelectContext(ctx, &payouts, query); err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}

// ListByAffiliate returns the payout requests made by one affiliate.
func (r *PayoutRepository) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.PayoutRequest, error) {
	const query = `SELECT ` + payoutColumns + ` FROM payout_requests WHERE affiliate_id = $1 ORDER BY created_at DESC`
	payouts := []models.PayoutRequest{}
	if err := r.db.SelectContext(ctx, &payouts, query, affiliateID); err != nil {
		return nil, fmt.Errorf("list payouts by affiliate: %w", err)
	}
	return payouts, nil
}

// Create inserts a new payout request in pending status.
func (r *PayoutRepository) Create(ctx context.Context, payout *models.PayoutRequest) error {
	if payout.ID == "" {
		payout.ID = uuid.NewString()
	}
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = time.Now().UTC()
	}
	if payout.Status == "" {
		payout.Status = models.PayoutPending
	}

	const query = `INSERT INTO payout_requests (id, affiliate_id, amount, bank_name, account_number, account_holder_name, status, processed_at, created_at) VALUES (:id, :affiliate_id, :amount, :bank_name, :account_number, :account_holder_name, :status, :processed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payout); err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

// UpdateStatus sets the payout status. processed_at is stamped only on the
// first transition to paid; moving back to pending leaves it untouched.
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id string, status models.PayoutStatus, processedAt *time.Time) error {
	const query = `UPDATE payout_requests SET status = $2, processed_at = COALESCE(processed_at, $3) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, processedAt)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SumByAffiliate totals payout amounts for an affiliate across every status.
// Zero when the affiliate has no requests.
func (r *PayoutRepository) SumByAffiliate(ctx context.Context, affiliateID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payout_requests WHERE affiliate_id = $1`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, affiliateID); err != nil {
		return decimal.Zero, fmt.Errorf("sum payouts: %w", err)
	}
	return total, nil
}
