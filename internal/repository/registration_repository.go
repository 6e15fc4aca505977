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

// RegistrationRepository provides database access for student registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository creates a new instance of RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, affiliate_id, program_id, student_name, student_email, student_phone, commission_amount, status, payment_verified_at, created_at`

// FindByID returns a registration by identifier.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 LIMIT 1`
	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration by id: %w", err)
	}
	return &reg, nil
}

// List returns all registrations, newest first.
func (r *RegistrationRepository) List(ctx context.Context) ([]models.Registration, error) {
	const query = `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at DESC`
	regs := []models.Registration{}
	if err := r.db.SelectContext(ctx, &regs, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

// ListByAffiliate returns the registrations owned by one affiliate.
func (r *RegistrationRepository) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Registration, error) {
	const query = `SELECT ` + registrationColumns + ` FROM registrations WHERE affiliate_id = $1 ORDER BY created_at DESC`
	regs := []models.Registration{}
	if err := r.db.SelectContext(ctx, &regs, query, affiliateID); err != nil {
		return nil, fmt.Errorf("list registrations by affiliate: %w", err)
	}
	return regs, nil
}

// Create inserts a new registration with its commission snapshot.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	if reg.Status == "" {
		reg.Status = models.RegistrationPending
	}

	const query = `INSERT INTO registrations (id, affiliate_id, program_id, student_name, student_email, student_phone, commission_amount, status, payment_verified_at, created_at) VALUES (:id, :affiliate_id, :program_id, :student_name, :student_email, :student_phone, :commission_amount, :status, :payment_verified_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// MarkPaymentVerified stamps the status and verification timestamp. The
// update is unconditional: re-verifying an already verified row re-stamps it.
func (r *RegistrationRepository) MarkPaymentVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `UPDATE registrations SET status = 'payment_verified', payment_verified_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, verifiedAt)
	if err != nil {
		return fmt.Errorf("mark payment verified: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByAffiliate returns the number of registrations for an affiliate.
func (r *RegistrationRepository) CountByAffiliate(ctx context.Context, affiliateID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE affiliate_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, affiliateID); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// SumCommission sums commission amounts for an affiliate, optionally
// filtered by status. Absence of rows yields zero, never an error.
func (r *RegistrationRepository) SumCommission(ctx context.Context, affiliateID string, status *models.RegistrationStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	if status == nil {
		const query = `SELECT COALESCE(SUM(commission_amount), 0) FROM registrations WHERE affiliate_id = $1`
		if err := r.db.GetContext(ctx, &total, query, affiliateID); err != nil {
			return decimal.Zero, fmt.Errorf("sum commission: %w", err)
		}
		return total, nil
	}

	const query = `SELECT COALESCE(SUM(commission_amount), 0) FROM registrations WHERE affiliate_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, query, affiliateID, *status); err != nil {
		return decimal.Zero, fmt.Errorf("sum commission by status: %w", err)
	}
	return total, nil
}
