package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kelaskita/affiliate-api/internal/models"
)

// ProgramRepository provides database access for sellable programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository creates a new instance of ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, name, description, fee, commission_rate, commission_type, is_active, created_at, updated_at`

// FindByID returns a program by identifier, active or not.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT ` + programColumns + ` FROM programs WHERE id = $1 LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program by id: %w", err)
	}
	return &program, nil
}

// ListActive returns active programs only. Soft-deleted rows stay readable
// by id but are excluded here.
func (r *ProgramRepository) ListActive(ctx context.Context) ([]models.Program, error) {
	const query = `SELECT ` + programColumns + ` FROM programs WHERE is_active = TRUE ORDER BY created_at DESC`
	programs := []models.Program{}
	if err := r.db.SelectContext(ctx, &programs, query); err != nil {
		return nil, fmt.Errorf("list active programs: %w", err)
	}
	return programs, nil
}

// Create inserts a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now

	const query = `INSERT INTO programs (id, name, description, fee, commission_rate, commission_type, is_active, created_at, updated_at) VALUES (:id, :name, :description, :fee, :commission_rate, :commission_type, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update updates mutable fields of a program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, description = :description, fee = :fee, commission_rate = :commission_rate, commission_type = :commission_type, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// Deactivate performs the soft delete by clearing is_active.
func (r *ProgramRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE programs SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate program: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
