package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

type programRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListActive(ctx context.Context) ([]models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	Deactivate(ctx context.Context, id string) error
}

// CreateProgramRequest is the payload for adding a program.
type CreateProgramRequest struct {
	Name           string                `json:"name" validate:"required"`
	Description    string                `json:"description"`
	Fee            decimal.Decimal       `json:"fee" validate:"required"`
	CommissionRate decimal.Decimal       `json:"commission_rate" validate:"required"`
	CommissionType models.CommissionType `json:"commission_type" validate:"required,oneof=percentage flat"`
}

// UpdateProgramRequest is the payload for editing a program.
type UpdateProgramRequest struct {
	Name           string                `json:"name" validate:"required"`
	Description    string                `json:"description"`
	Fee            decimal.Decimal       `json:"fee" validate:"required"`
	CommissionRate decimal.Decimal       `json:"commission_rate" validate:"required"`
	CommissionType models.CommissionType `json:"commission_type" validate:"required,oneof=percentage flat"`
	IsActive       *bool                 `json:"is_active"`
}

// CommissionRateInfo describes the default rate applied for a commission type.
type CommissionRateInfo struct {
	CommissionType models.CommissionType `json:"commission_type"`
	DefaultRate    decimal.Decimal       `json:"default_rate"`
}

// Default rates suggested to admins when creating a program.
var (
	defaultPercentageRate = decimal.NewFromInt(10)
	defaultFlatRate       = decimal.NewFromInt(100000)
)

// ProgramService manages the sellable program catalog.
type ProgramService struct {
	repo      programRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService creates an instance of ProgramService.
func NewProgramService(repo programRepository, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgramService{repo: repo, validator: validate, logger: logger}
}

// ListActive returns the catalogue of active programs.
func (s *ProgramService) ListActive(ctx context.Context) ([]models.Program, error) {
	programs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get returns a program by id. Inactive programs stay readable here; only
// the active listing filters them out.
func (s *ProgramService) Get(ctx context.Context, id string) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return program, nil
}

// Create adds a new program.
func (s *ProgramService) Create(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create program payload")
	}
	if err := validateMonetary(req.Fee, req.CommissionRate); err != nil {
		return nil, err
	}

	program := &models.Program{
		Name:           req.Name,
		Description:    req.Description,
		Fee:            req.Fee,
		CommissionRate: req.CommissionRate,
		CommissionType: req.CommissionType,
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}

	s.logger.Info("program created", zap.String("program_id", program.ID), zap.String("name", program.Name))
	return program, nil
}

// Update edits a program in place.
func (s *ProgramService) Update(ctx context.Context, id string, req UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update program payload")
	}
	if err := validateMonetary(req.Fee, req.CommissionRate); err != nil {
		return nil, err
	}

	program, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	program.Name = req.Name
	program.Description = req.Description
	program.Fee = req.Fee
	program.CommissionRate = req.CommissionRate
	program.CommissionType = req.CommissionType
	if req.IsActive != nil {
		program.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}

	return program, nil
}

// Delete soft-deletes a program by flipping is_active. Existing
// registrations keep referencing the row.
func (s *ProgramService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	return nil
}

// CommissionRateByType returns the default commission rate suggested for a
// commission type.
func (s *ProgramService) CommissionRateByType(commissionType models.CommissionType) (*CommissionRateInfo, error) {
	switch commissionType {
	case models.CommissionPercentage:
		return &CommissionRateInfo{CommissionType: commissionType, DefaultRate: defaultPercentageRate}, nil
	case models.CommissionFlat:
		return &CommissionRateInfo{CommissionType: commissionType, DefaultRate: defaultFlatRate}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown commission type")
	}
}

func validateMonetary(fee, rate decimal.Decimal) error {
	if !fee.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "fee must be positive")
	}
	if !rate.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "commission rate must be positive")
	}
	return nil
}
