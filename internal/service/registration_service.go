package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

type registrationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	List(ctx context.Context) ([]models.Registration, error)
	ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Registration, error)
	Create(ctx context.Context, reg *models.Registration) error
	MarkPaymentVerified(ctx context.Context, id string, verifiedAt time.Time) error
}

type registrationAffiliateLookup interface {
	FindByAffiliateCode(ctx context.Context, code string) (*models.User, error)
}

type registrationProgramLookup interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context, affiliateID string)
}

// CreateRegistrationRequest is the payload for a student signup.
type CreateRegistrationRequest struct {
	AffiliateCode string `json:"affiliate_code" validate:"required"`
	ProgramID     string `json:"program_id" validate:"required"`
	StudentName   string `json:"student_name" validate:"required"`
	StudentEmail  string `json:"student_email" validate:"required,email"`
	StudentPhone  string `json:"student_phone" validate:"required"`
}

// RegistrationService handles the student registration lifecycle.
type RegistrationService struct {
	repo      registrationRepository
	userRepo  registrationAffiliateLookup
	programs  registrationProgramLookup
	notifier  Notifier
	stats     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService creates an instance of RegistrationService.
func NewRegistrationService(repo registrationRepository, userRepo registrationAffiliateLookup, programs registrationProgramLookup, notifier Notifier, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RegistrationService{repo: repo, userRepo: userRepo, programs: programs, notifier: notifier, stats: stats, validator: validate, logger: logger}
}

// Create records a signup made through an affiliate link. The commission is
// computed once from the program's current fee/rate and stored immutably on
// the registration.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	affiliate, err := s.userRepo.FindByAffiliateCode(ctx, req.AffiliateCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Missing and inactive programs surface the same error.
			return nil, appErrors.Clone(appErrors.ErrProgramUnavailable, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if !program.IsActive {
		return nil, appErrors.Clone(appErrors.ErrProgramUnavailable, "")
	}

	reg := &models.Registration{
		AffiliateID:      affiliate.ID,
		ProgramID:        program.ID,
		StudentName:      req.StudentName,
		StudentEmail:     req.StudentEmail,
		StudentPhone:     req.StudentPhone,
		CommissionAmount: ProgramCommission(program),
		Status:           models.RegistrationPending,
	}

	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	if s.stats != nil {
		s.stats.InvalidateStats(ctx, affiliate.ID)
	}

	if s.notifier != nil {
		if err := s.notifier.NewRegistration(ctx, reg, affiliate, program); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send registration notification")
		}
	}

	s.logger.Info("registration created",
		zap.String("registration_id", reg.ID),
		zap.String("affiliate_id", affiliate.ID),
		zap.String("program_id", program.ID),
	)
	return reg, nil
}

// VerifyPayment moves a registration to payment_verified and stamps the
// verification time. There is no idempotency guard: verifying an already
// verified registration re-stamps the timestamp.
func (s *RegistrationService) VerifyPayment(ctx context.Context, id string) (*models.Registration, error) {
	now := time.Now().UTC()
	if err := s.repo.MarkPaymentVerified(ctx, id, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment")
	}

	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload registration")
	}

	if s.stats != nil {
		s.stats.InvalidateStats(ctx, reg.AffiliateID)
	}

	return reg, nil
}

// List returns every registration.
func (s *RegistrationService) List(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}

// ListByAffiliate returns the registrations owned by one affiliate.
func (s *RegistrationService) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Registration, error) {
	regs, err := s.repo.ListByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return regs, nil
}
