package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

type payoutRepository interface {
	FindByID(ctx context.Context, id string) (*models.PayoutRequest, error)
	List(ctx context.Context) ([]models.PayoutRequest, error)
	ListByAffiliate(ctx context.Context, affiliateID string) ([]models.PayoutRequest, error)
	Create(ctx context.Context, payout *models.PayoutRequest) error
	UpdateStatus(ctx context.Context, id string, status models.PayoutStatus, processedAt *time.Time) error
	SumByAffiliate(ctx context.Context, affiliateID string) (decimal.Decimal, error)
}

type payoutUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type payoutCommissionSource interface {
	SumCommission(ctx context.Context, affiliateID string, status *models.RegistrationStatus) (decimal.Decimal, error)
}

// CreatePayoutRequest is the payload for requesting a payout.
type CreatePayoutRequest struct {
	AffiliateID       string          `json:"affiliate_id" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	BankName          string          `json:"bank_name" validate:"required"`
	AccountNumber     string          `json:"account_number" validate:"required"`
	AccountHolderName string          `json:"account_holder_name" validate:"required"`
}

// UpdatePayoutStatusRequest changes a payout's processing status.
type UpdatePayoutStatusRequest struct {
	Status models.PayoutStatus `json:"status" validate:"required,oneof=pending paid"`
}

// PayoutService authorizes and processes payout requests.
type PayoutService struct {
	repo          payoutRepository
	users         payoutUserLookup
	registrations payoutCommissionSource
	notifier      Notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewPayoutService creates an instance of PayoutService.
func NewPayoutService(repo payoutRepository, users payoutUserLookup, registrations payoutCommissionSource, notifier Notifier, validate *validator.Validate, logger *zap.Logger) *PayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PayoutService{repo: repo, users: users, registrations: registrations, notifier: notifier, validator: validate, logger: logger}
}

// AvailableBalance computes what the affiliate may still withdraw: the sum
// of verified commission minus the sum of every prior payout request,
// regardless of payout status.
func (s *PayoutService) AvailableBalance(ctx context.Context, affiliateID string) (decimal.Decimal, error) {
	verified := models.RegistrationPaymentVerified
	earned, err := s.registrations.SumCommission(ctx, affiliateID, &verified)
	if err != nil {
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum verified commission")
	}

	requested, err := s.repo.SumByAffiliate(ctx, affiliateID)
	if err != nil {
		return decimal.Zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payouts")
	}

	return earned.Sub(requested), nil
}

// Create authorizes a payout request against the affiliate's available
// balance. Requesting exactly the available balance is allowed; anything
// above is rejected. The check and the insert are separate statements; see
// the balance-race note in the repository docs.
func (s *PayoutService) Create(ctx context.Context, req CreatePayoutRequest) (*models.PayoutRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payout payload")
	}
	if !req.Amount.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}

	affiliate, err := s.lookupAffiliate(ctx, req.AffiliateID)
	if err != nil {
		return nil, err
	}

	available, err := s.AvailableBalance(ctx, affiliate.ID)
	if err != nil {
		return nil, err
	}

	if req.Amount.GreaterThan(available) {
		return nil, appErrors.Clone(appErrors.ErrInsufficientBalance, "")
	}

	payout := &models.PayoutRequest{
		AffiliateID:       affiliate.ID,
		Amount:            req.Amount,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		AccountHolderName: req.AccountHolderName,
		Status:            models.PayoutPending,
	}

	if err := s.repo.Create(ctx, payout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payout")
	}

	s.logger.Info("payout requested",
		zap.String("payout_id", payout.ID),
		zap.String("affiliate_id", affiliate.ID),
		zap.String("amount", payout.Amount.StringFixed(2)),
	)
	return payout, nil
}

// UpdateStatus transitions a payout. Moving to paid stamps processed_at
// exactly once; a later move back to pending leaves the stamp in place.
func (s *PayoutService) UpdateStatus(ctx context.Context, id string, req UpdatePayoutStatusRequest) (*models.PayoutRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payout status payload")
	}

	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payout not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payout")
	}

	var processedAt *time.Time
	if req.Status == models.PayoutPaid {
		now := time.Now().UTC()
		processedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payout not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payout status")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload payout")
	}

	if s.notifier != nil {
		affiliate, err := s.users.FindByID(ctx, payout.AffiliateID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
		}
		if err := s.notifier.PayoutStatusChanged(ctx, affiliate.Email, updated.Amount.StringFixed(2), updated.Status); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send payout notification")
		}
	}

	return updated, nil
}

// List returns every payout request.
func (s *PayoutService) List(ctx context.Context) ([]models.PayoutRequest, error) {
	payouts, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payouts")
	}
	return payouts, nil
}

// ListByAffiliate returns the payout requests made by one affiliate.
func (s *PayoutService) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.PayoutRequest, error) {
	payouts, err := s.repo.ListByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payouts")
	}
	return payouts, nil
}

func (s *PayoutService) lookupAffiliate(ctx context.Context, affiliateID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, affiliateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
	}
	if user.Role != models.RoleAffiliate {
		// Admin ids get the same not-found answer as unknown ids.
		return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
	}
	return user, nil
}
