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

type linkClickRepository interface {
	Create(ctx context.Context, click *models.LinkClick) error
	ListByAffiliate(ctx context.Context, affiliateID string) ([]models.LinkClick, error)
	CountByAffiliate(ctx context.Context, affiliateID string) (int, error)
}

type statsRegistrationRepository interface {
	CountByAffiliate(ctx context.Context, affiliateID string) (int, error)
	SumCommission(ctx context.Context, affiliateID string, status *models.RegistrationStatus) (decimal.Decimal, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type statsAffiliateLookup interface {
	FindByAffiliateCode(ctx context.Context, code string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TrackClickRequest is the payload for recording a referral link click.
type TrackClickRequest struct {
	AffiliateCode string  `json:"affiliate_code" validate:"required"`
	IPAddress     string  `json:"ip_address" validate:"required"`
	UserAgent     *string `json:"user_agent"`
}

// TrackingService records link clicks and aggregates affiliate statistics.
type TrackingService struct {
	clicks        linkClickRepository
	registrations statsRegistrationRepository
	users         statsAffiliateLookup
	cache         statsCache
	cacheTTL      time.Duration
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewTrackingService creates an instance of TrackingService. A nil cache
// disables memoisation of stats snapshots.
func NewTrackingService(clicks linkClickRepository, registrations statsRegistrationRepository, users statsAffiliateLookup, cache statsCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &TrackingService{
		clicks:        clicks,
		registrations: registrations,
		users:         users,
		cache:         cache,
		cacheTTL:      cacheTTL,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// TrackClick appends a click event for the affiliate owning the code.
func (s *TrackingService) TrackClick(ctx context.Context, req TrackClickRequest) (*models.LinkClick, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid click payload")
	}

	affiliate, err := s.users.FindByAffiliateCode(ctx, req.AffiliateCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
	}

	click := &models.LinkClick{
		AffiliateID: affiliate.ID,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}

	if err := s.clicks.Create(ctx, click); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record click")
	}

	s.InvalidateStats(ctx, affiliate.ID)
	return click, nil
}

// Stats aggregates an affiliate's activity. Affiliates with no activity get
// an all-zero snapshot, never an error. Snapshots are cached when Redis is
// configured.
func (s *TrackingService) Stats(ctx context.Context, affiliateID string) (*models.AffiliateStats, bool, error) {
	if _, err := s.lookupAffiliate(ctx, affiliateID); err != nil {
		return nil, false, err
	}

	cacheKey := statsCacheKey(affiliateID)
	if s.cache != nil {
		var cached models.AffiliateStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return &cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}
	}

	totalClicks, err := s.clicks.CountByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count clicks")
	}

	totalRegistrations, err := s.registrations.CountByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count registrations")
	}

	totalCommission, err := s.registrations.SumCommission(ctx, affiliateID, nil)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum commission")
	}

	pending := models.RegistrationPending
	pendingCommission, err := s.registrations.SumCommission(ctx, affiliateID, &pending)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum pending commission")
	}

	verified := models.RegistrationPaymentVerified
	verifiedCommission, err := s.registrations.SumCommission(ctx, affiliateID, &verified)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum verified commission")
	}

	stats := &models.AffiliateStats{
		AffiliateID:        affiliateID,
		TotalClicks:        totalClicks,
		TotalRegistrations: totalRegistrations,
		TotalCommission:    totalCommission,
		PendingCommission:  pendingCommission,
		VerifiedCommission: verifiedCommission,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}

	return stats, false, nil
}

// ListClicks returns an affiliate's click events.
func (s *TrackingService) ListClicks(ctx context.Context, affiliateID string) ([]models.LinkClick, error) {
	if _, err := s.lookupAffiliate(ctx, affiliateID); err != nil {
		return nil, err
	}

	clicks, err := s.clicks.ListByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clicks")
	}
	return clicks, nil
}

// InvalidateStats drops the cached snapshot after a write touching the
// affiliate's aggregates. Failures only log; the triggering write stands.
func (s *TrackingService) InvalidateStats(ctx context.Context, affiliateID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(affiliateID)); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *TrackingService) lookupAffiliate(ctx context.Context, affiliateID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, affiliateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
	}
	if user.Role != models.RoleAffiliate {
		return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
	}
	return user, nil
}

func statsCacheKey(affiliateID string) string {
	return "affiliate:stats:" + affiliateID
}
