package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	"github.com/kelaskita/affiliate-api/pkg/config"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type affiliateUserRepository interface {
	FindByAffiliateCode(ctx context.Context, code string) (*models.User, error)
	AffiliateCodeExists(ctx context.Context, code string) (bool, error)
	ListAffiliates(ctx context.Context) ([]models.User, error)
}

// AffiliateService covers affiliate lookups and referral code issuance.
type AffiliateService struct {
	repo   affiliateUserRepository
	cfg    config.AffiliateConfig
	logger *zap.Logger
}

// NewAffiliateService constructs an AffiliateService instance.
func NewAffiliateService(repo affiliateUserRepository, cfg config.AffiliateConfig, logger *zap.Logger) *AffiliateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = "AFF"
	}
	if cfg.CodeSuffixLength <= 0 {
		cfg.CodeSuffixLength = 6
	}
	if cfg.CodeMaxAttempts <= 0 {
		cfg.CodeMaxAttempts = 10
	}
	return &AffiliateService{repo: repo, cfg: cfg, logger: logger}
}

// GetByCode returns the affiliate owning a code. The lookup is
// case-sensitive by contract.
func (s *AffiliateService) GetByCode(ctx context.Context, code string) (*models.User, error) {
	affiliate, err := s.repo.FindByAffiliateCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAffiliateNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affiliate")
	}
	return affiliate, nil
}

// ListAffiliates returns every affiliate account.
func (s *AffiliateService) ListAffiliates(ctx context.Context) ([]models.User, error) {
	affiliates, err := s.repo.ListAffiliates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list affiliates")
	}
	return affiliates, nil
}

// GenerateUniqueCode issues a fresh affiliate code: a fixed prefix plus an
// uppercase alphanumeric suffix drawn from crypto/rand, re-rolled while the
// code is already taken. When attempts are exhausted it falls back to a
// timestamp-derived code without a further uniqueness check; the collision
// window there is accepted as negligible.
func (s *AffiliateService) GenerateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.cfg.CodeMaxAttempts; attempt++ {
		code, err := s.randomCode()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate affiliate code")
		}

		exists, err := s.repo.AffiliateCodeExists(ctx, code)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check affiliate code")
		}
		if !exists {
			return code, nil
		}
	}

	fallback := s.fallbackCode(time.Now().UTC())
	s.logger.Warn("affiliate code attempts exhausted, using timestamp fallback",
		zap.Int("attempts", s.cfg.CodeMaxAttempts),
		zap.String("code", fallback),
	)
	return fallback, nil
}

func (s *AffiliateService) randomCode() (string, error) {
	buf := make([]byte, s.cfg.CodeSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return s.cfg.CodePrefix + string(suffix), nil
}

func (s *AffiliateService) fallbackCode(now time.Time) string {
	suffix := strings.ToUpper(strconv.FormatInt(now.UnixNano(), 36))
	if len(suffix) > s.cfg.CodeSuffixLength {
		suffix = suffix[len(suffix)-s.cfg.CodeSuffixLength:]
	}
	return s.cfg.CodePrefix + suffix
}
