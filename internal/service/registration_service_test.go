package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

type mockRegistrationRepo struct {
	byID       map[string]*models.Registration
	all        []models.Registration
	created    *models.Registration
	verifiedAt *time.Time
	verifyErr  error
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	reg, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return reg, nil
}

func (m *mockRegistrationRepo) List(ctx context.Context) ([]models.Registration, error) {
	return m.all, nil
}

func (m *mockRegistrationRepo) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.Registration, error) {
	var out []models.Registration
	for _, reg := range m.all {
		if reg.AffiliateID == affiliateID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	reg.ID = "reg-1"
	reg.CreatedAt = time.Now().UTC()
	m.created = reg
	if m.byID == nil {
		m.byID = make(map[string]*models.Registration)
	}
	m.byID[reg.ID] = reg
	return nil
}

func (m *mockRegistrationRepo) MarkPaymentVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	if m.verifyErr != nil {
		return m.verifyErr
	}
	reg, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	reg.Status = models.RegistrationPaymentVerified
	reg.PaymentVerifiedAt = &verifiedAt
	m.verifiedAt = &verifiedAt
	return nil
}

type mockCodeLookup struct {
	byCode map[string]*models.User
}

func (m *mockCodeLookup) FindByAffiliateCode(ctx context.Context, code string) (*models.User, error) {
	user, ok := m.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type mockProgramLookup struct {
	byID map[string]*models.Program
}

func (m *mockProgramLookup) FindByID(ctx context.Context, id string) (*models.Program, error) {
	program, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return program, nil
}

type recordingInvalidator struct {
	invalidated []string
}

func (r *recordingInvalidator) InvalidateStats(ctx context.Context, affiliateID string) {
	r.invalidated = append(r.invalidated, affiliateID)
}

func newRegistrationFixture() (*mockRegistrationRepo, *mockCodeLookup, *mockProgramLookup, *recordingNotifier, *recordingInvalidator, *RegistrationService) {
	code := "AFFABC123"
	repo := &mockRegistrationRepo{byID: map[string]*models.Registration{}}
	users := &mockCodeLookup{byCode: map[string]*models.User{
		code: {ID: "aff-1", Email: "jane@example.com", Role: models.RoleAffiliate, AffiliateCode: &code},
	}}
	programs := &mockProgramLookup{byID: map[string]*models.Program{
		"prog-1": {
			ID:             "prog-1",
			Name:           "Intensive Bootcamp",
			Fee:            decimal.NewFromInt(1000000),
			CommissionRate: decimal.NewFromInt(10),
			CommissionType: models.CommissionPercentage,
			IsActive:       true,
		},
	}}
	notifier := &recordingNotifier{}
	stats := &recordingInvalidator{}
	svc := NewRegistrationService(repo, users, programs, notifier, stats, validator.New(), zap.NewNop())
	return repo, users, programs, notifier, stats, svc
}

func validCreateRequest() CreateRegistrationRequest {
	return CreateRegistrationRequest{
		AffiliateCode: "AFFABC123",
		ProgramID:     "prog-1",
		StudentName:   "Budi Santoso",
		StudentEmail:  "budi@example.com",
		StudentPhone:  "+628123456789",
	}
}

func TestCreateRegistrationSnapshotsCommission(t *testing.T) {
	repo, _, _, notifier, stats, svc := newRegistrationFixture()

	reg, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "aff-1", reg.AffiliateID)
	assert.Equal(t, models.RegistrationPending, reg.Status)
	assert.Nil(t, reg.PaymentVerifiedAt)
	assert.True(t, decimal.NewFromInt(100000).Equal(reg.CommissionAmount), "got %s", reg.CommissionAmount)
	assert.NotNil(t, repo.created)
	assert.Equal(t, 1, notifier.registrations)
	assert.Equal(t, []string{"aff-1"}, stats.invalidated)
}

func TestCreateRegistrationUnknownAffiliate(t *testing.T) {
	_, _, _, _, _, svc := newRegistrationFixture()

	req := validCreateRequest()
	req.AffiliateCode = "AFFNOPE00"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAffiliateNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateRegistrationUnknownProgram(t *testing.T) {
	_, _, _, _, _, svc := newRegistrationFixture()

	req := validCreateRequest()
	req.ProgramID = "prog-missing"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProgramUnavailable.Code, appErrors.FromError(err).Code)
}

func TestCreateRegistrationInactiveProgramSameError(t *testing.T) {
	_, _, programs, _, _, svc := newRegistrationFixture()
	programs.byID["prog-1"].IsActive = false

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrProgramUnavailable.Code, appErrors.FromError(err).Code)
}

func TestCreateRegistrationKeepsSnapshotAfterRateChange(t *testing.T) {
	repo, _, programs, _, _, svc := newRegistrationFixture()

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	// A later rate change must not touch the stored amount.
	programs.byID["prog-1"].CommissionRate = decimal.NewFromInt(50)
	assert.True(t, decimal.NewFromInt(100000).Equal(repo.created.CommissionAmount))
}

func TestVerifyPaymentStampsTimestamp(t *testing.T) {
	repo, _, _, _, stats, svc := newRegistrationFixture()
	repo.byID["reg-9"] = &models.Registration{ID: "reg-9", AffiliateID: "aff-1", Status: models.RegistrationPending}

	reg, err := svc.VerifyPayment(context.Background(), "reg-9")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPaymentVerified, reg.Status)
	require.NotNil(t, reg.PaymentVerifiedAt)
	assert.Contains(t, stats.invalidated, "aff-1")
}

func TestVerifyPaymentRestampsOnRepeat(t *testing.T) {
	repo, _, _, _, _, svc := newRegistrationFixture()
	repo.byID["reg-9"] = &models.Registration{ID: "reg-9", AffiliateID: "aff-1", Status: models.RegistrationPending}

	first, err := svc.VerifyPayment(context.Background(), "reg-9")
	require.NoError(t, err)
	firstStamp := *first.PaymentVerifiedAt

	time.Sleep(2 * time.Millisecond)

	second, err := svc.VerifyPayment(context.Background(), "reg-9")
	require.NoError(t, err)
	assert.True(t, second.PaymentVerifiedAt.After(firstStamp))
}

func TestVerifyPaymentUnknownRegistration(t *testing.T) {
	_, _, _, _, _, svc := newRegistrationFixture()

	_, err := svc.VerifyPayment(context.Background(), "reg-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListByAffiliateFilters(t *testing.T) {
	repo, _, _, _, _, svc := newRegistrationFixture()
	repo.all = []models.Registration{
		{ID: "r1", AffiliateID: "aff-1"},
		{ID: "r2", AffiliateID: "aff-2"},
		{ID: "r3", AffiliateID: "aff-1"},
	}

	regs, err := svc.ListByAffiliate(context.Background(), "aff-1")
	require.NoError(t, err)
	assert.Len(t, regs, 2)
}
