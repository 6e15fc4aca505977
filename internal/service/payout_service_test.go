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

type mockPayoutRepo struct {
	byID    map[string]*models.PayoutRequest
	all     []models.PayoutRequest
	created *models.PayoutRequest
	sum     decimal.Decimal
}

func (m *mockPayoutRepo) FindByID(ctx context.Context, id string) (*models.PayoutRequest, error) {
	payout, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return payout, nil
}

func (m *mockPayoutRepo) List(ctx context.Context) ([]models.PayoutRequest, error) {
	return m.all, nil
}

func (m *mockPayoutRepo) ListByAffiliate(ctx context.Context, affiliateID string) ([]models.PayoutRequest, error) {
	var out []models.PayoutRequest
	for _, payout := range m.all {
		if payout.AffiliateID == affiliateID {
			out = append(out, payout)
		}
	}
	return out, nil
}

func (m *mockPayoutRepo) Create(ctx context.Context, payout *models.PayoutRequest) error {
	payout.ID = "po-1"
	payout.CreatedAt = time.Now().UTC()
	m.created = payout
	if m.byID == nil {
		m.byID = make(map[string]*models.PayoutRequest)
	}
	m.byID[payout.ID] = payout
	return nil
}

func (m *mockPayoutRepo) UpdateStatus(ctx context.Context, id string, status models.PayoutStatus, processedAt *time.Time) error {
	payout, ok := m.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	payout.Status = status
	// First transition to paid keeps its stamp forever.
	if payout.ProcessedAt == nil && processedAt != nil {
		payout.ProcessedAt = processedAt
	}
	return nil
}

func (m *mockPayoutRepo) SumByAffiliate(ctx context.Context, affiliateID string) (decimal.Decimal, error) {
	return m.sum, nil
}

type mockUserLookup struct {
	byID map[string]*models.User
}

func (m *mockUserLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type fixedCommissionSource struct {
	verified decimal.Decimal
}

func (f *fixedCommissionSource) SumCommission(ctx context.Context, affiliateID string, status *models.RegistrationStatus) (decimal.Decimal, error) {
	return f.verified, nil
}

func newPayoutFixture(verified, alreadyRequested decimal.Decimal) (*mockPayoutRepo, *recordingNotifier, *PayoutService) {
	repo := &mockPayoutRepo{byID: map[string]*models.PayoutRequest{}, sum: alreadyRequested}
	users := &mockUserLookup{byID: map[string]*models.User{
		"aff-1":   {ID: "aff-1", Email: "jane@example.com", Role: models.RoleAffiliate},
		"admin-1": {ID: "admin-1", Email: "boss@example.com", Role: models.RoleAdmin},
	}}
	notifier := &recordingNotifier{}
	svc := NewPayoutService(repo, users, &fixedCommissionSource{verified: verified}, notifier, validator.New(), zap.NewNop())
	return repo, notifier, svc
}

func payoutRequest(amount int64) CreatePayoutRequest {
	return CreatePayoutRequest{
		AffiliateID:       "aff-1",
		Amount:            decimal.NewFromInt(amount),
		BankName:          "BCA",
		AccountNumber:     "1234567890",
		AccountHolderName: "Jane Doe",
	}
}

func TestAvailableBalanceSubtractsAllPayouts(t *testing.T) {
	_, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.NewFromInt(60000))

	available, err := svc.AvailableBalance(context.Background(), "aff-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40000).Equal(available), "got %s", available)
}

func TestCreatePayoutOverBalanceRejected(t *testing.T) {
	repo, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.NewFromInt(60000))

	_, err := svc.Create(context.Background(), payoutRequest(50000))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsufficientBalance.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCreatePayoutExactBalanceAllowed(t *testing.T) {
	repo, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.NewFromInt(60000))

	payout, err := svc.Create(context.Background(), payoutRequest(40000))
	require.NoError(t, err)
	assert.Equal(t, models.PayoutPending, payout.Status)
	assert.Nil(t, payout.ProcessedAt)
	assert.NotNil(t, repo.created)
}

func TestCreatePayoutZeroAmountRejected(t *testing.T) {
	_, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)

	req := payoutRequest(0)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreatePayoutForAdminID(t *testing.T) {
	_, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)

	req := payoutRequest(10000)
	req.AffiliateID = "admin-1"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	// Admin ids are indistinguishable from unknown ids here.
	assert.Equal(t, appErrors.ErrAffiliateNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusPaidStampsProcessedAt(t *testing.T) {
	repo, notifier, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)
	repo.byID["po-7"] = &models.PayoutRequest{ID: "po-7", AffiliateID: "aff-1", Amount: decimal.NewFromInt(40000), Status: models.PayoutPending}

	updated, err := svc.UpdateStatus(context.Background(), "po-7", UpdatePayoutStatusRequest{Status: models.PayoutPaid})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutPaid, updated.Status)
	require.NotNil(t, updated.ProcessedAt)
	assert.Equal(t, 1, notifier.payoutUpdates)
}

func TestUpdateStatusRevertKeepsStamp(t *testing.T) {
	repo, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)
	stamp := time.Now().UTC().Add(-time.Hour)
	repo.byID["po-7"] = &models.PayoutRequest{ID: "po-7", AffiliateID: "aff-1", Amount: decimal.NewFromInt(40000), Status: models.PayoutPaid, ProcessedAt: &stamp}

	updated, err := svc.UpdateStatus(context.Background(), "po-7", UpdatePayoutStatusRequest{Status: models.PayoutPending})
	require.NoError(t, err)
	assert.Equal(t, models.PayoutPending, updated.Status)
	require.NotNil(t, updated.ProcessedAt)
	assert.True(t, stamp.Equal(*updated.ProcessedAt))
}

func TestUpdateStatusRePaidKeepsOriginalStamp(t *testing.T) {
	repo, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)
	stamp := time.Now().UTC().Add(-time.Hour)
	repo.byID["po-7"] = &models.PayoutRequest{ID: "po-7", AffiliateID: "aff-1", Amount: decimal.NewFromInt(40000), Status: models.PayoutPending, ProcessedAt: &stamp}

	updated, err := svc.UpdateStatus(context.Background(), "po-7", UpdatePayoutStatusRequest{Status: models.PayoutPaid})
	require.NoError(t, err)
	assert.True(t, stamp.Equal(*updated.ProcessedAt))
}

func TestUpdateStatusUnknownPayout(t *testing.T) {
	_, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)

	_, err := svc.UpdateStatus(context.Background(), "po-missing", UpdatePayoutStatusRequest{Status: models.PayoutPaid})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusInvalidValue(t *testing.T) {
	_, _, svc := newPayoutFixture(decimal.NewFromInt(100000), decimal.Zero)

	_, err := svc.UpdateStatus(context.Background(), "po-7", UpdatePayoutStatusRequest{Status: models.PayoutStatus("rejected")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
