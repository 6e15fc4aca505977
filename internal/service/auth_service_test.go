package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kelaskita/affiliate-api/internal/models"
	appErrors "github.com/kelaskita/affiliate-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail   *models.User
	userByID      *models.User
	created       *models.User
	createErr     error
	refreshTokens map[string]*models.RefreshToken
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByID, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = user
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

type fixedCodeIssuer struct {
	code string
	err  error
}

func (f *fixedCodeIssuer) GenerateUniqueCode(ctx context.Context) (string, error) {
	return f.code, f.err
}

type recordingNotifier struct {
	welcomes      []string
	registrations int
	payoutUpdates int
	err           error
}

func (r *recordingNotifier) NewRegistration(ctx context.Context, reg *models.Registration, affiliate *models.User, program *models.Program) error {
	if r.err != nil {
		return r.err
	}
	r.registrations++
	return nil
}

func (r *recordingNotifier) PayoutStatusChanged(ctx context.Context, affiliateEmail string, amount string, status models.PayoutStatus) error {
	if r.err != nil {
		return r.err
	}
	r.payoutUpdates++
	return nil
}

func (r *recordingNotifier) Welcome(ctx context.Context, email string, affiliateCode *string) error {
	if r.err != nil {
		return r.err
	}
	r.welcomes = append(r.welcomes, email)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "affiliate-api-test",
	}
}

func TestRegisterAffiliateGetsCode(t *testing.T) {
	repo := &mockAuthRepo{}
	notifier := &recordingNotifier{}
	svc := NewAuthService(repo, &fixedCodeIssuer{code: "AFFXYZ123"}, notifier, validator.New(), zap.NewNop(), testAuthConfig())

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Jane@Example.com",
		Password: "secret123",
		FullName: "Jane Doe",
		Role:     models.RoleAffiliate,
	})
	require.NoError(t, err)
	require.NotNil(t, user.AffiliateCode)
	assert.Equal(t, "AFFXYZ123", *user.AffiliateCode)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Len(t, notifier.welcomes, 1)
}

func TestRegisterAdminHasNoCode(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, &fixedCodeIssuer{code: "AFFXYZ123"}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "admin@example.com",
		Password: "secret123",
		FullName: "Back Office",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Nil(t, user.AffiliateCode)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "jane@example.com"}}
	svc := NewAuthService(repo, &fixedCodeIssuer{code: "AFFXYZ123"}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "jane@example.com",
		Password: "secret123",
		FullName: "Jane Doe",
		Role:     models.RoleAffiliate,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestRegisterNotifierFailureSurfaces(t *testing.T) {
	repo := &mockAuthRepo{}
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := NewAuthService(repo, &fixedCodeIssuer{code: "AFFXYZ123"}, notifier, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "jane@example.com",
		Password: "secret123",
		FullName: "Jane Doe",
		Role:     models.RoleAffiliate,
	})
	require.Error(t, err)
	// The user row was already written; only the notification failed.
	assert.NotNil(t, repo.created)
}

func TestLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	code := "AFFABC999"
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID: "u1", Email: "jane@example.com", PasswordHash: string(hash),
		Role: models.RoleAffiliate, AffiliateCode: &code,
	}}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	require.NotNil(t, res.User.AffiliateCode)
	assert.Equal(t, code, *res.User.AffiliateCode)
	assert.NotEmpty(t, repo.refreshTokens)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "jane@example.com", PasswordHash: string(hash)}}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	user := &models.User{ID: "u1", Email: "jane@example.com", Role: models.RoleAffiliate}
	repo := &mockAuthRepo{userByID: user, refreshTokens: map[string]*models.RefreshToken{
		"old-token": {ID: "rt1", UserID: "u1", Token: "old-token", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "old-token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestRefreshTokenExpired(t *testing.T) {
	user := &models.User{ID: "u1", Email: "jane@example.com"}
	repo := &mockAuthRepo{userByID: user, refreshTokens: map[string]*models.RefreshToken{
		"stale": {ID: "rt1", UserID: "u1", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Minute)},
	}}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRevokesOwnToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"tok": {ID: "rt1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())

	require.NoError(t, svc.Logout(context.Background(), "tok", "u1"))
	assert.True(t, repo.refreshTokens["tok"].Revoked)

	err := svc.Logout(context.Background(), "tok", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())
	user := &models.User{ID: "u1", Email: "jane@example.com", Role: models.RoleAffiliate}

	token, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAffiliate, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), testAuthConfig())
	other := NewAuthService(&mockAuthRepo{}, &fixedCodeIssuer{}, &recordingNotifier{}, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different",
		AccessTokenExpiry: time.Hour,
	})

	token, err := other.generateAccessToken(&models.User{ID: "u1", Email: "jane@example.com"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
