package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openmunicipal/civic-api/internal/models"
	"github.com/openmunicipal/civic-api/pkg/config"
	appErrors "github.com/openmunicipal/civic-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	createErr     error
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	copy := *token
	m.refreshTokens[token.Token] = &copy
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := m.refreshTokens[token]; ok {
		copy := *rt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range m.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "civic-api-test",
	})
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Username:        "asha",
		Email:           "asha@example.com",
		Password:        "sup3rsecret",
		PasswordConfirm: "sup3rsecret",
	}
}

func TestRegisterAssignsCitizenRole(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	info, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, models.RoleCitizen, info.Role)
	assert.NotEmpty(t, repo.auditLogs)

	stored := repo.users[info.ID]
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleCitizen, stored.Role, "registration can never create an official")
	assert.NotEqual(t, "sup3rsecret", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.users, 1, "second registration must not write")
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	repo.createErr = &pq.Error{Code: "23505", Constraint: "users_email_key"}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code, "unique violation surfaces as a conflict, not an internal error")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())

	req := validRegistration()
	req.PasswordConfirm = "different00"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegisterInvalidContact(t *testing.T) {
	repo := newMockAuthRepo()
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Phone:             config.PhoneConfig{DefaultRegion: "IN"},
	})

	req := validRegistration()
	req.Contact = "12"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginCarriesMunicipalityClaim(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("sup3rsecret"), bcrypt.DefaultCost)
	require.NoError(t, err)
	municipality := "m1"
	repo.users["o1"] = &models.User{
		ID:             "o1",
		Username:       "officer",
		Email:          "officer@example.com",
		PasswordHash:   string(hash),
		Role:           models.RoleOfficial,
		MunicipalityID: &municipality,
		Active:         true,
	}

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "officer@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficial, claims.Role)
	require.NotNil(t, claims.MunicipalityID)
	assert.Equal(t, "m1", *claims.MunicipalityID)
}

func TestLoginInvalidPassword(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.DefaultCost)
	repo.users["c1"] = &models.User{ID: "c1", Username: "asha", Email: "asha@example.com", PasswordHash: string(hash), Role: models.RoleCitizen, Active: true}

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	hash, _ := bcrypt.GenerateFromPassword([]byte("sup3rsecret"), bcrypt.DefaultCost)
	repo.users["c1"] = &models.User{ID: "c1", Username: "asha", Email: "asha@example.com", PasswordHash: string(hash), Role: models.RoleCitizen, Active: true}

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "asha@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	old := repo.refreshTokens[login.RefreshToken]
	require.NotNil(t, old)
	assert.True(t, old.Revoked, "used refresh token must be revoked")

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err, "revoked token cannot be reused")
}

func TestProfile(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	repo.users["c1"] = &models.User{ID: "c1", Username: "asha", Email: "asha@example.com", Role: models.RoleCitizen, Active: true}

	info, err := svc.Profile(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "asha", info.Username)

	_, err = svc.Profile(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
