package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type mockAuthRepo struct {
	user             *models.User
	findByEmailErr   error
	findByIDErr      error
	refreshTokens    map[string]*models.RefreshToken
	revokedAllUserID string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
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
	m.revokedAllUserID = userID
	return nil
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Name:         "Ana Novak",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "thesisflow-api",
	})
}

func TestAuthLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "password"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "user-1", res.User.ID)
	assert.Equal(t, models.RoleStudent, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := newAuthService(&mockAuthRepo{user: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshTokenSingleUse(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "password"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Replaying the consumed token fails.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

// The refresh_tokens table holds hashes only; the raw value never persists,
// yet presenting it still resolves the stored row.
func TestAuthRefreshTokensHashedAtRest(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t)}
	svc := newAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "password"})
	require.NoError(t, err)

	_, storedRaw := repo.refreshTokens[login.RefreshToken]
	assert.False(t, storedRaw)
	_, storedHashed := repo.refreshTokens[hashRefreshToken(login.RefreshToken)]
	assert.True(t, storedHashed)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
}

func TestAuthValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAuthRequired.Code, appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestAuthLogoutRevokesAll(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo)

	require.NoError(t, svc.Logout(context.Background(), "user-1"))
	assert.Equal(t, "user-1", repo.revokedAllUserID)
}
