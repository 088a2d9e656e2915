package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripsync/tripsync-api/internal/models"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
)

type fakeAuthRepo struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	copy := *user
	f.users[user.ID] = &copy
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := f.users[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
		u.UpdatedAt = updatedAt
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = "rt-" + token.Token[:8]
	}
	copy := *token
	f.tokens[token.Token] = &copy
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := f.tokens[token]; ok {
		copy := *rt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range f.tokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	f.revoked = append(f.revoked, id)
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	for _, rt := range f.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			rt.RevokedAt = &now
			f.revoked = append(f.revoked, rt.ID)
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeAuthRepo) {
	t.Helper()
	repo := newFakeAuthRepo()
	svc := NewAuthService(repo, AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "tripsync-test",
	}, nil, zap.NewNop())
	return svc, repo
}

func registerUser(t *testing.T, svc *AuthService) *models.LoginResponse {
	t.Helper()
	result, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "ana@example.com",
		Password:  "Str0ng!pass",
		FirstName: "Ana",
		LastName:  "Silva",
	})
	require.NoError(t, err)
	return result
}

func TestAuthRegister(t *testing.T) {
	svc, repo := newAuthFixture(t)

	result := registerUser(t, svc)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "ana@example.com", result.User.Email)
	assert.Equal(t, "Ana Silva", result.User.DisplayName)

	stored, err := repo.FindByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!pass", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Str0ng!pass")))
}

func TestAuthRegisterWeakPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "ana@example.com",
		Password:  "short",
		FirstName: "Ana",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "WEAK_PASSWORD", appErr.Code)
	assert.Contains(t, appErr.Message, "At least 8 characters")
	assert.Contains(t, appErr.Message, "At least one uppercase letter")
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerUser(t, svc)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "Ana@Example.com",
		Password:  "Str0ng!pass",
		FirstName: "Other",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestAuthLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerUser(t, svc)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registerUser(t, svc)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "Wr0ng!pass",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Str0ng!pass",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	result := registerUser(t, svc)
	repo.users[result.User.ID].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "Str0ng!pass",
	})
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_INACTIVE", appErrors.FromError(err).Code)
}

func TestAuthRefreshTokenRotation(t *testing.T) {
	svc, repo := newAuthFixture(t)
	login := registerUser(t, svc)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The presented token is revoked and cannot be replayed.
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestAuthRefreshTokenExpired(t *testing.T) {
	svc, repo := newAuthFixture(t)
	login := registerUser(t, svc)
	repo.tokens[login.RefreshToken].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}

func TestAuthLogoutRevokesSessions(t *testing.T) {
	svc, repo := newAuthFixture(t)
	login := registerUser(t, svc)

	require.NoError(t, svc.Logout(context.Background(), login.User.ID))
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)
}

func TestAuthChangePassword(t *testing.T) {
	svc, repo := newAuthFixture(t)
	login := registerUser(t, svc)

	err := svc.ChangePassword(context.Background(), login.User.ID, models.ChangePasswordRequest{
		OldPassword: "Wr0ng!pass",
		NewPassword: "N3w!strong",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), login.User.ID, models.ChangePasswordRequest{
		OldPassword: "Str0ng!pass",
		NewPassword: "feeble",
	})
	require.Error(t, err)
	assert.Equal(t, "WEAK_PASSWORD", appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), login.User.ID, models.ChangePasswordRequest{
		OldPassword: "Str0ng!pass",
		NewPassword: "N3w!strong",
	}))
	// Existing sessions are revoked after a password change.
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "N3w!strong"})
	require.NoError(t, err)
}

func TestAuthValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := newAuthFixture(t)
	login := registerUser(t, svc)

	_, err := svc.ValidateToken(login.AccessToken + "x")
	require.Error(t, err)

	other := NewAuthService(newFakeAuthRepo(), AuthConfig{JWTSecret: "different-secret"}, nil, zap.NewNop())
	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)
}
