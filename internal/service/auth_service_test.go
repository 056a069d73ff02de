package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

func newTestAuthService(repo authUserRepository, secret string) *AuthService {
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{Secret: secret, Expiry: time.Hour, Issuer: "aquago-api"})
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestAuthServiceRegisterIssuesToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := newTestAuthService(repo, "secret")

	token, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "hunter22"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	stored, err := repo.FindByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo(models.User{Name: "Ana", Email: "ana@example.com"})
	svc := newTestAuthService(repo, "secret")

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "pw"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindValidation, appErr.Kind)
	assert.Equal(t, "Email already registered", appErr.Message)
}

func TestAuthServiceRegisterMissingFields(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo(), "secret")

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "ana@example.com"})
	require.Error(t, err)
	assert.Equal(t, "Please fill all the fields!", appErrors.FromError(err).Message)
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMockUserRepo(models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: string(hash)})
	svc := newTestAuthService(repo, "secret")

	token, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	for _, req := range []models.LoginRequest{
		{Email: "ana@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "hunter22"},
	} {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.KindValidation, appErr.Kind)
		assert.Equal(t, "Invalid Credentials!", appErr.Message)
	}

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com"})
	assert.Equal(t, "Please fill all the fields!", appErrors.FromError(err).Message)
}

func TestAuthServiceLoginHidesStorageFailure(t *testing.T) {
	repo := newMockUserRepo()
	repo.findErr = errors.New("connection reset")
	svc := newTestAuthService(repo, "secret")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "pw"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindServer, appErr.Kind)
	assert.Equal(t, appErrors.ServerMessage, appErr.Message)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo(), "secret")
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }
	token, err := svc.IssueToken("ana@example.com")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrTokenExpired))
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindAuth, appErr.Kind)
	assert.Equal(t, "Token expired", appErr.Message)
}

func TestAuthServiceValidateTokenInvalid(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo(), "secret")
	other := newTestAuthService(newMockUserRepo(), "other-secret")
	forged, err := other.IssueToken("ana@example.com")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, models.JWTClaims{
		Email:            "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "aquago-api", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "aquago-api", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"bad signature": forged,
		"wrong alg":     hs512,
		"no email":      noEmail,
		"garbage":       "not.a.token",
	} {
		_, err := svc.ValidateToken(token)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, appErrors.ErrTokenInvalid), name)
		assert.Equal(t, "Invalid token", appErrors.FromError(err).Message, name)
	}
}

func TestAuthServiceMissingSecret(t *testing.T) {
	svc := newTestAuthService(newMockUserRepo(), "")

	_, err := svc.ValidateToken("whatever")
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindServer, appErr.Kind)
	assert.Equal(t, "Token secret key not configured", appErr.Message)

	_, err = svc.IssueToken("ana@example.com")
	assert.True(t, errors.Is(err, appErrors.ErrSecretMissing))
}
