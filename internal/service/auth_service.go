package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/logger"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// AuthConfig defines token issuance settings.
type AuthConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AuthService registers users, checks credentials and issues or verifies
// bearer tokens.
type AuthService struct {
	repo       authUserRepository
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
	bcryptCost int
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiry <= 0 {
		config.Expiry = time.Hour
	}
	return &AuthService{
		repo:       repo,
		validator:  validate,
		logger:     logger,
		config:     config,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register creates the account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	req.Email = normaliseEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return "", validationError(err)
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return "", badRequest("Email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Internal(err, "lookup email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return "", appErrors.Internal(err, "hash password")
	}

	user := &models.User{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return "", badRequest("Email already registered")
		}
		return "", appErrors.Internal(err, "create user")
	}

	token, err := s.IssueToken(user.Email)
	if err != nil {
		return "", err
	}
	logger.WithContext(ctx, s.logger).Info("user registered", zap.String("user_id", user.ID))
	return token, nil
}

// Login checks credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	req.Email = normaliseEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return "", badRequest(missingFieldsMessage)
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrInvalidCredential, "")
		}
		return "", appErrors.Internal(err, "lookup user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", appErrors.Clone(appErrors.ErrInvalidCredential, "")
	}
	return s.IssueToken(user.Email)
}

// IssueToken signs an HS256 token carrying the email claim.
func (s *AuthService) IssueToken(email string) (string, error) {
	if s.config.Secret == "" {
		return "", appErrors.Clone(appErrors.ErrSecretMissing, "")
	}
	now := s.now().UTC()
	claims := models.JWTClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", appErrors.Internal(err, "sign token")
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry. Expired tokens are reported
// separately from every other verification failure.
func (s *AuthService) ValidateToken(raw string) (*models.JWTClaims, error) {
	if s.config.Secret == "" {
		return nil, appErrors.Clone(appErrors.ErrSecretMissing, "")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &models.JWTClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrTokenExpired.Code, appErrors.ErrTokenExpired.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Message)
	}
	if claims.Email == "" {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "")
	}
	return claims, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
