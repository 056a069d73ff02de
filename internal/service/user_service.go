package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
	"github.com/aquago/aquago-api/pkg/logger"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	DeleteByEmail(ctx context.Context, email string) error
}

const userNotFoundMessage = "User not found!"

// UserService manages user profiles.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Current returns the account behind the authenticated email.
func (s *UserService) Current(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(userNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "find user")
	}
	return user, nil
}

// UpdateProfile applies the non-nil profile fields to the caller's account.
func (s *UserService) UpdateProfile(ctx context.Context, email string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	user, err := s.Current(ctx, email)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}
	if req.ActivityLevel != nil {
		user.ActivityLevel = req.ActivityLevel
	}
	if req.ClimateType != nil {
		user.ClimateType = req.ClimateType
	}
	if req.Height != nil {
		user.Height = req.Height
	}
	if req.Weight != nil {
		user.Weight = req.Weight
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(userNotFoundMessage)
		}
		return nil, appErrors.Internal(err, "update profile")
	}
	return user, nil
}

// List returns every user. An empty table is reported as not found.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "list users")
	}
	if len(users) == 0 {
		return nil, notFound("No users found!")
	}
	return users, nil
}

// Delete removes the account registered under req.Email.
func (s *UserService) Delete(ctx context.Context, req models.DeleteUserRequest) error {
	req.Email = normaliseEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if err := s.repo.DeleteByEmail(ctx, req.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(userNotFoundMessage)
		}
		return appErrors.Internal(err, "delete user")
	}
	logger.WithContext(ctx, s.logger).Info("user deleted", zap.String("email", req.Email))
	return nil
}
