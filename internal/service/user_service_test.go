package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aquago/aquago-api/internal/models"
	"github.com/aquago/aquago-api/internal/repository"
	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*models.User
	createErr error
	findErr   error
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	m := &mockUserRepo{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		m.users[u.Email] = &u
	}
	return m
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrDuplicateKey
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copy := *user
	m.users[user.Email] = &copy
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	m.users[user.Email] = &copy
	return nil
}

func (m *mockUserRepo) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[email]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, email)
	return nil
}

func TestUserServiceCurrentNotFound(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), validator.New(), zap.NewNop())

	_, err := svc.Current(context.Background(), "ghost@example.com")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.KindNotFound, appErr.Kind)
	assert.Equal(t, "User not found!", appErr.Message)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	repo := newMockUserRepo(models.User{Name: "Ana", Email: "ana@example.com"})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	age := 31
	gender := models.GenderFemale
	climate := models.ClimateHot
	user, err := svc.UpdateProfile(context.Background(), "ana@example.com", models.UpdateProfileRequest{Age: &age, Gender: &gender, ClimateType: &climate})
	require.NoError(t, err)
	assert.Equal(t, 31, *user.Age)

	stored, err := repo.FindByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "female", *stored.Gender)
	assert.Equal(t, "hot", *stored.ClimateType)
	assert.Equal(t, "Ana", stored.Name)
}

func TestUserServiceUpdateProfileRejectsUnknownEnum(t *testing.T) {
	repo := newMockUserRepo(models.User{Name: "Ana", Email: "ana@example.com"})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	level := "couch"
	_, err := svc.UpdateProfile(context.Background(), "ana@example.com", models.UpdateProfileRequest{ActivityLevel: &level})
	require.Error(t, err)
	assert.Equal(t, appErrors.KindValidation, appErrors.FromError(err).Kind)
}

func TestUserServiceListEmpty(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), validator.New(), zap.NewNop())

	_, err := svc.List(context.Background())
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo(models.User{Name: "Ana", Email: "ana@example.com"})
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), models.DeleteUserRequest{Email: "ANA@example.com"}))

	err := svc.Delete(context.Background(), models.DeleteUserRequest{Email: "ana@example.com"})
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
}
