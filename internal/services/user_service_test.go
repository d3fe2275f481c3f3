package services

import (
	"context"
	"testing"

	"example.com/tbmnc/services/tracker/internal/models"
	"example.com/tbmnc/services/tracker/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[models.UserRole]int64), args.Error(1)
}

func TestDefaultPermissions(t *testing.T) {
	admin := DefaultPermissions(models.RoleAdmin)
	require.Contains(t, admin, "settings:write")
	require.Contains(t, admin, "users:write")

	viewer := DefaultPermissions(models.RoleViewer)
	require.Equal(t, []string{"suppliers:read", "analytics:read"}, viewer)

	supplierUser := DefaultPermissions(models.RoleSupplierUser)
	require.Contains(t, supplierUser, "suppliers:read:own")
	require.NotContains(t, supplierUser, "suppliers:write")

	require.Empty(t, DefaultPermissions(models.UserRole("unknown")))
}

func TestCreateUserDerivesPermissions(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	service := &UserService{repo: mockRepo}

	created, err := service.CreateUser(context.Background(), &models.User{
		Email:     "pm@example.com",
		FirstName: "Pat",
		Role:      models.RoleProgramManager,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, models.UserActive, created.Status)
	require.Equal(t, DefaultPermissions(models.RoleProgramManager), created.Permissions)

	mockRepo.AssertExpectations(t)
}

func TestCreateUserKeepsExplicitPermissions(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	service := &UserService{repo: mockRepo}

	created, err := service.CreateUser(context.Background(), &models.User{
		Email:       "custom@example.com",
		Role:        models.RoleViewer,
		Permissions: []string{"analytics:read"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"analytics:read"}, created.Permissions)
}

func TestUpdateRoleRewritesPermissions(t *testing.T) {
	mockRepo := new(MockUserRepository)

	var captured map[string]interface{}
	mockRepo.On("Update", mock.Anything, "user-1", mock.AnythingOfType("map[string]interface {}")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(map[string]interface{})
		}).
		Return(nil)
	mockRepo.On("FindByID", mock.Anything, "user-1").Return(&models.User{
		Base: models.Base{ID: "user-1"},
		Role: models.RoleAdmin,
	}, nil)

	service := &UserService{repo: mockRepo}

	_, err := service.UpdateRole(context.Background(), "user-1", models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, captured["role"])
	require.Equal(t, DefaultPermissions(models.RoleAdmin), captured["permissions"])
}

func TestHasPermission(t *testing.T) {
	user := &models.User{Permissions: []string{"suppliers:read", "analytics:read"}}
	require.True(t, HasPermission(user, "suppliers:read"))
	require.False(t, HasPermission(user, "suppliers:write"))
}
