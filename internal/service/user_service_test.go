package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) Stats(ctx context.Context) (*models.UserStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

type mockClientRepo struct {
	mock.Mock
}

func (m *mockClientRepo) Create(ctx context.Context, profile *models.ClientProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockClientRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientProfile), args.Error(1)
}

func (m *mockClientRepo) UpdateContact(ctx context.Context, userID uuid.UUID, phone, address, city *string, consoles []string, totalSpaceGB *float64) error {
	args := m.Called(ctx, userID, phone, address, city, consoles, totalSpaceGB)
	return args.Error(0)
}

func (m *mockClientRepo) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockOrderCascade struct {
	mock.Mock
}

func (m *mockOrderCascade) DeleteAllByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	args := m.Called(ctx, clientID)
	return args.Int(0), args.Error(1)
}

func validCreateInput() CreateUserInput {
	return CreateUserInput{
		Username: "cliente1",
		Email:    "cliente@lumenik.com",
		Password: "cli12345",
		Role:     models.RoleClient,
		FullName: "Carlos García",
		Phone:    "3201234567",
	}
}

func TestUserService_CreateUser_ClientGetsProfile(t *testing.T) {
	users := new(mockUserRepo)
	clients := new(mockClientRepo)
	svc := NewUserService(users, clients, new(mockOrderCascade))
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	clients.On("Create", ctx, mock.AnythingOfType("*models.ClientProfile")).Return(nil)

	user, err := svc.CreateUser(ctx, validCreateInput())
	assert.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.Equal(t, models.RoleClient, user.Role)
	clients.AssertExpectations(t)
}

func TestUserService_CreateUser_EmployeeWithoutProfile(t *testing.T) {
	users := new(mockUserRepo)
	clients := new(mockClientRepo)
	svc := NewUserService(users, clients, new(mockOrderCascade))
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	in := validCreateInput()
	in.Role = models.RoleEmployee
	_, err := svc.CreateUser(ctx, in)
	assert.NoError(t, err)
	clients.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateUser_DuplicateUsername(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users, new(mockClientRepo), new(mockOrderCascade))
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicateUser)

	_, err := svc.CreateUser(ctx, validCreateInput())
	assert.True(t, apperror.IsConflict(err))
}

func TestUserService_CreateUser_InvalidRole(t *testing.T) {
	svc := NewUserService(new(mockUserRepo), new(mockClientRepo), new(mockOrderCascade))

	in := validCreateInput()
	in.Role = "superuser"
	_, err := svc.CreateUser(context.Background(), in)
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_CreateUser_WeakPassword(t *testing.T) {
	svc := NewUserService(new(mockUserRepo), new(mockClientRepo), new(mockOrderCascade))

	in := validCreateInput()
	in.Password = "short"
	_, err := svc.CreateUser(context.Background(), in)
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_DeleteCascade_Success(t *testing.T) {
	users := new(mockUserRepo)
	clients := new(mockClientRepo)
	orders := new(mockOrderCascade)
	svc := NewUserService(users, clients, orders)
	ctx := context.Background()
	userID := uuid.New()

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Role: models.RoleClient}, nil)
	orders.On("DeleteAllByClient", ctx, userID).Return(3, nil)
	clients.On("DeleteByUserID", ctx, userID).Return(nil)
	users.On("Delete", ctx, userID).Return(nil)

	result, err := svc.DeleteCascade(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.OrdersRemoved)
	assert.True(t, result.ProfileRemoved)
	assert.Empty(t, result.Warnings)
}

func TestUserService_DeleteCascade_OrdersFailureIsWarning(t *testing.T) {
	users := new(mockUserRepo)
	clients := new(mockClientRepo)
	orders := new(mockOrderCascade)
	svc := NewUserService(users, clients, orders)
	ctx := context.Background()
	userID := uuid.New()

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Role: models.RoleClient}, nil)
	orders.On("DeleteAllByClient", ctx, userID).Return(0, errors.New("db down"))
	clients.On("DeleteByUserID", ctx, userID).Return(repository.ErrClientNotFound)
	users.On("Delete", ctx, userID).Return(nil)

	// Провал зависимых шагов не прерывает удаление учётной записи,
	// но попадает в предупреждения.
	result, err := svc.DeleteCascade(ctx, userID)
	assert.NoError(t, err)
	assert.Len(t, result.Warnings, 1)
	assert.False(t, result.ProfileRemoved)
}

func TestUserService_DeleteCascade_AccountStepIsFatal(t *testing.T) {
	users := new(mockUserRepo)
	clients := new(mockClientRepo)
	orders := new(mockOrderCascade)
	svc := NewUserService(users, clients, orders)
	ctx := context.Background()
	userID := uuid.New()

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID}, nil)
	orders.On("DeleteAllByClient", ctx, userID).Return(0, nil)
	clients.On("DeleteByUserID", ctx, userID).Return(repository.ErrClientNotFound)
	users.On("Delete", ctx, userID).Return(errors.New("db down"))

	_, err := svc.DeleteCascade(ctx, userID)
	assert.Error(t, err)
	assert.False(t, apperror.IsNotFound(err))
}

func TestUserService_DeleteCascade_UnknownUser(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users, new(mockClientRepo), new(mockOrderCascade))
	ctx := context.Background()
	userID := uuid.New()

	users.On("GetByID", ctx, userID).Return(nil, repository.ErrUserNotFound)

	_, err := svc.DeleteCascade(ctx, userID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUserService_ListByRole_Invalid(t *testing.T) {
	svc := NewUserService(new(mockUserRepo), new(mockClientRepo), new(mockOrderCascade))

	_, err := svc.ListByRole(context.Background(), "owner")
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_ChangeStatus_Invalid(t *testing.T) {
	svc := NewUserService(new(mockUserRepo), new(mockClientRepo), new(mockOrderCascade))

	err := svc.ChangeStatus(context.Background(), uuid.New(), "banned")
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_UpdateClientProfile_InvalidConsole(t *testing.T) {
	svc := NewUserService(new(mockUserRepo), new(mockClientRepo), new(mockOrderCascade))

	err := svc.UpdateClientProfile(context.Background(), uuid.New(), UpdateClientProfileInput{
		PreferredConsoles: []string{"PS5"},
	})
	assert.True(t, apperror.IsValidation(err))
}
