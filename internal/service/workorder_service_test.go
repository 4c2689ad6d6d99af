package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.WorkOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]models.WorkOrder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.WorkOrder, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.WorkOrder, error) {
	args := m.Called(ctx, employeeID)
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ListPending(ctx context.Context, employeeID *uuid.UUID) ([]models.WorkOrder, error) {
	args := m.Called(ctx, employeeID)
	return args.Get(0).([]models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) Update(ctx context.Context, id uuid.UUID, upd repository.WorkOrderUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockOrderRepo) ChangeStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrderRepo) RecordPayment(ctx context.Context, orderID uuid.UUID, amount float64) (*models.WorkOrder, error) {
	args := m.Called(ctx, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ResetDebt(ctx context.Context, orderID uuid.UUID, newCost float64) (*models.WorkOrder, error) {
	args := m.Called(ctx, orderID, newCost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) ClearPayments(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkOrder), args.Error(1)
}

func (m *mockOrderRepo) Stats(ctx context.Context) (*models.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderStats), args.Error(1)
}

type mockUserLookup struct {
	mock.Mock
}

func (m *mockUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockClientCounters struct {
	mock.Mock
}

func (m *mockClientCounters) IncrementServices(ctx context.Context, userID uuid.UUID, amount float64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

type recordingPublisher struct {
	events []OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(event OrderEvent) {
	p.events = append(p.events, event)
}

func newOrderService(orders *mockOrderRepo, users *mockUserLookup, clients *mockClientCounters, pub OrderEventPublisher) *WorkOrderService {
	return NewWorkOrderService(orders, users, clients, pub)
}

func TestWorkOrderService_Create_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserLookup)
	clients := new(mockClientCounters)
	pub := &recordingPublisher{}
	svc := newOrderService(orders, users, clients, pub)
	ctx := context.Background()

	clientID := uuid.New()
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID, Role: models.RoleClient}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*models.WorkOrder")).Return(nil)
	clients.On("IncrementServices", ctx, clientID, float64(80000)).Return(nil)

	order, err := svc.Create(ctx, CreateWorkOrderInput{
		ClientID:    clientID,
		ServiceType: models.ServiceTypeInstallation,
		Console:     "PS4",
		TotalGB:     237.5,
		Cost:        80000,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Nil(t, order.EmployeeID)
	assert.Len(t, pub.events, 1)
	assert.Equal(t, OrderEventCreated, pub.events[0].Type)
	clients.AssertExpectations(t)
}

func TestWorkOrderService_Create_DefaultConsole(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserLookup)
	clients := new(mockClientCounters)
	svc := newOrderService(orders, users, clients, nil)
	ctx := context.Background()

	clientID := uuid.New()
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID, Role: models.RoleClient}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*models.WorkOrder")).Return(nil)
	clients.On("IncrementServices", ctx, clientID, float64(100)).Return(nil)

	// Консоль в заявке необязательна, по умолчанию PS4.
	order, err := svc.Create(ctx, CreateWorkOrderInput{
		ClientID:    clientID,
		ServiceType: models.ServiceTypeInstallation,
		Cost:        100,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DefaultConsole, order.Console)
}

func TestWorkOrderService_Create_InvalidServiceType(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserLookup), new(mockClientCounters), nil)

	_, err := svc.Create(context.Background(), CreateWorkOrderInput{
		ClientID:    uuid.New(),
		ServiceType: "repair",
		Console:     "PS4",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestWorkOrderService_Create_ClientWrongRole(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserLookup)
	svc := newOrderService(orders, users, new(mockClientCounters), nil)
	ctx := context.Background()

	clientID := uuid.New()
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID, Role: models.RoleEmployee}, nil)

	_, err := svc.Create(ctx, CreateWorkOrderInput{
		ClientID:    clientID,
		ServiceType: models.ServiceTypeDownload,
		Console:     "PS3",
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestWorkOrderService_Create_CounterFailureDoesNotFail(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserLookup)
	clients := new(mockClientCounters)
	svc := newOrderService(orders, users, clients, nil)
	ctx := context.Background()

	clientID := uuid.New()
	users.On("GetByID", ctx, clientID).Return(&models.User{ID: clientID, Role: models.RoleClient}, nil)
	orders.On("Create", ctx, mock.AnythingOfType("*models.WorkOrder")).Return(nil)
	clients.On("IncrementServices", ctx, clientID, float64(500)).Return(repository.ErrClientNotFound)

	// Провал счётчиков не отменяет созданную запись.
	order, err := svc.Create(ctx, CreateWorkOrderInput{
		ClientID:    clientID,
		ServiceType: models.ServiceTypeInstallation,
		Console:     "PS2",
		Cost:        500,
	})
	assert.NoError(t, err)
	assert.NotNil(t, order)
}

func TestWorkOrderService_Update_OnlyPending(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusInProgress,
	}, nil)

	desc := "новое описание"
	_, err := svc.Update(ctx, orderID, UpdateWorkOrderInput{Description: &desc})
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestWorkOrderService_Update_WithLegalStatus(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusPending,
	}, nil).Once()
	orders.On("Update", ctx, orderID, mock.AnythingOfType("repository.WorkOrderUpdate")).Return(nil)
	orders.On("ChangeStatus", ctx, orderID, models.OrderStatusInProgress).Return(nil)
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusInProgress,
	}, nil).Once()

	status := models.OrderStatusInProgress
	updated, err := svc.Update(ctx, orderID, UpdateWorkOrderInput{Status: &status})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, updated.Status)
	orders.AssertExpectations(t)
}

func TestWorkOrderService_Update_WithIllegalStatus(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusPending,
	}, nil)

	// Перепрыгнуть in_progress через общее обновление нельзя.
	status := models.OrderStatusCompleted
	_, err := svc.Update(ctx, orderID, UpdateWorkOrderInput{Status: &status})
	assert.True(t, apperror.IsInvalidTransition(err))
	orders.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkOrderService_Delete_OnlyPending(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusCompleted,
	}, nil)

	err := svc.Delete(ctx, orderID)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestWorkOrderService_ChangeState_ValidChain(t *testing.T) {
	orders := new(mockOrderRepo)
	pub := &recordingPublisher{}
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), pub)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusPending,
	}, nil).Once()
	orders.On("ChangeStatus", ctx, orderID, models.OrderStatusInProgress).Return(nil)
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusInProgress,
	}, nil).Once()

	order, err := svc.ChangeState(ctx, orderID, models.OrderStatusInProgress)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, order.Status)
	assert.Len(t, pub.events, 1)
	assert.Equal(t, OrderEventStatus, pub.events[0].Type)
}

func TestWorkOrderService_ChangeState_SkipNotAllowed(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusPending,
	}, nil)

	// pending -> completed, минуя in_progress, запрещён.
	_, err := svc.ChangeState(ctx, orderID, models.OrderStatusCompleted)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestWorkOrderService_ChangeState_TerminalIsFinal(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusCancelled,
	}, nil)

	_, err := svc.ChangeState(ctx, orderID, models.OrderStatusInProgress)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestWorkOrderService_ChangeState_SameStatusRejected(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(&models.WorkOrder{
		ID:     orderID,
		Status: models.OrderStatusInProgress,
	}, nil)

	_, err := svc.ChangeState(ctx, orderID, models.OrderStatusInProgress)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestWorkOrderService_RecordPayment_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	pub := &recordingPublisher{}
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), pub)
	ctx := context.Background()

	orderID := uuid.New()
	paid := &models.WorkOrder{ID: orderID, Cost: 1000, AmountPaid: 600, FullyPaid: false}
	orders.On("RecordPayment", ctx, orderID, float64(600)).Return(paid, nil)

	order, err := svc.RecordPayment(ctx, orderID, 600)
	assert.NoError(t, err)
	assert.Equal(t, float64(400), order.Remaining())
	assert.Len(t, pub.events, 1)
	assert.Equal(t, OrderEventPayment, pub.events[0].Type)
}

func TestWorkOrderService_RecordPayment_ExceedsRemaining(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("RecordPayment", ctx, orderID, float64(500)).
		Return(nil, &repository.PaymentExceedsError{Remaining: 300})

	// Платёж сверх остатка отклоняется целиком, остаток сообщается в details.
	_, err := svc.RecordPayment(ctx, orderID, 500)
	assert.True(t, apperror.IsValidation(err))

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, float64(300), appErr.Details["remaining"])
}

func TestWorkOrderService_RecordPayment_NonPositiveAmount(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserLookup), new(mockClientCounters), nil)

	_, err := svc.RecordPayment(context.Background(), uuid.New(), 0)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.RecordPayment(context.Background(), uuid.New(), -50)
	assert.True(t, apperror.IsValidation(err))
}

func TestWorkOrderService_ReassignDebt(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	reset := &models.WorkOrder{ID: orderID, Cost: 2000, AmountPaid: 0, FullyPaid: false}
	orders.On("ResetDebt", ctx, orderID, float64(2000)).Return(reset, nil)

	order, err := svc.ReassignDebt(ctx, orderID, 2000)
	assert.NoError(t, err)
	assert.Equal(t, float64(2000), order.Remaining())
	assert.Empty(t, order.Payments)
}

func TestWorkOrderService_ReassignDebt_NegativeCost(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserLookup), new(mockClientCounters), nil)

	_, err := svc.ReassignDebt(context.Background(), uuid.New(), -1)
	assert.True(t, apperror.IsValidation(err))
}

func TestWorkOrderService_ClearPaymentHistory(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	cleared := &models.WorkOrder{ID: orderID, Cost: 1500, AmountPaid: 0, FullyPaid: false}
	orders.On("ClearPayments", ctx, orderID).Return(cleared, nil)

	// Стоимость сохраняется, оплата и журнал обнуляются.
	order, err := svc.ClearPaymentHistory(ctx, orderID)
	assert.NoError(t, err)
	assert.Equal(t, float64(1500), order.Cost)
	assert.Equal(t, float64(0), order.AmountPaid)
	assert.Empty(t, order.Payments)
}

func TestWorkOrderService_GetByID_NotFound(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserLookup), new(mockClientCounters), nil)
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("GetByID", ctx, orderID).Return(nil, repository.ErrOrderNotFound)

	_, err := svc.GetByID(ctx, orderID)
	assert.True(t, apperror.IsNotFound(err))
}
