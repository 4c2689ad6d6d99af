package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/logger"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
)

// WorkOrderRepo описывает зависимости WorkOrderService от хранилища записей.
type WorkOrderRepo interface {
	Create(ctx context.Context, order *models.WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	ListAll(ctx context.Context) ([]models.WorkOrder, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.WorkOrder, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.WorkOrder, error)
	ListPending(ctx context.Context, employeeID *uuid.UUID) ([]models.WorkOrder, error)
	Update(ctx context.Context, id uuid.UUID, upd repository.WorkOrderUpdate) error
	ChangeStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecordPayment(ctx context.Context, orderID uuid.UUID, amount float64) (*models.WorkOrder, error)
	ResetDebt(ctx context.Context, orderID uuid.UUID, newCost float64) (*models.WorkOrder, error)
	ClearPayments(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
}

// UserLookup — часть репозитория пользователей, нужная для проверки ролей
// клиента и сотрудника при создании записи.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ClientCounters — часть репозитория профилей, отвечающая за счётчики клиента.
type ClientCounters interface {
	IncrementServices(ctx context.Context, userID uuid.UUID, amount float64) error
}

// OrderEvent — событие по записи о работе, рассылаемое подписчикам.
type OrderEvent struct {
	Type  string            `json:"type"`
	Order *models.WorkOrder `json:"order"`
}

// Типы событий записей о работе.
const (
	OrderEventCreated = "order_created"
	OrderEventUpdated = "order_updated"
	OrderEventStatus  = "order_status_changed"
	OrderEventPayment = "order_payment"
	OrderEventDeleted = "order_deleted"
)

// OrderEventPublisher рассылает события записей о работе. Рассылка не должна
// блокировать бизнес-операцию.
type OrderEventPublisher interface {
	PublishOrderEvent(event OrderEvent)
}

// WorkOrderService инкапсулирует жизненный цикл записей о работе и журнал
// платежей.
type WorkOrderService struct {
	orders  WorkOrderRepo
	users   UserLookup
	clients ClientCounters
	events  OrderEventPublisher
}

// NewWorkOrderService создаёт сервис записей о работе. events может быть nil,
// тогда события не рассылаются.
func NewWorkOrderService(orders WorkOrderRepo, users UserLookup, clients ClientCounters, events OrderEventPublisher) *WorkOrderService {
	return &WorkOrderService{
		orders:  orders,
		users:   users,
		clients: clients,
		events:  events,
	}
}

// CreateWorkOrderInput содержит данные новой записи о работе.
type CreateWorkOrderInput struct {
	ClientID    uuid.UUID
	EmployeeID  *uuid.UUID
	ServiceType string
	Description string
	Console     string
	TotalGB     float64
	Cost        float64
	Games       []uuid.UUID
}

// Create заводит новую запись о работе в состоянии pending с нулевой оплатой.
// Сотрудник может быть не назначен; тогда запись попадает в общую очередь.
func (s *WorkOrderService) Create(ctx context.Context, in CreateWorkOrderInput) (*models.WorkOrder, error) {
	if _, ok := models.ValidServiceTypes[in.ServiceType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверный тип услуги: installation или download")
	}
	if in.Console == "" {
		in.Console = models.DefaultConsole
	}
	if _, ok := models.ValidConsoles[in.Console]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
	}
	if in.Cost < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стоимость не может быть отрицательной")
	}
	if in.TotalGB < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "объём не может быть отрицательным")
	}

	if err := s.requireRole(ctx, in.ClientID, models.RoleClient, "клиент"); err != nil {
		return nil, err
	}
	if in.EmployeeID != nil {
		if err := s.requireRole(ctx, *in.EmployeeID, models.RoleEmployee, "сотрудник"); err != nil {
			return nil, err
		}
	}

	order := &models.WorkOrder{
		ClientID:    in.ClientID,
		EmployeeID:  in.EmployeeID,
		ServiceType: in.ServiceType,
		Description: in.Description,
		Console:     in.Console,
		TotalGB:     in.TotalGB,
		Status:      models.OrderStatusPending,
		Cost:        in.Cost,
		Games:       in.Games,
	}
	if order.Games == nil {
		order.Games = []uuid.UUID{}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать запись о работе")
	}
	order.Payments = []models.PaymentEntry{}

	// Счётчики профиля растут при оформлении услуги; провал не отменяет
	// уже созданную запись.
	if err := s.clients.IncrementServices(ctx, in.ClientID, in.Cost); err != nil {
		logger.Log.WithError(err).WithField("client_id", in.ClientID).
			Warn("work order service: не удалось обновить счётчики клиента")
	}

	s.publish(OrderEvent{Type: OrderEventCreated, Order: order})
	return order, nil
}

// GetByID возвращает запись о работе с играми и журналом платежей.
func (s *WorkOrderService) GetByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось получить запись о работе")
	}
	return order, nil
}

// ListAll возвращает все записи о работе.
func (s *WorkOrderService) ListAll(ctx context.Context) ([]models.WorkOrder, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить записи о работе")
	}
	return orders, nil
}

// ListByClient возвращает записи одного клиента.
func (s *WorkOrderService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.WorkOrder, error) {
	orders, err := s.orders.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить записи о работе")
	}
	return orders, nil
}

// ListByEmployee возвращает записи одного сотрудника.
func (s *WorkOrderService) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]models.WorkOrder, error) {
	orders, err := s.orders.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить записи о работе")
	}
	return orders, nil
}

// ListPending возвращает очередь ожидающих записей; employeeID == nil — всю.
func (s *WorkOrderService) ListPending(ctx context.Context, employeeID *uuid.UUID) ([]models.WorkOrder, error) {
	orders, err := s.orders.ListPending(ctx, employeeID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить записи о работе")
	}
	return orders, nil
}

// UpdateWorkOrderInput описывает частичное обновление записи о работе.
// Status, если задан, должен быть допустимым следующим состоянием.
type UpdateWorkOrderInput struct {
	Description *string
	Cost        *float64
	Console     *string
	TotalGB     *float64
	Games       []uuid.UUID
	Status      *string
}

// Update применяет частичное обновление. Разрешено только пока запись pending.
func (s *WorkOrderService) Update(ctx context.Context, id uuid.UUID, in UpdateWorkOrderInput) (*models.WorkOrder, error) {
	if in.Cost != nil && *in.Cost < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стоимость не может быть отрицательной")
	}
	if in.TotalGB != nil && *in.TotalGB < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "объём не может быть отрицательным")
	}
	if in.Console != nil {
		if _, ok := models.ValidConsoles[*in.Console]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
		}
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось получить запись о работе")
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			"редактировать можно только запись в состоянии pending")
	}
	if in.Status != nil {
		if _, ok := models.ValidOrderStatuses[*in.Status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неверный статус записи о работе")
		}
		if !models.CanTransition(order.Status, *in.Status) {
			return nil, apperror.New(apperror.ErrCodeInvalidTransition,
				fmt.Sprintf("переход %s -> %s недопустим", order.Status, *in.Status))
		}
	}

	err = s.orders.Update(ctx, id, repository.WorkOrderUpdate{
		Description: in.Description,
		Cost:        in.Cost,
		Console:     in.Console,
		TotalGB:     in.TotalGB,
		Games:       in.Games,
	})
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось обновить запись о работе")
	}
	if in.Status != nil {
		if err := s.orders.ChangeStatus(ctx, id, *in.Status); err != nil {
			return nil, s.mapOrderError(err, "не удалось изменить статус")
		}
	}

	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось получить запись о работе")
	}

	s.publish(OrderEvent{Type: OrderEventUpdated, Order: updated})
	return updated, nil
}

// ChangeState переводит запись в новое состояние по правилам жизненного цикла:
// pending -> in_progress -> completed, отмена возможна из любого
// нетерминального состояния. Повторный перевод в то же состояние отклоняется.
func (s *WorkOrderService) ChangeState(ctx context.Context, id uuid.UUID, newStatus string) (*models.WorkOrder, error) {
	if _, ok := models.ValidOrderStatuses[newStatus]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверный статус записи о работе")
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось получить запись о работе")
	}
	if !models.CanTransition(order.Status, newStatus) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("переход %s -> %s недопустим", order.Status, newStatus))
	}

	if err := s.orders.ChangeStatus(ctx, id, newStatus); err != nil {
		return nil, s.mapOrderError(err, "не удалось изменить статус")
	}

	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось получить запись о работе")
	}

	s.publish(OrderEvent{Type: OrderEventStatus, Order: updated})
	return updated, nil
}

// Delete удаляет запись о работе. Разрешено только пока запись pending.
func (s *WorkOrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return s.mapOrderError(err, "не удалось получить запись о работе")
	}
	if order.Status != models.OrderStatusPending {
		return apperror.New(apperror.ErrCodeInvalidTransition,
			"удалить можно только запись в состоянии pending")
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return s.mapOrderError(err, "не удалось удалить запись о работе")
	}

	s.publish(OrderEvent{Type: OrderEventDeleted, Order: order})
	return nil
}

// RecordPayment регистрирует платёж по записи о работе. Платёж, превышающий
// остаток долга, отклоняется целиком, а в деталях ошибки сообщается реальный
// остаток.
func (s *WorkOrderService) RecordPayment(ctx context.Context, id uuid.UUID, amount float64) (*models.WorkOrder, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма платежа должна быть больше 0")
	}

	order, err := s.orders.RecordPayment(ctx, id, amount)
	if err != nil {
		var exceeds *repository.PaymentExceedsError
		if errors.As(err, &exceeds) {
			return nil, apperror.New(apperror.ErrCodeValidation,
				fmt.Sprintf("платёж превышает остаток долга: осталось оплатить %.2f", exceeds.Remaining)).
				WithDetails(map[string]interface{}{"remaining": exceeds.Remaining})
		}
		return nil, s.mapOrderError(err, "не удалось зарегистрировать платёж")
	}

	s.publish(OrderEvent{Type: OrderEventPayment, Order: order})
	return order, nil
}

// ReassignDebt назначает новую стоимость работы и очищает журнал платежей:
// долг начинается заново с новой суммы.
func (s *WorkOrderService) ReassignDebt(ctx context.Context, id uuid.UUID, newCost float64) (*models.WorkOrder, error) {
	if newCost < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "стоимость не может быть отрицательной")
	}

	order, err := s.orders.ResetDebt(ctx, id, newCost)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось переназначить долг")
	}
	order.Payments = []models.PaymentEntry{}

	s.publish(OrderEvent{Type: OrderEventPayment, Order: order})
	return order, nil
}

// ClearPaymentHistory очищает журнал платежей и обнуляет оплату, не меняя
// стоимость работы.
func (s *WorkOrderService) ClearPaymentHistory(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.orders.ClearPayments(ctx, id)
	if err != nil {
		return nil, s.mapOrderError(err, "не удалось очистить журнал платежей")
	}
	order.Payments = []models.PaymentEntry{}

	s.publish(OrderEvent{Type: OrderEventPayment, Order: order})
	return order, nil
}

// Stats возвращает агрегаты по записям о работе.
func (s *WorkOrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить статистику")
	}
	return stats, nil
}

// requireRole проверяет, что пользователь существует и имеет нужную роль.
func (s *WorkOrderService) requireRole(ctx context.Context, id uuid.UUID, role, label string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.New(apperror.ErrCodeValidation, label+" не найден")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить пользователя")
	}
	if user.Role != role {
		return apperror.New(apperror.ErrCodeValidation, "у пользователя должна быть роль "+role)
	}
	return nil
}

func (s *WorkOrderService) mapOrderError(err error, message string) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return apperror.ErrOrderNotFound
	}
	return apperror.Wrap(err, apperror.ErrCodeInternal, message)
}

func (s *WorkOrderService) publish(event OrderEvent) {
	if s.events == nil {
		return
	}
	s.events.PublishOrderEvent(event)
}
