package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/logger"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
	"github.com/ignatzorin/lumenik-backend/internal/validation"
)

// UserRepository описывает зависимости UserService от хранилища пользователей.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*models.User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.UserStats, error)
}

// ClientProfileRepository описывает операции с профилями клиентов.
type ClientProfileRepository interface {
	Create(ctx context.Context, profile *models.ClientProfile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error)
	UpdateContact(ctx context.Context, userID uuid.UUID, phone, address, city *string, consoles []string, totalSpaceGB *float64) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// OrderCascadeRepository — часть репозитория записей о работе, нужная
// каскадному удалению.
type OrderCascadeRepository interface {
	DeleteAllByClient(ctx context.Context, clientID uuid.UUID) (int, error)
}

// UserService инкапсулирует управление учётными записями.
type UserService struct {
	users   UserRepository
	clients ClientProfileRepository
	orders  OrderCascadeRepository
}

// NewUserService создаёт сервис пользователей.
func NewUserService(users UserRepository, clients ClientProfileRepository, orders OrderCascadeRepository) *UserService {
	return &UserService{users: users, clients: clients, orders: orders}
}

// CreateUserInput содержит данные новой учётной записи.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
	FullName string
	Phone    string
}

// CreateUser создаёт учётную запись; для клиентов дополнительно заводится
// профиль клиента.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if in.FullName == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "полное имя обязательно")
	}
	if _, ok := models.ValidRoles[in.Role]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверная роль: administrator, employee или client")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		Role:         in.Role,
		FullName:     in.FullName,
		Phone:        in.Phone,
		Status:       models.UserStatusActive,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperror.New(apperror.ErrCodeConflict, "имя пользователя или email уже заняты")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать пользователя")
	}

	// У клиента сразу появляется профиль с нулевыми счётчиками.
	if user.Role == models.RoleClient {
		profile := &models.ClientProfile{
			UserID: user.ID,
			Phone:  user.Phone,
		}
		if err := s.clients.Create(ctx, profile); err != nil {
			logger.Log.WithError(err).WithField("user_id", user.ID).
				Warn("user service: не удалось создать профиль клиента")
		}
	}

	return user, nil
}

// GetByID возвращает учётную запись.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}
	return user, nil
}

// List возвращает пользователей без администраторов.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователей")
	}
	return users, nil
}

// ListByRole возвращает активных пользователей с указанной ролью.
func (s *UserService) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	if _, ok := models.ValidRoles[role]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверная роль")
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователей")
	}
	return users, nil
}

// UpdateUserInput описывает частичное обновление учётной записи.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Phone    *string
	Role     *string
}

// Update применяет частичное обновление учётной записи.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	if in.Email == nil && in.FullName == nil && in.Phone == nil && in.Role == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "нет полей для обновления")
	}
	if in.Email != nil {
		if err := validation.ValidateEmail(*in.Email); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.Role != nil {
		if _, ok := models.ValidRoles[*in.Role]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неверная роль: administrator, employee или client")
		}
	}

	user, err := s.users.Update(ctx, id, repository.UserUpdate{
		Email:    in.Email,
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     in.Role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperror.New(apperror.ErrCodeConflict, "email уже занят")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить пользователя")
	}
	return user, nil
}

// ChangeStatus меняет статус учётной записи. Мягкая операция: зависимые
// записи не затрагиваются.
func (s *UserService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) error {
	if _, ok := models.ValidUserStatuses[status]; !ok {
		return apperror.New(apperror.ErrCodeValidation, "неверный статус: active или inactive")
	}
	if err := s.users.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить статус")
	}
	return nil
}

// Stats возвращает статистику по пользователям.
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить статистику")
	}
	return stats, nil
}

// CascadeResult сообщает, какие шаги каскадного удаления выполнились.
// Частичный провал первых двух шагов не скрывается, а возвращается вызывающему.
type CascadeResult struct {
	OrdersRemoved  int      `json:"orders_removed"`
	ProfileRemoved bool     `json:"profile_removed"`
	Warnings       []string `json:"warnings,omitempty"`
}

// DeleteCascade удаляет учётную запись вместе с зависимыми данными.
//
// Три шага выполняются без общей транзакции: записи о работе и профиль
// клиента удаляются по возможности (ошибки логируются и попадают в
// предупреждения), и только провал удаления самой учётной записи считается
// провалом всей операции.
func (s *UserService) DeleteCascade(ctx context.Context, id uuid.UUID) (*CascadeResult, error) {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}

	result := &CascadeResult{}

	removed, err := s.orders.DeleteAllByClient(ctx, id)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id).
			Warn("user service: не удалось удалить записи о работе")
		result.Warnings = append(result.Warnings, "записи о работе не удалены")
	} else {
		result.OrdersRemoved = removed
	}

	if err := s.clients.DeleteByUserID(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrClientNotFound) {
			logger.Log.WithError(err).WithField("user_id", id).
				Warn("user service: не удалось удалить профиль клиента")
			result.Warnings = append(result.Warnings, "профиль клиента не удалён")
		}
	} else {
		result.ProfileRemoved = true
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить пользователя")
	}

	return result, nil
}

// GetClientProfile возвращает профиль клиента.
func (s *UserService) GetClientProfile(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	profile, err := s.clients.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, apperror.ErrClientNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить профиль")
	}
	return profile, nil
}

// UpdateClientProfileInput описывает частичное обновление профиля клиента.
type UpdateClientProfileInput struct {
	Phone             *string
	Address           *string
	City              *string
	PreferredConsoles []string
	TotalSpaceGB      *float64
}

// UpdateClientProfile обновляет контактные поля профиля клиента.
func (s *UserService) UpdateClientProfile(ctx context.Context, userID uuid.UUID, in UpdateClientProfileInput) error {
	for _, console := range in.PreferredConsoles {
		if _, ok := models.ValidConsoles[console]; !ok {
			return apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
		}
	}
	if in.TotalSpaceGB != nil && *in.TotalSpaceGB < 0 {
		return apperror.New(apperror.ErrCodeValidation, "объём памяти не может быть отрицательным")
	}

	err := s.clients.UpdateContact(ctx, userID, in.Phone, in.Address, in.City, in.PreferredConsoles, in.TotalSpaceGB)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return apperror.ErrClientNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить профиль")
	}
	return nil
}
