package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
	"github.com/ignatzorin/lumenik-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// AuthService инкапсулирует бизнес-логику входа и смены пароля.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// LoginResult возвращает итог успешного входа.
type LoginResult struct {
	Token string
	User  *models.User
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Login проверяет учётные данные и возвращает токен.
// Неактивный пользователь отклоняется здесь, на входе: ранее выданные токены
// остаются валидными до истечения срока.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя пользователя и пароль обязательны")
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выполнить вход")
	}

	if !user.IsActive() {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "учётная запись неактивна")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.tokenManager.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// Refresh выпускает новый токен на основе действующего.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (string, error) {
	token, err := s.tokenManager.Refresh(rawToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return "", apperror.New(apperror.ErrCodeUnauthorized, "токен истёк")
		}
		return "", apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден")
	}
	return token, nil
}

// ChangePassword меняет пароль пользователя после проверки старого.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.New(apperror.ErrCodeValidation, "оба пароля обязательны")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return apperror.New(apperror.ErrCodeUnauthorized, "текущий пароль неверен")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить пароль")
	}
	return nil
}
