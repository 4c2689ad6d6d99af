package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/lumenik-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUser возвращается при нарушении уникальности username или email.
var ErrDuplicateUser = errors.New("duplicate user")

// uniqueViolation — код ошибки PostgreSQL для нарушения уникального ограничения.
const uniqueViolation = "23505"

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, full_name, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(
		ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.FullName, user.Phone, user.Status,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, role, full_name, phone, status, created_at
		FROM users
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// GetByUsername возвращает пользователя по имени для входа.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `
		SELECT id, username, email, password_hash, role, full_name, phone, status, created_at
		FROM users
		WHERE username = $1
	`
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by username %w", err)
	}

	return &user, nil
}

// List возвращает всех пользователей, кроме администраторов.
// Администраторы не показываются в списке управления.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := `
		SELECT id, username, email, password_hash, role, full_name, phone, status, created_at
		FROM users
		WHERE role <> $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &users, query, models.RoleAdministrator); err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}
	return users, nil
}

// ListByRole возвращает активных пользователей с указанной ролью.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	query := `
		SELECT id, username, email, password_hash, role, full_name, phone, status, created_at
		FROM users
		WHERE role = $1 AND status = $2
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &users, query, role, models.UserStatusActive); err != nil {
		return nil, fmt.Errorf("user repository: list by role %w", err)
	}
	return users, nil
}

// UserUpdate описывает частичное обновление пользователя.
// Nil поля не изменяются.
type UserUpdate struct {
	Email    *string
	FullName *string
	Phone    *string
	Role     *string
}

// Update применяет частичное обновление и возвращает обновлённую запись.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*models.User, error) {
	var user models.User
	query := `
		UPDATE users SET
			email = COALESCE($2, email),
			full_name = COALESCE($3, full_name),
			phone = COALESCE($4, phone),
			role = COALESCE($5, role)
		WHERE id = $1
		RETURNING id, username, email, password_hash, role, full_name, phone, status, created_at
	`
	err := r.db.GetContext(ctx, &user, query, id, upd.Email, upd.FullName, upd.Phone, upd.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("user repository: update %w", err)
	}
	return &user, nil
}

// UpdatePassword сохраняет новый хеш пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdateStatus меняет статус учётной записи (active/inactive).
func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("user repository: update status %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// Delete полностью удаляет пользователя.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}
	return requireAffected(res, ErrUserNotFound)
}

// Stats возвращает статистику по пользователям.
func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	var row struct {
		Administrators int `db:"administrators"`
		Employees      int `db:"employees"`
		Clients        int `db:"clients"`
		Active         int `db:"active"`
	}
	query := `
		SELECT
			COUNT(*) FILTER (WHERE role = $1) AS administrators,
			COUNT(*) FILTER (WHERE role = $2) AS employees,
			COUNT(*) FILTER (WHERE role = $3) AS clients,
			COUNT(*) FILTER (WHERE status = $4) AS active
		FROM users
	`
	err := r.db.GetContext(ctx, &row, query,
		models.RoleAdministrator, models.RoleEmployee, models.RoleClient, models.UserStatusActive)
	if err != nil {
		return nil, fmt.Errorf("user repository: stats %w", err)
	}

	return &models.UserStats{
		TotalUsers:     row.Employees + row.Clients,
		Administrators: row.Administrators,
		Employees:      row.Employees,
		Clients:        row.Clients,
		ActiveUsers:    row.Active,
	}, nil
}

// isUniqueViolation распознаёт нарушение уникального ограничения PostgreSQL.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// requireAffected превращает обновление без затронутых строк в notFound.
func requireAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
