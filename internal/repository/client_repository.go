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

// ErrClientNotFound возвращается, когда профиль клиента не найден.
var ErrClientNotFound = errors.New("client profile not found")

// ClientRepository отвечает за работу с таблицей client_profiles.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository создаёт экземпляр репозитория.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// Create создаёт профиль клиента.
func (r *ClientRepository) Create(ctx context.Context, profile *models.ClientProfile) error {
	query := `
		INSERT INTO client_profiles (user_id, phone, address, city, preferred_consoles, total_space_gb)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING customer_since
	`
	consoles := profile.PreferredConsoles
	if consoles == nil {
		consoles = []string{}
	}
	err := r.db.QueryRowxContext(
		ctx, query,
		profile.UserID, profile.Phone, profile.Address, profile.City,
		pq.Array(consoles), profile.TotalSpaceGB,
	).Scan(&profile.CustomerSince)
	if err != nil {
		return fmt.Errorf("client repository: create %w", err)
	}
	return nil
}

// GetByUserID возвращает профиль клиента по идентификатору пользователя.
func (r *ClientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ClientProfile, error) {
	var profile models.ClientProfile
	var consoles pq.StringArray
	query := `
		SELECT user_id, phone, address, city, preferred_consoles, total_space_gb,
		       customer_since, services_count, total_spent
		FROM client_profiles
		WHERE user_id = $1
	`
	row := r.db.QueryRowxContext(ctx, query, userID)
	err := row.Scan(
		&profile.UserID, &profile.Phone, &profile.Address, &profile.City,
		&consoles, &profile.TotalSpaceGB,
		&profile.CustomerSince, &profile.ServicesCount, &profile.TotalSpent,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("client repository: get by user id %w", err)
	}
	profile.PreferredConsoles = consoles
	return &profile, nil
}

// UpdateContact обновляет контактные поля профиля.
func (r *ClientRepository) UpdateContact(ctx context.Context, userID uuid.UUID, phone, address, city *string, consoles []string, totalSpaceGB *float64) error {
	var consolesArg interface{}
	if consoles != nil {
		consolesArg = pq.Array(consoles)
	}
	query := `
		UPDATE client_profiles SET
			phone = COALESCE($2, phone),
			address = COALESCE($3, address),
			city = COALESCE($4, city),
			preferred_consoles = COALESCE($5, preferred_consoles),
			total_space_gb = COALESCE($6, total_space_gb)
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, phone, address, city, consolesArg, totalSpaceGB)
	if err != nil {
		return fmt.Errorf("client repository: update contact %w", err)
	}
	return requireAffected(res, ErrClientNotFound)
}

// IncrementServices увеличивает счётчик услуг и суммарные траты клиента.
// Счётчики только растут, операция атомарна на уровне одной строки.
func (r *ClientRepository) IncrementServices(ctx context.Context, userID uuid.UUID, amount float64) error {
	query := `
		UPDATE client_profiles
		SET services_count = services_count + 1,
		    total_spent = total_spent + $2
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("client repository: increment services %w", err)
	}
	return requireAffected(res, ErrClientNotFound)
}

// DeleteByUserID удаляет профиль клиента.
func (r *ClientRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM client_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("client repository: delete %w", err)
	}
	return requireAffected(res, ErrClientNotFound)
}
