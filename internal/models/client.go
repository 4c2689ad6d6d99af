package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientProfile хранит дополнительную информацию о клиенте.
// Счётчики ServicesCount и TotalSpent только растут: они увеличиваются при
// создании записи о работе и никогда не уменьшаются.
type ClientProfile struct {
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	Phone             string    `db:"phone" json:"phone"`
	Address           string    `db:"address" json:"address"`
	City              string    `db:"city" json:"city"`
	PreferredConsoles []string  `db:"-" json:"preferred_consoles"`
	TotalSpaceGB      float64   `db:"total_space_gb" json:"total_space_gb"`
	CustomerSince     time.Time `db:"customer_since" json:"customer_since"`
	ServicesCount     int       `db:"services_count" json:"services_count"`
	TotalSpent        float64   `db:"total_spent" json:"total_spent"`
}
