package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает учётную запись пользователя сервиса.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        string    `db:"phone" json:"phone"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsActive сообщает, может ли пользователь входить в систему.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// UserStats содержит статистику по пользователям для панели администратора.
// Общее количество считается без учёта администраторов.
type UserStats struct {
	TotalUsers     int `json:"total_users"`
	Administrators int `json:"administrators"`
	Employees      int `json:"employees"`
	Clients        int `json:"clients"`
	ActiveUsers    int `json:"active_users"`
}
