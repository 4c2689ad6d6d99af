package models

import (
	"time"

	"github.com/google/uuid"
)

// Game описывает игру в каталоге для конкретной консоли.
// Available — мягкое удаление: недоступные игры остаются в базе, но исчезают
// из всех выборок каталога. Полное удаление — отдельная операция.
type Game struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Console     string    `db:"console" json:"console"`
	SizeGB      float64   `db:"size_gb" json:"size_gb"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Available   bool      `db:"available" json:"available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GameStats содержит агрегаты по доступной части каталога.
type GameStats struct {
	TotalGames  int            `json:"total_games"`
	PerConsole  map[string]int `json:"per_console"`
	TotalSizeGB float64        `json:"total_size_gb"`
}
