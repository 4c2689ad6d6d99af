package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lumenik-backend/internal/models"
)

// ErrGameNotFound возвращается, когда игра не найдена.
var ErrGameNotFound = errors.New("game not found")

const gameColumns = `id, name, console, size_gb, description, image_url, available, created_at`

// GameRepository отвечает за работу с таблицей games.
type GameRepository struct {
	db *sqlx.DB
}

// NewGameRepository создаёт экземпляр репозитория.
func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

// Create добавляет игру в каталог.
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (name, console, size_gb, description, image_url, available)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(
		ctx, query,
		game.Name, game.Console, game.SizeGB, game.Description, game.ImageURL, game.Available,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		return fmt.Errorf("game repository: create %w", err)
	}
	return nil
}

// GetByID возвращает игру по идентификатору.
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	if err := r.db.GetContext(ctx, &game, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("game repository: get by id %w", err)
	}
	return &game, nil
}

// ListAvailable возвращает все доступные игры.
func (r *GameRepository) ListAvailable(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	query := `SELECT ` + gameColumns + ` FROM games WHERE available = TRUE ORDER BY name`
	if err := r.db.SelectContext(ctx, &games, query); err != nil {
		return nil, fmt.Errorf("game repository: list available %w", err)
	}
	return games, nil
}

// ListByConsole возвращает доступные игры одной консоли.
func (r *GameRepository) ListByConsole(ctx context.Context, console string) ([]models.Game, error) {
	var games []models.Game
	query := `SELECT ` + gameColumns + ` FROM games WHERE available = TRUE AND console = $1 ORDER BY name`
	if err := r.db.SelectContext(ctx, &games, query, console); err != nil {
		return nil, fmt.Errorf("game repository: list by console %w", err)
	}
	return games, nil
}

// likeEscaper экранирует спецсимволы шаблона LIKE, чтобы пользовательский
// ввод сравнивался буквально, а не как шаблон.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Search ищет доступные игры по подстроке названия без учёта регистра.
func (r *GameRepository) Search(ctx context.Context, term string) ([]models.Game, error) {
	var games []models.Game
	query := `SELECT ` + gameColumns + ` FROM games WHERE available = TRUE AND name ILIKE '%' || $1 || '%' ORDER BY name`
	if err := r.db.SelectContext(ctx, &games, query, escapeLike(term)); err != nil {
		return nil, fmt.Errorf("game repository: search %w", err)
	}
	return games, nil
}

// GameUpdate описывает частичное обновление игры. Nil поля не изменяются.
type GameUpdate struct {
	Name        *string
	Console     *string
	SizeGB      *float64
	Description *string
	ImageURL    *string
}

// Update применяет частичное обновление и возвращает обновлённую запись.
func (r *GameRepository) Update(ctx context.Context, id uuid.UUID, upd GameUpdate) (*models.Game, error) {
	var game models.Game
	query := `
		UPDATE games SET
			name = COALESCE($2, name),
			console = COALESCE($3, console),
			size_gb = COALESCE($4, size_gb),
			description = COALESCE($5, description),
			image_url = COALESCE($6, image_url)
		WHERE id = $1
		RETURNING ` + gameColumns
	err := r.db.GetContext(ctx, &game, query, id, upd.Name, upd.Console, upd.SizeGB, upd.Description, upd.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("game repository: update %w", err)
	}
	return &game, nil
}

// SetAvailability помечает игру как доступную или недоступную.
func (r *GameRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE games SET available = $2 WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("game repository: set availability %w", err)
	}
	return requireAffected(res, ErrGameNotFound)
}

// SetImage сохраняет ссылку на обложку игры.
func (r *GameRepository) SetImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE games SET image_url = $2 WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("game repository: set image %w", err)
	}
	return requireAffected(res, ErrGameNotFound)
}

// Delete полностью удаляет игру из каталога.
func (r *GameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("game repository: delete %w", err)
	}
	return requireAffected(res, ErrGameNotFound)
}

// Stats возвращает агрегаты по доступной части каталога.
func (r *GameRepository) Stats(ctx context.Context) (*models.GameStats, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT console, COUNT(*), COALESCE(SUM(size_gb), 0)
		FROM games
		WHERE available = TRUE
		GROUP BY console
	`)
	if err != nil {
		return nil, fmt.Errorf("game repository: stats %w", err)
	}
	defer rows.Close()

	stats := &models.GameStats{PerConsole: make(map[string]int)}
	for _, console := range models.Consoles {
		stats.PerConsole[console] = 0
	}

	for rows.Next() {
		var console string
		var count int
		var size float64
		if err := rows.Scan(&console, &count, &size); err != nil {
			return nil, fmt.Errorf("game repository: stats scan %w", err)
		}
		stats.PerConsole[console] = count
		stats.TotalGames += count
		stats.TotalSizeGB += size
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("game repository: stats rows %w", err)
	}

	return stats, nil
}
