package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
)

// GameRepository описывает зависимости GameService от хранилища каталога.
type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	ListAvailable(ctx context.Context) ([]models.Game, error)
	ListByConsole(ctx context.Context, console string) ([]models.Game, error)
	Search(ctx context.Context, term string) ([]models.Game, error)
	Update(ctx context.Context, id uuid.UUID, upd repository.GameUpdate) (*models.Game, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	SetImage(ctx context.Context, id uuid.UUID, imageURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.GameStats, error)
}

// GameService инкапсулирует управление каталогом игр.
type GameService struct {
	repo GameRepository
}

// NewGameService создаёт сервис каталога.
func NewGameService(repo GameRepository) *GameService {
	return &GameService{repo: repo}
}

// CreateGameInput содержит данные новой игры.
type CreateGameInput struct {
	Name        string
	Console     string
	SizeGB      float64
	Description string
	ImageURL    string
}

// Create добавляет игру в каталог.
func (s *GameService) Create(ctx context.Context, in CreateGameInput) (*models.Game, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название обязательно")
	}
	if _, ok := models.ValidConsoles[in.Console]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
	}
	if in.SizeGB <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "размер должен быть больше 0")
	}

	game := &models.Game{
		Name:        in.Name,
		Console:     in.Console,
		SizeGB:      in.SizeGB,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Available:   true,
	}
	if err := s.repo.Create(ctx, game); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать игру")
	}
	return game, nil
}

// GetByID возвращает игру по идентификатору.
func (s *GameService) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, apperror.ErrGameNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить игру")
	}
	return game, nil
}

// ListAvailable возвращает все доступные игры.
func (s *GameService) ListAvailable(ctx context.Context) ([]models.Game, error) {
	games, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить каталог")
	}
	return games, nil
}

// ListByConsole возвращает доступные игры одной консоли.
func (s *GameService) ListByConsole(ctx context.Context, console string) ([]models.Game, error) {
	if _, ok := models.ValidConsoles[console]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
	}
	games, err := s.repo.ListByConsole(ctx, console)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить каталог")
	}
	return games, nil
}

// GroupByConsole возвращает доступные игры, сгруппированные по консолям.
// Все консоли присутствуют в ответе, даже пустые.
func (s *GameService) GroupByConsole(ctx context.Context) (map[string][]models.Game, error) {
	games, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить каталог")
	}

	grouped := make(map[string][]models.Game, len(models.Consoles))
	for _, console := range models.Consoles {
		grouped[console] = []models.Game{}
	}
	for _, game := range games {
		if _, ok := grouped[game.Console]; ok {
			grouped[game.Console] = append(grouped[game.Console], game)
		}
	}
	return grouped, nil
}

// Search ищет доступные игры по подстроке названия.
func (s *GameService) Search(ctx context.Context, term string) ([]models.Game, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "поисковый запрос обязателен")
	}
	games, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выполнить поиск")
	}
	return games, nil
}

// UpdateGameInput описывает частичное обновление игры.
type UpdateGameInput struct {
	Name        *string
	Console     *string
	SizeGB      *float64
	Description *string
	ImageURL    *string
}

// Update применяет частичное обновление игры.
func (s *GameService) Update(ctx context.Context, id uuid.UUID, in UpdateGameInput) (*models.Game, error) {
	if in.Console != nil {
		if _, ok := models.ValidConsoles[*in.Console]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неверная консоль: PSP, PS2, PS3 или PS4")
		}
	}
	if in.SizeGB != nil && *in.SizeGB <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "размер должен быть больше 0")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "название не может быть пустым")
	}

	game, err := s.repo.Update(ctx, id, repository.GameUpdate{
		Name:        in.Name,
		Console:     in.Console,
		SizeGB:      in.SizeGB,
		Description: in.Description,
		ImageURL:    in.ImageURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, apperror.ErrGameNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить игру")
	}
	return game, nil
}

// SetAvailability помечает игру доступной или недоступной (мягкое удаление).
func (s *GameService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return apperror.ErrGameNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить доступность")
	}
	return nil
}

// SetCover сохраняет ссылку на загруженную обложку.
func (s *GameService) SetCover(ctx context.Context, id uuid.UUID, imageURL string) error {
	if err := s.repo.SetImage(ctx, id, imageURL); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return apperror.ErrGameNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить обложку")
	}
	return nil
}

// Delete полностью удаляет игру из каталога.
func (s *GameService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return apperror.ErrGameNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить игру")
	}
	return nil
}

// Stats возвращает агрегаты по доступной части каталога.
func (s *GameService) Stats(ctx context.Context) (*models.GameStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить статистику")
	}
	return stats, nil
}
