package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lumenik-backend/internal/repository"
)

type mockGameRepo struct {
	mock.Mock
}

func (m *mockGameRepo) Create(ctx context.Context, game *models.Game) error {
	args := m.Called(ctx, game)
	return args.Error(0)
}

func (m *mockGameRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *mockGameRepo) ListAvailable(ctx context.Context) ([]models.Game, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *mockGameRepo) ListByConsole(ctx context.Context, console string) ([]models.Game, error) {
	args := m.Called(ctx, console)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *mockGameRepo) Search(ctx context.Context, term string) ([]models.Game, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *mockGameRepo) Update(ctx context.Context, id uuid.UUID, upd repository.GameUpdate) (*models.Game, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *mockGameRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func (m *mockGameRepo) SetImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	args := m.Called(ctx, id, imageURL)
	return args.Error(0)
}

func (m *mockGameRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockGameRepo) Stats(ctx context.Context) (*models.GameStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameStats), args.Error(1)
}

func TestGameService_Create_Success(t *testing.T) {
	repo := new(mockGameRepo)
	svc := NewGameService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*models.Game")).Return(nil)

	game, err := svc.Create(ctx, CreateGameInput{
		Name:    "Bloodborne",
		Console: "PS4",
		SizeGB:  68,
	})
	assert.NoError(t, err)
	assert.True(t, game.Available)
}

func TestGameService_Create_InvalidConsole(t *testing.T) {
	svc := NewGameService(new(mockGameRepo))

	_, err := svc.Create(context.Background(), CreateGameInput{
		Name:    "Bloodborne",
		Console: "PS5",
		SizeGB:  68,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestGameService_Create_NonPositiveSize(t *testing.T) {
	svc := NewGameService(new(mockGameRepo))

	_, err := svc.Create(context.Background(), CreateGameInput{
		Name:    "Bloodborne",
		Console: "PS4",
		SizeGB:  0,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestGameService_GroupByConsole_AllConsolesPresent(t *testing.T) {
	repo := new(mockGameRepo)
	svc := NewGameService(repo)
	ctx := context.Background()

	repo.On("ListAvailable", ctx).Return([]models.Game{
		{Name: "Bloodborne", Console: "PS4"},
		{Name: "The Witcher 3", Console: "PS4"},
		{Name: "Final Fantasy X", Console: "PS2"},
	}, nil)

	grouped, err := svc.GroupByConsole(ctx)
	assert.NoError(t, err)
	assert.Len(t, grouped, 4)
	assert.Len(t, grouped["PS4"], 2)
	assert.Len(t, grouped["PS2"], 1)
	assert.Empty(t, grouped["PSP"])
	assert.Empty(t, grouped["PS3"])
}

func TestGameService_Search_EmptyTerm(t *testing.T) {
	svc := NewGameService(new(mockGameRepo))

	_, err := svc.Search(context.Background(), "   ")
	assert.True(t, apperror.IsValidation(err))
}

func TestGameService_SetAvailability_NotFound(t *testing.T) {
	repo := new(mockGameRepo)
	svc := NewGameService(repo)
	ctx := context.Background()
	gameID := uuid.New()

	repo.On("SetAvailability", ctx, gameID, false).Return(repository.ErrGameNotFound)

	err := svc.SetAvailability(ctx, gameID, false)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGameService_Update_InvalidSize(t *testing.T) {
	svc := NewGameService(new(mockGameRepo))

	size := -5.0
	_, err := svc.Update(context.Background(), uuid.New(), UpdateGameInput{SizeGB: &size})
	assert.True(t, apperror.IsValidation(err))
}
