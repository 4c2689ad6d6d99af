package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/lumenik-backend/internal/logger"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/pkg/apperror"
)

// SeedService наполняет пустую базу демонстрационными данными для разработки.
// В production эндпоинт не регистрируется.
type SeedService struct {
	users   UserRepository
	clients ClientProfileRepository
	games   GameRepository
	orders  WorkOrderRepo
}

// NewSeedService создаёт сервис наполнения.
func NewSeedService(users UserRepository, clients ClientProfileRepository, games GameRepository, orders WorkOrderRepo) *SeedService {
	return &SeedService{users: users, clients: clients, games: games, orders: orders}
}

// SeedSummary — итог наполнения базы.
type SeedSummary struct {
	Users  int `json:"users"`
	Games  int `json:"games"`
	Orders int `json:"orders"`
}

type seedUser struct {
	username string
	password string
	email    string
	role     string
	fullName string
	phone    string
}

type seedGame struct {
	name        string
	console     string
	sizeGB      float64
	description string
	imageURL    string
}

// Seed заводит администратора, сотрудников, клиентов, каталог игр и одну
// завершённую запись о работе. Выполняется поверх пустой базы; при конфликте
// логина операция прерывается с ошибкой конфликта.
func (s *SeedService) Seed(ctx context.Context) (*SeedSummary, error) {
	seedUsers := []seedUser{
		{"admin", "admin123", "admin@lumenik.com", models.RoleAdministrator, "Администратор Lümenik", "3001234567"},
		{"empleado1", "emp123", "empleado@lumenik.com", models.RoleEmployee, "Juan Pérez", "3105551234"},
		{"empleado2", "emp456", "empleado2@lumenik.com", models.RoleEmployee, "Roberto Martínez", "3165551234"},
		{"cliente1", "cli123", "cliente@lumenik.com", models.RoleClient, "Carlos García", "3201234567"},
		{"cliente2", "cli456", "cliente2@lumenik.com", models.RoleClient, "María López", "3151234567"},
	}

	summary := &SeedSummary{}
	created := map[string]*models.User{}

	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
		}
		user := &models.User{
			Username:     su.username,
			Email:        su.email,
			PasswordHash: string(hash),
			Role:         su.role,
			FullName:     su.fullName,
			Phone:        su.phone,
			Status:       models.UserStatusActive,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeConflict,
				fmt.Sprintf("не удалось создать пользователя %s: база уже наполнена?", su.username))
		}
		created[su.username] = user
		summary.Users++
	}

	if err := s.clients.Create(ctx, &models.ClientProfile{
		UserID:            created["cliente1"].ID,
		Phone:             "3201234567",
		Address:           "Calle 123 #456",
		City:              "Medellín",
		PreferredConsoles: []string{"PS4", "PS3"},
	}); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать профиль клиента")
	}
	if err := s.clients.Create(ctx, &models.ClientProfile{
		UserID: created["cliente2"].ID,
		Phone:  "3151234567",
	}); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать профиль клиента")
	}

	gameIDs := map[string]uuid.UUID{}
	for _, sg := range seedGames() {
		game := &models.Game{
			Name:        sg.name,
			Console:     sg.console,
			SizeGB:      sg.sizeGB,
			Description: sg.description,
			ImageURL:    sg.imageURL,
			Available:   true,
		}
		if err := s.games.Create(ctx, game); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать игру "+sg.name)
		}
		gameIDs[sg.name] = game.ID
		summary.Games++
	}

	employeeID := created["empleado1"].ID
	order := &models.WorkOrder{
		ClientID:    created["cliente1"].ID,
		EmployeeID:  &employeeID,
		ServiceType: models.ServiceTypeInstallation,
		Description: "Установка трёх премиальных игр PS4 по запросу клиента.",
		Console:     "PS4",
		TotalGB:     60.5 + 85.0 + 92.0,
		Status:      models.OrderStatusPending,
		Cost:        80000,
		Games: []uuid.UUID{
			gameIDs["Elden Ring"],
			gameIDs["God of War Ragnarok"],
			gameIDs["The Last of Us Part II"],
		},
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать запись о работе")
	}
	if _, err := s.orders.RecordPayment(ctx, order.ID, order.Cost); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось оплатить запись о работе")
	}
	if err := s.orders.ChangeStatus(ctx, order.ID, models.OrderStatusInProgress); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить статус записи")
	}
	if err := s.orders.ChangeStatus(ctx, order.ID, models.OrderStatusCompleted); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить статус записи")
	}
	summary.Orders++

	logger.Log.WithFields(map[string]interface{}{
		"users":  summary.Users,
		"games":  summary.Games,
		"orders": summary.Orders,
	}).Info("seed service: база наполнена демонстрационными данными")
	return summary, nil
}

// seedGames — подборка каталога из реальной библиотеки магазина.
func seedGames() []seedGame {
	return []seedGame{
		{"Ape Escape", "PSP", 1.2, "Приключенческий экшен", "/imagenes/Cover PSP/Ape Escape.jpg"},
		{"God of War Ghost of Sparta", "PSP", 1.8, "Портативный эпический экшен", "/imagenes/Cover PSP/God of War Ghost of Sparta.jpg"},
		{"GTA Chinatown Wars", "PSP", 1.5, "Портативный открытый мир", "/imagenes/Cover PSP/GTA.jpg"},
		{"Persona 3 Portable", "PSP", 2.1, "Портативная социальная RPG", "/imagenes/Cover PSP/Persona.jpg"},
		{"Silent Hill Origins", "PSP", 1.7, "Психологический хоррор", "/imagenes/Cover PSP/Silent Hill Origins.jpg"},

		{"Final Fantasy X", "PS2", 4.7, "Классическая эпическая RPG", "/imagenes/Cover PS2/Final Fantasy X.jpg"},
		{"Grand Theft Auto San Andreas", "PS2", 4.0, "Классический открытый мир", "/imagenes/Cover PS2/GTA San Andreas.jpg"},
		{"Metal Gear Solid 3 Subsistence", "PS2", 4.2, "Стелс и экшен", "/imagenes/Cover PS2/Metal Gear Solid 3 Subsistence.jpg"},
		{"Resident Evil 4", "PS2", 3.5, "Хоррор-экшен", "/imagenes/Cover PS2/Resident Evil 4.jpg"},
		{"Kingdom Hearts II", "PS2", 5.0, "Продолжение JRPG", "/imagenes/Cover PS2/Kingdom Hearts II.jpg"},
		{"Shadow of the Colossus", "PS2", 4.0, "Эпическое приключение", "/imagenes/Cover PS2/Shadow of the Colossus.jpg"},
		{"Silent Hill 2", "PS2", 3.4, "Психологический хоррор", "/imagenes/Cover PS2/Silent Hill 2.jpg"},

		{"The Last of Us", "PS3", 50.0, "Постапокалиптическая драма", "/imagenes/Cover PS3/The last of us.jpg"},
		{"Grand Theft Auto V", "PS3", 65.0, "Огромный открытый мир", "/imagenes/Cover PS3/Grand Theft Auto V.jpg"},
		{"God of War III", "PS3", 45.0, "Греческий эпический экшен", "/imagenes/Cover PS3/God of War III.png"},
		{"Dark Souls", "PS3", 38.0, "Сложная экшен-RPG", "/imagenes/Cover PS3/Dark Souls Prepare to Die Edition.jpg"},
		{"Metal Gear Solid 4", "PS3", 58.0, "Финал стелс-саги", "/imagenes/Cover PS3/Metal Gear Solid 4 Guns Of The Patriots.png"},
		{"Uncharted 2 Among Thieves", "PS3", 42.0, "Эпическое приключение", "/imagenes/Cover PS3/Uncharted 2 Among Thieves.png"},
		{"Batman Arkham City", "PS3", 42.0, "Экшен в Готэме", "/imagenes/Cover PS3/Batman Arkham City Game Of The Year Edition.jpg"},

		{"Elden Ring", "PS4", 60.5, "Эпическая экшен-RPG", "/imagenes/Cover PS4/Elden Ring.png"},
		{"God of War Ragnarok", "PS4", 85.0, "Скандинавский эпический экшен", "/imagenes/Cover PS4/God Of War Ragnarok.png"},
		{"The Last of Us Part II", "PS4", 92.0, "Постапокалиптическая драма", "/imagenes/Cover PS4/The Last Of Us II.png"},
		{"Red Dead Redemption 2", "PS4", 110.0, "Вестерн с открытым миром", "/imagenes/Cover PS4/Red Dead Redemption 2.jpg"},
		{"Bloodborne", "PS4", 68.0, "Мрачная экшен-RPG", "/imagenes/Cover PS4/Bloodborne.jpg"},
		{"The Witcher 3", "PS4", 85.0, "RPG с открытым миром", "/imagenes/Cover PS4/The Witcher 3 Wild Hunt.jpg"},
		{"Persona 5 Royal", "PS4", 92.0, "Социальная детективная JRPG", "/imagenes/Cover PS4/Persona 5 Royal.jpg"},
		{"Ghost of Tsushima", "PS4", 76.0, "Самурайский экшен", "/imagenes/Cover PS4/Ghost Of Tsushima.jpg"},
	}
}
