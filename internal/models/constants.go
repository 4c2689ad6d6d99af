package models

// Роли пользователей
const (
	RoleAdministrator = "administrator"
	RoleEmployee      = "employee"
	RoleClient        = "client"
)

// Статусы учётной записи
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// Статусы записей о работе
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Типы услуг
const (
	ServiceTypeInstallation = "installation"
	ServiceTypeDownload     = "download"
)

// Consoles перечисляет поддерживаемые консоли.
var Consoles = []string{"PSP", "PS2", "PS3", "PS4"}

// DefaultConsole подставляется, когда консоль в заявке не указана.
const DefaultConsole = "PS4"

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleAdministrator: {},
	RoleEmployee:      {},
	RoleClient:        {},
}

// ValidUserStatuses список валидных статусов учётной записи
var ValidUserStatuses = map[string]struct{}{
	UserStatusActive:   {},
	UserStatusInactive: {},
}

// ValidOrderStatuses список валидных статусов записей о работе
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ValidServiceTypes список валидных типов услуг
var ValidServiceTypes = map[string]struct{}{
	ServiceTypeInstallation: {},
	ServiceTypeDownload:     {},
}

// ValidConsoles список валидных консолей
var ValidConsoles = map[string]struct{}{
	"PSP": {},
	"PS2": {},
	"PS3": {},
	"PS4": {},
}

// orderTransitions описывает разрешённые переходы состояний записи о работе.
// Терминальные состояния (completed, cancelled) переходов не имеют.
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition проверяет, разрешён ли переход из состояния from в to.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
