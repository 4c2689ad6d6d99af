package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/logger"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/service"
)

// Hub управляет всеми WebSocket подключениями и рассылает события записей
// о работе заинтересованным сторонам: клиенту записи, назначенному сотруднику
// и всем администраторам.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	admins     map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
}

type envelope struct {
	targets []uuid.UUID
	toAdmin bool
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		admins:     make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 32),
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case env := <-h.broadcast:
			h.send(env)
		}
	}
}

// Register добавляет подключение.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет подключение.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishOrderEvent рассылает событие записи о работе. Рассылка не блокирует
// вызывающего: при переполнении канала событие отбрасывается с предупреждением.
func (h *Hub) PublishOrderEvent(event service.OrderEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithError(err).Warn("ws: не удалось сериализовать событие")
		return
	}

	env := envelope{toAdmin: true, payload: raw}
	if event.Order != nil {
		env.targets = append(env.targets, event.Order.ClientID)
		if event.Order.EmployeeID != nil {
			env.targets = append(env.targets, *event.Order.EmployeeID)
		}
	}

	select {
	case h.broadcast <- env:
	default:
		logger.Log.Warn("ws: канал рассылки переполнен, событие отброшено")
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
	if client.role == models.RoleAdministrator {
		h.admins[client] = struct{}{}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
	delete(h.admins, client)
}

func (h *Hub) send(env envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[*Client]struct{})
	for _, userID := range env.targets {
		for client := range h.clients[userID] {
			h.deliver(client, env.payload, delivered)
		}
	}
	if env.toAdmin {
		for client := range h.admins {
			h.deliver(client, env.payload, delivered)
		}
	}
}

// deliver пишет в канал клиента; медленный клиент отключается, чтобы не
// задерживать остальных.
func (h *Hub) deliver(client *Client, payload []byte, delivered map[*Client]struct{}) {
	if _, ok := delivered[client]; ok {
		return
	}
	delivered[client] = struct{}{}

	select {
	case client.send <- payload:
	default:
		go client.Close()
	}
}
