package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lumenik-backend/internal/http/handlers/common"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой записей о работе и журнала платежей.
type OrderHandler struct {
	orders *service.WorkOrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.WorkOrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req struct {
		ClientID    uuid.UUID   `json:"client_id" binding:"required"`
		EmployeeID  *uuid.UUID  `json:"employee_id"`
		ServiceType string      `json:"service_type" binding:"required"`
		Description string      `json:"description"`
		Console     string      `json:"console"`
		TotalGB     float64     `json:"total_gb"`
		Cost        float64     `json:"cost"`
		Games       []uuid.UUID `json:"games"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "client_id и service_type обязательны")
		return
	}

	order, err := h.orders.Create(c.Request.Context(), service.CreateWorkOrderInput{
		ClientID:    req.ClientID,
		EmployeeID:  req.EmployeeID,
		ServiceType: req.ServiceType,
		Description: req.Description,
		Console:     req.Console,
		TotalGB:     req.TotalGB,
		Cost:        req.Cost,
		Games:       req.Games,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// List обрабатывает GET /orders. Клиент видит только свои записи, сотрудник —
// назначенные ему, администратор — все.
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var orders []models.WorkOrder
	switch role {
	case models.RoleClient:
		orders, err = h.orders.ListByClient(c.Request.Context(), userID)
	case models.RoleEmployee:
		orders, err = h.orders.ListByEmployee(c.Request.Context(), userID)
	default:
		orders, err = h.orders.ListAll(c.Request.Context())
	}
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListPending обрабатывает GET /orders/pending — очередь ожидающих записей.
// Сотрудник видит только назначенные ему.
func (h *OrderHandler) ListPending(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var employeeID *uuid.UUID
	if role == models.RoleEmployee {
		employeeID = &userID
	}

	orders, err := h.orders.ListPending(c.Request.Context(), employeeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Update обрабатывает PUT /orders/:id. Только пока запись pending.
func (h *OrderHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	var req struct {
		Description *string     `json:"description"`
		Cost        *float64    `json:"cost"`
		Console     *string     `json:"console"`
		TotalGB     *float64    `json:"total_gb"`
		Games       []uuid.UUID `json:"games"`
		Status      *string     `json:"status"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "")
		return
	}

	order, err := h.orders.Update(c.Request.Context(), id, service.UpdateWorkOrderInput{
		Description: req.Description,
		Cost:        req.Cost,
		Console:     req.Console,
		TotalGB:     req.TotalGB,
		Games:       req.Games,
		Status:      req.Status,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ChangeState обрабатывает PATCH /orders/:id/status.
func (h *OrderHandler) ChangeState(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "статус обязателен")
		return
	}

	order, err := h.orders.ChangeState(c.Request.Context(), id, req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete обрабатывает DELETE /orders/:id. Только пока запись pending.
func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "запись удалена", nil)
}

// RecordPayment обрабатывает POST /orders/:id/payments. Платёж сверх остатка
// отклоняется целиком, в details ответа сообщается реальный остаток.
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	var req struct {
		Amount float64 `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сумма платежа обязательна")
		return
	}

	order, err := h.orders.RecordPayment(c.Request.Context(), id, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ReassignDebt обрабатывает POST /orders/:id/debt — новая стоимость и чистый
// журнал платежей.
func (h *OrderHandler) ReassignDebt(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	var req struct {
		NewCost *float64 `json:"new_cost" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.NewCost == nil {
		common.RespondBadRequest(c, "поле new_cost обязательно")
		return
	}

	order, err := h.orders.ReassignDebt(c.Request.Context(), id, *req.NewCost)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ClearPayments обрабатывает DELETE /orders/:id/payments.
func (h *OrderHandler) ClearPayments(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор записи")
		return
	}

	order, err := h.orders.ClearPaymentHistory(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Stats обрабатывает GET /orders/stats.
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
