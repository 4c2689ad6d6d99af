package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lumenik-backend/internal/http/handlers/common"
	"github.com/ignatzorin/lumenik-backend/internal/service"
)

// UserHandler предоставляет HTTP слой для управления учётными записями и
// профилями клиентов.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create обрабатывает POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
		FullName string `json:"full_name" binding:"required"`
		Phone    string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "username, email, password, role и full_name обязательны")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// List обрабатывает GET /users. Администраторы в список не попадают.
func (h *UserHandler) List(c *gin.Context) {
	if role := c.Query("role"); role != "" {
		users, err := h.users.ListByRole(c.Request.Context(), role)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
		return
	}

	users, err := h.users.List(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get обрабатывает GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор пользователя")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me обрабатывает GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update обрабатывает PUT /users/:id. Непереданные поля не изменяются.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор пользователя")
		return
	}

	var req struct {
		Email    *string `json:"email"`
		FullName *string `json:"full_name"`
		Phone    *string `json:"phone"`
		Role     *string `json:"role"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "")
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, service.UpdateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangeStatus обрабатывает PATCH /users/:id/status.
func (h *UserHandler) ChangeStatus(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор пользователя")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "статус обязателен")
		return
	}

	if err := h.users.ChangeStatus(c.Request.Context(), id, req.Status); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "статус изменён", nil)
}

// Delete обрабатывает DELETE /users/:id — каскадное удаление учётной записи.
// В ответе сообщается, какие зависимые данные удалены.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор пользователя")
		return
	}

	result, err := h.users.DeleteCascade(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "пользователь удалён", result)
}

// Stats обрабатывает GET /users/stats.
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetClientProfile обрабатывает GET /clients/:id/profile.
func (h *UserHandler) GetClientProfile(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор клиента")
		return
	}

	profile, err := h.users.GetClientProfile(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateClientProfile обрабатывает PUT /clients/:id/profile.
func (h *UserHandler) UpdateClientProfile(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор клиента")
		return
	}

	var req struct {
		Phone             *string  `json:"phone"`
		Address           *string  `json:"address"`
		City              *string  `json:"city"`
		PreferredConsoles []string `json:"preferred_consoles"`
		TotalSpaceGB      *float64 `json:"total_space_gb"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "")
		return
	}

	err = h.users.UpdateClientProfile(c.Request.Context(), id, service.UpdateClientProfileInput{
		Phone:             req.Phone,
		Address:           req.Address,
		City:              req.City,
		PreferredConsoles: req.PreferredConsoles,
		TotalSpaceGB:      req.TotalSpaceGB,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "профиль обновлён", nil)
}
