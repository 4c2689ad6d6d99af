package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lumenik-backend/internal/http/handlers/common"
	"github.com/ignatzorin/lumenik-backend/internal/service"
)

// SeedHandler наполняет базу демонстрационными данными. Регистрируется
// только вне production.
type SeedHandler struct {
	seed *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seed *service.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// Seed обрабатывает POST /seed.
func (h *SeedHandler) Seed(c *gin.Context) {
	summary, err := h.seed.Seed(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusCreated, "база наполнена демонстрационными данными", summary)
}
