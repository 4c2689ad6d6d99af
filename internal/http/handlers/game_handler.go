package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/lumenik-backend/internal/http/handlers/common"
	"github.com/ignatzorin/lumenik-backend/internal/service"
	"github.com/ignatzorin/lumenik-backend/internal/storage"
)

// Разрешённые типы файлов обложек.
var allowedCoverMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var allowedCoverExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// GameHandler предоставляет HTTP слой каталога игр.
type GameHandler struct {
	games  *service.GameService
	covers *storage.CoverStorage
}

// NewGameHandler создаёт хэндлер.
func NewGameHandler(games *service.GameService, covers *storage.CoverStorage) *GameHandler {
	return &GameHandler{games: games, covers: covers}
}

// Create обрабатывает POST /games.
func (h *GameHandler) Create(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Console     string  `json:"console" binding:"required"`
		SizeGB      float64 `json:"size_gb" binding:"required"`
		Description string  `json:"description"`
		ImageURL    string  `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "name, console и size_gb обязательны")
		return
	}

	game, err := h.games.Create(c.Request.Context(), service.CreateGameInput{
		Name:        req.Name,
		Console:     req.Console,
		SizeGB:      req.SizeGB,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, game)
}

// List обрабатывает GET /games. Параметр console фильтрует по консоли,
// grouped=true возвращает каталог, сгруппированный по консолям.
func (h *GameHandler) List(c *gin.Context) {
	if c.Query("grouped") == "true" {
		grouped, err := h.games.GroupByConsole(c.Request.Context())
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, grouped)
		return
	}

	if console := c.Query("console"); console != "" {
		games, err := h.games.ListByConsole(c.Request.Context(), console)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, games)
		return
	}

	games, err := h.games.ListAvailable(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// Search обрабатывает GET /games/search?q=...
func (h *GameHandler) Search(c *gin.Context) {
	games, err := h.games.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

// Get обрабатывает GET /games/:id.
func (h *GameHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор игры")
		return
	}

	game, err := h.games.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// Update обрабатывает PUT /games/:id. Непереданные поля не изменяются.
func (h *GameHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор игры")
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Console     *string  `json:"console"`
		SizeGB      *float64 `json:"size_gb"`
		Description *string  `json:"description"`
		ImageURL    *string  `json:"image_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "")
		return
	}

	game, err := h.games.Update(c.Request.Context(), id, service.UpdateGameInput{
		Name:        req.Name,
		Console:     req.Console,
		SizeGB:      req.SizeGB,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// SetAvailability обрабатывает PATCH /games/:id/availability — мягкое
// удаление и возврат игры в каталог.
func (h *GameHandler) SetAvailability(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор игры")
		return
	}

	var req struct {
		Available *bool `json:"available" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Available == nil {
		common.RespondBadRequest(c, "поле available обязательно")
		return
	}

	if err := h.games.SetAvailability(c.Request.Context(), id, *req.Available); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "доступность изменена", nil)
}

// Delete обрабатывает DELETE /games/:id.
func (h *GameHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор игры")
		return
	}

	if err := h.games.Delete(c.Request.Context(), id); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, http.StatusOK, "игра удалена", nil)
}

// Stats обрабатывает GET /games/stats.
func (h *GameHandler) Stats(c *gin.Context) {
	stats, err := h.games.Stats(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadCover обрабатывает POST /games/:id/cover. Тип файла проверяется по
// магическим байтам, а не по расширению.
func (h *GameHandler) UploadCover(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор игры")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedCoverExtensions[ext] {
		common.RespondBadRequest(c, "неподдерживаемый формат файла, разрешены: .jpg, .jpeg, .png, .webp")
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла, разрешены только изображения")
		return
	}
	if !allowedCoverMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
		return
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		common.RespondInternalError(c, "")
		return
	}

	relative, _, err := h.covers.Save(c.Request.Context(), id, file.Filename, src)
	if err != nil {
		common.RespondInternalError(c, "не удалось сохранить обложку")
		return
	}

	imageURL := "/media/covers/" + filepath.ToSlash(relative)
	if err := h.games.SetCover(c.Request.Context(), id, imageURL); err != nil {
		_ = h.covers.Delete(c.Request.Context(), relative)
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": imageURL})
}
