package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lumenik-backend/internal/config"
	"github.com/ignatzorin/lumenik-backend/internal/http/handlers"
	"github.com/ignatzorin/lumenik-backend/internal/http/middleware"
	"github.com/ignatzorin/lumenik-backend/internal/models"
	"github.com/ignatzorin/lumenik-backend/internal/service"
)

// SetupRouter собирает маршруты приложения.
//
// Разграничение доступа: каталог и запись о работе доступны всем
// аутентифицированным пользователям (сервис дополнительно сужает выборки по
// роли), управление учётными записями, каталогом и финансами — только
// администратору, смена статуса записи — администратору и сотруднику.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	gameHandler *handlers.GameHandler,
	orderHandler *handlers.OrderHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media/covers", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
	}

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/ws", wsHandler.Handle)

	adminOnly := middleware.RequireRoles(models.RoleAdministrator)
	staffOnly := middleware.RequireRoles(models.RoleAdministrator, models.RoleEmployee)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/auth/change-password", authHandler.ChangePassword)
		protected.GET("/users/me", userHandler.Me)

		// Учётные записи: только администратор.
		users := protected.Group("/users")
		users.Use(adminOnly)
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/stats", userHandler.Stats)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.PATCH("/:id/status", userHandler.ChangeStatus)
			users.DELETE("/:id", userHandler.Delete)
		}

		// Профили клиентов: персонал видит и редактирует.
		clients := protected.Group("/clients")
		clients.Use(staffOnly)
		{
			clients.GET("/:id/profile", userHandler.GetClientProfile)
			clients.PUT("/:id/profile", userHandler.UpdateClientProfile)
		}

		// Каталог: чтение всем, изменения только администратору.
		protected.GET("/games", gameHandler.List)
		protected.GET("/games/search", gameHandler.Search)
		protected.GET("/games/stats", gameHandler.Stats)
		protected.GET("/games/:id", gameHandler.Get)

		games := protected.Group("/games")
		games.Use(adminOnly)
		{
			games.POST("", gameHandler.Create)
			games.PUT("/:id", gameHandler.Update)
			games.PATCH("/:id/availability", gameHandler.SetAvailability)
			games.POST("/:id/cover", gameHandler.UploadCover)
			games.DELETE("/:id", gameHandler.Delete)
		}

		// Записи о работе. Оформить запись может любой аутентифицированный
		// пользователь, выборки сервис сужает по роли.
		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders", orderHandler.List)
		protected.GET("/orders/:id", orderHandler.Get)

		orders := protected.Group("/orders")
		orders.Use(staffOnly)
		{
			orders.GET("/pending", orderHandler.ListPending)
			orders.PATCH("/:id/status", orderHandler.ChangeState)
		}

		ordersAdmin := protected.Group("/orders")
		ordersAdmin.Use(adminOnly)
		{
			ordersAdmin.GET("/stats", orderHandler.Stats)
			ordersAdmin.PUT("/:id", orderHandler.Update)
			ordersAdmin.DELETE("/:id", orderHandler.Delete)
			ordersAdmin.POST("/:id/payments", orderHandler.RecordPayment)
			ordersAdmin.DELETE("/:id/payments", orderHandler.ClearPayments)
			ordersAdmin.POST("/:id/debt", orderHandler.ReassignDebt)
		}
	}

	return r
}
