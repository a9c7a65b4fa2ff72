package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/musicstore-support/internal/config"
	"github.com/ignatzorin/musicstore-support/internal/http/handlers"
	"github.com/ignatzorin/musicstore-support/internal/http/middleware"
	"github.com/ignatzorin/musicstore-support/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	customerHandler *handlers.CustomerHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFile("/", "./web/index.html")

	api := r.Group("/api")

	api.GET("/health", healthHandler.Health)

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
		api.GET("/seed", seedHandler.Seed)
	}

	// Открытие сессии доступно без токена, но прикрыто rate limit.
	sessionRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	api.POST("/session", sessionRateLimit, sessionHandler.Create)

	// Токен в query допускается: браузерный WebSocket не умеет заголовки.
	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.SessionAuth(tokenManager))
	{
		protected.POST("/chat", chatHandler.Send)
		protected.POST("/chat/stream", chatHandler.Stream)
		protected.GET("/chat/history", chatHandler.History)
		protected.POST("/clear", sessionHandler.Clear)

		protected.GET("/customer", customerHandler.Get)
		protected.GET("/customer/purchases", customerHandler.PurchaseHistory)
		protected.GET("/customer/purchases/:invoiceId", customerHandler.InvoiceDetails)
		protected.GET("/customer/spending", customerHandler.SpendingSummary)

		protected.POST("/customer/verification/request", customerHandler.RequestVerification)
		protected.POST("/customer/verification/confirm", customerHandler.ConfirmVerification)
		protected.PUT("/customer/email", customerHandler.UpdateEmail)
		protected.PUT("/customer/address", customerHandler.UpdateAddress)
	}

	return r
}
