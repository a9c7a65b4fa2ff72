package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/musicstore-support/internal/agent"
	"github.com/ignatzorin/musicstore-support/internal/ai"
	"github.com/ignatzorin/musicstore-support/internal/config"
	"github.com/ignatzorin/musicstore-support/internal/db"
	"github.com/ignatzorin/musicstore-support/internal/goroutine"
	httpHandlers "github.com/ignatzorin/musicstore-support/internal/http/handlers"
	httpRouter "github.com/ignatzorin/musicstore-support/internal/http/router"
	"github.com/ignatzorin/musicstore-support/internal/logger"
	"github.com/ignatzorin/musicstore-support/internal/lyrics"
	"github.com/ignatzorin/musicstore-support/internal/repository"
	"github.com/ignatzorin/musicstore-support/internal/service"
	"github.com/ignatzorin/musicstore-support/internal/sms"
	"github.com/ignatzorin/musicstore-support/internal/video"
	"github.com/ignatzorin/musicstore-support/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Демо-данные: каталог, покупатель и история покупок.
	seedService := service.NewSeedService(dbConn)
	if cfg.SeedOnStart {
		if err := seedService.SeedData(ctx); err != nil {
			log.Fatalf("main: ошибка загрузки демо-данных: %v", err)
		}
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.SessionTokenTTL)

	// Репозитории.
	customerRepo := repository.NewCustomerRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	invoiceRepo := repository.NewInvoiceRepository(dbConn)
	verificationRepo := repository.NewVerificationRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)

	// Внешние клиенты.
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIModel)
	smsClient := sms.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.SMSBaseURL)
	lyricsClient := lyrics.NewClient(cfg.GeniusAccessToken, "")
	videoClient := video.NewClient(cfg.YouTubeAPIKey, "")

	// Сервисы.
	sessionService := service.NewSessionService(customerRepo, verificationRepo)
	verificationService := service.NewVerificationService(verificationRepo, sessionService, customerRepo, smsClient)
	accountService := service.NewAccountService(customerRepo, sessionService)
	catalogService := service.NewCatalogService(catalogRepo, invoiceRepo)
	purchaseService := service.NewPurchaseService(paymentRepo, catalogRepo, invoiceRepo, customerRepo, sessionService, catalogService)

	// Инструменты агентов и диспетчер.
	registry := agent.NewRegistry()
	agent.RegisterMusicTools(registry, catalogService, lyricsClient, videoClient)
	agent.RegisterAccountTools(registry, accountService, verificationService, catalogService)
	agent.RegisterPaymentTools(registry, purchaseService)
	dispatcher := agent.NewDispatcher(aiClient, sessionService, registry)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	// HTTP хэндлеры.
	sessionHandler := httpHandlers.NewSessionHandler(sessionService, customerRepo, tokenManager)
	chatHandler := httpHandlers.NewChatHandler(dispatcher, sessionService, hub)
	customerHandler := httpHandlers.NewCustomerHandler(accountService, verificationService, catalogService, hub)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, sessionHandler, chatHandler, customerHandler, wsHandler, healthHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
