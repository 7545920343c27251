package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	catalogapp "github.com/tokoroti/backend/internal/application/catalog"
	chatapp "github.com/tokoroti/backend/internal/application/chat"
	inventoryapp "github.com/tokoroti/backend/internal/application/inventory"
	orderapp "github.com/tokoroti/backend/internal/application/order"
	"github.com/tokoroti/backend/internal/infrastructure/auth"
	"github.com/tokoroti/backend/internal/infrastructure/cache"
	"github.com/tokoroti/backend/internal/infrastructure/config"
	"github.com/tokoroti/backend/internal/infrastructure/event"
	"github.com/tokoroti/backend/internal/infrastructure/extraction"
	"github.com/tokoroti/backend/internal/infrastructure/lock"
	"github.com/tokoroti/backend/internal/infrastructure/logger"
	"github.com/tokoroti/backend/internal/infrastructure/messaging"
	"github.com/tokoroti/backend/internal/infrastructure/persistence"
	"github.com/tokoroti/backend/internal/interfaces/http/handler"
	"github.com/tokoroti/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting toko roti backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("database_driver", cfg.Database.Driver),
	)

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	ingredientRepo := persistence.NewGormIngredientRepository(db.DB)
	lotRepo := persistence.NewGormIngredientLotRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	conversationRepo := persistence.NewGormConversationRepository(db.DB)

	// Shared infrastructure
	locks := lock.NewKeyedMutex()
	bus := event.NewInMemoryEventBus(log)

	// Catalog snapshot: cached behind redis when enabled, direct reads
	// otherwise
	var catalogReader chatapp.CatalogReader
	var catalogInvalidator catalogapp.CatalogInvalidator
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		catalogCache := cache.NewRedisCatalogCache(redisClient, productRepo, cfg.Redis.TTL, log)
		catalogReader = catalogCache
		catalogInvalidator = catalogCache
	} else {
		catalogReader = cache.NewDirectCatalogReader(productRepo)
	}

	// Extraction gateway
	extractor, err := extraction.NewClient(&extraction.Config{
		BaseURL:     cfg.Extraction.BaseURL,
		APIKey:      cfg.Extraction.APIKey,
		Model:       cfg.Extraction.Model,
		Timeout:     cfg.Extraction.Timeout,
		Temperature: cfg.Extraction.Temperature,
	})
	if err != nil {
		log.Fatal("failed to configure extraction gateway, set extraction.base_url", zap.Error(err))
	}

	// Application services
	stockService := inventoryapp.NewStockService(ingredientRepo, lotRepo, locks)
	stockService.SetEventPublisher(bus)

	calculator := inventoryapp.NewRequirementCalculator(productRepo, ingredientRepo)

	orderService := orderapp.NewOrderService(orderRepo, productRepo, calculator, stockService)
	orderService.SetEventPublisher(bus)

	chatService := chatapp.NewChatService(conversationRepo, orderService, catalogReader, extractor, locks, log)

	productService := catalogapp.NewProductService(productRepo, ingredientRepo, catalogInvalidator, log)

	// A replenishment wakes up parked orders; customers whose order got
	// through are notified over the outbound transport when configured.
	retryHandler := orderapp.NewRestockRetryHandler(log, orderService)
	if cfg.Outbound.BaseURL != "" {
		sender, err := messaging.NewHTTPSender(&messaging.Config{
			BaseURL: cfg.Outbound.BaseURL,
			Token:   cfg.Outbound.Token,
			Timeout: cfg.Outbound.Timeout,
		})
		if err != nil {
			log.Fatal("failed to configure outbound transport", zap.Error(err))
		}
		retryHandler = retryHandler.WithNotifier(chatapp.NewOrderAcceptedNotifier(sender))
	} else {
		log.Warn("outbound.base_url not set, order acceptance notices disabled")
	}
	bus.Subscribe(retryHandler)
	bus.Subscribe(inventoryapp.NewLowStockAlertHandler(log))

	// HTTP interface
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	engine := router.New(cfg, log, jwtService, router.Handlers{
		Webhook:   handler.NewWebhookHandler(chatService, log),
		Catalog:   handler.NewCatalogHandler(productService),
		Inventory: handler.NewInventoryHandler(stockService, cfg.Inventory.ExpiryWarningWindow),
		Order:     handler.NewOrderHandler(orderService),
		System:    handler.NewSystemHandler(db),
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
