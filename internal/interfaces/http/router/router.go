package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/infrastructure/auth"
	"github.com/tokoroti/backend/internal/infrastructure/config"
	"github.com/tokoroti/backend/internal/infrastructure/logger"
	"github.com/tokoroti/backend/internal/interfaces/http/handler"
	"github.com/tokoroti/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Webhook   *handler.WebhookHandler
	Catalog   *handler.CatalogHandler
	Inventory *handler.InventoryHandler
	Order     *handler.OrderHandler
	System    *handler.SystemHandler
}

// New builds the gin engine with all routes and middleware wired.
// The webhook and health endpoints are public; everything under /api/v1
// requires a valid admin token.
func New(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	// Public surface: liveness and the chat platform webhook
	engine.GET("/health", h.System.Health)
	webhook := engine.Group("/webhook")
	{
		webhook.POST("/messages", h.Webhook.HandleMessage)
	}

	// Admin API
	api := engine.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))
	{
		api.GET("/system/info", h.System.GetSystemInfo)

		products := api.Group("/products")
		{
			products.GET("", h.Catalog.ListProducts)
			products.POST("", h.Catalog.CreateProduct)
			products.GET("/:id", h.Catalog.GetProduct)
			products.PUT("/:id", h.Catalog.UpdateProduct)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", h.Inventory.ListIngredients)
			ingredients.POST("", h.Inventory.CreateIngredient)
			ingredients.GET("/below-minimum", h.Inventory.ListBelowMinimum)
			ingredients.GET("/expiring-lots", h.Inventory.ExpiringLots)
			ingredients.POST("/replenish", h.Inventory.Replenish)
			ingredients.GET("/:id", h.Inventory.GetIngredient)
			ingredients.GET("/:id/recommended-lots", h.Inventory.RecommendedLots)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.Order.ListOrders)
			orders.POST("/retry-pending", h.Order.RetryPending)
			orders.GET("/:id", h.Order.GetOrder)
			orders.PATCH("/:id/status", h.Order.UpdateStatus)
		}

		api.GET("/customers/:customer_id/orders", h.Order.ListCustomerOrders)
	}

	return engine
}
