package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/infrastructure/logger"
	"github.com/wcpa/backend/internal/interfaces/http/handler"
	"github.com/wcpa/backend/internal/interfaces/http/middleware"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	System       *handler.SystemHandler
	Subscription *handler.SubscriptionHandler
	Order        *handler.OrderHandler
	Webhook      *handler.StripeWebhookHandler
	Address      *handler.AddressHandler
}

// Config holds router configuration
type Config struct {
	CORSOrigins []string
	Logger      *zap.Logger
}

// New builds the gin engine with all middleware and routes mounted. The
// storefront flow endpoints live at the root, where the frontend expects
// them; the address book sits under /api/v1.
func New(cfg Config, h Handlers) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.CORSWithOrigins(cfg.CORSOrigins))

	engine.GET("/health", h.System.Health)

	engine.POST("/create-subscription-intent", h.Subscription.CreateSetupIntent)
	engine.POST("/create-subscription", h.Subscription.Subscribe)
	engine.POST("/check-subscription", h.Subscription.CheckSubscription)
	engine.POST("/create-checkout-session", h.Subscription.CreateCheckoutSession)
	engine.POST("/create-order", h.Order.CreateOrder)
	engine.POST("/webhook", h.Webhook.HandleWebhook)

	api := engine.Group("/api/v1")
	{
		addresses := api.Group("/addresses")
		addresses.GET("", h.Address.List)
		addresses.POST("", h.Address.Create)
		addresses.PUT("/:id", h.Address.Update)
		addresses.DELETE("/:id", h.Address.Delete)
		addresses.POST("/:id/default", h.Address.SetDefault)
	}

	return engine
}
