package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	billingapp "github.com/wcpa/backend/internal/application/billing"
	partnerapp "github.com/wcpa/backend/internal/application/partner"
	tradeapp "github.com/wcpa/backend/internal/application/trade"
	"github.com/wcpa/backend/internal/domain/shared"
	billinginfra "github.com/wcpa/backend/internal/infrastructure/billing"
	"github.com/wcpa/backend/internal/infrastructure/cache"
	"github.com/wcpa/backend/internal/infrastructure/config"
	"github.com/wcpa/backend/internal/infrastructure/document"
	"github.com/wcpa/backend/internal/infrastructure/logger"
	"github.com/wcpa/backend/internal/infrastructure/mail"
	"github.com/wcpa/backend/internal/infrastructure/persistence"
	"github.com/wcpa/backend/internal/interfaces/http/handler"
	"github.com/wcpa/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting WCPA storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	idempotency := newIdempotencyStore(cfg, log)
	defer func() {
		_ = idempotency.Close()
	}()

	subscriberRepo := persistence.NewGormSubscriberRepository(db.DB)
	statusRepo := persistence.NewGormSubscriptionStatusRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)

	stripeConfig := &billinginfra.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		IsTestMode:    cfg.Stripe.IsTestMode,
		SuccessURL:    strings.TrimRight(cfg.App.FrontendBaseURL, "/") + "/checkout/success",
		CancelURL:     strings.TrimRight(cfg.App.FrontendBaseURL, "/") + "/checkout/cancel",
	}
	gateway, err := billinginfra.NewStripeAdapter(stripeConfig, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	generator, err := document.NewGenerator(log)
	if err != nil {
		log.Fatal("Failed to initialize document generator", zap.Error(err))
	}
	mailer := mail.NewSMTPMailer(cfg.SMTP, log)

	subscriptionService := billingapp.NewSubscriptionService(billingapp.SubscriptionServiceConfig{
		Gateway:        gateway,
		SubscriberRepo: subscriberRepo,
		StatusRepo:     statusRepo,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Logger:         log,
	})
	webhookService := billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceConfig{
		Config:      stripeConfig,
		StatusRepo:  statusRepo,
		Idempotency: idempotency,
		EventTTL:    cfg.Redis.IdempotencyTTL,
		Logger:      log,
	})
	orderService := tradeapp.NewOrderService(tradeapp.OrderServiceConfig{
		OrderRepo:      orderRepo,
		AddressRepo:    addressRepo,
		Renderer:       generator,
		Mailer:         mailer,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		Logger:         log,
	})
	addressService := partnerapp.NewAddressService(addressRepo, log)

	engine := router.New(router.Config{
		CORSOrigins: cfg.HTTP.CORSAllowOrigins,
		Logger:      log,
	}, router.Handlers{
		System:       handler.NewSystemHandler(),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, log),
		Order:        handler.NewOrderHandler(orderService, log),
		Webhook:      handler.NewStripeWebhookHandler(webhookService, log),
		Address:      handler.NewAddressHandler(addressService, log),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// newIdempotencyStore connects to Redis, falling back to the in-memory
// store when Redis is unreachable. Dedup is advisory, so a degraded store
// beats refusing to start.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) shared.IdempotencyStore {
	store, err := cache.NewRedisIdempotencyStore(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory idempotency store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err))
		return cache.NewInMemoryIdempotencyStore()
	}
	log.Info("Idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	return store
}
