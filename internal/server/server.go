// Package server assembles the storefront's HTTP application and the
// background reconciliation consumer from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/kafka"
	"storefront/pkg/metrics"
	"storefront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the external systems the application talks to.
// Publisher and Redis are optional.
type Dependencies struct {
	DB        *gorm.DB
	Processor payments.Processor
	Webhooks  payments.WebhookParser
	Bus       events.Bus
	Publisher services.Publisher
	Redis     *redis.Client
}

// App is a wired storefront.
type App struct {
	Fiber    *fiber.App
	DB       *gorm.DB
	Bus      events.Bus
	Registry *prometheus.Registry

	reconciler *services.ReconciliationService
	closers    []func() error
}

// NewApp wires repositories, services and handlers onto a Fiber app.
func NewApp(cfg *config.Config, deps Dependencies) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	serverMetrics := metrics.NewServerMetrics(registry, "api")
	domainMetrics := metrics.NewDomainMetrics(registry)

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	categoryRepo := repositories.NewGORMCategoryRepository(deps.DB)
	cartRepo := repositories.NewGORMCartRepository(deps.DB)
	addressRepo := repositories.NewGORMAddressRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	blogRepo := repositories.NewGORMBlogRepository(deps.DB)
	subscriberRepo := repositories.NewGORMSubscriberRepository(deps.DB)

	// --- Initialize Services ---
	var notifier services.Notifier = services.LogNotifier{}
	if deps.Publisher != nil {
		notifier = services.NewQueueNotifier(deps.Publisher)
	}
	var sessionCache services.SessionCache
	if deps.Redis != nil {
		sessionCache = cache.NewCheckoutSessionCache(deps.Redis, cache.DefaultTTL)
	}

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	productService := services.NewProductService(productRepo, categoryRepo)
	cartService := services.NewCartService(cartRepo)
	addressService := services.NewAddressService(addressRepo)
	orderService := services.NewOrderService(orderRepo)
	contentService := services.NewContentService(blogRepo, subscriberRepo, notifier)
	checkoutService := services.NewCheckoutService(productRepo, cartRepo, orderRepo, deps.Processor, sessionCache, domainMetrics,
		services.CheckoutConfig{Currency: cfg.Currency})
	reconciler := services.NewReconciliationService(orderRepo, notifier, domainMetrics)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	addressHandler := handlers.NewAddressHandler(addressService)
	orderHandler := handlers.NewOrderHandler(orderService)
	contentHandler := handlers.NewContentHandler(contentService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, deps.Webhooks, deps.Bus)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(serverMetrics.Middleware())
	app.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			log.Printf("Health check: database unreachable: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "unreachable",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "connected",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes are registered before the auth middleware so they match first.
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	contentHandler.RegisterRoutes(apiV1)
	checkoutHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	productHandler.RegisterProtectedRoutes(protected)
	cartHandler.RegisterProtectedRoutes(protected)
	addressHandler.RegisterProtectedRoutes(protected)
	checkoutHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)
	contentHandler.RegisterProtectedRoutes(protected)

	return &App{
		Fiber:      app,
		DB:         deps.DB,
		Bus:        deps.Bus,
		Registry:   registry,
		reconciler: reconciler,
	}
}

// Build connects to everything cfg names and returns the wired App.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	if err := repositories.Migrate(db); err != nil {
		cleanup()
		return nil, err
	}
	if cfg.SeedCatalog {
		if err := repositories.SeedCatalog(ctx, db); err != nil {
			cleanup()
			return nil, err
		}
	}

	deps := Dependencies{
		DB: db,
		Processor: payments.NewStripeProcessor(payments.StripeConfig{
			SecretKey:  cfg.StripeSecretKey,
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
			Timeout:    cfg.PaymentTimeout,
		}),
		Webhooks: payments.NewStripeWebhookParser(cfg.StripeWebhookSecret),
	}

	switch cfg.EventBroker {
	case config.BrokerRabbitMQ:
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{events.PaymentQueue, services.NotificationQueue},
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		closers = append(closers, mqClient.Close)
		deps.Bus = events.NewRabbitBus(mqClient)
		deps.Publisher = mqClient
	case config.BrokerKafka:
		bus, err := events.NewKafkaBus(kafka.NewClient(cfg.KafkaBrokers))
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to initialize Kafka bus: %w", err)
		}
		deps.Bus = bus
	default:
		deps.Bus = events.NewInlineBus()
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis at %s unreachable, idempotent replays degrade to Stripe: %v", cfg.RedisAddr, err)
		}
		cancel()
		closers = append(closers, rdb.Close)
		deps.Redis = rdb
	}

	app := NewApp(cfg, deps)
	app.closers = closers
	return app, nil
}

// Start subscribes order reconciliation to the payment event bus.
func (a *App) Start(ctx context.Context) error {
	if err := a.Bus.Subscribe(ctx, a.reconciler.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to payment events: %w", err)
	}
	log.Println("Reconciliation consumer started")
	return nil
}

// Shutdown stops the HTTP server, then releases the bus and connections.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.Fiber.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
	}
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
