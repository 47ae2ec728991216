package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/cache"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/config"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/db"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/email"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/handlers"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/observability"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/paygreen"
	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg)
	logger.Info("starting",
		"paygreen_env", cfg.PayGreenEnv,
		"paygreen_key", cfg.RedactedPayGreenKey())

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(startupCtx, database); err != nil {
		database.Close()
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	productStore := db.NewProductStore(database)
	categoryStore := db.NewCategoryStore(database)
	userStore := db.NewUserStore(database)

	emailProvider, err := email.NewProvider(email.Config{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.EmailFrom,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	orderEmailer := services.NewProviderOrderEmailSender(emailProvider)

	gateway := paygreen.NewClient(cfg.PayGreenEnv, cfg.PayGreenSecretKey, observability.NewHTTPClient(30*time.Second))

	checkoutService := services.NewCheckoutService(gateway, orderStore, cfg.SiteURL, logger.With("component", "checkout_service"))
	refundService := services.NewRefundService(gateway, orderStore, logger.With("component", "refund_service"))
	paymentEvents := services.NewPaymentEventService(orderStore, orderEmailer, logger.With("component", "payment_events"))
	paymentRouter := handlers.NewPaymentEventRouter(paymentEvents, logger.With("component", "payment_router"))
	orderService := services.NewOrderService(orderStore, productStore, logger.With("component", "order_service"))
	catalogService := services.NewCatalogService(productStore, categoryStore, logger.With("component", "catalog_service"))
	authService := services.NewAuthService(userStore, cfg.JWTSecret, logger.With("component", "auth_service"))
	adminService := services.NewAdminService(orderStore, userStore, productStore, logger.With("component", "admin_service"))

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		CacheProvider:   cacheProvider,
		PaymentRouter:   paymentRouter,
		CheckoutService: checkoutService,
		RefundService:   refundService,
		OrderService:    orderService,
		CatalogService:  catalogService,
		AuthService:     authService,
		AdminService:    adminService,
		Logger:          logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: cfg.LogLevel,
	}))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
