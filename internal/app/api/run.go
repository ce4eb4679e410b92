package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	carthttp "github.com/storefront/backoffice/internal/domains/cart/adapters/http"
	cartmemory "github.com/storefront/backoffice/internal/domains/cart/adapters/memory"
	cartpostgres "github.com/storefront/backoffice/internal/domains/cart/adapters/persistence/postgres"
	cartports "github.com/storefront/backoffice/internal/domains/cart/ports"
	cataloghttp "github.com/storefront/backoffice/internal/domains/catalog/adapters/http"
	catalogmemory "github.com/storefront/backoffice/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/storefront/backoffice/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/storefront/backoffice/internal/domains/catalog/ports"
	ordershttp "github.com/storefront/backoffice/internal/domains/orders/adapters/http"
	ordersmemory "github.com/storefront/backoffice/internal/domains/orders/adapters/memory"
	ordersobs "github.com/storefront/backoffice/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/storefront/backoffice/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/storefront/backoffice/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/storefront/backoffice/internal/domains/orders/application"
	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
	"github.com/storefront/backoffice/internal/platform/migrations"
	platformobservability "github.com/storefront/backoffice/internal/platform/observability"
	platformpostgres "github.com/storefront/backoffice/internal/platform/postgres"
)

// Run boots the back-office HTTP API with observability, repositories, and workflows wired.
func Run(ctx context.Context) error {
	const serviceName = "backoffice-api"
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repos, cleanupRepos := buildRepositories(ctx, cfg, logger)
	defer cleanupRepos()

	coreService := ordersapp.NewService(repos.orders, repos.catalog, repos.carts)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var checkoutWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineCheckoutWorkflows(orderService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		checkoutWorkflows = ordersworkflows.NewTemporalCheckoutWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	ordershttp.NewHandler(orderService, checkoutWorkflows).RegisterRoutes(router)
	cataloghttp.NewHandler(repos.catalog).RegisterRoutes(router)
	carthttp.NewHandler(repos.carts).RegisterRoutes(router)

	addr := ":" + cfg.Port
	logger.Info("back-office API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("back-office API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type repositories struct {
	catalog catalogports.Repository
	carts   cartports.Repository
	orders  ordersports.Repository
}

func buildRepositories(ctx context.Context, cfg Config, logger *slog.Logger) (repositories, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return memoryRepositories(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return memoryRepositories(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return memoryRepositories(), func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return memoryRepositories(), func() {}
	}
	logger.Info("repositories configured with postgres")
	return repositories{
		catalog: catalogpostgres.NewRepository(db),
		carts:   cartpostgres.NewRepository(db),
		orders:  orderspostgres.NewRepository(db),
	}, func() { _ = sqlDB.Close() }
}

func memoryRepositories() repositories {
	catalogRepo := catalogmemory.NewRepository()
	cartRepo := cartmemory.NewRepository()
	return repositories{
		catalog: catalogRepo,
		carts:   cartRepo,
		orders:  ordersmemory.NewRepository(catalogRepo, catalogRepo, cartRepo),
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := workerlog.NewStructuredLogger(effectiveLogger(instruments))
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    logger,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
