package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	cartmemory "github.com/storefront/backoffice/internal/domains/cart/adapters/memory"
	cartpostgres "github.com/storefront/backoffice/internal/domains/cart/adapters/persistence/postgres"
	cartports "github.com/storefront/backoffice/internal/domains/cart/ports"
	catalogmemory "github.com/storefront/backoffice/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/storefront/backoffice/internal/domains/catalog/adapters/persistence/postgres"
	catalogports "github.com/storefront/backoffice/internal/domains/catalog/ports"
	ordersmemory "github.com/storefront/backoffice/internal/domains/orders/adapters/memory"
	ordersobs "github.com/storefront/backoffice/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/storefront/backoffice/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/storefront/backoffice/internal/domains/orders/application"
	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
	"github.com/storefront/backoffice/internal/platform/migrations"
	platformobservability "github.com/storefront/backoffice/internal/platform/observability"
	platformpostgres "github.com/storefront/backoffice/internal/platform/postgres"
	orderactivities "github.com/storefront/backoffice/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/storefront/backoffice/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "backoffice-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repos, cleanupRepos := buildRepositories(ctx, logger)
	defer cleanupRepos()
	coreService := ordersapp.NewService(repos.orders, repos.catalog, repos.carts)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	orderActivities := orderactivities.NewActivities(orderService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: orderworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.Checkout, activity.RegisterOptions{Name: orderactivities.CheckoutActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.CheckoutTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

type repositories struct {
	catalog catalogports.Repository
	carts   cartports.Repository
	orders  ordersports.Repository
}

func buildRepositories(ctx context.Context, logger *slog.Logger) (repositories, func()) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return memoryRepositories(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres (falling back to memory)", slog.String("error", err.Error()))
		return memoryRepositories(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection (falling back to memory)", slog.String("error", err.Error()))
		return memoryRepositories(), func() {}
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations (falling back to memory)", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return memoryRepositories(), func() {}
	}
	logger.Info("worker repositories configured with postgres")
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

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
