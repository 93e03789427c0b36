package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cache "github.com/SscSPs/course_billing_engine/internal/adapters/cache/redis"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/core/services"
	"github.com/SscSPs/course_billing_engine/internal/handlers"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/SscSPs/course_billing_engine/internal/platform/metrics"
	"github.com/SscSPs/course_billing_engine/internal/repositories/database/memory"
	"github.com/SscSPs/course_billing_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/course_billing_engine/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	container := services.NewServiceContainer(cfg, repos, metrics.NewRecorder(registry))

	go runOverdueSweep(ctx, container.Installment, cfg.OverdueSweepInterval, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, registry)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRepositories connects Postgres (running migrations) and the optional Redis
// price cache. Without PGSQL_URL the in-memory store is used.
func buildRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("Using the in-memory store; data is lost on restart")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, "file://migrations", logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}

	var redisClient *cache.Client
	var priceCache func(portsrepo.CoursePriceRepositoryFacade) portsrepo.CoursePriceRepositoryFacade
	if cfg.RedisAddr != "" {
		redisClient = cache.NewClient(cfg.RedisAddr)
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable, price cache will fall through to the database", slog.String("error", err.Error()))
		}
		priceCache = func(next portsrepo.CoursePriceRepositoryFacade) portsrepo.CoursePriceRepositoryFacade {
			return cache.NewCoursePriceCache(next, redisClient, cfg.PriceCacheTTL, logger)
		}
	}

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("Error closing redis client", slog.String("error", err.Error()))
			}
		}
		database.ClosePgxPool(dbPool)
	}
	return pgsql.NewRepositoryProvider(dbPool, priceCache), cleanup, nil
}

// runOverdueSweep periodically moves past-due pending installments to overdue.
func runOverdueSweep(ctx context.Context, installments portssvc.InstallmentStatusSvc, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		logger.Info("Overdue sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := installments.UpdateAllOverdue(ctx, time.Time{})
			if err != nil {
				logger.Error("Overdue sweep failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("Overdue sweep finished", slog.Int64("changed", changed))
		}
	}
}
