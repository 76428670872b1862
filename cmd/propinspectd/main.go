package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/propinspect"
	"github.com/dukerupert/propinspect/deficiency"
	propinspecthttp "github.com/dukerupert/propinspect/http"
	"github.com/dukerupert/propinspect/internal/middleware"
	"github.com/dukerupert/propinspect/internal/migrations"
	"github.com/dukerupert/propinspect/internal/queue"
	"github.com/dukerupert/propinspect/postgres"
	"github.com/dukerupert/propinspect/update"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// A missing .env is fine; the environment may be set directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point for the application, designed for testability.
// It accepts all external dependencies (IO, args, env) as parameters and
// returns once ctx is cancelled.
func run(
	ctx context.Context,
	stdout, stderr io.Writer,
	args []string,
	getenv func(string) string,
) error {
	// Load configuration
	cfg, err := LoadConfig(getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Configure logger
	logger := newLogger(stderr, cfg)
	slog.SetDefault(logger)
	logger.Debug("application configuration",
		slog.String("environment", cfg.Environment),
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("deficiency_store", cfg.DeficiencyStore))

	table, err := loadEligibilityTable(cfg.EligibilityTablePath)
	if err != nil {
		return fmt.Errorf("loading eligibility table: %w", err)
	}

	// Create database connection pool
	pool, err := newDatabasePool(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}
	defer pool.Close()

	// Run migrations
	if err := runMigrations(pool, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	db := postgres.NewDB(pool, logger, update.NewEngine(table))

	services, err := initServices(ctx, db, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Error("closing services", slog.String("error", err.Error()))
		}
	}()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// Deficiency sync workers
	deriver := deficiency.NewDeriver(services.Deficiencies, services.ArchivedDeficiencies, table)
	deriver.Concurrency = cfg.DeriverConcurrency
	deriver.Recorder = metrics

	workers := queue.NewWorkerPool(services.Queue, logger, propinspect.QueueConfig{
		WorkerCount:     cfg.QueueWorkerCount,
		PollInterval:    cfg.QueuePollInterval,
		JobTimeout:      cfg.QueueJobTimeout,
		ShutdownTimeout: cfg.QueueShutdownTimeout,
	})
	workers.SetObserver(metrics)
	workers.RegisterHandler(propinspect.JobTypeDeficiencySync, propinspect.JobHandlerFunc(deriver.HandleJob))
	if err := workers.Start(ctx, []string{propinspect.QueueDefault}); err != nil {
		return fmt.Errorf("starting workers: %w", err)
	}
	defer func() {
		if err := workers.Stop(); err != nil {
			logger.Error("stopping workers", slog.String("error", err.Error()))
		}
	}()

	rateLimiter := middleware.NewRateLimiter(logger, middleware.RateLimitConfig{
		Rate:            cfg.RateLimitRPS,
		Burst:           cfg.RateLimitBurst,
		CleanupInterval: time.Hour,
		IdleTimeout:     time.Hour,
	})
	defer rateLimiter.Shutdown()

	// Create HTTP server
	server := propinspecthttp.NewServer(propinspecthttp.Config{
		Addr:              cfg.Addr(),
		Logger:            logger,
		InspectionService: services.InspectionService,
		TemplateService:   services.TemplateService,
		Deficiencies:      services.Deficiencies,
		DB:                db,
		Metrics:           metrics,
		Gatherer:          registry,
		RateLimiter:       rateLimiter,
	})
	if err := server.Open(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Close(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exited gracefully")
	return nil
}

// newLogger creates a configured slog.Logger based on environment.
func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("time", a.Value.Time().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// loadEligibilityTable reads the table override at path, or returns the
// built-in table when path is empty.
func loadEligibilityTable(path string) (propinspect.EligibilityTable, error) {
	if path == "" {
		return propinspect.DefaultEligibilityTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return propinspect.LoadEligibilityTable(f)
}

// newDatabasePool creates a configured pgxpool connection pool.
func newDatabasePool(ctx context.Context, cfg *Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	logger.Debug("connecting to database")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("database connection pool established")
	return pool, nil
}

// runMigrations runs database migrations using goose.
func runMigrations(pool *pgxpool.Pool, logger *slog.Logger) error {
	logger.Info("running database migrations...")

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database migrations completed")
	return nil
}
