package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/shareit-backend/internal/app"
	"github.com/nekogravitycat/shareit-backend/internal/config"
	"github.com/nekogravitycat/shareit-backend/internal/db"
	"github.com/nekogravitycat/shareit-backend/internal/logging"
	"github.com/nekogravitycat/shareit-backend/internal/metrics"
	"github.com/nekogravitycat/shareit-backend/internal/ratelimit"
)

// newLogger is swapped in tests to observe the log file being closed.
var newLogger = logging.New

func main() {
	os.Exit(start())
}

// start returns the process exit code. Deferred cleanup, including the log
// file, runs before main exits.
func start() int {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, closer, err := newLogger(cfg.Logging, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	logger.Info().Msg("server exited gracefully")
	return 0
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// Connect DB
	var pool *pgxpool.Pool
	if cfg.Storage == config.StoragePostgres {
		var err error
		pool, err = db.NewPool(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("failed to migrate db: %w", err)
			}
			logger.Info().Msg("database schema applied")
		}
	}

	limiter, cleanup := newLimiter(ctx, cfg, logger)
	defer cleanup()

	container := app.NewContainer(app.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		Storage:      cfg.Storage,
		DBPool:       pool,
		Logger:       logger,
		Limiter:      limiter,
	})

	// Use http.Server for graceful shutdown
	servers := []*http.Server{{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: mux})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage).Msg("server running")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	// Wait for Ctrl+C or a listener failure
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("addr", srv.Addr).Msg("server forced to shutdown")
		}
	}

	return runErr
}

// newLimiter builds the configured rate limiter. A nil limiter disables limiting.
func newLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (ratelimit.Limiter, func()) {
	noop := func() {}
	if cfg.RateLimit.Requests == 0 {
		return nil, noop
	}

	memory := ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	if cfg.Redis.Address == "" {
		return memory, noop
	}

	client := ratelimit.NewRedisClient(cfg.Redis)
	if err := ratelimit.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable at startup, rate limits start in memory")
	}

	redisLimiter := ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	limiter := ratelimit.NewFailoverLimiter(redisLimiter, memory, logger)
	return limiter, func() { _ = client.Close() }
}
