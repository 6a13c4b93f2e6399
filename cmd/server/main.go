// Package main runs the analytics service: periodic snapshot refresh, the JSON
// API, the live websocket feed and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/analytics"
	"trade-journal/internal/cache"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/live"
	"trade-journal/internal/logging"
	"trade-journal/internal/tracing"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	shutdownTracing, err := tracing.Init(cfg.Tracing.Enabled, os.Stderr)
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	backend, err := journal.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage backend", zap.Error(err))
	}
	defer backend.Close()

	loc, _ := cfg.Location() // validated above

	service, snapshotCache, hub := buildService(cfg, backend, loc, logger)
	if snapshotCache != nil {
		defer snapshotCache.Close()
	}

	server := NewServer(service, hub, backend.Name, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.Stringer("signal", sig))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Serve HTTP and run the refresh loop until cancelled
	err = serve(ctx, cancel, httpServer, logger, func(ctx context.Context) error {
		return service.Run(ctx, cfg.Analytics.RefreshInterval)
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if hub != nil {
		hub.Close()
	}
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("HTTP server shutdown", zap.Error(serr))
	}
	if serr := shutdownTracing(shutdownCtx); serr != nil {
		logger.Warn("tracing shutdown", zap.Error(serr))
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// loadConfig reads the config file and environment, applies explicitly set
// flags on top, then validates the result.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	addr := fs.String("addr", "", "HTTP listen address")
	useMemory := fs.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	postgresDSN := fs.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := fs.String("clickhouse-dsn", "", "ClickHouse connection string for snapshot history")
	redisAddr := fs.String("redis-addr", "", "Redis address for the snapshot cache")
	fixtures := fs.String("fixtures", "", "JSON fixture file to seed the journal stores")
	refreshInterval := fs.Duration("refresh-interval", 0, "Snapshot refresh interval")
	timezone := fs.String("timezone", "", "IANA timezone for calendar bucketing")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "postgres-dsn":
			cfg.Storage.PostgresDSN = *postgresDSN
			cfg.Storage.Backend = config.BackendPostgres
		case "clickhouse-dsn":
			cfg.Storage.ClickhouseDSN = *clickhouseDSN
		case "redis-addr":
			cfg.Redis.Addr = *redisAddr
		case "fixtures":
			cfg.Fixtures = *fixtures
		case "refresh-interval":
			cfg.Analytics.RefreshInterval = *refreshInterval
		case "timezone":
			cfg.Analytics.Timezone = *timezone
		}
	})
	if *useMemory {
		cfg.Storage.Backend = config.BackendMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serve starts httpServer and blocks in run. A listen failure cancels ctx
// and is returned in place of run's error.
func serve(ctx context.Context, cancel context.CancelFunc, httpServer *http.Server, logger *zap.Logger, run func(context.Context) error) error {
	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
			listenErr <- fmt.Errorf("http server: %w", err)
			cancel()
		}
	}()

	err := run(ctx)

	select {
	case lerr := <-listenErr:
		return lerr
	default:
		return err
	}
}

// buildService wires the engine, cache and live hub around the backend.
func buildService(cfg *config.Config, backend *journal.Backend, loc *time.Location, logger *zap.Logger) (*journal.Service, *cache.SnapshotCache, *live.Hub) {
	hub := live.NewHub(nil, logger.Named("live"))

	opts := journal.ServiceOptions{
		Loader:      journal.NewLoaderFor(backend, cfg.Analytics.FetchTimeout, logger.Named("loader")),
		Engine:      analytics.NewEngine(analytics.WithLocation(loc)),
		History:     backend.History,
		Broadcaster: hub,
		Logger:      logger.Named("journal"),
	}

	var snapshotCache *cache.SnapshotCache
	if cfg.Redis.Addr != "" {
		snapshotCache = cache.New(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
			Logger:   logger.Named("cache"),
		})
		opts.Cache = snapshotCache
	}

	return journal.NewService(opts), snapshotCache, hub
}
