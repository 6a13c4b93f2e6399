package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trade-journal/internal/config"
	"trade-journal/internal/storage"
	chstore "trade-journal/internal/storage/clickhouse"
	"trade-journal/internal/storage/memory"
	"trade-journal/internal/storage/migrations"
	pgstore "trade-journal/internal/storage/postgres"
)

// Backend holds the stores selected by configuration.
type Backend struct {
	Trades       storage.TradeStore
	PartialExits storage.PartialExitStore
	Aggregates   storage.AggregateSource
	History      storage.SnapshotStore

	// Name describes the journal and history stores, e.g. "postgres+clickhouse".
	Name string

	cleanup []func()
}

// Close releases every connection held by the backend.
func (b *Backend) Close() {
	for i := len(b.cleanup) - 1; i >= 0; i-- {
		b.cleanup[i]()
	}
	b.cleanup = nil
}

// OpenBackend connects the stores named by cfg, runs migrations and seeds
// fixtures when cfg.Fixtures is set.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backend{}
	var setter AggregateSetter

	if cfg.UseMemory() {
		aggs := memory.NewAggregateStore()
		b.Trades = memory.NewTradeStore()
		b.PartialExits = memory.NewPartialExitStore()
		b.Aggregates = aggs
		b.Name = config.BackendMemory
		setter = aggs
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.cleanup = append(b.cleanup, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info("postgres migrations applied", zap.Strings("files", applied))

		b.Trades = pgstore.NewTradeStore(pool)
		b.PartialExits = pgstore.NewPartialExitStore(pool)
		b.Aggregates = pgstore.NewAggregateStore(pool)
		b.Name = config.BackendPostgres
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		b.cleanup = append(b.cleanup, func() { conn.Close() })
		b.History = chstore.NewSnapshotStore(conn)
		b.Name += "+clickhouse"
	} else {
		b.History = memory.NewSnapshotStore()
	}

	if cfg.Fixtures != "" {
		if err := b.seed(ctx, cfg, setter, logger); err != nil {
			b.Close()
			return nil, err
		}
	}

	return b, nil
}

func (b *Backend) seed(ctx context.Context, cfg *config.Config, setter AggregateSetter, logger *zap.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	f, err := LoadFixturesFile(cfg.Fixtures, loc)
	if err != nil {
		return err
	}

	if setter == nil && (f.PerformanceMetrics != nil || len(f.SetupMetrics) > 0) {
		logger.Info("fixture aggregates ignored; postgres derives them from trades")
	}

	err = f.Seed(ctx, b.Trades, b.PartialExits, setter)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Fixtures already present from an earlier run.
		logger.Warn("fixtures already seeded", zap.String("path", cfg.Fixtures), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("fixtures seeded",
		zap.String("path", cfg.Fixtures),
		zap.Int("trades", len(f.Trades)),
		zap.Int("partial_exits", len(f.PartialExits)),
	)
	return nil
}

// NewLoaderFor creates a loader over b using the configured fetch timeout.
func NewLoaderFor(b *Backend, timeout time.Duration, logger *zap.Logger) *Loader {
	return NewLoader(LoaderOptions{
		TradeStore:       b.Trades,
		PartialExitStore: b.PartialExits,
		AggregateSource:  b.Aggregates,
		FetchTimeout:     timeout,
		Logger:           logger,
	})
}
