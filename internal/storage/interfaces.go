package storage

import (
	"context"

	"trade-journal/internal/domain"
)

// TradeStore provides access to journal trades.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// List retrieves all trades ordered by exit date ASC (trades without one last), trade_id ASC.
	List(ctx context.Context) ([]*domain.TradeRecord, error)
}

// PartialExitStore provides access to partial exits.
type PartialExitStore interface {
	// InsertBulk adds multiple partial exits atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, exits []*domain.PartialExit) error

	// GetByTradeID retrieves the partial exits of one trade, ordered by exit date ASC.
	GetByTradeID(ctx context.Context, tradeID string) ([]*domain.PartialExit, error)

	// List retrieves all partial exits ordered by exit date ASC.
	List(ctx context.Context) ([]*domain.PartialExit, error)

	// Summary returns the total realized P&L over all partial exits.
	Summary(ctx context.Context) (*domain.PartialExitSummary, error)
}

// AggregateSource provides precomputed backend aggregates.
// Both methods return ErrNotFound when no aggregate is available.
type AggregateSource interface {
	// PerformanceMetrics returns the portfolio-wide aggregate.
	PerformanceMetrics(ctx context.Context) (*domain.PerformanceMetrics, error)

	// SetupMetrics returns per-setup-type aggregates.
	SetupMetrics(ctx context.Context) ([]domain.SetupMetric, error)
}

// SnapshotStore provides access to the snapshot history.
type SnapshotStore interface {
	// Insert adds a snapshot record. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, r *domain.SnapshotRecord) error

	// GetLatest retrieves the most recently computed snapshot. Returns ErrNotFound if empty.
	GetLatest(ctx context.Context) (*domain.SnapshotRecord, error)

	// GetByTimeRange retrieves snapshot headers computed within [start, end] (inclusive),
	// ordered by computed_at ASC. Only the win/loss and P&L summaries are loaded.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SnapshotRecord, error)
}
