package postgres

import (
	"context"
	"fmt"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// AggregateStore implements storage.AggregateSource with SQL aggregates over
// the trades table. Only closed trades with a finite realized P&L count.
type AggregateStore struct {
	pool *Pool
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(pool *Pool) *AggregateStore {
	return &AggregateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AggregateSource = (*AggregateStore)(nil)

// finitePnL filters rows by a finite pnl expression. Postgres orders NaN above
// every number, so it must be excluded explicitly.
const finitePnL = `%[1]s IS NOT NULL
	AND %[1]s <> 'NaN'::float8
	AND %[1]s <> 'Infinity'::float8
	AND %[1]s <> '-Infinity'::float8`

// PerformanceMetrics returns the portfolio-wide aggregate.
// Returns ErrNotFound when there are no closed trades.
func (s *AggregateStore) PerformanceMetrics(ctx context.Context) (m *domain.PerformanceMetrics, err error) {
	start := time.Now()
	defer func() { record("aggregate_performance", start, err) }()

	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE realized_pnl > 0),
			COUNT(*) FILTER (WHERE realized_pnl <= 0),
			COALESCE(SUM(realized_pnl) FILTER (WHERE realized_pnl > 0), 0),
			COALESCE(SUM(realized_pnl) FILTER (WHERE realized_pnl <= 0), 0),
			COALESCE(AVG(realized_pnl) FILTER (WHERE realized_pnl > 0), 0),
			COALESCE(AVG(realized_pnl) FILTER (WHERE realized_pnl <= 0), 0)
		FROM trades
		WHERE lower(btrim(status)) = 'closed'
			AND exit_date IS NOT NULL
			AND %s
	`, fmt.Sprintf(finitePnL, "realized_pnl"))

	m = &domain.PerformanceMetrics{}
	err = s.pool.QueryRow(ctx, query).Scan(
		&m.WinningTrades, &m.LosingTrades,
		&m.TotalProfit, &m.TotalLoss,
		&m.AverageProfit, &m.AverageLoss,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate performance metrics: %w", err)
	}

	total := m.WinningTrades + m.LosingTrades
	if total == 0 {
		return nil, storage.ErrNotFound
	}
	m.WinRate = 100 * float64(m.WinningTrades) / float64(total)
	m.TotalProfitLoss = m.TotalProfit + m.TotalLoss

	return m, nil
}

// SetupMetrics returns per-setup-type aggregates grouped case-insensitively.
// Returns ErrNotFound when no closed trade carries a setup type.
func (s *AggregateStore) SetupMetrics(ctx context.Context) (setups []domain.SetupMetric, err error) {
	start := time.Now()
	defer func() { record("aggregate_setup", start, err) }()

	query := fmt.Sprintf(`
		SELECT
			MIN(label COLLATE "C"),
			COUNT(*),
			COUNT(*) FILTER (WHERE pnl > 0),
			COALESCE(AVG(pnl), 0)
		FROM (
			SELECT btrim(setup_type) AS label,
				CASE WHEN %s
					THEN total_realized_pnl
					ELSE realized_pnl
				END AS pnl
			FROM trades
			WHERE lower(btrim(status)) = 'closed'
				AND btrim(setup_type) <> ''
		) t
		WHERE %s
		GROUP BY lower(label)
		ORDER BY MIN(label COLLATE "C") ASC
	`, fmt.Sprintf(finitePnL, "total_realized_pnl"), fmt.Sprintf(finitePnL, "pnl"))

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("aggregate setup metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			sm   domain.SetupMetric
			wins int
		)
		if err := rows.Scan(&sm.SetupType, &sm.TradeCount, &wins, &sm.AverageProfitLoss); err != nil {
			return nil, fmt.Errorf("scan setup metric row: %w", err)
		}
		if sm.TradeCount > 0 {
			sm.WinRate = 100 * float64(wins) / float64(sm.TradeCount)
		}
		setups = append(setups, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate setup metric rows: %w", err)
	}

	if len(setups) == 0 {
		return nil, storage.ErrNotFound
	}
	return setups, nil
}
