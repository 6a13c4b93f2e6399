package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// PartialExitStore implements storage.PartialExitStore using PostgreSQL.
type PartialExitStore struct {
	pool *Pool
}

// NewPartialExitStore creates a new PartialExitStore.
func NewPartialExitStore(pool *Pool) *PartialExitStore {
	return &PartialExitStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PartialExitStore = (*PartialExitStore)(nil)

// InsertBulk adds multiple partial exits atomically. Fails entire batch on any duplicate.
func (s *PartialExitStore) InsertBulk(ctx context.Context, exits []*domain.PartialExit) (err error) {
	if len(exits) == 0 {
		return nil
	}
	for _, p := range exits {
		if p == nil || p.PartialExitID == "" || p.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { record("partial_exit_insert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO partial_exits (partial_exit_id, trade_id, exit_date, realized_pnl)
		VALUES ($1, $2, $3, $4)
	`

	for _, p := range exits {
		if _, err := tx.Exec(ctx, query, p.PartialExitID, p.TradeID, p.ExitDate, p.RealizedPnL); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert partial exit in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByTradeID retrieves the partial exits of one trade, ordered by exit date ASC.
func (s *PartialExitStore) GetByTradeID(ctx context.Context, tradeID string) ([]*domain.PartialExit, error) {
	query := `
		SELECT partial_exit_id, trade_id, exit_date, realized_pnl
		FROM partial_exits
		WHERE trade_id = $1
		ORDER BY exit_date ASC NULLS LAST, partial_exit_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get partial exits by trade id: %w", err)
	}
	defer rows.Close()

	return scanPartialExits(rows)
}

// List retrieves all partial exits ordered by exit date ASC.
func (s *PartialExitStore) List(ctx context.Context) (exits []*domain.PartialExit, err error) {
	start := time.Now()
	defer func() { record("partial_exit_list", start, err) }()

	query := `
		SELECT partial_exit_id, trade_id, exit_date, realized_pnl
		FROM partial_exits
		ORDER BY exit_date ASC NULLS LAST, partial_exit_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list partial exits: %w", err)
	}
	defer rows.Close()

	return scanPartialExits(rows)
}

// Summary returns the total realized P&L over all partial exits.
// Exits without a finite realized P&L are skipped.
func (s *PartialExitStore) Summary(ctx context.Context) (summary *domain.PartialExitSummary, err error) {
	start := time.Now()
	defer func() { record("partial_exit_summary", start, err) }()

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(realized_pnl), 0), COUNT(*)
		FROM partial_exits
		WHERE %s
	`, fmt.Sprintf(finitePnL, "realized_pnl"))

	summary = &domain.PartialExitSummary{}
	if err := s.pool.QueryRow(ctx, query).Scan(&summary.TotalRealizedPnL, &summary.Count); err != nil {
		return nil, fmt.Errorf("summarize partial exits: %w", err)
	}
	return summary, nil
}

// scanPartialExits scans multiple rows into a slice of PartialExit.
func scanPartialExits(rows pgx.Rows) ([]*domain.PartialExit, error) {
	var exits []*domain.PartialExit

	for rows.Next() {
		var p domain.PartialExit
		if err := rows.Scan(&p.PartialExitID, &p.TradeID, &p.ExitDate, &p.RealizedPnL); err != nil {
			return nil, fmt.Errorf("scan partial exit row: %w", err)
		}
		exits = append(exits, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partial exit rows: %w", err)
	}

	return exits, nil
}
