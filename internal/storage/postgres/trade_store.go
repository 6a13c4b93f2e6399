package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		trade_id, symbol, status, entry_date, exit_date,
		realized_pnl, total_realized_pnl, realized_pnl_percentage, position_value,
		strategy, setup_type
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11
	)
`

const selectTradeColumns = `
	SELECT
		trade_id, symbol, status, entry_date, exit_date,
		realized_pnl, total_realized_pnl, realized_pnl_percentage, position_value,
		strategy, setup_type
	FROM trades
`

func tradeArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.Symbol, t.Status, t.EntryDate, t.ExitDate,
		t.RealizedPnL, t.TotalRealizedPnL, t.RealizedPnLPct, t.PositionValue,
		t.Strategy, t.SetupType,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) (err error) {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { record("trade_insert", start, err) }()

	if _, err = s.pool.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) (err error) {
	if len(trades) == 0 {
		return nil
	}
	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { record("trade_insert_bulk", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if _, err := tx.Exec(ctx, insertTradeQuery, tradeArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	row := s.pool.QueryRow(ctx, selectTradeColumns+` WHERE trade_id = $1`, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// List retrieves all trades ordered by exit date ASC (trades without one last), trade_id ASC.
func (s *TradeStore) List(ctx context.Context) (trades []*domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { record("trade_list", start, err) }()

	rows, err := s.pool.Query(ctx, selectTradeColumns+` ORDER BY exit_date ASC NULLS LAST, trade_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}

// scanTrade scans a single row into a TradeRecord.
func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord

	err := row.Scan(
		&t.TradeID, &t.Symbol, &t.Status, &t.EntryDate, &t.ExitDate,
		&t.RealizedPnL, &t.TotalRealizedPnL, &t.RealizedPnLPct, &t.PositionValue,
		&t.Strategy, &t.SetupType,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
