package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// Bucket series stored in performance_buckets.
const (
	seriesDaily    = "daily"
	seriesWeekly   = "weekly"
	seriesMonthly  = "monthly"
	seriesYTD      = "ytd"
	seriesAllTime  = "all_time"
	seriesStrategy = "strategy"
	seriesSetup    = "setup"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a snapshot record. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(ctx context.Context, r *domain.SnapshotRecord) (err error) {
	if r == nil || r.SnapshotID == "" || r.Snapshot == nil {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { record("snapshot_insert", start, err) }()

	// ReplacingMergeTree would silently replace; history is append-only
	exists, err := s.exists(ctx, r.SnapshotID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	snap := r.Snapshot
	err = s.conn.Exec(ctx, `
		INSERT INTO performance_snapshots (
			snapshot_id, computed_at, trade_count, partial_exit_count,
			win_count, loss_count, win_rate,
			total_profit, total_loss, net_profit_loss, average_profit, average_loss
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?
		)
	`,
		r.SnapshotID, r.ComputedAt.UnixMilli(), int32(r.TradeCount), int32(r.PartialExitCount),
		int32(snap.WinLoss.WinCount), int32(snap.WinLoss.LossCount), snap.WinLoss.WinRate,
		snap.ProfitLoss.TotalProfit, snap.ProfitLoss.TotalLoss, snap.ProfitLoss.NetProfitLoss,
		snap.ProfitLoss.AverageProfit, snap.ProfitLoss.AverageLoss,
	)
	if err != nil {
		return fmt.Errorf("insert performance snapshot: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO performance_buckets (
			snapshot_id, series, position, label, value,
			trade_count, win_rate, average_return_percent
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	appendBuckets := func(series string, buckets []domain.Bucket) error {
		for i, b := range buckets {
			if err := batch.Append(r.SnapshotID, series, int32(i), b.Label, b.Value, int32(0), 0.0, 0.0); err != nil {
				return err
			}
		}
		return nil
	}
	appendStats := func(series string, stats []domain.CategoryStat) error {
		for i, c := range stats {
			if err := batch.Append(r.SnapshotID, series, int32(i), c.Name, 0.0,
				int32(c.TradeCount), c.WinRate, c.AverageReturnPercent); err != nil {
				return err
			}
		}
		return nil
	}

	for _, step := range []func() error{
		func() error { return appendBuckets(seriesDaily, snap.Daily) },
		func() error { return appendBuckets(seriesWeekly, snap.Weekly) },
		func() error { return appendBuckets(seriesMonthly, snap.Monthly) },
		func() error { return appendBuckets(seriesYTD, snap.YearToDate) },
		func() error { return appendBuckets(seriesAllTime, snap.AllTime) },
		func() error { return appendStats(seriesStrategy, snap.ByStrategy) },
		func() error { return appendStats(seriesSetup, snap.BySetup) },
	} {
		if err := step(); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recently computed snapshot. Returns ErrNotFound if empty.
func (s *SnapshotStore) GetLatest(ctx context.Context) (rec *domain.SnapshotRecord, err error) {
	start := time.Now()
	defer func() { record("snapshot_latest", start, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT
			snapshot_id, computed_at, trade_count, partial_exit_count,
			win_count, loss_count, win_rate,
			total_profit, total_loss, net_profit_loss, average_profit, average_loss
		FROM performance_snapshots FINAL
		ORDER BY computed_at DESC, snapshot_id DESC
		LIMIT 1
	`)

	rec, err = scanSnapshotHeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	if err := s.loadBuckets(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByTimeRange retrieves snapshot headers computed within [start, end] (inclusive),
// ordered by computed_at ASC. Only the win/loss and P&L summaries are loaded.
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, start, end int64) (recs []*domain.SnapshotRecord, err error) {
	began := time.Now()
	defer func() { record("snapshot_range", began, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT
			snapshot_id, computed_at, trade_count, partial_exit_count,
			win_count, loss_count, win_rate,
			total_profit, total_loss, net_profit_loss, average_profit, average_loss
		FROM performance_snapshots FINAL
		WHERE computed_at >= ? AND computed_at <= ?
		ORDER BY computed_at ASC, snapshot_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanSnapshotHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return recs, nil
}

func (s *SnapshotStore) loadBuckets(ctx context.Context, rec *domain.SnapshotRecord) error {
	rows, err := s.conn.Query(ctx, `
		SELECT series, label, value, trade_count, win_rate, average_return_percent
		FROM performance_buckets FINAL
		WHERE snapshot_id = ?
		ORDER BY series ASC, position ASC
	`, rec.SnapshotID)
	if err != nil {
		return fmt.Errorf("query snapshot buckets: %w", err)
	}
	defer rows.Close()

	snap := rec.Snapshot
	for rows.Next() {
		var (
			series, label          string
			value, winRate, avgRet float64
			tradeCount             int32
		)
		if err := rows.Scan(&series, &label, &value, &tradeCount, &winRate, &avgRet); err != nil {
			return fmt.Errorf("scan snapshot bucket: %w", err)
		}

		bucket := domain.Bucket{Label: label, Value: value}
		stat := domain.CategoryStat{
			Name:                 label,
			TradeCount:           int(tradeCount),
			WinRate:              winRate,
			AverageReturnPercent: avgRet,
		}
		switch series {
		case seriesDaily:
			snap.Daily = append(snap.Daily, bucket)
		case seriesWeekly:
			snap.Weekly = append(snap.Weekly, bucket)
		case seriesMonthly:
			snap.Monthly = append(snap.Monthly, bucket)
		case seriesYTD:
			snap.YearToDate = append(snap.YearToDate, bucket)
		case seriesAllTime:
			snap.AllTime = append(snap.AllTime, bucket)
		case seriesStrategy:
			snap.ByStrategy = append(snap.ByStrategy, stat)
		case seriesSetup:
			snap.BySetup = append(snap.BySetup, stat)
		}
	}
	return rows.Err()
}

// rowScanner is satisfied by driver.Row and driver.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshotHeader(row rowScanner) (*domain.SnapshotRecord, error) {
	var (
		id                                   string
		computedAt                           int64
		tradeCount, partialCount, wins, loss int32
	)
	snap := domain.EmptySnapshot()
	err := row.Scan(
		&id, &computedAt, &tradeCount, &partialCount,
		&wins, &loss, &snap.WinLoss.WinRate,
		&snap.ProfitLoss.TotalProfit, &snap.ProfitLoss.TotalLoss, &snap.ProfitLoss.NetProfitLoss,
		&snap.ProfitLoss.AverageProfit, &snap.ProfitLoss.AverageLoss,
	)
	if err != nil {
		return nil, err
	}
	snap.WinLoss.WinCount = int(wins)
	snap.WinLoss.LossCount = int(loss)

	return &domain.SnapshotRecord{
		SnapshotID:       id,
		ComputedAt:       time.UnixMilli(computedAt).UTC(),
		TradeCount:       int(tradeCount),
		PartialExitCount: int(partialCount),
		Snapshot:         snap,
	}, nil
}

func (s *SnapshotStore) exists(ctx context.Context, snapshotID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM performance_snapshots WHERE snapshot_id = ?`, snapshotID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
