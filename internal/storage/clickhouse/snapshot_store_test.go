package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

func sampleRecord(id string, at time.Time) *domain.SnapshotRecord {
	snap := domain.EmptySnapshot()
	snap.Daily = []domain.Bucket{{Label: "2024-01-05", Value: 100}, {Label: "2024-01-09", Value: -40}}
	snap.Weekly = []domain.Bucket{{Label: "Week 1", Value: 100}, {Label: "Week 2", Value: -40}}
	snap.Monthly = []domain.Bucket{{Label: "Jan", Value: 60}}
	snap.YearToDate = []domain.Bucket{{Label: "Jan 2024", Value: 60}}
	snap.AllTime = []domain.Bucket{{Label: "2024", Value: 60}}
	snap.WinLoss = domain.WinLossSummary{WinCount: 1, LossCount: 1, WinRate: 0.5}
	snap.ProfitLoss = domain.ProfitLossSummary{
		TotalProfit: 100, TotalLoss: 40, NetProfitLoss: 60, AverageProfit: 100, AverageLoss: 40,
	}
	snap.ByStrategy = []domain.CategoryStat{
		{Name: "Breakout", TradeCount: 2, WinRate: 0.5, AverageReturnPercent: 1.5},
	}
	snap.BySetup = []domain.CategoryStat{
		{Name: "Gap Up", TradeCount: 1, WinRate: 1, AverageReturnPercent: 4},
	}
	return &domain.SnapshotRecord{
		SnapshotID:       id,
		ComputedAt:       at,
		TradeCount:       3,
		PartialExitCount: 1,
		Snapshot:         snap,
	}
}

func TestSnapshotStore_InsertAndGetLatest(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, sampleRecord("older", base)))
	want := sampleRecord("newer", base.Add(time.Minute))
	require.NoError(t, store.Insert(ctx, want))

	got, err := store.GetLatest(ctx)
	require.NoError(t, err)

	assert.Equal(t, "newer", got.SnapshotID)
	assert.True(t, want.ComputedAt.Equal(got.ComputedAt))
	assert.Equal(t, 3, got.TradeCount)
	assert.Equal(t, 1, got.PartialExitCount)
	assert.Equal(t, want.Snapshot, got.Snapshot)
}

func TestSnapshotStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	rec := sampleRecord("dup", time.Now())
	require.NoError(t, store.Insert(ctx, rec))
	assert.ErrorIs(t, store.Insert(ctx, rec), storage.ErrDuplicateKey)
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(conn)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Insert(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Hour))))
	}

	got, err := store.GetByTimeRange(ctx, base.Add(time.Hour).UnixMilli(), base.Add(2*time.Hour).UnixMilli())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "b", got[0].SnapshotID)
	assert.Equal(t, "c", got[1].SnapshotID)
	assert.Equal(t, 60.0, got[0].Snapshot.ProfitLoss.NetProfitLoss)
	assert.Empty(t, got[0].Snapshot.Daily)
}
