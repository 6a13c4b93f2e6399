package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/cache"
	"trade-journal/internal/domain"
	"trade-journal/internal/live"
	"trade-journal/internal/storage"
	"trade-journal/internal/storage/memory"
)

var (
	_ SnapshotCache = (*cache.SnapshotCache)(nil)
	_ Broadcaster   = (*live.Hub)(nil)
)

func newTestService(t *testing.T, opts ServiceOptions) *Service {
	t.Helper()
	if opts.Loader == nil {
		trades, exits, aggs := seededStores(t)
		opts.Loader = NewLoader(LoaderOptions{TradeStore: trades, PartialExitStore: exits, AggregateSource: aggs})
	}
	if opts.Engine == nil {
		opts.Engine = analytics.NewEngine(analytics.WithClock(fixedClock), analytics.WithLocation(time.UTC))
	}
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	return NewService(opts)
}

func TestService_LatestBeforeRefresh(t *testing.T) {
	svc := newTestService(t, ServiceOptions{})

	res := svc.Latest()
	snap := res.Snapshot()
	require.NotNil(t, snap)
	assert.NotNil(t, snap.Daily)
	assert.NotNil(t, snap.BySetup)
	assert.Zero(t, snap.ProfitLoss.NetProfitLoss)
	assert.Equal(t, 0, svc.Status().RefreshCount)
}

func TestService_ForceRefreshComputesAndPublishes(t *testing.T) {
	history := memory.NewSnapshotStore()
	c := &fakeCache{}
	b := &recordingBroadcaster{}
	svc := newTestService(t, ServiceOptions{History: history, Cache: c, Broadcaster: b})

	res := svc.ForceRefresh(context.Background(), OriginManual)

	require.NotNil(t, res.Record)
	assert.NotEmpty(t, res.Record.SnapshotID)
	assert.Equal(t, 2, res.Record.TradeCount)
	assert.Equal(t, 1, res.Record.PartialExitCount)
	assert.False(t, res.FromCache)
	require.NotNil(t, res.Report)

	snap := res.Snapshot()
	// 100 - 40 from trades, +25 partial exit correction applied once
	assert.InDelta(t, 85.0, snap.ProfitLoss.NetProfitLoss, 1e-9)
	assert.Equal(t, 1, snap.WinLoss.WinCount)
	assert.Equal(t, 1, snap.WinLoss.LossCount)
	require.Len(t, snap.BySetup, 1)
	assert.Equal(t, "Flag", snap.BySetup[0].Name)

	stored, err := history.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.Record.SnapshotID, stored.SnapshotID)

	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 1, b.count())
	assert.Same(t, res, svc.Latest())
	assert.Equal(t, 1, svc.Status().RefreshCount)
}

func TestService_RefreshServesFromCache(t *testing.T) {
	cached := &domain.SnapshotRecord{SnapshotID: "cached", ComputedAt: fixedClock(), Snapshot: domain.EmptySnapshot()}
	cached.Snapshot.ProfitLoss.NetProfitLoss = 999
	c := &fakeCache{rec: cached}
	b := &recordingBroadcaster{}
	history := memory.NewSnapshotStore()

	svc := newTestService(t, ServiceOptions{Cache: c, Broadcaster: b, History: history})

	res := svc.Refresh(context.Background())
	assert.True(t, res.FromCache)
	assert.Equal(t, "cached", res.Record.SnapshotID)
	assert.Equal(t, 999.0, res.Snapshot().ProfitLoss.NetProfitLoss)
	assert.Equal(t, 0, c.sets)
	assert.Equal(t, 1, b.count())

	// Same cached record again is not rebroadcast
	svc.Refresh(context.Background())
	assert.Equal(t, 1, b.count())

	_, err := history.GetLatest(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_CacheErrorFallsBackToSources(t *testing.T) {
	c := &fakeCache{getErr: errors.New("redis unavailable")}
	svc := newTestService(t, ServiceOptions{Cache: c})

	res := svc.Refresh(context.Background())
	assert.False(t, res.FromCache)
	assert.InDelta(t, 85.0, res.Snapshot().ProfitLoss.NetProfitLoss, 1e-9)
}

func TestService_HistoryFailureIsAbsorbed(t *testing.T) {
	svc := newTestService(t, ServiceOptions{History: failingHistory{err: errBackendDown}})

	res := svc.ForceRefresh(context.Background(), OriginManual)
	require.NotNil(t, res.Record)
	assert.InDelta(t, 85.0, res.Snapshot().ProfitLoss.NetProfitLoss, 1e-9)

	_, err := svc.History(context.Background())
	assert.ErrorIs(t, err, errBackendDown)
}

func TestService_TotalSourceFailureYieldsZeroSnapshot(t *testing.T) {
	loader := NewLoader(LoaderOptions{
		TradeStore:      failingTradeStore{err: errBackendDown},
		AggregateSource: failingAggregates{err: errBackendDown},
	})
	svc := newTestService(t, ServiceOptions{Loader: loader})

	res := svc.ForceRefresh(context.Background(), OriginManual)
	snap := res.Snapshot()

	assert.Empty(t, snap.Daily)
	assert.NotNil(t, snap.Daily)
	assert.Empty(t, snap.ByStrategy)
	assert.Equal(t, domain.WinLossSummary{}, snap.WinLoss)
	assert.Equal(t, domain.ProfitLossSummary{}, snap.ProfitLoss)
	assert.True(t, res.Report.Degraded())
}

func TestService_HistoryWithoutStore(t *testing.T) {
	svc := newTestService(t, ServiceOptions{})
	_, err := svc.History(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_RunRefreshesUntilCancelled(t *testing.T) {
	b := &recordingBroadcaster{}
	svc := newTestService(t, ServiceOptions{Broadcaster: b})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return svc.Status().RefreshCount >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
