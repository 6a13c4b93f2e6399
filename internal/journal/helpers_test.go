package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

var errBackendDown = errors.New("backend down")

func ptr[T any](v T) *T {
	return &v
}

func day(year int, month time.Month, d int) *time.Time {
	t := time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

// failingTradeStore fails every read.
type failingTradeStore struct{ err error }

func (s failingTradeStore) Insert(context.Context, *domain.TradeRecord) error       { return s.err }
func (s failingTradeStore) InsertBulk(context.Context, []*domain.TradeRecord) error { return s.err }
func (s failingTradeStore) GetByID(context.Context, string) (*domain.TradeRecord, error) {
	return nil, s.err
}
func (s failingTradeStore) List(context.Context) ([]*domain.TradeRecord, error) { return nil, s.err }

// failingAggregates fails both aggregates.
type failingAggregates struct{ err error }

func (s failingAggregates) PerformanceMetrics(context.Context) (*domain.PerformanceMetrics, error) {
	return nil, s.err
}
func (s failingAggregates) SetupMetrics(context.Context) ([]domain.SetupMetric, error) {
	return nil, s.err
}

// blockingTradeStore waits for ctx to expire.
type blockingTradeStore struct{ failingTradeStore }

func (blockingTradeStore) List(ctx context.Context) ([]*domain.TradeRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeCache is an in-process SnapshotCache.
type fakeCache struct {
	mu     sync.Mutex
	rec    *domain.SnapshotRecord
	sets   int
	getErr error
}

func (c *fakeCache) Get(context.Context) (*domain.SnapshotRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.rec == nil {
		return nil, storage.ErrNotFound
	}
	return c.rec, nil
}

func (c *fakeCache) Set(_ context.Context, r *domain.SnapshotRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rec = r
	c.sets++
	return nil
}

// recordingBroadcaster remembers every broadcast snapshot id.
type recordingBroadcaster struct {
	mu  sync.Mutex
	ids []string
}

func (b *recordingBroadcaster) Broadcast(r *domain.SnapshotRecord) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = append(b.ids, r.SnapshotID)
	return 0, nil
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ids)
}

// failingHistory rejects every insert.
type failingHistory struct{ err error }

func (h failingHistory) Insert(context.Context, *domain.SnapshotRecord) error { return h.err }
func (h failingHistory) GetLatest(context.Context) (*domain.SnapshotRecord, error) {
	return nil, h.err
}
func (h failingHistory) GetByTimeRange(context.Context, int64, int64) ([]*domain.SnapshotRecord, error) {
	return nil, h.err
}
