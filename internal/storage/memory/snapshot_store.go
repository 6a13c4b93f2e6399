package memory

import (
	"context"
	"sort"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SnapshotRecord // keyed by snapshot_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.SnapshotRecord),
	}
}

// Insert adds a snapshot record. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(_ context.Context, r *domain.SnapshotRecord) error {
	if r == nil || r.SnapshotID == "" || r.Snapshot == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}

	c := *r
	c.Snapshot = cloneSnapshot(r.Snapshot)
	s.data[r.SnapshotID] = &c
	return nil
}

// GetLatest retrieves the most recently computed snapshot. Returns ErrNotFound if empty.
func (s *SnapshotStore) GetLatest(_ context.Context) (*domain.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SnapshotRecord
	for _, r := range s.data {
		if latest == nil || r.ComputedAt.After(latest.ComputedAt) ||
			(r.ComputedAt.Equal(latest.ComputedAt) && r.SnapshotID > latest.SnapshotID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	c := *latest
	c.Snapshot = cloneSnapshot(latest.Snapshot)
	return &c, nil
}

// GetByTimeRange retrieves snapshot headers computed within [start, end] (inclusive),
// ordered by computed_at ASC. Only the win/loss and P&L summaries are loaded.
func (s *SnapshotStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SnapshotRecord
	for _, r := range s.data {
		ms := r.ComputedAt.UnixMilli()
		if ms >= start && ms <= end {
			c := *r
			c.Snapshot = summaryOnly(r.Snapshot)
			result = append(result, &c)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ComputedAt.Equal(result[j].ComputedAt) {
			return result[i].ComputedAt.Before(result[j].ComputedAt)
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})

	return result, nil
}

func cloneSnapshot(p *domain.PerformanceSnapshot) *domain.PerformanceSnapshot {
	c := *p
	c.Daily = append([]domain.Bucket{}, p.Daily...)
	c.Weekly = append([]domain.Bucket{}, p.Weekly...)
	c.Monthly = append([]domain.Bucket{}, p.Monthly...)
	c.YearToDate = append([]domain.Bucket{}, p.YearToDate...)
	c.AllTime = append([]domain.Bucket{}, p.AllTime...)
	c.ByStrategy = append([]domain.CategoryStat{}, p.ByStrategy...)
	c.BySetup = append([]domain.CategoryStat{}, p.BySetup...)
	return &c
}

func summaryOnly(p *domain.PerformanceSnapshot) *domain.PerformanceSnapshot {
	c := domain.EmptySnapshot()
	c.WinLoss = p.WinLoss
	c.ProfitLoss = p.ProfitLoss
	return c
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
