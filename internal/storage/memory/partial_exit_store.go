package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// PartialExitStore is an in-memory implementation of storage.PartialExitStore.
type PartialExitStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PartialExit // keyed by partial_exit_id
}

// NewPartialExitStore creates a new in-memory partial exit store.
func NewPartialExitStore() *PartialExitStore {
	return &PartialExitStore{
		data: make(map[string]*domain.PartialExit),
	}
}

// InsertBulk adds multiple partial exits atomically. Fails entire batch on any duplicate.
func (s *PartialExitStore) InsertBulk(_ context.Context, exits []*domain.PartialExit) error {
	if len(exits) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(exits))
	for _, p := range exits {
		if p == nil || p.PartialExitID == "" || p.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.PartialExitID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.PartialExitID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.PartialExitID] = struct{}{}
	}

	for _, p := range exits {
		s.data[p.PartialExitID] = clonePartialExit(p)
	}

	return nil
}

// GetByTradeID retrieves the partial exits of one trade, ordered by exit date ASC.
func (s *PartialExitStore) GetByTradeID(_ context.Context, tradeID string) ([]*domain.PartialExit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PartialExit
	for _, p := range s.data {
		if p.TradeID == tradeID {
			result = append(result, clonePartialExit(p))
		}
	}
	sortPartialExits(result)
	return result, nil
}

// List retrieves all partial exits ordered by exit date ASC.
func (s *PartialExitStore) List(_ context.Context) ([]*domain.PartialExit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PartialExit, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, clonePartialExit(p))
	}
	sortPartialExits(result)
	return result, nil
}

// Summary returns the total realized P&L over all partial exits.
// Exits without a finite realized P&L are skipped.
func (s *PartialExitStore) Summary(_ context.Context) (*domain.PartialExitSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &domain.PartialExitSummary{}
	for _, p := range s.data {
		if p.RealizedPnL == nil || math.IsNaN(*p.RealizedPnL) || math.IsInf(*p.RealizedPnL, 0) {
			continue
		}
		summary.TotalRealizedPnL += *p.RealizedPnL
		summary.Count++
	}
	return summary, nil
}

func clonePartialExit(p *domain.PartialExit) *domain.PartialExit {
	c := *p
	c.ExitDate = cloneTime(p.ExitDate)
	c.RealizedPnL = cloneFloat(p.RealizedPnL)
	return &c
}

func sortPartialExits(exits []*domain.PartialExit) {
	sort.Slice(exits, func(i, j int) bool {
		if c := compareExitDates(exits[i].ExitDate, exits[j].ExitDate); c != 0 {
			return c < 0
		}
		return exits[i].PartialExitID < exits[j].PartialExitID
	})
}

var _ storage.PartialExitStore = (*PartialExitStore)(nil)
