package memory

import (
	"context"
	"sync"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

// AggregateStore is an in-memory implementation of storage.AggregateSource.
// It returns only aggregates explicitly set on it; otherwise ErrNotFound.
type AggregateStore struct {
	mu      sync.RWMutex
	metrics *domain.PerformanceMetrics
	setups  []domain.SetupMetric
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{}
}

// SetPerformanceMetrics replaces the portfolio-wide aggregate. Nil clears it.
func (s *AggregateStore) SetPerformanceMetrics(m *domain.PerformanceMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m == nil {
		s.metrics = nil
		return
	}
	c := *m
	s.metrics = &c
}

// SetSetupMetrics replaces the per-setup aggregates. An empty slice clears them.
func (s *AggregateStore) SetSetupMetrics(setups []domain.SetupMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(setups) == 0 {
		s.setups = nil
		return
	}
	s.setups = append([]domain.SetupMetric(nil), setups...)
}

// PerformanceMetrics returns the portfolio-wide aggregate.
func (s *AggregateStore) PerformanceMetrics(_ context.Context) (*domain.PerformanceMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.metrics == nil {
		return nil, storage.ErrNotFound
	}
	c := *s.metrics
	return &c, nil
}

// SetupMetrics returns per-setup-type aggregates.
func (s *AggregateStore) SetupMetrics(_ context.Context) ([]domain.SetupMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.setups == nil {
		return nil, storage.ErrNotFound
	}
	return append([]domain.SetupMetric(nil), s.setups...), nil
}

var _ storage.AggregateSource = (*AggregateStore)(nil)
