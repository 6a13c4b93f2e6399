package memory

import (
	"context"
	"errors"
	"testing"

	"trade-journal/internal/domain"
	"trade-journal/internal/storage"
)

func TestAggregateStore_UnsetReturnsNotFound(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	if _, err := store.PerformanceMetrics(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.SetupMetrics(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAggregateStore_SetAndGet(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	store.SetPerformanceMetrics(&domain.PerformanceMetrics{WinningTrades: 3, LosingTrades: 1, WinRate: 75})
	store.SetSetupMetrics([]domain.SetupMetric{{SetupType: "Gap", TradeCount: 4, WinRate: 50}})

	m, err := store.PerformanceMetrics(ctx)
	if err != nil {
		t.Fatalf("PerformanceMetrics failed: %v", err)
	}
	if m.WinRate != 75 || m.WinningTrades != 3 {
		t.Errorf("Unexpected metrics: %+v", m)
	}

	setups, err := store.SetupMetrics(ctx)
	if err != nil {
		t.Fatalf("SetupMetrics failed: %v", err)
	}
	if len(setups) != 1 || setups[0].SetupType != "Gap" {
		t.Errorf("Unexpected setups: %+v", setups)
	}

	store.SetPerformanceMetrics(nil)
	store.SetSetupMetrics(nil)
	if _, err := store.PerformanceMetrics(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after clear, got %v", err)
	}
	if _, err := store.SetupMetrics(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after clear, got %v", err)
	}
}
