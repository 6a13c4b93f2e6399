package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/storage"
)

// DateLayout is the calendar-date form accepted in fixture files.
const DateLayout = "2006-01-02"

// Fixtures is a seed data set for the journal stores.
type Fixtures struct {
	Trades             []*domain.TradeRecord
	PartialExits       []*domain.PartialExit
	PerformanceMetrics *domain.PerformanceMetrics
	SetupMetrics       []domain.SetupMetric
}

// AggregateSetter accepts precomputed aggregates, e.g. memory.AggregateStore.
type AggregateSetter interface {
	SetPerformanceMetrics(m *domain.PerformanceMetrics)
	SetSetupMetrics(setups []domain.SetupMetric)
}

type fixtureFile struct {
	Trades             []fixtureTrade             `json:"trades"`
	PartialExits       []fixturePartialExit       `json:"partial_exits"`
	PerformanceMetrics *domain.PerformanceMetrics `json:"performance_metrics"`
	SetupMetrics       []domain.SetupMetric       `json:"setup_metrics"`
}

type fixtureTrade struct {
	TradeID          string   `json:"trade_id"`
	Symbol           string   `json:"symbol"`
	Status           string   `json:"status"`
	EntryDate        string   `json:"entry_date"`
	ExitDate         string   `json:"exit_date"`
	RealizedPnL      *float64 `json:"realized_pnl"`
	TotalRealizedPnL *float64 `json:"total_realized_pnl"`
	RealizedPnLPct   *float64 `json:"realized_pnl_percentage"`
	PositionValue    *float64 `json:"position_value"`
	Strategy         string   `json:"strategy"`
	SetupType        string   `json:"setup_type"`
}

type fixturePartialExit struct {
	PartialExitID string   `json:"partial_exit_id"`
	TradeID       string   `json:"trade_id"`
	ExitDate      string   `json:"exit_date"`
	RealizedPnL   *float64 `json:"realized_pnl"`
}

// LoadFixturesFile reads and parses a fixture file.
func LoadFixturesFile(path string, loc *time.Location) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := ParseFixtures(data, loc)
	if err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return f, nil
}

// ParseFixtures decodes a fixture document. Calendar dates are interpreted in loc.
// Partial exits without an ID get a deterministic one.
func ParseFixtures(data []byte, loc *time.Location) (*Fixtures, error) {
	if loc == nil {
		loc = time.Local
	}

	var raw fixtureFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	f := &Fixtures{
		Trades:             make([]*domain.TradeRecord, 0, len(raw.Trades)),
		PartialExits:       make([]*domain.PartialExit, 0, len(raw.PartialExits)),
		PerformanceMetrics: raw.PerformanceMetrics,
		SetupMetrics:       raw.SetupMetrics,
	}

	for i, t := range raw.Trades {
		if t.TradeID == "" {
			return nil, fmt.Errorf("trade %d: missing trade_id", i)
		}
		entry, err := parseFixtureDate(t.EntryDate, loc)
		if err != nil {
			return nil, fmt.Errorf("trade %s: entry_date: %w", t.TradeID, err)
		}
		exit, err := parseFixtureDate(t.ExitDate, loc)
		if err != nil {
			return nil, fmt.Errorf("trade %s: exit_date: %w", t.TradeID, err)
		}
		f.Trades = append(f.Trades, &domain.TradeRecord{
			TradeID:          t.TradeID,
			Symbol:           t.Symbol,
			Status:           t.Status,
			EntryDate:        entry,
			ExitDate:         exit,
			RealizedPnL:      t.RealizedPnL,
			TotalRealizedPnL: t.TotalRealizedPnL,
			RealizedPnLPct:   t.RealizedPnLPct,
			PositionValue:    t.PositionValue,
			Strategy:         t.Strategy,
			SetupType:        t.SetupType,
		})
	}

	for i, p := range raw.PartialExits {
		if p.TradeID == "" {
			return nil, fmt.Errorf("partial exit %d: missing trade_id", i)
		}
		exit, err := parseFixtureDate(p.ExitDate, loc)
		if err != nil {
			return nil, fmt.Errorf("partial exit %d: exit_date: %w", i, err)
		}
		id := p.PartialExitID
		if id == "" {
			var ms int64
			if exit != nil {
				ms = exit.UnixMilli()
			}
			id = idhash.ComputePartialExitID(p.TradeID, ms, i)
		}
		f.PartialExits = append(f.PartialExits, &domain.PartialExit{
			PartialExitID: id,
			TradeID:       p.TradeID,
			ExitDate:      exit,
			RealizedPnL:   p.RealizedPnL,
		})
	}

	return f, nil
}

// parseFixtureDate accepts YYYY-MM-DD (midnight in loc) or RFC3339. Empty means absent.
func parseFixtureDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%q is neither %s nor RFC3339", s, DateLayout)
	}
	return &t, nil
}

// Seed inserts the fixtures into the given stores. Nil stores are skipped.
func (f *Fixtures) Seed(ctx context.Context, trades storage.TradeStore, exits storage.PartialExitStore, aggregates AggregateSetter) error {
	if trades != nil && len(f.Trades) > 0 {
		if err := trades.InsertBulk(ctx, f.Trades); err != nil {
			return fmt.Errorf("seed trades: %w", err)
		}
	}
	if exits != nil && len(f.PartialExits) > 0 {
		if err := exits.InsertBulk(ctx, f.PartialExits); err != nil {
			return fmt.Errorf("seed partial exits: %w", err)
		}
	}
	if aggregates != nil {
		if f.PerformanceMetrics != nil {
			aggregates.SetPerformanceMetrics(f.PerformanceMetrics)
		}
		if len(f.SetupMetrics) > 0 {
			aggregates.SetSetupMetrics(f.SetupMetrics)
		}
	}
	return nil
}
