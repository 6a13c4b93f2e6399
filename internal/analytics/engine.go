// Package analytics computes trading-journal performance snapshots.
//
// The engine is a pure function of its inputs: it performs no I/O, keeps no
// state between calls and never returns an error. Missing optional inputs fall
// back to local derivation from the trade records; malformed records are
// excluded from the aggregations they cannot take part in.
package analytics

import (
	"time"

	"trade-journal/internal/domain"
)

// Inputs are the resolved data sources for one computation.
// A nil pointer or empty slice means the source was unavailable.
type Inputs struct {
	Trades       []*domain.TradeRecord
	PartialExits []*domain.PartialExit

	Metrics            *domain.PerformanceMetrics
	SetupMetrics       []domain.SetupMetric
	PartialExitSummary *domain.PartialExitSummary
}

// Stats describes how a snapshot was derived.
type Stats struct {
	TradesIn               int
	TradesNormalized       int
	PartialExitsIn         int
	PartialExitsNormalized int
	UsedExternalMetrics    bool
	UsedExternalSetups     bool
	UsedPartialExitSummary bool
}

// Engine computes performance snapshots against a clock and a calendar location.
type Engine struct {
	now func() time.Time
	loc *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to determine the current year.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the calendar location used for bucketing exit dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine creates an engine using time.Now and time.Local unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the calendar location used for bucketing.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Compute builds a snapshot from in using the default engine.
func Compute(in Inputs) *domain.PerformanceSnapshot {
	return NewEngine().Compute(in)
}

// Compute builds a fresh snapshot from in.
func (e *Engine) Compute(in Inputs) *domain.PerformanceSnapshot {
	snap, _ := e.ComputeWithStats(in)
	return snap
}

// ComputeWithStats builds a fresh snapshot and reports how it was derived.
func (e *Engine) ComputeWithStats(in Inputs) (*domain.PerformanceSnapshot, Stats) {
	closed := NormalizeTrades(in.Trades)
	exits := NormalizePartialExits(in.PartialExits)

	stats := Stats{
		TradesIn:               len(in.Trades),
		TradesNormalized:       len(closed),
		PartialExitsIn:         len(in.PartialExits),
		PartialExitsNormalized: len(exits),
	}

	snap := domain.EmptySnapshot()

	series := AggregateTemporal(closed, exits, e.loc, e.now())
	snap.Daily = series.Daily
	snap.Weekly = series.Weekly
	snap.Monthly = series.Monthly
	snap.YearToDate = series.YearToDate
	snap.AllTime = series.AllTime

	var partialExitPnL float64
	if in.PartialExitSummary != nil {
		partialExitPnL = in.PartialExitSummary.TotalRealizedPnL
		stats.UsedPartialExitSummary = true
	}

	if in.Metrics != nil {
		snap.WinLoss = WinLossFromMetrics(in.Metrics)
		snap.ProfitLoss = ProfitLossFromMetrics(in.Metrics, partialExitPnL)
		stats.UsedExternalMetrics = true
	} else {
		snap.WinLoss = ComputeWinLoss(closed)
		snap.ProfitLoss = ComputeProfitLoss(closed, partialExitPnL)
	}

	snap.ByStrategy = AggregateByStrategy(in.Trades)
	if len(in.SetupMetrics) > 0 {
		snap.BySetup = SetupStatsFromMetrics(in.SetupMetrics, in.Trades)
		stats.UsedExternalSetups = true
	} else {
		snap.BySetup = AggregateBySetup(in.Trades)
	}

	return snap, stats
}
