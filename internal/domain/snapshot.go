package domain

import "time"

// Bucket is one time-bucketed sum of realized P&L.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// WinLossSummary holds portfolio-wide win/loss counts. WinRate is a 0-1 fraction.
type WinLossSummary struct {
	WinCount  int     `json:"win_count"`
	LossCount int     `json:"loss_count"`
	WinRate   float64 `json:"win_rate"`
}

// ProfitLossSummary holds portfolio-wide P&L totals. TotalLoss and AverageLoss are
// positive magnitudes.
type ProfitLossSummary struct {
	TotalProfit   float64 `json:"total_profit"`
	TotalLoss     float64 `json:"total_loss"`
	NetProfitLoss float64 `json:"net_profit_loss"`
	AverageProfit float64 `json:"average_profit"`
	AverageLoss   float64 `json:"average_loss"`
}

// CategoryStat is the grouped performance of one strategy or setup type.
type CategoryStat struct {
	Name                 string  `json:"name"`
	TradeCount           int     `json:"trade_count"`
	WinRate              float64 `json:"win_rate"`
	AverageReturnPercent float64 `json:"average_return_percent"`
}

// PerformanceSnapshot is the analytics output handed to the presentation layer.
// It is built fresh per computation and treated as a value afterwards.
type PerformanceSnapshot struct {
	Daily      []Bucket `json:"daily"`
	Weekly     []Bucket `json:"weekly"`
	Monthly    []Bucket `json:"monthly"`
	YearToDate []Bucket `json:"year_to_date"`
	AllTime    []Bucket `json:"all_time"`

	WinLoss    WinLossSummary    `json:"win_loss"`
	ProfitLoss ProfitLossSummary `json:"profit_loss"`

	ByStrategy []CategoryStat `json:"by_strategy"`
	BySetup    []CategoryStat `json:"by_setup"`
}

// EmptySnapshot returns a zero-valued snapshot with every sequence non-nil.
func EmptySnapshot() *PerformanceSnapshot {
	return &PerformanceSnapshot{
		Daily:      []Bucket{},
		Weekly:     []Bucket{},
		Monthly:    []Bucket{},
		YearToDate: []Bucket{},
		AllTime:    []Bucket{},
		ByStrategy: []CategoryStat{},
		BySetup:    []CategoryStat{},
	}
}

// SnapshotRecord is a persisted snapshot in the analytics history.
type SnapshotRecord struct {
	SnapshotID       string
	ComputedAt       time.Time
	TradeCount       int // raw trades fed to the engine
	PartialExitCount int // raw partial exits fed to the engine
	Snapshot         *PerformanceSnapshot
}
