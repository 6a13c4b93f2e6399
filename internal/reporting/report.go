// Package reporting renders performance snapshots as Markdown and CSV.
package reporting

import (
	"time"

	"trade-journal/internal/domain"
)

// Output file names.
const (
	MarkdownFile   = "PERFORMANCE_REPORT.md"
	BucketsFile    = "buckets.csv"
	CategoriesFile = "categories.csv"
)

// Report represents the performance report structure.
type Report struct {
	// Metadata
	GeneratedAt      time.Time
	SnapshotID       string
	ComputedAt       time.Time
	TradeCount       int
	PartialExitCount int
	FromCache        bool

	// Portfolio summaries
	WinLoss    domain.WinLossSummary
	ProfitLoss domain.ProfitLossSummary

	// Temporal series in fixed order: daily, weekly, monthly, ytd, all-time
	Series []SeriesSection

	// Category breakdowns, in snapshot order
	ByStrategy []domain.CategoryStat
	BySetup    []domain.CategoryStat

	// Data Sources (empty when the snapshot was served from cache)
	Sources []SourceRow
}

// SeriesSection is one temporal resolution.
type SeriesSection struct {
	Key     string // machine name used in CSV
	Title   string // heading used in Markdown
	Buckets []domain.Bucket
}

// SourceRow describes one data source of the snapshot.
type SourceRow struct {
	Source  string
	Status  string
	Records int
	Latency time.Duration
	Error   string
}
