package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"trade-journal/internal/journal"
	"trade-journal/internal/observability"
)

// Series keys, shared with the snapshot history schema.
const (
	SeriesDaily   = "daily"
	SeriesWeekly  = "weekly"
	SeriesMonthly = "monthly"
	SeriesYTD     = "ytd"
	SeriesAllTime = "all_time"
)

// Generator builds reports from refresh results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Build assembles a report from a refresh result. A nil result yields a zero report.
func (g *Generator) Build(res *journal.Result) *Report {
	snap := res.Snapshot()

	r := &Report{
		GeneratedAt: g.now(),
		WinLoss:     snap.WinLoss,
		ProfitLoss:  snap.ProfitLoss,
		Series: []SeriesSection{
			{Key: SeriesDaily, Title: "Daily", Buckets: snap.Daily},
			{Key: SeriesWeekly, Title: "Weekly", Buckets: snap.Weekly},
			{Key: SeriesMonthly, Title: "Monthly", Buckets: snap.Monthly},
			{Key: SeriesYTD, Title: "Year to Date", Buckets: snap.YearToDate},
			{Key: SeriesAllTime, Title: "All Time", Buckets: snap.AllTime},
		},
		ByStrategy: snap.ByStrategy,
		BySetup:    snap.BySetup,
	}

	if res == nil {
		return r
	}
	r.FromCache = res.FromCache
	if rec := res.Record; rec != nil {
		r.SnapshotID = rec.SnapshotID
		r.ComputedAt = rec.ComputedAt
		r.TradeCount = rec.TradeCount
		r.PartialExitCount = rec.PartialExitCount
	}
	if res.Report != nil {
		for _, s := range res.Report.Sources {
			r.Sources = append(r.Sources, SourceRow{
				Source:  s.Source,
				Status:  s.Status,
				Records: s.Records,
				Latency: s.Latency,
				Error:   s.Error,
			})
		}
	}
	return r
}

// WriteFiles renders r into dir and returns the written paths.
func (g *Generator) WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	buckets, err := RenderBucketsCSV(r)
	if err != nil {
		return nil, err
	}
	categories, err := RenderCategoriesCSV(r)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name    string
		format  string
		content string
	}{
		{MarkdownFile, "markdown", RenderMarkdown(r)},
		{BucketsFile, "csv", buckets},
		{CategoriesFile, "csv", categories},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		observability.RecordReport(f.format)
		paths = append(paths, path)
	}
	return paths, nil
}
