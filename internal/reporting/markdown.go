package reporting

import (
	"fmt"
	"strings"
	"time"

	"trade-journal/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.SnapshotID != "" {
		sb.WriteString(fmt.Sprintf("Snapshot: `%s` | Computed: %s", r.SnapshotID, r.ComputedAt.Format(time.RFC3339)))
		if r.FromCache {
			sb.WriteString(" | cached")
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf("Trades: %d | Partial exits: %d\n\n", r.TradeCount, r.PartialExitCount))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", r.WinLoss.WinCount))
	sb.WriteString(fmt.Sprintf("| Losing Trades | %d |\n", r.WinLoss.LossCount))
	sb.WriteString(fmt.Sprintf("| Win Rate | %s |\n", formatRate(r.WinLoss.WinRate)))
	sb.WriteString(fmt.Sprintf("| Total Profit | %s |\n", formatMoney(r.ProfitLoss.TotalProfit)))
	sb.WriteString(fmt.Sprintf("| Total Loss | %s |\n", formatMoney(r.ProfitLoss.TotalLoss)))
	sb.WriteString(fmt.Sprintf("| Net P&L | %s |\n", formatMoney(r.ProfitLoss.NetProfitLoss)))
	sb.WriteString(fmt.Sprintf("| Average Profit | %s |\n", formatMoney(r.ProfitLoss.AverageProfit)))
	sb.WriteString(fmt.Sprintf("| Average Loss | %s |\n", formatMoney(r.ProfitLoss.AverageLoss)))
	sb.WriteString("\n")

	// Data Sources
	sb.WriteString("## Data Sources\n\n")
	if len(r.Sources) > 0 {
		sb.WriteString("| Source | Status | Records | Latency | Error |\n")
		sb.WriteString("|--------|--------|---------|---------|-------|\n")
		for _, s := range r.Sources {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
				s.Source, s.Status, s.Records, s.Latency.Round(time.Millisecond), escapeCell(s.Error)))
		}
	} else if r.FromCache {
		sb.WriteString("Served from cache; source details unavailable.\n")
	} else {
		sb.WriteString("No source information available.\n")
	}
	sb.WriteString("\n")

	// Temporal series
	for _, s := range r.Series {
		sb.WriteString(fmt.Sprintf("## %s\n\n", s.Title))
		writeBuckets(&sb, s.Buckets)
		sb.WriteString("\n")
	}

	// Categories
	sb.WriteString("## By Strategy\n\n")
	writeCategories(&sb, "Strategy", r.ByStrategy)
	sb.WriteString("\n")

	sb.WriteString("## By Setup\n\n")
	writeCategories(&sb, "Setup", r.BySetup)
	sb.WriteString("\n")

	return sb.String()
}

func writeBuckets(sb *strings.Builder, buckets []domain.Bucket) {
	if len(buckets) == 0 {
		sb.WriteString("No data available.\n")
		return
	}
	sb.WriteString("| Period | P&L |\n")
	sb.WriteString("|--------|-----|\n")
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", b.Label, formatMoney(b.Value)))
	}
}

func writeCategories(sb *strings.Builder, title string, stats []domain.CategoryStat) {
	if len(stats) == 0 {
		sb.WriteString("No data available.\n")
		return
	}
	sb.WriteString(fmt.Sprintf("| %s | Trades | Win Rate | Avg Return |\n", title))
	sb.WriteString("|----------|--------|----------|------------|\n")
	for _, c := range categoryRows(stats) {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
			escapeCell(c.name), c.tradeCount, formatRate(c.winRateValue), formatPercent(c.avgReturnValue)))
	}
}

// escapeCell keeps free text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// categoryRow is a CategoryStat with its CSV renderings.
type categoryRow struct {
	name           string
	tradeCount     int
	winRate        string
	avgReturn      string
	winRateValue   float64
	avgReturnValue float64
}

func categoryRows(stats []domain.CategoryStat) []categoryRow {
	rows := make([]categoryRow, 0, len(stats))
	for _, c := range stats {
		rows = append(rows, categoryRow{
			name:           c.Name,
			tradeCount:     c.TradeCount,
			winRate:        formatDecimal(c.WinRate),
			avgReturn:      formatDecimal(c.AverageReturnPercent),
			winRateValue:   c.WinRate,
			avgReturnValue: c.AverageReturnPercent,
		})
	}
	return rows
}
