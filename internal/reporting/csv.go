package reporting

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Category dimensions in categories.csv.
const (
	DimensionStrategy = "strategy"
	DimensionSetup    = "setup"
)

// RenderBucketsCSV renders every temporal bucket as CSV string.
func RenderBucketsCSV(r *Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	// Header
	w.Write([]string{"series", "position", "label", "value"})

	// Rows
	for _, s := range r.Series {
		for i, b := range s.Buckets {
			w.Write([]string{s.Key, strconv.Itoa(i), b.Label, formatDecimal(b.Value)})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render buckets csv: %w", err)
	}
	return sb.String(), nil
}

// RenderCategoriesCSV renders strategy and setup stats as CSV string.
// Labels are free text, so fields are quoted as needed.
func RenderCategoriesCSV(r *Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"dimension", "name", "trade_count", "win_rate", "average_return_percent"})

	groups := []struct {
		dimension string
		stats     []categoryRow
	}{
		{DimensionStrategy, categoryRows(r.ByStrategy)},
		{DimensionSetup, categoryRows(r.BySetup)},
	}
	for _, g := range groups {
		for _, c := range g.stats {
			w.Write([]string{g.dimension, c.name, strconv.Itoa(c.tradeCount), c.winRate, c.avgReturn})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render categories csv: %w", err)
	}
	return sb.String(), nil
}
