package reporting

import (
	"github.com/shopspring/decimal"

	"trade-journal/internal/analytics"
)

// formatMoney renders v with two decimals and a leading sign for losses, e.g. "-$12.50".
func formatMoney(v float64) string {
	d := decimal.NewFromFloat(analytics.SafeNumber(v)).Round(2)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// formatRate renders a 0-1 fraction as a percentage, e.g. "66.7%".
func formatRate(v float64) string {
	return decimal.NewFromFloat(analytics.SafeNumber(v)).Shift(2).StringFixed(1) + "%"
}

// formatPercent renders a value already on a 0-100 scale, e.g. "4.25%".
func formatPercent(v float64) string {
	return decimal.NewFromFloat(analytics.SafeNumber(v)).StringFixed(2) + "%"
}

// formatDecimal renders v in its shortest exact decimal form for CSV output.
func formatDecimal(v float64) string {
	return decimal.NewFromFloat(analytics.SafeNumber(v)).String()
}
