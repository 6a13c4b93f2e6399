package analytics

import (
	"math"
	"testing"
	"time"

	"trade-journal/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func day(year int, month time.Month, d int) *time.Time {
	t := time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
	return &t
}

// makeClosedTrade creates a closed trade exiting on exit with the given P&L.
func makeClosedTrade(id string, exit *time.Time, pnl float64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:     id,
		Status:      domain.TradeStatusClosed,
		ExitDate:    exit,
		RealizedPnL: ptr(pnl),
	}
}

func makePartialExit(id string, exit *time.Time, pnl float64) *domain.PartialExit {
	return &domain.PartialExit{
		PartialExitID: id,
		ExitDate:      exit,
		RealizedPnL:   ptr(pnl),
	}
}

func assertFloat(t *testing.T, name string, expected, actual float64) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

func assertBuckets(t *testing.T, name string, expected, actual []domain.Bucket) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%s: expected %d buckets %v, got %d %v", name, len(expected), expected, len(actual), actual)
	}
	for i := range expected {
		if expected[i].Label != actual[i].Label {
			t.Errorf("%s[%d]: expected label %q, got %q", name, i, expected[i].Label, actual[i].Label)
		}
		assertFloat(t, name+"["+expected[i].Label+"]", expected[i].Value, actual[i].Value)
	}
}
