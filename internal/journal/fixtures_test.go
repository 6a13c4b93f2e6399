package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/analytics"
	"trade-journal/internal/domain"
	"trade-journal/internal/idhash"
	"trade-journal/internal/storage/memory"
)

func TestParseFixtures_Dates(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	f, err := ParseFixtures([]byte(`{
		"trades": [
			{"trade_id": "a", "status": "closed", "exit_date": "2024-03-01", "realized_pnl": 10},
			{"trade_id": "b", "status": "closed", "exit_date": "2024-03-01T23:30:00Z", "realized_pnl": null}
		]
	}`), loc)
	require.NoError(t, err)
	require.Len(t, f.Trades, 2)

	a := f.Trades[0]
	require.NotNil(t, a.ExitDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), *a.ExitDate)
	assert.Nil(t, a.EntryDate)
	assert.Equal(t, 10.0, *a.RealizedPnL)

	b := f.Trades[1]
	assert.Equal(t, time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), b.ExitDate.UTC())
	assert.Nil(t, b.RealizedPnL)
}

func TestParseFixtures_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"trades": [`},
		{"missing trade id", `{"trades": [{"status": "closed"}]}`},
		{"bad date", `{"trades": [{"trade_id": "a", "exit_date": "03/01/2024"}]}`},
		{"partial exit without trade", `{"partial_exits": [{"exit_date": "2024-01-01"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixtures([]byte(tt.doc), time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestParseFixtures_PartialExitIDs(t *testing.T) {
	f, err := ParseFixtures([]byte(`{
		"partial_exits": [
			{"trade_id": "t1", "exit_date": "2024-01-02", "realized_pnl": 5},
			{"partial_exit_id": "explicit", "trade_id": "t1", "exit_date": "2024-01-03", "realized_pnl": 6}
		]
	}`), time.UTC)
	require.NoError(t, err)
	require.Len(t, f.PartialExits, 2)

	ms := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, idhash.ComputePartialExitID("t1", ms, 0), f.PartialExits[0].PartialExitID)
	assert.Equal(t, "explicit", f.PartialExits[1].PartialExitID)
}

func TestFixtures_SeedAndCompute(t *testing.T) {
	ctx := context.Background()
	f, err := LoadFixturesFile(filepath.Join("testdata", "journal.json"), time.UTC)
	require.NoError(t, err)

	trades := memory.NewTradeStore()
	exits := memory.NewPartialExitStore()
	aggs := memory.NewAggregateStore()
	require.NoError(t, f.Seed(ctx, trades, exits, aggs))

	loader := NewLoader(LoaderOptions{TradeStore: trades, PartialExitStore: exits, AggregateSource: aggs})
	in, _ := loader.Load(ctx)
	snap := analytics.NewEngine(analytics.WithClock(fixedClock), analytics.WithLocation(time.UTC)).Compute(in)

	assert.Equal(t, []domain.Bucket{
		{Label: "2024-01-05", Value: 100},
		{Label: "2024-02-05", Value: 20},
		{Label: "2024-02-10", Value: 80},
	}, snap.Daily)
	assert.Equal(t, []domain.Bucket{{Label: "Jan", Value: 100}, {Label: "Feb", Value: 100}}, snap.Monthly)
	assert.Equal(t, []domain.Bucket{{Label: "2024", Value: 200}}, snap.AllTime)

	assert.Equal(t, 2, snap.WinLoss.WinCount)
	assert.Equal(t, 1, snap.WinLoss.LossCount)
	assert.InDelta(t, 230.0, snap.ProfitLoss.TotalProfit, 1e-9)
	assert.InDelta(t, 50.0, snap.ProfitLoss.TotalLoss, 1e-9)
	assert.InDelta(t, 200.0, snap.ProfitLoss.NetProfitLoss, 1e-9)

	require.Len(t, snap.ByStrategy, 2)
	assert.Equal(t, domain.CategoryStat{Name: "Breakout", TradeCount: 3, WinRate: 0.5, AverageReturnPercent: 0}, snap.ByStrategy[0])
	assert.Equal(t, "Reversal", snap.ByStrategy[1].Name)
	assert.InDelta(t, 4.0, snap.ByStrategy[1].AverageReturnPercent, 1e-9)

	require.Len(t, snap.BySetup, 2)
	assert.Equal(t, "Flag", snap.BySetup[0].Name)
	assert.Equal(t, "Double Bottom", snap.BySetup[1].Name)
	assert.InDelta(t, 5.0, snap.BySetup[1].AverageReturnPercent, 1e-9)
}

func TestFixtures_SeedAggregates(t *testing.T) {
	f, err := ParseFixtures([]byte(`{
		"performance_metrics": {"winning_trades": 3, "losing_trades": 1, "win_rate": 75},
		"setup_metrics": [{"setup_type": "Flag", "trade_count": 4, "win_rate": 75}]
	}`), time.UTC)
	require.NoError(t, err)

	aggs := memory.NewAggregateStore()
	require.NoError(t, f.Seed(context.Background(), nil, nil, aggs))

	m, err := aggs.PerformanceMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, m.WinningTrades)

	setups, err := aggs.SetupMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.SetupMetric{{SetupType: "Flag", TradeCount: 4, WinRate: 75}}, setups)
}
