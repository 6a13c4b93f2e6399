package analytics

import (
	"math"
	"testing"

	"trade-journal/internal/domain"
)

func TestComputeWinLoss(t *testing.T) {
	closed := []*domain.TradeRecord{
		makeClosedTrade("w1", day(2024, 1, 1), 100),
		makeClosedTrade("w2", day(2024, 1, 2), 0.01),
		makeClosedTrade("flat", day(2024, 1, 3), 0),
		makeClosedTrade("l1", day(2024, 1, 4), -40),
		makeClosedTrade("nan", day(2024, 1, 5), math.NaN()),
		makeClosedTrade("inf", day(2024, 1, 6), math.Inf(-1)),
	}

	got := ComputeWinLoss(closed)

	if got.WinCount != 2 {
		t.Errorf("expected 2 wins, got %d", got.WinCount)
	}
	if got.LossCount != 2 {
		t.Errorf("expected 2 losses (flat counts as loss), got %d", got.LossCount)
	}
	assertFloat(t, "win rate", 0.5, got.WinRate)
}

func TestComputeWinLoss_Empty(t *testing.T) {
	got := ComputeWinLoss(nil)
	if got.WinCount != 0 || got.LossCount != 0 || got.WinRate != 0 {
		t.Errorf("expected zero summary, got %+v", got)
	}
}

func TestWinLossFromMetrics(t *testing.T) {
	got := WinLossFromMetrics(&domain.PerformanceMetrics{WinningTrades: 7, LosingTrades: 7, WinRate: 50})

	if got.WinCount != 7 || got.LossCount != 7 {
		t.Errorf("expected counts taken verbatim, got %+v", got)
	}
	assertFloat(t, "win rate", 0.5, got.WinRate)
}

func TestComputeProfitLoss(t *testing.T) {
	closed := []*domain.TradeRecord{
		makeClosedTrade("w1", day(2024, 1, 1), 100),
		makeClosedTrade("w2", day(2024, 1, 2), 50),
		makeClosedTrade("l1", day(2024, 1, 3), -40),
		makeClosedTrade("l2", day(2024, 1, 4), 0),
		makeClosedTrade("nan", day(2024, 1, 5), math.NaN()),
	}

	got := ComputeProfitLoss(closed, 0)

	assertFloat(t, "total profit", 150, got.TotalProfit)
	assertFloat(t, "total loss", 40, got.TotalLoss)
	assertFloat(t, "net", 110, got.NetProfitLoss)
	assertFloat(t, "avg profit", 75, got.AverageProfit)
	assertFloat(t, "avg loss", 20, got.AverageLoss)
}

func TestComputeProfitLoss_EmptyIsZero(t *testing.T) {
	got := ComputeProfitLoss(nil, 0)
	if got != (domain.ProfitLossSummary{}) {
		t.Errorf("expected zero summary, got %+v", got)
	}
}

func TestProfitLoss_PartialExitCorrectionAppliedOnce(t *testing.T) {
	closed := []*domain.TradeRecord{
		makeClosedTrade("w1", day(2024, 1, 1), 100),
		makeClosedTrade("l1", day(2024, 1, 2), -40),
	}

	local := ComputeProfitLoss(closed, 25)
	assertFloat(t, "local net", 85, local.NetProfitLoss)
	assertFloat(t, "local total profit untouched", 100, local.TotalProfit)

	external := ProfitLossFromMetrics(&domain.PerformanceMetrics{
		TotalProfit:     500,
		TotalLoss:       -200,
		TotalProfitLoss: 300,
		AverageProfit:   50,
		AverageLoss:     -20,
	}, 25)
	assertFloat(t, "external net", 325, external.NetProfitLoss)
	assertFloat(t, "external total loss magnitude", 200, external.TotalLoss)
	assertFloat(t, "external avg loss magnitude", 20, external.AverageLoss)

	nanCorrection := ComputeProfitLoss(closed, math.NaN())
	assertFloat(t, "nan correction ignored", 60, nanCorrection.NetProfitLoss)
}
