package analytics

import (
	"math"

	"trade-journal/internal/domain"
)

// ComputeWinLoss classifies normalized closed trades: P&L > 0 wins, P&L <= 0
// loses. Non-finite P&L is left out of both counts.
func ComputeWinLoss(closed []*domain.TradeRecord) domain.WinLossSummary {
	var wins, losses int
	for _, t := range closed {
		if !isFinitePtr(t.RealizedPnL) {
			continue
		}
		if *t.RealizedPnL > 0 {
			wins++
		} else {
			losses++
		}
	}
	return domain.WinLossSummary{
		WinCount:  wins,
		LossCount: losses,
		WinRate:   divOrZero(float64(wins), float64(wins+losses)),
	}
}

// WinLossFromMetrics takes counts verbatim and rescales the 0-100 win rate.
func WinLossFromMetrics(m *domain.PerformanceMetrics) domain.WinLossSummary {
	return domain.WinLossSummary{
		WinCount:  m.WinningTrades,
		LossCount: m.LosingTrades,
		WinRate:   SafeNumber(m.WinRate) / 100,
	}
}

// ComputeProfitLoss splits normalized closed trades into winners and losers.
// partialExitPnL is added to NetProfitLoss once.
func ComputeProfitLoss(closed []*domain.TradeRecord, partialExitPnL float64) domain.ProfitLossSummary {
	var (
		profit, loss        float64
		winCount, lossCount int
	)
	for _, t := range closed {
		if !isFinitePtr(t.RealizedPnL) {
			continue
		}
		pnl := *t.RealizedPnL
		if pnl > 0 {
			profit += pnl
			winCount++
		} else {
			loss += pnl
			lossCount++
		}
	}
	loss = math.Abs(loss)

	return domain.ProfitLossSummary{
		TotalProfit:   profit,
		TotalLoss:     loss,
		NetProfitLoss: profit - loss + SafeNumber(partialExitPnL),
		AverageProfit: divOrZero(profit, float64(winCount)),
		AverageLoss:   divOrZero(loss, float64(lossCount)),
	}
}

// ProfitLossFromMetrics maps a backend aggregate. Loss figures become
// magnitudes; partialExitPnL is added to NetProfitLoss once.
func ProfitLossFromMetrics(m *domain.PerformanceMetrics, partialExitPnL float64) domain.ProfitLossSummary {
	return domain.ProfitLossSummary{
		TotalProfit:   SafeNumber(m.TotalProfit),
		TotalLoss:     math.Abs(SafeNumber(m.TotalLoss)),
		NetProfitLoss: SafeNumber(m.TotalProfitLoss) + SafeNumber(partialExitPnL),
		AverageProfit: SafeNumber(m.AverageProfit),
		AverageLoss:   math.Abs(SafeNumber(m.AverageLoss)),
	}
}
