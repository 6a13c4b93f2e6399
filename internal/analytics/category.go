package analytics

import (
	"strings"

	"trade-journal/internal/domain"
)

// categoryAcc accumulates one strategy or setup group.
type categoryAcc struct {
	name         string // display casing of the first record seen
	trades       int    // every labeled record
	contributing int    // closed with finite P&L
	wins         int
	returnSum    float64
}

// categoryGroups keeps groups keyed by lower-cased label, in first-seen order.
type categoryGroups struct {
	byKey map[string]*categoryAcc
	order []string
}

func newCategoryGroups() *categoryGroups {
	return &categoryGroups{byKey: make(map[string]*categoryAcc)}
}

// get returns the group for label, creating it on first sight.
// Returns nil for blank labels.
func (g *categoryGroups) get(label string) *categoryAcc {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}
	key := strings.ToLower(label)
	acc, ok := g.byKey[key]
	if !ok {
		acc = &categoryAcc{name: label}
		g.byKey[key] = acc
		g.order = append(g.order, key)
	}
	return acc
}

func (g *categoryGroups) stats() []domain.CategoryStat {
	out := make([]domain.CategoryStat, 0, len(g.order))
	for _, key := range g.order {
		acc := g.byKey[key]
		n := float64(acc.contributing)
		out = append(out, domain.CategoryStat{
			Name:                 acc.name,
			TradeCount:           acc.trades,
			WinRate:              divOrZero(float64(acc.wins), n),
			AverageReturnPercent: divOrZero(acc.returnSum, n),
		})
	}
	return out
}

// contribute books one closed trade with a finite P&L into acc.
func (acc *categoryAcc) contribute(t *domain.TradeRecord, pnl float64) {
	acc.contributing++
	if pnl > 0 {
		acc.wins++
	}
	acc.returnSum += returnPercent(t, pnl)
}

// AggregateByStrategy groups raw trades by strategy label, case-insensitively.
// Every labeled trade counts toward TradeCount; only closed trades with a finite
// realized P&L feed WinRate and AverageReturnPercent.
func AggregateByStrategy(trades []*domain.TradeRecord) []domain.CategoryStat {
	groups := newCategoryGroups()
	for _, t := range trades {
		if t == nil {
			continue
		}
		acc := groups.get(t.Strategy)
		if acc == nil {
			continue
		}
		acc.trades++
		if t.IsClosed() && isFinitePtr(t.RealizedPnL) {
			acc.contribute(t, *t.RealizedPnL)
		}
	}
	return groups.stats()
}

// AggregateBySetup groups raw trades by setup type, case-insensitively.
// The P&L used is TotalRealizedPnL when finite, else RealizedPnL.
func AggregateBySetup(trades []*domain.TradeRecord) []domain.CategoryStat {
	return aggregateBySetup(trades).stats()
}

func aggregateBySetup(trades []*domain.TradeRecord) *categoryGroups {
	groups := newCategoryGroups()
	for _, t := range trades {
		if t == nil {
			continue
		}
		acc := groups.get(t.SetupType)
		if acc == nil {
			continue
		}
		acc.trades++
		if !t.IsClosed() {
			continue
		}
		if pnl, ok := setupPnL(t); ok {
			acc.contribute(t, pnl)
		}
	}
	return groups
}

// SetupStatsFromMetrics builds setup stats from a backend aggregate. Trade count
// and win rate come from the aggregate (win rate rescaled from 0-100); the
// aggregate carries no return percentage, so it is looked up in local.
func SetupStatsFromMetrics(metrics []domain.SetupMetric, trades []*domain.TradeRecord) []domain.CategoryStat {
	local := aggregateBySetup(trades)

	out := make([]domain.CategoryStat, 0, len(metrics))
	for _, m := range metrics {
		name := strings.TrimSpace(m.SetupType)
		if name == "" {
			continue
		}
		stat := domain.CategoryStat{
			Name:       name,
			TradeCount: m.TradeCount,
			WinRate:    SafeNumber(m.WinRate) / 100,
		}
		if acc, ok := local.byKey[strings.ToLower(name)]; ok {
			stat.AverageReturnPercent = divOrZero(acc.returnSum, float64(acc.contributing))
		}
		out = append(out, stat)
	}
	return out
}

// setupPnL prefers the partial-exit-inclusive total over the final-close P&L.
func setupPnL(t *domain.TradeRecord) (float64, bool) {
	if isFinitePtr(t.TotalRealizedPnL) {
		return *t.TotalRealizedPnL, true
	}
	if isFinitePtr(t.RealizedPnL) {
		return *t.RealizedPnL, true
	}
	return 0, false
}

// returnPercent picks, in order: the explicit percentage, pnl relative to a
// positive position value, or 0.
func returnPercent(t *domain.TradeRecord, pnl float64) float64 {
	if isFinitePtr(t.RealizedPnLPct) {
		return *t.RealizedPnLPct
	}
	if isFinitePtr(t.PositionValue) && *t.PositionValue > 0 {
		return 100 * pnl / *t.PositionValue
	}
	return 0
}
