package analytics

import "trade-journal/internal/domain"

// NormalizeTrades keeps closed trades that have an exit date and a realized P&L.
// Input order is preserved; the input slice is not modified.
func NormalizeTrades(trades []*domain.TradeRecord) []*domain.TradeRecord {
	out := make([]*domain.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t == nil {
			continue
		}
		if !t.IsClosed() || !t.HasExitDate() || t.RealizedPnL == nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizePartialExits keeps partial exits that have an exit date and a non-zero
// realized P&L. NaN and infinite values count as zero and are dropped.
func NormalizePartialExits(exits []*domain.PartialExit) []*domain.PartialExit {
	out := make([]*domain.PartialExit, 0, len(exits))
	for _, p := range exits {
		if p == nil {
			continue
		}
		if !p.HasExitDate() || SafePtr(p.RealizedPnL) == 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}
