package domain

import "time"

// PartialExit is a realized P&L event from partially closing a position.
// It is tracked separately from the owning trade's final close.
type PartialExit struct {
	PartialExitID string     `json:"partial_exit_id"`
	TradeID       string     `json:"trade_id"`
	ExitDate      *time.Time `json:"exit_date,omitempty"`
	RealizedPnL   *float64   `json:"realized_pnl,omitempty"`
}

// HasExitDate reports whether the partial exit carries a usable exit date.
func (p *PartialExit) HasExitDate() bool {
	return p.ExitDate != nil && !p.ExitDate.IsZero()
}

// PartialExitSummary is the backend's total over all partial exits.
type PartialExitSummary struct {
	TotalRealizedPnL float64 `json:"total_realized_pnl"`
	Count            int     `json:"count"`
}
