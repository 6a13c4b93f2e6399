package domain

import (
	"strings"
	"time"
)

// TradeRecord is a journal trade as returned by the "list trades" query.
// Optional fields are pointers; nil means the backend sent no value.
type TradeRecord struct {
	TradeID string `json:"trade_id"`
	Symbol  string `json:"symbol"`
	Status  string `json:"status"` // "open" | "closed", compared case-insensitively

	EntryDate *time.Time `json:"entry_date,omitempty"`
	ExitDate  *time.Time `json:"exit_date,omitempty"`

	// Outcome
	RealizedPnL      *float64 `json:"realized_pnl,omitempty"`       // final close only
	TotalRealizedPnL *float64 `json:"total_realized_pnl,omitempty"` // final close + partial exits
	RealizedPnLPct   *float64 `json:"realized_pnl_percentage,omitempty"`
	PositionValue    *float64 `json:"position_value,omitempty"` // entry notional

	// Categories (free text, user assigned)
	Strategy  string `json:"strategy,omitempty"`
	SetupType string `json:"setup_type,omitempty"`
}

// Trade status values.
const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)

// IsClosed reports whether the trade status is "closed", ignoring case.
func (t *TradeRecord) IsClosed() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), TradeStatusClosed)
}

// HasExitDate reports whether the trade carries a usable exit date.
func (t *TradeRecord) HasExitDate() bool {
	return t.ExitDate != nil && !t.ExitDate.IsZero()
}
