package domain

// PerformanceMetrics is a precomputed portfolio aggregate supplied by the backend.
// WinRate uses a 0-100 scale. Loss figures may arrive signed; consumers use magnitudes.
type PerformanceMetrics struct {
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	TotalProfit     float64 `json:"total_profit"`
	TotalLoss       float64 `json:"total_loss"`
	TotalProfitLoss float64 `json:"total_profit_loss"`
	AverageProfit   float64 `json:"average_profit"`
	AverageLoss     float64 `json:"average_loss"`
}

// SetupMetric is a precomputed per-setup-type aggregate supplied by the backend.
// WinRate uses a 0-100 scale.
type SetupMetric struct {
	SetupType         string  `json:"setup_type"`
	TradeCount        int     `json:"trade_count"`
	WinRate           float64 `json:"win_rate"`
	AverageProfitLoss float64 `json:"average_profit_loss"`
}
