package transporthttp

// RecordTradeRequest is the body of POST /api/trades/record. Action selects
// which fields are consulted.
type RecordTradeRequest struct {
	Action   string  `json:"action" binding:"required"`
	SignalID int64   `json:"signal_id"`
	TradeID  int64   `json:"trade_id"`
	Price    float64 `json:"price"`
	Reason   string  `json:"reason"`
}

// PerformanceReport is the payload of GET /api/performance/overall.
type PerformanceReport struct {
	TotalTrades  int     `json:"total_trades"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	TotalProfit  float64 `json:"total_profit"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
}

// StatusReport is the payload of GET /api/status.
type StatusReport struct {
	Status        string  `json:"status"`
	Oracle        string  `json:"oracle"`
	ActiveSignals int64   `json:"active_signals"`
	OpenTrades    int64   `json:"open_trades"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
