package cboe

// ---------------------------------------------------------------------------
// CBOE CDN response types.
// ---------------------------------------------------------------------------

// cboeChartResponse is the daily history of one symbol.
type cboeChartResponse struct {
	Symbol string         `json:"symbol"`
	Data   []cboeDailyBar `json:"data"`
}

// cboeDailyBar represents a single daily OHLC bar.
type cboeDailyBar struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}
