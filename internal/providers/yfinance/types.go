package yfinance

// yfChartResponse wraps the v8 chart API response.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol       string `json:"symbol"`
	Currency     string `json:"currency"`
	ExchangeName string `json:"exchangeName"`
	GMTOffset    int    `json:"gmtoffset"` // seconds east of UTC
	Timezone     string `json:"exchangeTimezoneName"`
}

type yfIndicators struct {
	Quote []yfQuote `json:"quote"`
}

type yfQuote struct {
	Close []*float64 `json:"close"` // null on holidays
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
