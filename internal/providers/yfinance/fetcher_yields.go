package yfinance

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// yieldIndices maps maturity labels to CBOE yield index tickers. Closes are
// quoted in percent.
var yieldIndices = []struct {
	Label  string
	Ticker string
}{
	{models.Maturity3M, "^IRX"},
	{models.Maturity5Y, "^FVX"},
	{models.Maturity10Y, "^TNX"},
	{models.Maturity30Y, "^TYX"},
}

// Maturities returns the labels served by this provider.
func Maturities() []string {
	out := make([]string, len(yieldIndices))
	for i, y := range yieldIndices {
		out[i] = y.Label
	}
	return out
}

// Ticker returns the Yahoo ticker for a maturity label.
func Ticker(label string) (string, bool) {
	for _, y := range yieldIndices {
		if y.Label == label {
			return y.Ticker, true
		}
	}
	return "", false
}

type yieldIndexFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newYieldIndexFetcher(p *Provider) *yieldIndexFetcher {
	return &yieldIndexFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTreasurySeries,
			"Treasury yield index daily closes from Yahoo Finance",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 5, time.Second,
		),
		p: p,
	}
}

func (f *yieldIndexFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	label := params[provider.ParamSymbol]
	ticker, ok := Ticker(label)
	if !ok {
		return nil, &provider.ErrMaturityNotSupported{Provider: providerName, Maturity: label}
	}

	if s, ok := f.Cached(params); ok {
		return f.Result(s, true), nil
	}

	start, end, err := params.DateRange()
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = utils.Today()
	}
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}

	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	// period2 is exclusive; extend by a day so end is included.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		f.p.baseURL, url.PathEscape(ticker), start.Unix(), end.AddDate(0, 0, 1).Unix())

	var resp yfChartResponse
	if err := f.p.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart %s: %s", ticker, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yfinance chart %s: no data", ticker)
	}

	s := parseCloses(label, resp.Chart.Result[0]).Between(start, end)
	f.Store(params, s)
	return f.Result(s, false), nil
}

// parseCloses converts chart timestamps and closes into a series. Timestamps
// are shifted into the exchange's timezone before truncation to a date;
// null and non-finite closes are skipped.
func parseCloses(label string, r yfChartResult) models.RateSeries {
	s := models.RateSeries{Label: label, Source: providerName}
	if len(r.Indicators.Quote) == 0 {
		return s
	}
	closes := r.Indicators.Quote[0].Close
	loc := time.FixedZone(r.Meta.Timezone, r.Meta.GMTOffset)
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		v := *closes[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		d := utils.DateOnly(time.Unix(ts, 0).In(loc))
		if n := len(s.Observations); n > 0 && s.Observations[n-1].Date.Equal(d) {
			s.Observations[n-1].Value = v
			continue
		}
		s.Observations = append(s.Observations, models.Observation{Date: d, Value: v})
	}
	return s
}
