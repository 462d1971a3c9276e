package cboe

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

// yieldIndices maps maturity labels to CBOE yield index symbols.
var yieldIndices = []struct {
	Label  string
	Symbol string
}{
	{models.Maturity3M, "IRX"},
	{models.Maturity5Y, "FVX"},
	{models.Maturity10Y, "TNX"},
	{models.Maturity30Y, "TYX"},
}

// pointsThreshold separates index points from percent. The indices are
// quoted at ten times the yield; a close above this is divided by ten.
const pointsThreshold = 25.0

// Maturities returns the labels served by this provider, shortest first.
func Maturities() []string {
	out := make([]string, len(yieldIndices))
	for i, y := range yieldIndices {
		out[i] = y.Label
	}
	return out
}

// Symbol returns the CBOE index symbol for a maturity label.
func Symbol(label string) (string, bool) {
	for _, y := range yieldIndices {
		if y.Label == label {
			return y.Symbol, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Yield index history.
// URL: https://cdn.cboe.com/api/global/delayed_quotes/charts/historical/_{SYMBOL}.json
// ---------------------------------------------------------------------------

type yieldIndexFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newYieldIndexFetcher(p *Provider) *yieldIndexFetcher {
	return &yieldIndexFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTreasurySeries,
			"Treasury yield index daily closes from CBOE",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 5, time.Second,
		),
		p: p,
	}
}

func (f *yieldIndexFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	label := params[provider.ParamSymbol]
	symbol, ok := Symbol(label)
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
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	// The CDN serves the full history; the window is applied locally.
	var resp cboeChartResponse
	if err := f.p.fetchJSON(ctx, f.p.chartURL(symbol), &resp); err != nil {
		return nil, fmt.Errorf("cboe %s (%s): %w", label, symbol, err)
	}

	s := toSeries(label, resp.Data).Between(start, end)
	f.Store(params, s)
	return f.Result(s, false), nil
}

// toSeries converts daily bars to a series of closes in percent, skipping
// undated rows and non-positive closes.
func toSeries(label string, bars []cboeDailyBar) models.RateSeries {
	s := models.RateSeries{Label: label, Source: providerName}
	for _, b := range bars {
		d := parseCBOEDate(b.Date)
		if d.IsZero() || b.Close <= 0 {
			continue
		}
		v := b.Close
		if v > pointsThreshold {
			v /= 10
		}
		s.Observations = append(s.Observations, models.Observation{Date: d, Value: v})
	}
	return s
}
