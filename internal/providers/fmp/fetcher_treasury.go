package fmp

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// columns maps maturity labels to the rate field of a treasury row.
var columns = []struct {
	Label string
	Value func(fmpTreasuryRate) float64
}{
	{models.Maturity3M, func(r fmpTreasuryRate) float64 { return r.Month3 }},
	{models.Maturity2Y, func(r fmpTreasuryRate) float64 { return r.Year2 }},
	{models.Maturity5Y, func(r fmpTreasuryRate) float64 { return r.Year5 }},
	{models.Maturity10Y, func(r fmpTreasuryRate) float64 { return r.Year10 }},
	{models.Maturity30Y, func(r fmpTreasuryRate) float64 { return r.Year30 }},
}

// Maturities returns the labels served by this provider, shortest first.
func Maturities() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}

// quarterTable holds one quarter's observations keyed by maturity label.
type quarterTable map[string][]models.Observation

// ---------------------------------------------------------------------------
// Treasury rates.
// URL: https://financialmodelingprep.com/api/v4/treasury?from=&to=&apikey=
// ---------------------------------------------------------------------------

type treasuryRatesFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newTreasuryRatesFetcher(p *Provider) *treasuryRatesFetcher {
	return &treasuryRatesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTreasurySeries,
			"Daily treasury rates from Financial Modeling Prep",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 5, time.Second,
		),
		p: p,
	}
}

func (f *treasuryRatesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	label := params[provider.ParamSymbol]
	if !supported(label) {
		return nil, &provider.ErrMaturityNotSupported{Provider: providerName, Maturity: label}
	}

	// The injected key is not part of the cache key.
	clean := make(provider.QueryParams, len(params))
	for k, v := range params {
		if k != paramAPIKey {
			clean[k] = v
		}
	}
	if s, ok := f.Cached(clean); ok {
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

	s := models.RateSeries{Label: label, Source: providerName}
	for _, q := range quartersBetween(start, end) {
		t, err := f.quarter(ctx, q, params[paramAPIKey])
		if err != nil {
			return nil, fmt.Errorf("fmp %s: %w", label, err)
		}
		s.Observations = append(s.Observations, t[label]...)
	}
	s = s.Sorted().Between(start, end)

	f.Store(clean, s)
	return f.Result(s, false), nil
}

// quarter returns the table for the quarter starting at q, from cache if
// possible.
func (f *treasuryRatesFetcher) quarter(ctx context.Context, q time.Time, apiKey string) (quarterTable, error) {
	key := quarterKey(q)
	if v, ok := f.p.quarters.Get(key); ok {
		return v.(quarterTable), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	var rows []fmpTreasuryRate
	if err := f.p.getJSON(ctx, "/v4/treasury", apiKey, q, q.AddDate(0, 3, -1), &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	t := toTable(rows)
	f.p.quarters.Set(key, t)
	return t, nil
}

// toTable splits treasury rows into per-maturity observations, skipping
// undated rows and zero (missing) rates.
func toTable(rows []fmpTreasuryRate) quarterTable {
	t := quarterTable{}
	for _, r := range rows {
		d, err := utils.ParseDate(r.Date)
		if err != nil {
			continue
		}
		for _, c := range columns {
			if v := c.Value(r); v > 0 {
				t[c.Label] = append(t[c.Label], models.Observation{Date: d, Value: v})
			}
		}
	}
	return t
}

func supported(label string) bool {
	for _, c := range columns {
		if c.Label == label {
			return true
		}
	}
	return false
}

// quartersBetween returns the first day of each calendar quarter touched by
// [start, end].
func quartersBetween(start, end time.Time) []time.Time {
	q := quarterStart(start)
	var out []time.Time
	for !q.After(end) {
		out = append(out, q)
		q = q.AddDate(0, 3, 0)
	}
	return out
}

func quarterStart(t time.Time) time.Time {
	m := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), m, 1, 0, 0, 0, 0, time.UTC)
}

func quarterKey(q time.Time) string {
	return fmt.Sprintf("%dQ%d", q.Year(), (int(q.Month())-1)/3+1)
}
