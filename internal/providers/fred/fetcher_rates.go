package fred

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

// treasurySeries maps maturity labels to FRED constant-maturity series IDs.
var treasurySeries = []struct {
	Label    string
	SeriesID string
}{
	{models.Maturity3M, "DGS3MO"},
	{models.Maturity2Y, "DGS2"},
	{models.Maturity5Y, "DGS5"},
	{models.Maturity10Y, "DGS10"},
	{models.Maturity30Y, "DGS30"},
}

const policyRateSeries = "DFF"

// Maturities returns the labels served by this provider, shortest first.
func Maturities() []string {
	out := make([]string, len(treasurySeries))
	for i, t := range treasurySeries {
		out[i] = t.Label
	}
	return out
}

// SeriesID returns the FRED series ID for a maturity label.
func SeriesID(label string) (string, bool) {
	for _, t := range treasurySeries {
		if t.Label == label {
			return t.SeriesID, true
		}
	}
	return "", false
}

// treasuryFetcher fetches one DGS* series per request.
type treasuryFetcher struct {
	provider.BaseFetcher
	c *client
}

func newTreasuryFetcher(c *client) *treasuryFetcher {
	return &treasuryFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTreasurySeries,
			"Treasury constant maturity yield (DGS*) from FRED",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 2, time.Second, // 120/min
		),
		c: c,
	}
}

func (f *treasuryFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	label := params[provider.ParamSymbol]
	id, ok := SeriesID(label)
	if !ok {
		return nil, &provider.ErrMaturityNotSupported{Provider: providerName, Maturity: label}
	}
	return f.fetch(ctx, params, label, id)
}

func (f *treasuryFetcher) fetch(ctx context.Context, params provider.QueryParams, label, id string) (*provider.FetchResult, error) {
	if s, ok := f.Cached(params); ok {
		return f.Result(s, true), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	obs, err := f.c.observations(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("fred %s (%s): %w", label, id, err)
	}
	s := toSeries(label, obs)
	f.Store(params, s)
	return f.Result(s, false), nil
}

// policyRateFetcher fetches the daily effective federal funds rate.
type policyRateFetcher struct {
	treasuryFetcher
}

func newPolicyRateFetcher(c *client) *policyRateFetcher {
	return &policyRateFetcher{treasuryFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelPolicyRate,
			"Effective Federal Funds Rate (DFF) from FRED",
			nil,
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 2, time.Second,
		),
		c: c,
	}}
}

func (f *policyRateFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	return f.fetch(ctx, params, models.PolicyRate, policyRateSeries)
}
