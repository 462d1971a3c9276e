package federalreserve

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// effrStart is the first date the NY Fed publishes EFFR under the current
// methodology.
const effrStart = "2016-03-01"

// ---------------------------------------------------------------------------
// Effective Federal Funds Rate (EFFR).
// URL: https://markets.newyorkfed.org/api/rates/unsecured/effr/search.json
// ---------------------------------------------------------------------------

type federalFundsRateFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newFederalFundsRateFetcher(p *Provider) *federalFundsRateFetcher {
	return &federalFundsRateFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.ModelPolicyRate,
			"Federal Reserve effective federal funds rate (EFFR)",
			nil,
			[]string{provider.ParamStartDate, provider.ParamEndDate},
		),
		p: p,
	}
}

func (f *federalFundsRateFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if s, ok := f.Cached(params); ok {
		return f.Result(s, true), nil
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("startDate", defaultDate(params, provider.ParamStartDate, effrStart))
	q.Set("endDate", defaultDate(params, provider.ParamEndDate, utils.FormatDate(utils.Today())))

	var resp nyfedRatesResponse
	if err := f.p.getJSON(ctx, "/rates/unsecured/effr/search.json", q, &resp); err != nil {
		return nil, fmt.Errorf("fed funds rate: %w", err)
	}

	s := toSeries(resp.RefRates)
	f.Store(params, s)
	return f.Result(s, false), nil
}

// toSeries converts NY Fed entries, skipping undated rows. The API returns
// newest first; callers sort.
func toSeries(rates []nyfedRefRate) models.RateSeries {
	s := models.RateSeries{Label: models.PolicyRate, Source: providerName}
	for _, r := range rates {
		d, err := time.Parse(utils.DateLayout, r.EffectiveDate)
		if err != nil {
			continue
		}
		s.Observations = append(s.Observations, models.Observation{Date: d, Value: r.PercentRate})
	}
	return s
}

// defaultDate returns params[key], or fallback when unset.
func defaultDate(params provider.QueryParams, key, fallback string) string {
	if v := params[key]; v != "" {
		return v
	}
	return fallback
}
