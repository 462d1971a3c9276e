package treasury

import (
	"context"
	"time"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

type parYieldFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newParYieldFetcher(p *Provider) *parYieldFetcher {
	return &parYieldFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelTreasurySeries,
			"Daily par yield curve rate from treasury.gov",
			[]string{provider.ParamSymbol},
			[]string{provider.ParamStartDate, provider.ParamEndDate},
			provider.DefaultCacheTTL, 4, time.Second,
		),
		p: p,
	}
}

func (f *parYieldFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	label := params[provider.ParamSymbol]
	if _, ok := headerFor(label); !ok {
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

	s := models.RateSeries{Label: label, Source: providerName}
	for _, y := range utils.YearsBetween(start, end) {
		if err := f.RateLimit(ctx); err != nil {
			return nil, err
		}
		t, err := f.p.year(ctx, y)
		if err != nil {
			return nil, err
		}
		s.Observations = append(s.Observations, t[label]...)
	}
	s = s.Sorted().Between(start, end)

	f.Store(params, s)
	return f.Result(s, false), nil
}
