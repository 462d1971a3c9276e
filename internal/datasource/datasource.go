// Package datasource turns the provider registry into the rate series an
// analysis needs. It tries the configured sources in order for each maturity,
// caches what it fetches, and falls back to clearly-labelled synthetic data
// when too few maturities can be collected.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/internal/store"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// MarketDataProvider fetches one labelled rate series over a date window.
type MarketDataProvider interface {
	// Name identifies the source in logs, metrics and reports.
	Name() string

	// FetchSeries returns the series for label within [start, end].
	// An empty series with a nil error means the source had no data.
	FetchSeries(ctx context.Context, label string, start, end time.Time) (models.RateSeries, error)
}

// ErrEmptySeries is recorded when a source answers without observations.
var ErrEmptySeries = errors.New("source returned no observations")

// ════════════════════════════════════════════════════════════════════
// Registry-backed source
// ════════════════════════════════════════════════════════════════════

// RegistrySource serves treasury series from one named registry provider.
type RegistrySource struct {
	reg  *provider.Registry
	name string
}

// NewRegistrySource adapts the provider called name.
func NewRegistrySource(reg *provider.Registry, name string) *RegistrySource {
	return &RegistrySource{reg: reg, name: name}
}

// Name returns the provider name.
func (s *RegistrySource) Name() string { return s.name }

// FetchSeries fetches label through the registry.
func (s *RegistrySource) FetchSeries(ctx context.Context, label string, start, end time.Time) (models.RateSeries, error) {
	params := provider.SeriesParams(label, start, end)
	params[provider.ParamProvider] = s.name

	res, err := s.reg.Fetch(ctx, provider.ModelTreasurySeries, params)
	if err != nil {
		return models.RateSeries{}, err
	}
	out := res.Data.Sorted()
	out.Label = label
	return out, nil
}

// SourcesFor builds a RegistrySource for every name, skipping names the
// registry does not hold.
func SourcesFor(reg *provider.Registry, names []string) []MarketDataProvider {
	var out []MarketDataProvider
	for _, n := range names {
		if _, err := reg.Get(n); err != nil {
			continue
		}
		out = append(out, NewRegistrySource(reg, n))
	}
	return out
}

// PolicyRate returns the policy-rate series from the first of names that
// serves it with data.
func PolicyRate(ctx context.Context, reg *provider.Registry, names []string, start, end time.Time) (models.RateSeries, error) {
	var errs []error
	for _, n := range names {
		params := provider.SeriesParams("", start, end)
		delete(params, provider.ParamSymbol)
		params[provider.ParamProvider] = n

		res, err := reg.Fetch(ctx, provider.ModelPolicyRate, params)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if res.Data.Empty() {
			errs = append(errs, fmt.Errorf("%s: %w", n, ErrEmptySeries))
			continue
		}
		out := res.Data.Sorted()
		out.Label = models.PolicyRate
		return out, nil
	}
	if len(errs) == 0 {
		return models.RateSeries{}, &provider.ErrModelNotSupported{Provider: "any", Model: provider.ModelPolicyRate}
	}
	return models.RateSeries{}, fmt.Errorf("policy rate: %w", errors.Join(errs...))
}

// ════════════════════════════════════════════════════════════════════
// SQLite-cached source
// ════════════════════════════════════════════════════════════════════

// CachedSource serves a source through the SQLite store. Store failures are
// logged and never fail the fetch.
type CachedSource struct {
	src   MarketDataProvider
	store *store.Store
	log   zerolog.Logger
}

// NewCachedSource decorates src with st.
func NewCachedSource(src MarketDataProvider, st *store.Store, log zerolog.Logger) *CachedSource {
	return &CachedSource{src: src, store: st, log: log}
}

// Name returns the wrapped source's name.
func (c *CachedSource) Name() string { return c.src.Name() }

// FetchSeries returns a fresh cached series or fetches and stores one.
func (c *CachedSource) FetchSeries(ctx context.Context, label string, start, end time.Time) (models.RateSeries, error) {
	start, end = utils.DateOnly(start), utils.DateOnly(end)

	cached, ok, err := c.store.Get(ctx, c.src.Name(), label, start, end)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("source", c.src.Name()).Str("maturity", label).Msg("cache read failed")
	case ok && !cached.Empty():
		c.log.Debug().Str("source", c.src.Name()).Str("maturity", label).Int("points", cached.Len()).Msg("cache hit")
		return cached, nil
	}

	s, err := c.src.FetchSeries(ctx, label, start, end)
	if err != nil || s.Empty() || s.Synthetic {
		return s, err
	}
	if s.Source == "" {
		s.Source = c.src.Name()
	}
	if err := c.store.Put(ctx, s, start, end); err != nil {
		c.log.Warn().Err(err).Str("source", c.src.Name()).Str("maturity", label).Msg("cache write failed")
	}
	return s, nil
}

// WithCache wraps every non-synthetic source in sources with st.
func WithCache(sources []MarketDataProvider, st *store.Store, log zerolog.Logger) []MarketDataProvider {
	out := make([]MarketDataProvider, len(sources))
	for i, s := range sources {
		if s.Name() == "synthetic" {
			out[i] = s
			continue
		}
		out[i] = NewCachedSource(s, st, log)
	}
	return out
}
