// Package federalreserve implements a Federal Reserve data provider for the
// effective federal funds rate, sourced from the NY Fed Markets API (JSON).
// No API key required.
package federalreserve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
)

const (
	providerName = "federal_reserve"

	// NY Fed Markets API.
	defaultBaseURL = "https://markets.newyorkfed.org/api"
)

// Provider is the Federal Reserve data provider.
type Provider struct {
	provider.BaseProvider
	baseURL string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// New creates a Federal Reserve provider with the policy-rate fetcher.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Federal Reserve - NY Fed Markets API effective fed funds rate (free, no API key)",
			"https://markets.newyorkfed.org",
			nil, // no credentials required
		),
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}

	p.RegisterFetcher(newFederalFundsRateFetcher(p))
	return p
}

// Ping verifies connectivity to the NY Fed Markets API.
func (p *Provider) Ping(ctx context.Context) error {
	var resp nyfedRatesResponse
	if err := p.getJSON(ctx, "/rates/unsecured/effr/last/1.json", nil, &resp); err != nil {
		return fmt.Errorf("nyfed ping: %w", err)
	}
	return nil
}

var fedHeaders = map[string]string{
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
}

// getJSON fetches a NY Fed JSON endpoint and decodes into dst.
func (p *Provider) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	u := p.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	body, _, err := infra.DoGet(ctx, u, fedHeaders)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parse NY Fed JSON: %w", err)
	}
	return nil
}
