// Package cboe implements a CBOE data provider for the treasury yield
// indices (IRX, FVX, TNX, TYX), sourced from the public CBOE CDN (JSON).
// No API key required.
package cboe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
)

const (
	providerName = "cboe"

	// CBOE CDN delayed-quote charts.
	defaultBaseURL = "https://cdn.cboe.com/api/global/delayed_quotes"
)

// Provider is the CBOE data provider.
type Provider struct {
	provider.BaseProvider
	baseURL string
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at another CDN root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// New creates a CBOE provider with the yield index fetcher.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"CBOE - treasury yield index daily closes (free, no API key)",
			"https://www.cboe.com",
			nil, // no credentials required
		),
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}

	p.RegisterFetcher(newYieldIndexFetcher(p))
	p.SetMaturities(Maturities())
	return p
}

// Ping verifies connectivity to the CBOE CDN.
func (p *Provider) Ping(ctx context.Context) error {
	var resp cboeChartResponse
	if err := p.fetchJSON(ctx, p.chartURL("TNX"), &resp); err != nil {
		return fmt.Errorf("cboe ping: %w", err)
	}
	return nil
}

// chartURL returns the daily history URL of an index. Index symbols always
// get an underscore prefix on the CDN.
func (p *Provider) chartURL(symbol string) string {
	return p.baseURL + "/charts/historical/_" + symbol + ".json"
}

// ---------------------------------------------------------------------------
// HTTP helpers.
// ---------------------------------------------------------------------------

var cboeHeaders = map[string]string{
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
}

// fetchJSON fetches a CBOE CDN JSON endpoint and decodes into dst.
func (p *Provider) fetchJSON(ctx context.Context, url string, dst any) error {
	body, _, err := infra.DoGet(ctx, url, cboeHeaders)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("cboe: parse chart: %w", err)
	}
	return nil
}

// parseCBOEDate parses the CDN's ISO dates; zero on failure.
func parseCBOEDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
