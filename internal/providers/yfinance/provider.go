// Package yfinance implements the Yahoo Finance provider for treasury yield
// indices (^IRX, ^FVX, ^TNX, ^TYX) via the public v8 chart API.
//
// Yahoo Finance needs no API key. It has no 2-year yield index, so the
// analysis estimates that point when this is the only source.
package yfinance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
)

const (
	providerName   = "yfinance"
	defaultBaseURL = "https://query1.finance.yahoo.com"
)

// Provider implements provider.Provider for Yahoo Finance.
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

// New creates a Yahoo Finance provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Yahoo Finance - treasury yield indices",
			"https://finance.yahoo.com",
			nil,
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

// Ping checks connectivity to Yahoo Finance.
func (p *Provider) Ping(ctx context.Context) error {
	var resp yfChartResponse
	if err := p.fetchJSON(ctx, p.baseURL+"/v8/finance/chart/%5ETNX?range=5d&interval=1d", &resp); err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	return nil
}

func (p *Provider) fetchJSON(ctx context.Context, url string, dest any) error {
	body, _, err := infra.DoGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
