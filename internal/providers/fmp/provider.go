// Package fmp implements the Financial Modeling Prep (FMP) data provider for
// the daily treasury rates table. One request covers every maturity for up
// to three months, so responses are cached per calendar quarter.
//
// Free tier: 250 requests/day.
// Docs: https://financialmodelingprep.com/developer/docs
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
)

const (
	providerName   = "fmp"
	defaultBaseURL = "https://financialmodelingprep.com/api"
	credAPIKey     = "api_key"

	// paramAPIKey carries the key from the provider into its fetchers.
	paramAPIKey = "_fmp_api_key"

	// Past quarters never change; the current one is refetched after this.
	quarterTTL = 6 * time.Hour
)

// Provider implements provider.Provider for FMP.
type Provider struct {
	provider.BaseProvider
	apiKey   string
	baseURL  string
	quarters *infra.Cache // "2024Q1" → quarterTable
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// New creates a new FMP provider with the treasury rates fetcher.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Financial Modeling Prep - daily treasury rates, every maturity",
			"https://financialmodelingprep.com",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "FMP API key from financialmodelingprep.com",
					Required:    true,
					EnvVar:      "FMP_API_KEY",
				},
			},
		),
		baseURL:  defaultBaseURL,
		quarters: infra.NewCache(quarterTTL),
	}
	for _, o := range opts {
		o(p)
	}

	p.RegisterFetcher(newTreasuryRatesFetcher(p))
	p.SetMaturities(Maturities())
	return p
}

// Init stores the API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.apiKey = credentials[credAPIKey]
	return nil
}

// Ping checks connectivity and the API key with a one-week request.
func (p *Provider) Ping(ctx context.Context) error {
	end := time.Now()
	var rows []fmpTreasuryRate
	if err := p.getJSON(ctx, "/v4/treasury", p.apiKey, end.AddDate(0, 0, -7), end, &rows); err != nil {
		return fmt.Errorf("fmp ping: %w", err)
	}
	return nil
}

// Fetcher overrides BaseProvider.Fetcher to return a wrapper that
// auto-injects the FMP API key into query params before delegating.
func (p *Provider) Fetcher(model provider.ModelType) provider.Fetcher {
	inner := p.BaseProvider.Fetcher(model)
	if inner == nil {
		return nil
	}
	return &apiKeyInjector{inner: inner, apiKey: &p.apiKey}
}

// apiKeyInjector wraps a Fetcher and injects the FMP API key.
type apiKeyInjector struct {
	inner  provider.Fetcher
	apiKey *string
}

func (w *apiKeyInjector) ModelType() provider.ModelType { return w.inner.ModelType() }
func (w *apiKeyInjector) Description() string           { return w.inner.Description() }
func (w *apiKeyInjector) RequiredParams() []string      { return w.inner.RequiredParams() }
func (w *apiKeyInjector) OptionalParams() []string      { return w.inner.OptionalParams() }

func (w *apiKeyInjector) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	enriched := make(provider.QueryParams, len(params)+1)
	for k, v := range params {
		enriched[k] = v
	}
	enriched[paramAPIKey] = *w.apiKey
	return w.inner.Fetch(ctx, enriched)
}

// --- Shared helpers ---

var jsonHeaders = map[string]string{"Accept": "application/json"}

// getJSON performs a dated GET request to FMP and decodes the response.
func (p *Provider) getJSON(ctx context.Context, path, apiKey string, from, to time.Time, dest any) error {
	q := url.Values{
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
		"apikey": {apiKey},
	}
	body, _, err := infra.DoGet(ctx, p.baseURL+path+"?"+q.Encode(), jsonHeaders)
	if err != nil {
		return err
	}

	// Errors come back as 200 with an object instead of an array.
	var apiErr fmpError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("fmp: %s", apiErr.Message)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse FMP JSON: %w", err)
	}
	return nil
}
