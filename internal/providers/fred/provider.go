// Package fred implements the FRED (Federal Reserve Economic Data) provider
// for constant-maturity treasury yields (DGS*) and the effective federal
// funds rate (DFF).
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Rate limit: 120 requests/minute.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

const (
	providerName   = "fred"
	defaultBaseURL = "https://api.stlouisfed.org/fred"
	credAPIKey     = "api_key"
)

// Provider implements provider.Provider for FRED.
type Provider struct {
	provider.BaseProvider
	client *client
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.client.baseURL = u }
}

// New creates a FRED provider with the treasury and policy-rate fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Federal Reserve Economic Data - daily treasury constant maturity yields",
			"https://fred.stlouisfed.org",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "FRED API key from fred.stlouisfed.org",
					Required:    true,
					EnvVar:      "FRED_API_KEY",
				},
			},
		),
		client: &client{baseURL: defaultBaseURL},
	}
	for _, o := range opts {
		o(p)
	}

	p.RegisterFetcher(newTreasuryFetcher(p.client))
	p.RegisterFetcher(newPolicyRateFetcher(p.client))
	p.SetMaturities(Maturities())
	return p
}

// Init stores the API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.client.apiKey = credentials[credAPIKey]
	return nil
}

// Ping checks connectivity and the API key.
func (p *Provider) Ping(ctx context.Context) error {
	var resp fredSeriesResponse
	if err := p.client.getJSON(ctx, "series", url.Values{"series_id": {"DGS10"}}, &resp); err != nil {
		return fmt.Errorf("fred ping: %w", err)
	}
	return nil
}

// client holds the connection settings shared by every fetcher.
type client struct {
	baseURL string
	apiKey  string
}

func (c *client) getJSON(ctx context.Context, endpoint string, q url.Values, dest any) error {
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	u := c.baseURL + "/" + endpoint + "?" + q.Encode()

	body, _, err := infra.DoGet(ctx, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse FRED JSON: %w", err)
	}
	return nil
}

// observations fetches a series by ID within the optional date range.
func (c *client) observations(ctx context.Context, seriesID string, params provider.QueryParams) ([]fredObservation, error) {
	q := url.Values{"series_id": {seriesID}}
	if sd := params[provider.ParamStartDate]; sd != "" {
		q.Set("observation_start", sd)
	}
	if ed := params[provider.ParamEndDate]; ed != "" {
		q.Set("observation_end", ed)
	}

	var resp fredObservationsResponse
	if err := c.getJSON(ctx, "series/observations", q, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("fred: %s", resp.ErrorMessage)
	}
	return resp.Observations, nil
}

// toSeries converts FRED observations, skipping "." placeholders for
// missing days and unparseable values.
func toSeries(label string, obs []fredObservation) models.RateSeries {
	s := models.RateSeries{Label: label, Source: providerName}
	for _, o := range obs {
		if o.Value == "." || o.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		s.Observations = append(s.Observations, models.Observation{Date: d, Value: v})
	}
	return s
}
