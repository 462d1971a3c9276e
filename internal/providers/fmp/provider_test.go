package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

func TestProviderInfo(t *testing.T) {
	p := New()
	info := p.Info()
	assert.Equal(t, "fmp", info.Name)
	assert.NotEmpty(t, info.Website)
	require.Len(t, info.Credentials, 1)
	assert.Equal(t, "api_key", info.Credentials[0].Name)
	assert.Equal(t, "FMP_API_KEY", info.Credentials[0].EnvVar)
	assert.True(t, info.Credentials[0].Required)
	assert.Equal(t, []provider.ModelType{provider.ModelTreasurySeries}, p.SupportedModels())
	assert.Equal(t, []string{"3M", "2Y", "5Y", "10Y", "30Y"}, info.Maturities)
}

func TestProviderInitMissingKey(t *testing.T) {
	err := New().Init(map[string]string{})
	assert.True(t, errors.Is(err, provider.ErrCredentials))
}

// newTestServer serves two quarters of treasury rows and counts requests.
func newTestServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" {
			json.NewEncoder(w).Encode(map[string]string{"Error Message": "Invalid API KEY."})
			return
		}
		if r.URL.Path != "/v4/treasury" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var rows []map[string]any
		switch q.Get("from") {
		case "2024-01-01":
			assert.Equal(t, "2024-03-31", q.Get("to"))
			rows = []map[string]any{
				{"date": "2024-03-28", "month3": 5.46, "year2": 4.59, "year5": 4.21, "year10": 4.20, "year30": 4.34},
				{"date": "2024-01-02", "month3": 5.46, "year2": 4.33, "year5": 3.93, "year10": 3.95, "year30": 4.08},
				{"date": "", "year10": 9.99},
			}
		case "2024-04-01":
			rows = []map[string]any{
				{"date": "2024-04-01", "month3": 5.45, "year2": 4.72, "year5": 4.34, "year10": 4.33, "year30": 0},
			}
		}
		json.NewEncoder(w).Encode(rows)
	}))
}

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	p := New(WithBaseURL(url))
	require.NoError(t, p.Init(map[string]string{"api_key": "test-key"}))
	return p
}

func TestTreasuryFetch(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	defer srv.Close()
	p := newTestProvider(t, srv.URL)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	params := provider.SeriesParams("10Y", start, end)
	res, err := p.Fetcher(provider.ModelTreasurySeries).Fetch(context.Background(), params)
	require.NoError(t, err)

	s := res.Data
	assert.Equal(t, "10Y", s.Label)
	assert.Equal(t, "fmp", s.Source)
	require.Len(t, s.Observations, 3, "undated row skipped, quarters joined")
	assert.Equal(t, models.Observation{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 3.95}, s.Observations[0])
	assert.Equal(t, 4.33, s.Observations[2].Value)
	assert.Equal(t, int32(2), calls.Load(), "one request per quarter")

	// Another maturity in the same window reuses the quarter tables.
	res, err = p.Fetcher(provider.ModelTreasurySeries).Fetch(context.Background(), provider.SeriesParams("30Y", start, end))
	require.NoError(t, err)
	assert.Len(t, res.Data.Observations, 2, "zero rate is missing")
	assert.Equal(t, int32(2), calls.Load())

	res, err = p.Fetcher(provider.ModelTreasurySeries).Fetch(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, res.Cached)
}

func TestTreasuryFetch_BadKey(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, &calls)
	defer srv.Close()

	p := New(WithBaseURL(srv.URL))
	require.NoError(t, p.Init(map[string]string{"api_key": "wrong"}))
	_, err := p.Fetcher(provider.ModelTreasurySeries).Fetch(context.Background(),
		provider.SeriesParams("2Y", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API KEY")
	assert.Contains(t, err.Error(), "2024Q1")
}

func TestTreasuryFetch_UnknownMaturity(t *testing.T) {
	p := New(WithBaseURL("http://127.0.0.1:0"))
	_, err := p.Fetcher(provider.ModelTreasurySeries).Fetch(context.Background(), provider.QueryParams{provider.ParamSymbol: "7Y"})
	assert.True(t, errors.Is(err, provider.ErrUnsupported))
}

func TestQuartersBetween(t *testing.T) {
	qs := quartersBetween(time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))
	require.Len(t, qs, 3)
	assert.Equal(t, time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC), qs[0])
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), qs[2])
	assert.Equal(t, "2023Q4", quarterKey(qs[0]))
	assert.Equal(t, "2024Q2", quarterKey(qs[2]))
}
