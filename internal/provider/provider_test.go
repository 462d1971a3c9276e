package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

type mockFetcher struct {
	BaseFetcher
	calls   int
	fetchFn func(ctx context.Context, params QueryParams) (*FetchResult, error)
}

func newMockFetcher(model ModelType) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: NewBaseFetcher(model, "mock "+string(model), []string{ParamSymbol}, []string{ParamStartDate, ParamEndDate}),
	}
}

func (m *mockFetcher) Fetch(ctx context.Context, params QueryParams) (*FetchResult, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, params)
	}
	return &FetchResult{Data: models.RateSeries{
		Label:        params[ParamSymbol],
		Observations: []models.Observation{{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 4.1}},
	}}, nil
}

type mockProvider struct {
	BaseProvider
}

func newMockProvider(name string, ms ...ModelType) *mockProvider {
	mp := &mockProvider{BaseProvider: NewBaseProvider(name, "Mock "+name, "https://example.com", nil)}
	for _, m := range ms {
		mp.RegisterFetcher(newMockFetcher(m))
	}
	return mp
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("fred", ModelTreasurySeries, ModelPolicyRate)
	require.NoError(t, p.Init(nil))
	require.NoError(t, reg.Register(p))

	got, err := reg.Get("fred")
	require.NoError(t, err)
	assert.Equal(t, "fred", got.Info().Name)
	assert.Equal(t, []ModelType{ModelTreasurySeries, ModelPolicyRate}, got.Info().Models)

	_, err = reg.Get("nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	var nf *ErrProviderNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestRegistry_RegisterEmptyName(t *testing.T) {
	assert.Error(t, NewRegistry().Register(newMockProvider("")))
}

func TestRegistry_ListAndNames(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newMockProvider("yfinance", ModelTreasurySeries)))
	require.NoError(t, reg.Register(newMockProvider("fred", ModelTreasurySeries)))

	assert.Equal(t, []string{"fred", "yfinance"}, reg.Names())
	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "fred", list[0].Name)
}

func TestRegistry_ProvidersForAndDefault(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newMockProvider("fred", ModelTreasurySeries, ModelPolicyRate)))
	require.NoError(t, reg.Register(newMockProvider("treasury", ModelTreasurySeries)))
	require.NoError(t, reg.Register(newMockProvider("treasury", ModelTreasurySeries)))

	assert.Equal(t, []string{"fred", "treasury"}, reg.ProvidersFor(ModelTreasurySeries))
	assert.Equal(t, []string{"fred"}, reg.ProvidersFor(ModelPolicyRate))

	def, ok := reg.DefaultProvider(ModelTreasurySeries)
	require.True(t, ok)
	assert.Equal(t, "fred", def)

	require.NoError(t, reg.SetDefault(ModelTreasurySeries, "treasury"))
	def, _ = reg.DefaultProvider(ModelTreasurySeries)
	assert.Equal(t, "treasury", def)

	err := reg.SetDefault(ModelPolicyRate, "treasury")
	assert.True(t, errors.Is(err, ErrUnsupported))
	err = reg.SetDefault(ModelPolicyRate, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_Fetch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newMockProvider("fred", ModelTreasurySeries)))

	res, err := reg.Fetch(context.Background(), ModelTreasurySeries, QueryParams{ParamSymbol: "10Y"})
	require.NoError(t, err)
	assert.Equal(t, "fred", res.Provider)
	assert.Equal(t, ModelTreasurySeries, res.Model)
	assert.Equal(t, "fred", res.Data.Source)
	assert.Equal(t, "10Y", res.Data.Label)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestRegistry_FetchErrors(t *testing.T) {
	reg := NewRegistry()
	p := newMockProvider("fred", ModelTreasurySeries)
	require.NoError(t, reg.Register(p))

	_, err := reg.Fetch(context.Background(), ModelTreasurySeries, QueryParams{})
	assert.True(t, errors.Is(err, ErrMissingParameter))

	_, err = reg.Fetch(context.Background(), ModelPolicyRate, QueryParams{ParamSymbol: "FFR"})
	assert.True(t, errors.Is(err, ErrNotFound), "no default for policy rate")

	_, err = reg.Fetch(context.Background(), ModelPolicyRate, QueryParams{ParamSymbol: "FFR", ParamProvider: "fred"})
	assert.True(t, errors.Is(err, ErrUnsupported))

	boom := errors.New("upstream down")
	p.Fetcher(ModelTreasurySeries).(*mockFetcher).fetchFn = func(context.Context, QueryParams) (*FetchResult, error) {
		return nil, boom
	}
	_, err = reg.Fetch(context.Background(), ModelTreasurySeries, QueryParams{ParamSymbol: "10Y"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `provider "fred"`)
}

func TestBaseProvider_Init(t *testing.T) {
	bp := NewBaseProvider("fred", "FRED", "https://fred.stlouisfed.org", []ProviderCredential{
		{Name: "api_key", Required: true, EnvVar: "FRED_API_KEY"},
	})
	err := bp.Init(map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentials))

	require.NoError(t, bp.Init(map[string]string{"api_key": "abc"}))
	assert.Equal(t, "abc", bp.Credential("api_key"))
}

func TestBaseFetcher_Cache(t *testing.T) {
	f := newMockFetcher(ModelTreasurySeries)
	params := SeriesParams("5Y", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})

	_, ok := f.Cached(params)
	assert.False(t, ok)

	f.Store(params, models.RateSeries{Label: "5Y"})
	s, ok := f.Cached(params)
	require.True(t, ok)
	assert.Equal(t, "5Y", s.Label)

	with := QueryParams{ParamProvider: "fred"}
	for k, v := range params {
		with[k] = v
	}
	_, ok = f.Cached(with)
	assert.True(t, ok, "provider override must not change the key")

	res := f.Result(s, true)
	assert.True(t, res.Cached)
	assert.Equal(t, ModelTreasurySeries, res.Model)
	require.NoError(t, f.RateLimit(context.Background()))
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(ModelTreasurySeries, QueryParams{ParamSymbol: "2Y", ParamStartDate: "2024-01-01"})
	b := CacheKey(ModelTreasurySeries, QueryParams{ParamStartDate: "2024-01-01", ParamSymbol: "2Y"})
	assert.Equal(t, a, b)
	assert.Equal(t, "TreasurySeries:start_date=2024-01-01:symbol=2Y", a)
}

func TestQueryParams_DateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	s, e, err := SeriesParams("10Y", start, end).DateRange()
	require.NoError(t, err)
	assert.Equal(t, start, s)
	assert.Equal(t, end, e)

	s, e, err = QueryParams{}.DateRange()
	require.NoError(t, err)
	assert.True(t, s.IsZero())
	assert.True(t, e.IsZero())

	_, _, err = QueryParams{ParamStartDate: "03/01/2024"}.DateRange()
	assert.Error(t, err)
}
