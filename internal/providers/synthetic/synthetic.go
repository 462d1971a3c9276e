// Package synthetic provides a deterministic, clearly-labelled stand-in for
// market data. It is used when too few real maturities can be fetched, and
// in offline runs. Every series it returns has Synthetic set.
package synthetic

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/creasty/defaults"

	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

const providerName = "synthetic"

// Params controls the random walk. The 10-year rate walks with normal daily
// steps and is clamped to [Floor, Ceiling]; other maturities are fixed
// offsets from it plus independent normal noise.
type Params struct {
	Seed       int64   `default:"42" mapstructure:"seed"`
	Base10Y    float64 `default:"4.5" mapstructure:"base_10y"`
	DailyVol   float64 `default:"0.05" mapstructure:"daily_vol"`
	Floor      float64 `default:"1.0" mapstructure:"floor"`
	Ceiling    float64 `default:"7.0" mapstructure:"ceiling"`
	Offset5Y   float64 `default:"-0.3" mapstructure:"offset_5y"` // from 10Y
	Offset2Y   float64 `default:"-0.4" mapstructure:"offset_2y"` // from 5Y
	Offset30Y  float64 `default:"0.2" mapstructure:"offset_30y"` // from 10Y
	Noise      float64 `default:"0.1" mapstructure:"noise"`
	PolicyLow  float64 `default:"4.5" mapstructure:"policy_low"`
	PolicyHigh float64 `default:"5.5" mapstructure:"policy_high"`
}

// DefaultParams returns the tagged defaults.
func DefaultParams() Params {
	var p Params
	_ = defaults.Set(&p)
	return p
}

// Maturities lists the labels generated, shortest first.
func Maturities() []string {
	return []string{models.Maturity2Y, models.Maturity5Y, models.Maturity10Y, models.Maturity30Y}
}

// Curve generates every maturity over the business days in [start, end].
// The same params and range always produce the same values.
func Curve(p Params, start, end time.Time) map[string]models.RateSeries {
	days := utils.BusinessDays(start, end)
	rng := rand.New(rand.NewSource(p.Seed))

	out := make(map[string]models.RateSeries, 4)
	for _, l := range Maturities() {
		out[l] = newSeries(l, len(days))
	}

	cur := p.Base10Y
	for _, d := range days {
		cur += rng.NormFloat64() * p.DailyVol
		cur = math.Max(p.Floor, math.Min(p.Ceiling, cur))

		y10 := cur
		y5 := y10 + p.Offset5Y + rng.NormFloat64()*p.Noise
		y2 := y5 + p.Offset2Y + rng.NormFloat64()*p.Noise
		y30 := y10 + p.Offset30Y + rng.NormFloat64()*p.Noise

		appendObs(out, models.Maturity10Y, d, y10)
		appendObs(out, models.Maturity5Y, d, y5)
		appendObs(out, models.Maturity2Y, d, y2)
		appendObs(out, models.Maturity30Y, d, y30)
	}
	return out
}

// PolicyRate generates a daily fed funds stand-in, uniform in
// [PolicyLow, PolicyHigh), over every calendar day in [start, end].
func PolicyRate(p Params, start, end time.Time) models.RateSeries {
	rng := rand.New(rand.NewSource(p.Seed + 1))
	s := newSeries(models.PolicyRate, 0)
	for d := utils.DateOnly(start); !d.After(utils.DateOnly(end)); d = d.AddDate(0, 0, 1) {
		v := p.PolicyLow + rng.Float64()*(p.PolicyHigh-p.PolicyLow)
		s.Observations = append(s.Observations, models.Observation{Date: d, Value: v})
	}
	return s
}

func newSeries(label string, n int) models.RateSeries {
	return models.RateSeries{
		Label:        label,
		Source:       providerName,
		Synthetic:    true,
		Observations: make([]models.Observation, 0, n),
	}
}

func appendObs(m map[string]models.RateSeries, label string, d time.Time, v float64) {
	s := m[label]
	s.Observations = append(s.Observations, models.Observation{Date: d, Value: v})
	m[label] = s
}

// ════════════════════════════════════════════════════════════════════
// Provider
// ════════════════════════════════════════════════════════════════════

// Provider serves synthetic series through the provider registry.
type Provider struct {
	provider.BaseProvider
	params Params
}

// New creates a synthetic provider. Zero fields of p take their defaults.
func New(p Params) *Provider {
	_ = defaults.Set(&p)
	sp := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Deterministic simulated treasury curve (not market data)",
			"",
			nil,
		),
		params: p,
	}
	sp.RegisterFetcher(&fetcher{model: provider.ModelTreasurySeries, p: sp})
	sp.RegisterFetcher(&fetcher{model: provider.ModelPolicyRate, p: sp})
	sp.SetMaturities(Maturities())
	return sp
}

// Params returns the provider's walk parameters.
func (sp *Provider) Params() Params { return sp.params }

type fetcher struct {
	model provider.ModelType
	p     *Provider
}

func (f *fetcher) ModelType() provider.ModelType { return f.model }
func (f *fetcher) Description() string           { return "Synthetic " + string(f.model) }
func (f *fetcher) OptionalParams() []string {
	return []string{provider.ParamStartDate, provider.ParamEndDate}
}

func (f *fetcher) RequiredParams() []string {
	if f.model == provider.ModelTreasurySeries {
		return []string{provider.ParamSymbol}
	}
	return nil
}

func (f *fetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end, err := params.DateRange()
	if err != nil {
		return nil, err
	}
	start, end = defaultRange(start, end)

	var s models.RateSeries
	if f.model == provider.ModelPolicyRate {
		s = PolicyRate(f.p.params, start, end)
	} else {
		label := params[provider.ParamSymbol]
		var ok bool
		if s, ok = Curve(f.p.params, start, end)[label]; !ok {
			return nil, &provider.ErrMaturityNotSupported{Provider: providerName, Maturity: label}
		}
	}
	return &provider.FetchResult{Model: f.model, Data: s, FetchedAt: time.Now()}, nil
}

// defaultRange fills a missing bound: end defaults to today, start to one
// year before end.
func defaultRange(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = utils.Today()
	}
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	return start, end
}
