package curve

import (
	"math"

	"github.com/creasty/defaults"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

// DefaultInterpolationWeight places the 2-year point 70% of the way from the
// short proxy to the 5-year rate; empirically the 2-year sits closer to the
// 5-year than to the bill end of the curve.
const DefaultInterpolationWeight = 0.7

// DefaultFiveYearOffset is subtracted from the 5-year rate when it is the only
// input available.
const DefaultFiveYearOffset = 0.5

// EstimatedTwoYear is the default label of the estimated 2-year column.
const EstimatedTwoYear = "2Y_est"

// Rule identifies which estimation rule produced the 2-year column.
type Rule string

const (
	RuleObserved       Rule = "observed"         // direct 2Y observations copied
	RuleInterpolated   Rule = "interpolated"     // proxy + w*(5Y - proxy)
	RuleProxy          Rule = "proxy"            // short proxy used as-is
	RuleFiveYearOffset Rule = "five_year_offset" // 5Y - offset
)

// Description returns a human-readable explanation of the rule.
func (r Rule) Description() string {
	switch r {
	case RuleObserved:
		return "direct 2-year observations"
	case RuleInterpolated:
		return "interpolated between short proxy and 5-year"
	case RuleProxy:
		return "short proxy used as 2-year (low fidelity)"
	case RuleFiveYearOffset:
		return "5-year minus fixed offset"
	default:
		return string(r)
	}
}

// EstimatorParams configures the 2-year estimation chain. Start from
// DefaultEstimatorParams; EstimateTwoYear fills empty labels but takes the
// weight and offset as given, zero included.
type EstimatorParams struct {
	TargetLabel         string  `default:"2Y_est"`
	DirectLabel         string  `default:"2Y"`
	ProxyLabel          string  `default:"3M"`
	FiveYearLabel       string  `default:"5Y"`
	InterpolationWeight float64 `default:"0.7"`
	FiveYearOffset      float64 `default:"0.5"`

	// SkipDirect ignores an observed 2Y column and always estimates.
	SkipDirect bool
}

// DefaultEstimatorParams returns the estimator defaults.
func DefaultEstimatorParams() EstimatorParams {
	var p EstimatorParams
	// Only fails for non-pointer or malformed tags, neither of which applies.
	_ = defaults.Set(&p)
	return p
}

// withLabels fills empty column labels from the defaults.
func (p EstimatorParams) withLabels() EstimatorParams {
	d := DefaultEstimatorParams()
	for _, f := range []struct{ v, def *string }{
		{&p.TargetLabel, &d.TargetLabel},
		{&p.DirectLabel, &d.DirectLabel},
		{&p.ProxyLabel, &d.ProxyLabel},
		{&p.FiveYearLabel, &d.FiveYearLabel},
	} {
		if *f.v == "" {
			*f.v = *f.def
		}
	}
	return p
}

// Estimate records how the 2-year column was produced.
type Estimate struct {
	Label    string `json:"label"`
	Rule     Rule   `json:"rule"`
	Degraded bool   `json:"degraded"` // lower-fidelity rule; callers should say so
}

// EstimateTwoYear appends a 2-year-equivalent column to the table using the
// first applicable rule: direct 2Y, interpolation between the short proxy and
// 5Y, the proxy alone, or 5Y minus a fixed offset.
func EstimateTwoYear(t *AlignedTable, p EstimatorParams) (*AlignedTable, Estimate, error) {
	p = p.withLabels()

	direct := !p.SkipDirect && t.Present(p.DirectLabel)
	proxy := t.Present(p.ProxyLabel)
	five := t.Present(p.FiveYearLabel)

	est := Estimate{Label: p.TargetLabel}
	var values []float64
	switch {
	case direct:
		est.Rule = RuleObserved
		values = derive(t, func(i int) (float64, bool) {
			return t.Value(i, p.DirectLabel)
		})
	case proxy && five:
		est.Rule = RuleInterpolated
		values = derive(t, func(i int) (float64, bool) {
			s, ok1 := t.Value(i, p.ProxyLabel)
			f, ok2 := t.Value(i, p.FiveYearLabel)
			if !ok1 || !ok2 {
				return 0, false
			}
			return s + p.InterpolationWeight*(f-s), true
		})
	case proxy:
		est.Rule = RuleProxy
		est.Degraded = true
		values = derive(t, func(i int) (float64, bool) {
			return t.Value(i, p.ProxyLabel)
		})
	case five:
		est.Rule = RuleFiveYearOffset
		values = derive(t, func(i int) (float64, bool) {
			f, ok := t.Value(i, p.FiveYearLabel)
			return f - p.FiveYearOffset, ok
		})
	default:
		tried := []string{p.ProxyLabel, p.FiveYearLabel}
		if !p.SkipDirect {
			tried = append([]string{p.DirectLabel}, tried...)
		}
		return nil, Estimate{}, &NoMaturityDataError{Target: p.TargetLabel, Tried: tried}
	}

	return t.withColumn(p.TargetLabel, values), est, nil
}

func derive(t *AlignedTable, fn func(i int) (float64, bool)) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		v, ok := fn(i)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// EstimateSeries is a convenience wrapper that aligns the given series and
// returns only the estimated 2-year series.
func EstimateSeries(p EstimatorParams, series ...models.RateSeries) (models.RateSeries, Estimate, error) {
	t, err := Align(series...)
	if err != nil {
		return models.RateSeries{}, Estimate{}, err
	}
	out, est, err := EstimateTwoYear(t, p)
	if err != nil {
		return models.RateSeries{}, Estimate{}, err
	}
	return out.Series(est.Label), est, nil
}
