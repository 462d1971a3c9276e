package curve

import (
	"time"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

// SpreadSpec names a spread and the two columns it subtracts.
type SpreadSpec struct {
	Name  string `mapstructure:"name" json:"name"`
	Long  string `mapstructure:"long" json:"long"`
	Short string `mapstructure:"short" json:"short"`
}

// Standard spreads.
var (
	Spread2s10s = SpreadSpec{Name: "2s10s", Long: models.Maturity10Y, Short: EstimatedTwoYear}
	Spread5s30s = SpreadSpec{Name: "5s30s", Long: models.Maturity30Y, Short: models.Maturity5Y}
)

// SpreadPoint is one dated spread value, in percentage points.
type SpreadPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// SpreadSeries is long minus short over the rows where both are set.
type SpreadSeries struct {
	Name   string        `json:"name"`
	Long   string        `json:"long"`
	Short  string        `json:"short"`
	Points []SpreadPoint `json:"points"`
}

// Len returns the number of points.
func (s SpreadSeries) Len() int { return len(s.Points) }

// Values returns the spread values in date order.
func (s SpreadSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// ComputeSpread derives spec.Long - spec.Short for every row of t where both
// cells are set.
func ComputeSpread(t *AlignedTable, spec SpreadSpec) (SpreadSeries, error) {
	for _, l := range []string{spec.Long, spec.Short} {
		if !t.Has(l) {
			return SpreadSeries{}, &ColumnNotFoundError{Label: l, Available: t.Labels()}
		}
	}

	out := SpreadSeries{Name: spec.Name, Long: spec.Long, Short: spec.Short}
	if out.Name == "" {
		out.Name = spec.Long + "-" + spec.Short
	}
	for i := 0; i < t.Len(); i++ {
		long, ok := t.Value(i, spec.Long)
		if !ok {
			continue
		}
		short, ok := t.Value(i, spec.Short)
		if !ok {
			continue
		}
		out.Points = append(out.Points, SpreadPoint{Date: t.Date(i), Value: long - short})
	}
	return out, nil
}
