package curve

import (
	"math"
)

// Summary holds descriptive statistics of a spread series. StdDev is the
// population standard deviation.
type Summary struct {
	Current float64 `json:"current"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
	Count   int     `json:"count"`
}

// Summarize computes Summary over every point of s.
func Summarize(s SpreadSeries) (Summary, error) {
	n := len(s.Points)
	if n == 0 {
		return Summary{}, &EmptySeriesError{Series: s.Name, Op: "summarize"}
	}

	sum := Summary{
		Current: s.Points[n-1].Value,
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
		Count:   n,
	}
	var total float64
	for _, p := range s.Points {
		total += p.Value
		sum.Min = math.Min(sum.Min, p.Value)
		sum.Max = math.Max(sum.Max, p.Value)
	}
	// A flat series has an exact mean and zero spread; summing would drift.
	if sum.Min == sum.Max {
		sum.Mean = sum.Min
		return sum, nil
	}
	sum.Mean = total / float64(n)

	var sq float64
	for _, p := range s.Points {
		d := p.Value - sum.Mean
		sq += d * d
	}
	sum.StdDev = math.Sqrt(sq / float64(n))
	return sum, nil
}
