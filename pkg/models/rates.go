// Package models defines the shared data types passed between data sources,
// the analysis core and the report layer.
package models

import (
	"sort"
	"time"
)

// Maturity labels used as series names and table columns.
const (
	Maturity3M  = "3M"
	Maturity2Y  = "2Y"
	Maturity5Y  = "5Y"
	Maturity10Y = "10Y"
	Maturity30Y = "30Y"

	// PolicyRate labels the effective federal funds rate series.
	PolicyRate = "FFR"
)

// DefaultMaturities is the set of treasury maturities fetched for a run,
// shortest first.
var DefaultMaturities = []string{Maturity3M, Maturity2Y, Maturity5Y, Maturity10Y, Maturity30Y}

// maturityYears maps maturity labels to their tenor in years.
var maturityYears = map[string]float64{
	"1M":        1.0 / 12,
	Maturity3M:  0.25,
	"6M":        0.5,
	"1Y":        1,
	Maturity2Y:  2,
	"3Y":        3,
	Maturity5Y:  5,
	"7Y":        7,
	Maturity10Y: 10,
	"20Y":       20,
	Maturity30Y: 30,
}

// MaturityYears returns the tenor in years for a maturity label.
func MaturityYears(label string) (float64, bool) {
	y, ok := maturityYears[label]
	return y, ok
}

// Observation is a single dated rate, in percent.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RateSeries is a date-ordered sequence of observations for one maturity.
type RateSeries struct {
	Label        string        `json:"label"`               // maturity label, e.g. "10Y"
	Source       string        `json:"source"`              // "fred", "yfinance", "treasury", "synthetic"
	Synthetic    bool          `json:"synthetic,omitempty"` // generated, never market data
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s RateSeries) Len() int { return len(s.Observations) }

// Empty reports whether the series has no observations.
func (s RateSeries) Empty() bool { return len(s.Observations) == 0 }

// Last returns the most recent observation.
func (s RateSeries) Last() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// Sorted returns a copy of the series with observations in ascending date order.
func (s RateSeries) Sorted() RateSeries {
	obs := make([]Observation, len(s.Observations))
	copy(obs, s.Observations)
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Date.Before(obs[j].Date)
	})
	s.Observations = obs
	return s
}

// Between returns a copy restricted to observations within [start, end].
// A zero bound is open.
func (s RateSeries) Between(start, end time.Time) RateSeries {
	obs := make([]Observation, 0, len(s.Observations))
	for _, o := range s.Observations {
		if !start.IsZero() && o.Date.Before(start) {
			continue
		}
		if !end.IsZero() && o.Date.After(end) {
			continue
		}
		obs = append(obs, o)
	}
	s.Observations = obs
	return s
}

// Headline is a dated news item shown alongside a report.
type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}
