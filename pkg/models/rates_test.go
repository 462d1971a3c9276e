package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestMaturityYears(t *testing.T) {
	tests := []struct {
		label string
		want  float64
		ok    bool
	}{
		{"3M", 0.25, true},
		{"2Y", 2, true},
		{"30Y", 30, true},
		{"2Y_est", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := MaturityYears(tt.label)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}

func TestRateSeries_Sorted(t *testing.T) {
	s := RateSeries{Label: "10Y", Observations: []Observation{{day(3), 4.1}, {day(1), 4.0}, {day(2), 4.2}}}
	sorted := s.Sorted()
	assert.Equal(t, []time.Time{day(1), day(2), day(3)}, []time.Time{
		sorted.Observations[0].Date, sorted.Observations[1].Date, sorted.Observations[2].Date,
	})
	assert.Equal(t, day(3), s.Observations[0].Date, "original untouched")
}

func TestRateSeries_Between(t *testing.T) {
	s := RateSeries{Observations: []Observation{{day(1), 1}, {day(2), 2}, {day(3), 3}, {day(4), 4}}}

	assert.Equal(t, 2, s.Between(day(2), day(3)).Len(), "bounds inclusive")
	assert.Equal(t, 3, s.Between(day(2), time.Time{}).Len(), "zero end is open")
	assert.Equal(t, 4, s.Between(time.Time{}, time.Time{}).Len())
	assert.True(t, s.Between(day(5), day(6)).Empty())
}

func TestRateSeries_Last(t *testing.T) {
	_, ok := RateSeries{}.Last()
	assert.False(t, ok)

	last, ok := RateSeries{Observations: []Observation{{day(1), 1}, {day(2), 2.5}}}.Last()
	require.True(t, ok)
	assert.Equal(t, 2.5, last.Value)
}
