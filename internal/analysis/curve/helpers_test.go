package curve

import (
	"time"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

// series builds a rate series with one observation per day starting at
// offset; NaN values become gaps.
func series(label string, offset int, values ...float64) models.RateSeries {
	s := models.RateSeries{Label: label, Source: "test"}
	for i, v := range values {
		s.Observations = append(s.Observations, models.Observation{Date: day(offset + i), Value: v})
	}
	return s
}

func spreadOf(values ...float64) SpreadSeries {
	s := SpreadSeries{Name: "test", Long: "L", Short: "S"}
	for i, v := range values {
		s.Points = append(s.Points, SpreadPoint{Date: day(i), Value: v})
	}
	return s
}
