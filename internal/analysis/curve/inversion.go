package curve

import (
	"time"
)

// InversionInterval is a maximal run of negative spread values.
//
// End is the first non-negative date after the run. For a run still in
// progress at the last observation, End is that last date and StillActive is
// set.
type InversionInterval struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	StillActive bool      `json:"still_active"`
}

// Days returns the calendar-day length of the interval.
func (iv InversionInterval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours() / 24)
}

// Inverted reports whether a spread value counts as inverted. Zero does not.
func Inverted(v float64) bool { return v < 0 }

// DetectInversions scans s once and returns its inversion intervals in order.
func DetectInversions(s SpreadSeries) []InversionInterval {
	intervals := []InversionInterval{}
	var (
		inverted bool
		start    time.Time
	)
	for _, p := range s.Points {
		switch {
		case Inverted(p.Value) && !inverted:
			inverted = true
			start = p.Date
		case !Inverted(p.Value) && inverted:
			inverted = false
			intervals = append(intervals, InversionInterval{Start: start, End: p.Date})
		}
	}
	if inverted {
		last := s.Points[len(s.Points)-1]
		intervals = append(intervals, InversionInterval{Start: start, End: last.Date, StillActive: true})
	}
	return intervals
}

// Status is the latest spread reading.
type Status struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	Inverted bool      `json:"inverted"`
}

// CurrentStatus returns the last point of s and whether it is inverted.
func CurrentStatus(s SpreadSeries) (Status, error) {
	if len(s.Points) == 0 {
		return Status{}, &EmptySeriesError{Series: s.Name, Op: "current status"}
	}
	last := s.Points[len(s.Points)-1]
	return Status{Date: last.Date, Value: last.Value, Inverted: Inverted(last.Value)}, nil
}
