package curve

import (
	"math"
	"sort"
	"time"

	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// MinAlignSeries is the minimum number of usable series Align accepts.
const MinAlignSeries = 2

// Align merges series onto the sorted union of their dates. Each column is
// forward-filled and then backward-filled independently; rows left with every
// column unset are dropped. Dates are truncated to calendar days and a date
// repeated within one series keeps the later observation. NaN values are
// treated as missing.
func Align(series ...models.RateSeries) (*AlignedTable, error) {
	labels := make([]string, 0, len(series))
	seen := make(map[string]bool, len(series))
	var usable []string
	for _, s := range series {
		if seen[s.Label] {
			return nil, &DuplicateSeriesError{Label: s.Label}
		}
		seen[s.Label] = true
		labels = append(labels, s.Label)
		if hasValues(s) {
			usable = append(usable, s.Label)
		}
	}

	if len(series) < MinAlignSeries {
		return nil, &InsufficientSeriesError{Got: len(usable), Need: MinAlignSeries, Labels: usable}
	}
	if len(usable) == 0 {
		return nil, &EmptyDataError{Labels: labels}
	}
	if len(usable) < MinAlignSeries {
		return nil, &InsufficientSeriesError{Got: len(usable), Need: MinAlignSeries, Labels: usable}
	}

	// Union index.
	index := make(map[time.Time]int)
	var dates []time.Time
	for _, s := range series {
		for _, o := range s.Observations {
			d := utils.DateOnly(o.Date)
			if _, ok := index[d]; !ok {
				index[d] = 0
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for i, d := range dates {
		index[d] = i
	}

	cols := make(map[string][]float64, len(series))
	for _, s := range series {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = unset()
		}
		for _, o := range s.Observations {
			if math.IsNaN(o.Value) {
				continue
			}
			col[index[utils.DateOnly(o.Date)]] = o.Value
		}
		fillForward(col)
		fillBackward(col)
		cols[s.Label] = col
	}

	return dropEmptyRows(&AlignedTable{dates: dates, labels: labels, cols: cols}), nil
}

// fillForward propagates the last known value into following unset cells.
func fillForward(col []float64) {
	last := unset()
	for i, v := range col {
		if math.IsNaN(v) {
			col[i] = last
			continue
		}
		last = v
	}
}

// fillBackward propagates the first known value into leading unset cells.
func fillBackward(col []float64) {
	next := unset()
	for i := len(col) - 1; i >= 0; i-- {
		if math.IsNaN(col[i]) {
			col[i] = next
			continue
		}
		next = col[i]
	}
}

func dropEmptyRows(t *AlignedTable) *AlignedTable {
	keep := make([]int, 0, len(t.dates))
	for i := range t.dates {
		for _, l := range t.labels {
			if !math.IsNaN(t.cols[l][i]) {
				keep = append(keep, i)
				break
			}
		}
	}
	if len(keep) == len(t.dates) {
		return t
	}

	dates := make([]time.Time, len(keep))
	for j, i := range keep {
		dates[j] = t.dates[i]
	}
	cols := make(map[string][]float64, len(t.cols))
	for _, l := range t.labels {
		col := make([]float64, len(keep))
		for j, i := range keep {
			col[j] = t.cols[l][i]
		}
		cols[l] = col
	}
	return &AlignedTable{dates: dates, labels: t.labels, cols: cols}
}

func hasValues(s models.RateSeries) bool {
	for _, o := range s.Observations {
		if !math.IsNaN(o.Value) {
			return true
		}
	}
	return false
}
