// Package curve implements the yield-curve analysis core: aligning
// independently sourced rate series onto one date axis, estimating a missing
// 2-year point, deriving spreads, detecting inversion intervals and
// summarising spread statistics.
//
// Every function is pure: inputs are never mutated and each stage returns a
// new value. Nothing in this package blocks or performs I/O.
package curve

import (
	"math"
	"time"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

// AlignedTable is an immutable date × maturity table of rates.
// Unset cells are stored as NaN and reported as absent by the accessors.
type AlignedTable struct {
	dates  []time.Time
	labels []string
	cols   map[string][]float64
}

// Len returns the number of rows.
func (t *AlignedTable) Len() int { return len(t.dates) }

// Dates returns a copy of the ascending date axis.
func (t *AlignedTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// Date returns the date of row i.
func (t *AlignedTable) Date(i int) time.Time { return t.dates[i] }

// Labels returns the column labels in insertion order.
func (t *AlignedTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Has reports whether the table has a column with the given label.
func (t *AlignedTable) Has(label string) bool {
	_, ok := t.cols[label]
	return ok
}

// Present reports whether the column exists and holds at least one value.
func (t *AlignedTable) Present(label string) bool {
	col, ok := t.cols[label]
	if !ok {
		return false
	}
	for _, v := range col {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// Value returns the cell at row i for label, and whether it is set.
func (t *AlignedTable) Value(i int, label string) (float64, bool) {
	col, ok := t.cols[label]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	v := col[i]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Column returns a copy of a column; unset cells are NaN.
func (t *AlignedTable) Column(label string) ([]float64, bool) {
	col, ok := t.cols[label]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, true
}

// Series returns the set cells of a column as a rate series.
func (t *AlignedTable) Series(label string) models.RateSeries {
	s := models.RateSeries{Label: label}
	col, ok := t.cols[label]
	if !ok {
		return s
	}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		s.Observations = append(s.Observations, models.Observation{Date: t.dates[i], Value: v})
	}
	return s
}

// Row returns the set cells of row i keyed by label.
func (t *AlignedTable) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.labels))
	for _, l := range t.labels {
		if v, ok := t.Value(i, l); ok {
			row[l] = v
		}
	}
	return row
}

// withColumn returns a new table sharing the existing columns plus one more.
// Columns are never written after construction, so sharing is safe.
func (t *AlignedTable) withColumn(label string, values []float64) *AlignedTable {
	labels := make([]string, 0, len(t.labels)+1)
	cols := make(map[string][]float64, len(t.cols)+1)
	for _, l := range t.labels {
		labels = append(labels, l)
		cols[l] = t.cols[l]
	}
	if _, exists := t.cols[label]; !exists {
		labels = append(labels, label)
	}
	cols[label] = values
	return &AlignedTable{dates: t.dates, labels: labels, cols: cols}
}

func unset() float64 { return math.NaN() }
