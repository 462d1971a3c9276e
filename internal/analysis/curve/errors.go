package curve

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrInsufficientSeries = errors.New("insufficient series")
	ErrEmptyData          = errors.New("empty data")
	ErrNoMaturityData     = errors.New("no maturity data")
	ErrEmptySeries        = errors.New("empty series")
	ErrDuplicateSeries    = errors.New("duplicate series")
	ErrColumnNotFound     = errors.New("column not found")
)

// InsufficientSeriesError is returned when fewer than the required number of
// usable series are supplied to the aligner.
type InsufficientSeriesError struct {
	Got    int
	Need   int
	Labels []string // labels of the usable series
}

func (e *InsufficientSeriesError) Error() string {
	return fmt.Sprintf("insufficient series: got %d usable %v, need at least %d", e.Got, e.Labels, e.Need)
}

func (e *InsufficientSeriesError) Is(target error) bool { return target == ErrInsufficientSeries }

// EmptyDataError is returned when every input series is empty.
type EmptyDataError struct {
	Labels []string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("empty data: all series empty (%s)", strings.Join(e.Labels, ", "))
}

func (e *EmptyDataError) Is(target error) bool { return target == ErrEmptyData }

// NoMaturityDataError is returned when no estimation rule can produce the
// target maturity.
type NoMaturityDataError struct {
	Target string
	Tried  []string
}

func (e *NoMaturityDataError) Error() string {
	return fmt.Sprintf("no maturity data for %s: none of %v present", e.Target, e.Tried)
}

func (e *NoMaturityDataError) Is(target error) bool { return target == ErrNoMaturityData }

// EmptySeriesError is returned when an operation needs at least one point.
type EmptySeriesError struct {
	Series string
	Op     string
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("%s: spread series %q has no observations", e.Op, e.Series)
}

func (e *EmptySeriesError) Is(target error) bool { return target == ErrEmptySeries }

// DuplicateSeriesError is returned when two input series share a label.
type DuplicateSeriesError struct {
	Label string
}

func (e *DuplicateSeriesError) Error() string {
	return fmt.Sprintf("duplicate series label %q", e.Label)
}

func (e *DuplicateSeriesError) Is(target error) bool { return target == ErrDuplicateSeries }

// ColumnNotFoundError is returned when a spread references an unknown column.
type ColumnNotFoundError struct {
	Label     string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found (have %v)", e.Label, e.Available)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// Pipeline stages reported by StageError.
const (
	StageAlign    = "align"
	StageEstimate = "estimate"
	StageSpread   = "spread"
	StageDetect   = "detect"
	StageSummary  = "summary"
)

// StageError records which pipeline stage (and column, if any) failed.
type StageError struct {
	Stage  string
	Column string
	Err    error
}

func (e *StageError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
