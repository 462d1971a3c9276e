package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/yieldwatch/internal/metrics"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

// DefaultMinSeries is the fewest real maturities an analysis can run on.
const DefaultMinSeries = 2

// Outcome classifies a collection.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"  // every requested maturity fetched
	OutcomePartial   Outcome = "partial"   // some missing, enough to analyse
	OutcomeSynthetic Outcome = "synthetic" // real data insufficient, fallback used
	OutcomeFailed    Outcome = "failed"
)

// ErrInsufficientData is matched by *InsufficientDataError via errors.Is.
var ErrInsufficientData = errors.New("insufficient market data")

// Failure is one unsuccessful source attempt for a maturity.
type Failure struct {
	Label  string `json:"label"`
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s from %s: %v", f.Label, f.Source, f.Err)
}

// InsufficientDataError is returned when fewer than the required number of
// maturities could be collected and no fallback was available.
type InsufficientDataError struct {
	Got      int
	Need     int
	Failures []Failure
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("collected %d maturities, need at least %d", e.Got, e.Need)
	if len(e.Failures) > 0 {
		parts := make([]string, len(e.Failures))
		for i, f := range e.Failures {
			parts[i] = f.Error()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	return msg
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// Collection is the result of one Collect call.
type Collection struct {
	Series   []models.RateSeries `json:"-"`
	Outcome  Outcome             `json:"outcome"`
	Sources  map[string]string   `json:"sources"` // label → source that served it
	Missing  []string            `json:"missing,omitempty"`
	Failures []Failure           `json:"-"`
}

// Synthetic reports whether the collection holds fallback data.
func (c *Collection) Synthetic() bool { return c.Outcome == OutcomeSynthetic }

// SourceNames returns the distinct sources used, sorted.
func (c *Collection) SourceNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range c.Sources {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Collector gathers one series per maturity from an ordered list of sources.
type Collector struct {
	Sources   []MarketDataProvider
	Fallback  MarketDataProvider // nil disables the synthetic fallback
	MinSeries int                // defaults to DefaultMinSeries
	Log       zerolog.Logger
	Metrics   *metrics.Recorder // optional
}

type labelResult struct {
	series   models.RateSeries
	source   string
	failures []Failure
}

// Collect fetches every label concurrently. For each label the sources are
// tried in order until one returns a non-empty series. With at least
// MinSeries labels collected the outcome is Complete or Partial. Otherwise
// the whole set is replaced by the fallback's series (Synthetic), or an
// *InsufficientDataError is returned when there is no usable fallback.
func (c *Collector) Collect(ctx context.Context, labels []string, start, end time.Time) (*Collection, error) {
	if len(labels) == 0 {
		return nil, errors.New("collect: no maturities requested")
	}
	need := c.MinSeries
	if need <= 0 {
		need = DefaultMinSeries
	}

	results := make([]labelResult, len(labels))
	var g errgroup.Group
	for i, label := range labels {
		i, label := i, label
		g.Go(func() error {
			results[i] = c.collectOne(ctx, c.Sources, label, start, end)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	col := c.assemble(labels, results, OutcomeComplete)
	if len(col.Series) >= need {
		if len(col.Missing) > 0 {
			col.Outcome = OutcomePartial
			c.Log.Warn().Strs("missing", col.Missing).Msg("some maturities unavailable, continuing with partial data")
		}
		return col, nil
	}

	if c.Fallback == nil {
		col.Outcome = OutcomeFailed
		return col, &InsufficientDataError{Got: len(col.Series), Need: need, Failures: col.Failures}
	}

	c.Log.Warn().
		Int("got", len(col.Series)).
		Int("need", need).
		Str("fallback", c.Fallback.Name()).
		Msg("insufficient market data, using SYNTHETIC data")

	fb := make([]labelResult, len(labels))
	for i, label := range labels {
		fb[i] = c.collectOne(ctx, []MarketDataProvider{c.Fallback}, label, start, end)
		if fb[i].source != "" {
			fb[i].series.Synthetic = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	synth := c.assemble(labels, fb, OutcomeSynthetic)
	synth.Failures = append(col.Failures, synth.Failures...)
	if len(synth.Series) < need {
		synth.Outcome = OutcomeFailed
		return synth, &InsufficientDataError{Got: len(synth.Series), Need: need, Failures: synth.Failures}
	}
	return synth, nil
}

func (c *Collector) collectOne(ctx context.Context, sources []MarketDataProvider, label string, start, end time.Time) labelResult {
	var res labelResult
	for _, src := range sources {
		if ctx.Err() != nil {
			return res
		}
		began := time.Now()
		s, err := src.FetchSeries(ctx, label, start, end)
		if err == nil && s.Empty() {
			err = ErrEmptySeries
		}
		c.record(src.Name(), label, err, time.Since(began))
		if err != nil {
			c.Log.Debug().Err(err).Str("source", src.Name()).Str("maturity", label).Msg("fetch failed")
			res.failures = append(res.failures, Failure{Label: label, Source: src.Name(), Err: err})
			continue
		}
		s.Label = label
		if s.Source == "" {
			s.Source = src.Name()
		}
		res.series, res.source = s, src.Name()
		c.Log.Debug().Str("source", src.Name()).Str("maturity", label).Int("points", s.Len()).Msg("fetched")
		return res
	}
	if len(res.failures) > 0 {
		last := res.failures[len(res.failures)-1]
		c.Log.Warn().Err(last.Err).Str("maturity", label).Int("sources_tried", len(res.failures)).Msg("maturity unavailable")
	}
	return res
}

func (c *Collector) record(source, label string, err error, d time.Duration) {
	if c.Metrics == nil {
		return
	}
	result := metrics.ResultOK
	switch {
	case errors.Is(err, ErrEmptySeries):
		result = metrics.ResultEmpty
	case err != nil:
		result = metrics.ResultError
	}
	c.Metrics.RecordFetch(source, label, result, d)
}

func (c *Collector) assemble(labels []string, results []labelResult, outcome Outcome) *Collection {
	col := &Collection{Outcome: outcome, Sources: make(map[string]string)}
	for i, r := range results {
		col.Failures = append(col.Failures, r.failures...)
		if r.source == "" {
			col.Missing = append(col.Missing, labels[i])
			continue
		}
		col.Series = append(col.Series, r.series)
		col.Sources[labels[i]] = r.source
	}
	return col
}
