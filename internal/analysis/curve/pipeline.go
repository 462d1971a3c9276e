package curve

import (
	"errors"
	"fmt"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

// Params configures a full analysis run.
type Params struct {
	Estimator EstimatorParams
	Spreads   []SpreadSpec
	Primary   string // spread whose failure aborts the run
}

// DefaultParams analyses 2s10s (primary) and 5s30s.
func DefaultParams() Params {
	return Params{
		Estimator: DefaultEstimatorParams(),
		Spreads:   []SpreadSpec{Spread2s10s, Spread5s30s},
		Primary:   Spread2s10s.Name,
	}
}

// SpreadAnalysis bundles every derived view of one spread.
type SpreadAnalysis struct {
	Series    SpreadSeries        `json:"series"`
	Intervals []InversionInterval `json:"intervals"`
	Status    Status              `json:"status"`
	Summary   Summary             `json:"summary"`
}

// Analysis is the result of one pipeline run.
type Analysis struct {
	Table    *AlignedTable    `json:"-"`
	Estimate Estimate         `json:"estimate"`
	Spreads  []SpreadAnalysis `json:"spreads"`
	Skipped  map[string]error `json:"-"`
}

// Spread returns the analysis of the named spread.
func (a *Analysis) Spread(name string) (SpreadAnalysis, bool) {
	for _, s := range a.Spreads {
		if s.Series.Name == name {
			return s, true
		}
	}
	return SpreadAnalysis{}, false
}

// Latest returns the last row of the table keyed by column label.
func (a *Analysis) Latest() map[string]float64 {
	if a.Table == nil || a.Table.Len() == 0 {
		return map[string]float64{}
	}
	return a.Table.Row(a.Table.Len() - 1)
}

// Analyze runs align, estimate, spread, detect and summarize in order. Each
// stage receives the previous stage's output; nothing is mutated. A
// non-primary spread that cannot be computed is recorded in Skipped.
func Analyze(series []models.RateSeries, p Params) (*Analysis, error) {
	table, err := Align(series...)
	if err != nil {
		return nil, &StageError{Stage: StageAlign, Err: err}
	}

	table, est, err := EstimateTwoYear(table, p.Estimator)
	if err != nil {
		return nil, &StageError{Stage: StageEstimate, Column: p.Estimator.TargetLabel, Err: err}
	}

	a := &Analysis{Table: table, Estimate: est, Skipped: map[string]error{}}
	for _, spec := range p.Spreads {
		sa, err := analyzeSpread(table, resolveShort(spec, est))
		if err != nil {
			if spec.Name == p.Primary {
				return nil, err
			}
			a.Skipped[spec.Name] = err
			continue
		}
		a.Spreads = append(a.Spreads, sa)
	}
	if len(a.Spreads) == 0 {
		return nil, &StageError{Stage: StageSpread, Err: errors.New("no spread could be computed")}
	}
	return a, nil
}

// resolveShort points specs that reference the default estimate label at the
// label actually used by the estimator.
func resolveShort(spec SpreadSpec, est Estimate) SpreadSpec {
	if spec.Short == EstimatedTwoYear {
		spec.Short = est.Label
	}
	if spec.Long == EstimatedTwoYear {
		spec.Long = est.Label
	}
	return spec
}

func analyzeSpread(t *AlignedTable, spec SpreadSpec) (SpreadAnalysis, error) {
	s, err := ComputeSpread(t, spec)
	if err != nil {
		return SpreadAnalysis{}, &StageError{Stage: StageSpread, Column: columnOf(err), Err: err}
	}

	status, err := CurrentStatus(s)
	if err != nil {
		return SpreadAnalysis{}, &StageError{Stage: StageDetect, Column: s.Name, Err: err}
	}
	summary, err := Summarize(s)
	if err != nil {
		return SpreadAnalysis{}, &StageError{Stage: StageSummary, Column: s.Name, Err: err}
	}

	return SpreadAnalysis{
		Series:    s,
		Intervals: DetectInversions(s),
		Status:    status,
		Summary:   summary,
	}, nil
}

func columnOf(err error) string {
	var cnf *ColumnNotFoundError
	if errors.As(err, &cnf) {
		return cnf.Label
	}
	return ""
}

// String returns a one-line description of the run, used in logs.
func (a *Analysis) String() string {
	return fmt.Sprintf("rows=%d estimate=%s spreads=%d skipped=%d",
		a.Table.Len(), a.Estimate.Rule, len(a.Spreads), len(a.Skipped))
}
