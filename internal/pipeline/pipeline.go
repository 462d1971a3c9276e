// Package pipeline runs one yield-curve analysis end to end: provider
// registry, collection with cache and synthetic fallback, curve analysis and
// the optional policy-rate and Fed-release context. The CLI and the HTTP API
// share it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/yieldwatch/internal/analysis/curve"
	"github.com/seenimoa/yieldwatch/internal/config"
	"github.com/seenimoa/yieldwatch/internal/datasource"
	"github.com/seenimoa/yieldwatch/internal/logging"
	"github.com/seenimoa/yieldwatch/internal/metrics"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/internal/providers"
	"github.com/seenimoa/yieldwatch/internal/report"
	"github.com/seenimoa/yieldwatch/internal/store"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// StageCollect tags collection failures in logs, next to the curve stages.
const StageCollect = "collect"

// ErrOfflineDisabled is returned for an offline run when the synthetic
// source is not registered.
var ErrOfflineDisabled = errors.New("offline run needs the synthetic source, but it is disabled")

// Options are the per-run settings.
type Options struct {
	Start, End time.Time
	Offline    bool // synthetic source only; no network, no news
}

// Result is one completed run.
type Result struct {
	RunID      string
	Analysis   *curve.Analysis
	Collection *datasource.Collection
	Meta       report.Meta
	Took       time.Duration
}

// Runner holds the state shared by consecutive runs: config, provider
// registry (and so the providers' in-memory caches), the SQLite cache and
// the metrics recorder. It is safe for concurrent use.
type Runner struct {
	cfg     *config.Config
	log     zerolog.Logger
	reg     *provider.Registry
	names   []string
	metrics *metrics.Recorder
	store   *store.Store
	news    *datasource.FedNews
}

// New builds a Runner. A nil recorder gets a fresh one.
func New(cfg *config.Config, log zerolog.Logger, rec *metrics.Recorder) (*Runner, error) {
	if rec == nil {
		rec = metrics.New()
	}
	reg := provider.NewRegistry()
	names, err := providers.RegisterAll(reg, cfg)
	if err != nil {
		return nil, err
	}

	r := &Runner{cfg: cfg, log: log, reg: reg, names: names, metrics: rec}
	if cfg.Report.NewsLimit > 0 && cfg.Report.NewsFeedURL != "" {
		r.news = datasource.NewFedNews(cfg.Report.NewsFeedURL)
	}
	return r, nil
}

// OpenCache opens the SQLite cache when a DSN is configured. A failure is
// returned so callers can decide whether to continue without it.
func (r *Runner) OpenCache() error {
	if r.cfg.Storage.DSN == "" || r.store != nil {
		return nil
	}
	st, err := store.Open(r.cfg.Storage.DSN, time.Duration(r.cfg.Storage.TTLMinutes)*time.Minute)
	if err != nil {
		return err
	}
	r.store = st
	return nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Registry returns the provider registry.
func (r *Runner) Registry() *provider.Registry { return r.reg }

// Sources returns the registered provider names in registration order.
func (r *Runner) Sources() []string { return slices.Clone(r.names) }

// Metrics returns the recorder every run reports into.
func (r *Runner) Metrics() *metrics.Recorder { return r.metrics }

// Store returns the open cache, or nil.
func (r *Runner) Store() *store.Store { return r.store }

// ReportConfig returns the report settings for format.
func (r *Runner) ReportConfig(format report.Format) report.Config {
	rc := report.DefaultConfig()
	rc.Format = format
	rc.Maturities = r.cfg.Analysis.Maturities
	rc.Snapshots = r.cfg.Report.SnapshotCount
	rc.Step = r.cfg.Report.SnapshotStep
	return rc
}

// Run collects, analyses and annotates one window.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	began := time.Now()
	runID := uuid.NewString()
	log := logging.WithRun(r.log, runID)
	cfg := r.cfg

	collector, err := r.collector(log, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("start", utils.FormatDate(opts.Start)).
		Str("end", utils.FormatDate(opts.End)).
		Strs("maturities", cfg.Analysis.Maturities).
		Strs("sources", r.names).
		Bool("offline", opts.Offline).
		Msg("collecting yields")

	col, err := collector.Collect(ctx, cfg.Analysis.Maturities, opts.Start, opts.End)
	if err != nil {
		log.Error().Err(err).Str(logging.FieldStage, StageCollect).Msg("collection failed")
		return nil, err
	}

	analysis, err := curve.Analyze(col.Series, AnalysisParams(cfg.Analysis))
	if err != nil {
		logStageError(log, err)
		return nil, err
	}
	for name, skipErr := range analysis.Skipped {
		log.Warn().Err(skipErr).Str("spread", name).Msg("spread skipped")
	}
	if analysis.Estimate.Degraded {
		log.Warn().Str("rule", string(analysis.Estimate.Rule)).Msg("2-year estimate uses a low-fidelity rule")
	}

	res := &Result{
		RunID:      runID,
		Analysis:   analysis,
		Collection: col,
		Meta: report.Meta{
			RunID:       runID,
			GeneratedAt: time.Now(),
			Start:       opts.Start,
			End:         opts.End,
			Sources:     col.SourceNames(),
			Outcome:     string(col.Outcome),
			Synthetic:   col.Synthetic(),
			Missing:     col.Missing,
		},
	}
	res.Meta.PolicyRate, res.Meta.Headlines = r.marketContext(ctx, log, col, opts)

	for _, sa := range analysis.Spreads {
		r.metrics.RecordSpread(sa.Series.Name, sa.Status.Value, len(sa.Intervals))
	}
	r.metrics.RecordRun(col.Synthetic(), time.Now())

	res.Took = time.Since(began)
	log.Info().
		Str("outcome", string(col.Outcome)).
		Int("rows", analysis.Table.Len()).
		Str("estimate", string(analysis.Estimate.Rule)).
		Str("took", report.FormatDuration(res.Took)).
		Msg("analysis complete")
	return res, nil
}

// collector wires the live sources (cached when the store is open) and the
// synthetic fallback. Offline runs use the fallback only.
func (r *Runner) collector(log zerolog.Logger, opts Options) (*datasource.Collector, error) {
	c := &datasource.Collector{
		MinSeries: r.cfg.Sources.MinSeries,
		Log:       log,
		Metrics:   r.metrics,
	}
	synthetic := slices.Contains(r.names, providers.SyntheticName)
	if synthetic {
		c.Fallback = datasource.NewRegistrySource(r.reg, providers.SyntheticName)
	}

	if opts.Offline {
		if !synthetic {
			return nil, ErrOfflineDisabled
		}
		return c, nil
	}

	live := slices.DeleteFunc(r.reg.ProvidersFor(provider.ModelTreasurySeries), func(n string) bool {
		return n == providers.SyntheticName
	})
	c.Sources = datasource.SourcesFor(r.reg, live)
	if r.store != nil {
		c.Sources = datasource.WithCache(c.Sources, r.store, log)
	}
	return c, nil
}

// marketContext fetches the policy rate and recent Fed releases concurrently.
// Both are optional: failures are logged and leave the field empty.
func (r *Runner) marketContext(ctx context.Context, log zerolog.Logger, col *datasource.Collection, opts Options) (models.RateSeries, []models.Headline) {
	var (
		policy    models.RateSeries
		headlines []models.Headline
	)

	// Synthetic policy data only accompanies a synthetic curve.
	var policySources []string
	for _, n := range r.reg.ProvidersFor(provider.ModelPolicyRate) {
		isSynth := n == providers.SyntheticName
		if (isSynth && !col.Synthetic()) || (opts.Offline && !isSynth) {
			continue
		}
		policySources = append(policySources, n)
	}

	var g errgroup.Group
	g.Go(func() error {
		s, err := datasource.PolicyRate(ctx, r.reg, policySources, opts.Start, opts.End)
		if err != nil {
			log.Warn().Err(err).Msg("policy rate unavailable")
			return nil
		}
		policy = s
		return nil
	})
	if r.news != nil && !opts.Offline {
		g.Go(func() error {
			h, err := r.news.Latest(ctx, r.cfg.Report.NewsLimit)
			if err != nil {
				log.Warn().Err(err).Msg("fed releases unavailable")
				return nil
			}
			headlines = h
			return nil
		})
	}
	_ = g.Wait()
	return policy, headlines
}

// AnalysisParams maps the analysis config onto the pipeline parameters.
func AnalysisParams(cfg config.AnalysisConfig) curve.Params {
	p := curve.Params{
		Estimator: curve.DefaultEstimatorParams(),
		Primary:   cfg.Primary,
	}
	p.Estimator.InterpolationWeight = cfg.InterpolationWeight
	p.Estimator.FiveYearOffset = cfg.FiveYearOffset
	for _, s := range cfg.Spreads {
		p.Spreads = append(p.Spreads, curve.SpreadSpec{Name: s.Name, Long: s.Long, Short: s.Short})
	}
	return p
}

// Window resolves an analysis window. An explicit start wins over the
// lookback; a missing end means today.
func Window(start, end string, days int) (time.Time, time.Time, error) {
	var e time.Time
	if end != "" {
		var err error
		if e, err = utils.ParseDate(end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if start == "" {
		s, e := utils.LookbackRange(e, days)
		return s, e, nil
	}

	s, err := utils.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	if e.IsZero() {
		e = utils.Today()
	}
	if !s.Before(e) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s", utils.FormatDate(s), utils.FormatDate(e))
	}
	return s, e, nil
}

// logStageError logs a pipeline failure with its stage and column.
func logStageError(log zerolog.Logger, err error) {
	ev := log.Error().Err(err)
	var se *curve.StageError
	if errors.As(err, &se) {
		ev = ev.Str(logging.FieldStage, se.Stage)
		if se.Column != "" {
			ev = ev.Str(logging.FieldColumn, se.Column)
		}
	}
	ev.Msg("analysis failed")
}
