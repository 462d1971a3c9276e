// Package metrics records run metrics on a private Prometheus registry and
// exports them in the node_exporter textfile format, since a batch run has
// no long-lived endpoint to scrape.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results.
const (
	ResultOK     = "ok"
	ResultCached = "cached"
	ResultEmpty  = "empty"
	ResultError  = "error"
)

// Recorder holds the yieldwatch collectors.
type Recorder struct {
	reg *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	spreadCurrent *prometheus.GaugeVec
	inversions    *prometheus.GaugeVec
	synthetic     prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldwatch_fetch_total",
				Help: "Series fetch attempts by source, maturity and result",
			},
			[]string{"source", "maturity", "result"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldwatch_fetch_duration_seconds",
				Help:    "Duration of series fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		spreadCurrent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yieldwatch_spread_current",
				Help: "Latest spread value in percentage points",
			},
			[]string{"spread"},
		),
		inversions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yieldwatch_inversions",
				Help: "Inversion intervals found in the analysis window",
			},
			[]string{"spread"},
		),
		synthetic: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yieldwatch_synthetic_data",
			Help: "1 when the last run analysed synthetic data",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yieldwatch_last_run_timestamp_seconds",
			Help: "Unix time of the last completed analysis",
		}),
	}
	r.reg.MustRegister(r.fetchTotal, r.fetchDuration, r.spreadCurrent, r.inversions, r.synthetic, r.lastRun)
	return r
}

// Registry exposes the underlying registry as a gatherer.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// RecordFetch records one fetch attempt.
func (r *Recorder) RecordFetch(source, maturity, result string, d time.Duration) {
	r.fetchTotal.WithLabelValues(source, maturity, result).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordSpread records the latest value and inversion count of a spread.
func (r *Recorder) RecordSpread(name string, current float64, inversions int) {
	r.spreadCurrent.WithLabelValues(name).Set(current)
	r.inversions.WithLabelValues(name).Set(float64(inversions))
}

// RecordRun marks a completed run and whether it used synthetic data.
func (r *Recorder) RecordRun(synthetic bool, at time.Time) {
	if synthetic {
		r.synthetic.Set(1)
	} else {
		r.synthetic.Set(0)
	}
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
