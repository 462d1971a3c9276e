package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/yieldwatch/internal/logging"
	"github.com/seenimoa/yieldwatch/internal/pipeline"
	"github.com/seenimoa/yieldwatch/internal/report"
)

// analyzeOptions are the per-run overrides of the analyze command.
type analyzeOptions struct {
	Start, End  time.Time
	Format      string
	ChartDir    string
	MetricsFile string
	Offline     bool
}

// --- Analyze Command ---

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Collect yields and report spreads and inversions",
		Long: `Collect daily yields for the configured maturities, align them, estimate the
2-year rate if needed and report each configured spread: current level,
statistics and every inversion period in the window.

Examples:
  yieldwatch analyze
  yieldwatch analyze --days 730 --format json
  yieldwatch analyze --start 2022-01-01 --end 2024-12-31 --chart-dir ./charts
  yieldwatch analyze --offline --format html > report.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.analyzeOptions(cmd)
			if err != nil {
				return err
			}
			return a.runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().String("start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "window end date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days", 0, "lookback in calendar days when --start is not set (default from config)")
	cmd.Flags().String("format", "", "report format: text, json or html (default from config)")
	cmd.Flags().String("chart-dir", "", "write SVG charts into this directory")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().Bool("offline", false, "use the synthetic source only")
	return cmd
}

func (a *app) analyzeOptions(cmd *cobra.Command) (analyzeOptions, error) {
	opts := analyzeOptions{
		Format:      a.cfg.Report.Format,
		ChartDir:    a.cfg.Report.ChartDir,
		MetricsFile: a.cfg.Metrics.TextfilePath,
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		opts.Format = v
	}
	if v, _ := cmd.Flags().GetString("chart-dir"); v != "" {
		opts.ChartDir = v
	}
	if v, _ := cmd.Flags().GetString("metrics-file"); v != "" {
		opts.MetricsFile = v
	}
	opts.Offline, _ = cmd.Flags().GetBool("offline")

	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")
	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = a.cfg.Analysis.LookbackDays
	}
	start, end, err := pipeline.Window(startFlag, endFlag, days)
	if err != nil {
		return opts, err
	}
	opts.Start, opts.End = start, end

	if !report.ValidFormat(opts.Format) {
		return opts, fmt.Errorf("unsupported format %q (want text, json or html)", opts.Format)
	}
	return opts, nil
}

// runAnalyze executes one full collection, analysis and report cycle.
func (a *app) runAnalyze(ctx context.Context, out io.Writer, opts analyzeOptions) error {
	runner, err := pipeline.New(a.cfg, a.log, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	if !opts.Offline {
		if err := runner.OpenCache(); err != nil {
			a.log.Warn().Err(err).Str("dsn", a.cfg.Storage.DSN).Msg("cache unavailable, fetching without it")
		}
	}

	res, err := runner.Run(ctx, pipeline.Options{Start: opts.Start, End: opts.End, Offline: opts.Offline})
	if errors.Is(err, pipeline.ErrOfflineDisabled) {
		return errors.New("--offline needs the synthetic source, but it is disabled")
	}
	if err != nil {
		return err
	}

	rcfg := runner.ReportConfig(report.Format(opts.Format))
	if err := report.Generate(out, res.Analysis, res.Meta, rcfg); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if opts.ChartDir != "" {
		paths, err := report.WriteCharts(opts.ChartDir, res.Analysis, rcfg)
		if err != nil {
			return err
		}
		a.log.Info().Str(logging.FieldRunID, res.RunID).Strs("files", paths).Msg("charts written")
	}

	if opts.MetricsFile != "" {
		if err := runner.Metrics().WriteTextfile(opts.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}
