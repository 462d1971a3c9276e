package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/report"
)

// writeConfig writes a config that never touches the network or the home
// directory: synthetic source only, no cache, no news.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	t.Setenv("FRED_API_KEY", "")
	t.Setenv("FMP_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
sources:
  order: [synthetic]
storage:
  dsn: ""
report:
  news_limit: 0
logging:
  format: json
  level: warn
` + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "yieldwatch dev")
	assert.Contains(t, out, "commit:")
}

func TestAnalyzeOfflineJSON(t *testing.T) {
	cfgPath := writeConfig(t, "")
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "yieldwatch.prom")
	chartDir := filepath.Join(dir, "charts")

	out, _, err := execute(t, "analyze", "--config", cfgPath, "--offline",
		"--start", "2024-01-01", "--end", "2024-06-28", "--format", "json",
		"--chart-dir", chartDir, "--metrics-file", metricsPath)
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.True(t, doc.Synthetic)
	assert.Equal(t, "synthetic", doc.Outcome)
	assert.Equal(t, []string{"synthetic"}, doc.Sources)
	assert.Equal(t, "2024-01-01", doc.Start)
	assert.Equal(t, "2024-06-28", doc.End)
	assert.Contains(t, doc.Missing, "3M")
	assert.Equal(t, "observed", doc.Estimate.Rule)
	require.Len(t, doc.Spreads, 2)
	assert.Equal(t, "2s10s", doc.Spreads[0].Name)
	assert.Equal(t, "5s30s", doc.Spreads[1].Name)
	assert.Greater(t, doc.Observations, 100)
	require.NotNil(t, doc.PolicyRate)
	assert.True(t, doc.PolicyRate.Synthetic)
	assert.NotEmpty(t, doc.RunID)

	for _, name := range []string{"spread_2s10s.svg", "spread_5s30s.svg", report.CurveChartFile} {
		assert.FileExists(t, filepath.Join(chartDir, name))
	}

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "yieldwatch_synthetic_data 1")
	assert.Contains(t, string(prom), `yieldwatch_spread_current{spread="2s10s"}`)
}

func TestAnalyzeFallsBackWithoutLiveSources(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "analyze", "--config", cfgPath, "--days", "60")
	require.NoError(t, err)
	assert.Contains(t, out, "SYNTHETIC DATA")
	assert.Contains(t, out, "2s10s")
}

func TestAnalyzeHTML(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "analyze", "--config", cfgPath, "--offline", "--days", "90", "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "<svg")
}

func TestAnalyzeOfflineNeedsSynthetic(t *testing.T) {
	cfgPath := writeConfig(t, "synthetic:\n  enabled: false\n")
	t.Setenv("YIELDWATCH_SOURCES_ORDER", "treasury")
	_, _, err := execute(t, "analyze", "--config", cfgPath, "--offline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthetic")
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	cfgPath := writeConfig(t, "")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "pdf"}, "unsupported format"},
		{"start", []string{"--start", "01/02/2024"}, "invalid start date"},
		{"end", []string{"--end", "tomorrow"}, "invalid end date"},
		{"order", []string{"--start", "2024-02-01", "--end", "2024-01-01"}, "is not before"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"analyze", "--config", cfgPath, "--offline"}, tt.args...)
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetchSynthetic(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "fetch", "10y", "--config", cfgPath,
		"--provider", "synthetic", "--start", "2024-01-01", "--end", "2024-01-31")
	require.NoError(t, err)
	assert.Contains(t, out, "10Y from synthetic: 23 observations")
	assert.Contains(t, out, "SYNTHETIC DATA")
	assert.Contains(t, out, "2024-01-02")
}

func TestFetchPolicyRateJSON(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "fetch", "FFR", "--config", cfgPath, "--days", "10", "--json")
	require.NoError(t, err)

	var res struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "synthetic", res.Provider)
	assert.Equal(t, "PolicyRate", res.Model)
}

func TestFetchUnknownProvider(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, _, err := execute(t, "fetch", "10Y", "--config", cfgPath, "--provider", "bloomberg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bloomberg")
}

func TestProviders(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "providers", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "synthetic")
	assert.Contains(t, out, "TreasurySeries")
	assert.Contains(t, out, "Source order: synthetic")
}

func TestStatus(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, _, err := execute(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "yieldwatch — System Status")
	assert.Contains(t, out, "2s10s (10Y-2Y_est)")
	assert.Contains(t, out, "FRED API Key:")
	assert.Contains(t, out, "❌ not set")
	assert.Contains(t, out, "disabled")
}

func TestStatusWithCache(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cache.db")
	cfgPath := writeConfig(t, "")
	t.Setenv("YIELDWATCH_STORAGE_DSN", dsn)
	out, _, err := execute(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, dsn)
	assert.Contains(t, out, "0 series, 0 observations, 0 fetches")
}

func TestSourceTimeoutApplied(t *testing.T) {
	before := infra.Client.Timeout
	t.Cleanup(func() { infra.Client.Timeout = before })

	cfgPath := writeConfig(t, "")
	t.Setenv("YIELDWATCH_SOURCES_TIMEOUT_SEC", "7")
	_, _, err := execute(t, "providers", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, infra.Client.Timeout)
}

func TestServeStopsOnCancel(t *testing.T) {
	cfgPath := writeConfig(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve", "--config", cfgPath, "--addr", "127.0.0.1:0"})
	assert.NoError(t, cmd.ExecuteContext(ctx))
}
