package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Load / Defaults ──

// chdir changes the working directory for the duration of the test
// (testing.T.Chdir is not available before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{"FRED_API_KEY", "YIELDWATCH_SOURCES_FRED_API_KEY", "FMP_API_KEY", "YIELDWATCH_SOURCES_FMP_API_KEY", "YIELDWATCH_REPORT_FORMAT", "YIELDWATCH_LOGGING_LEVEL"} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"fred", "fmp", "treasury", "yfinance", "cboe", "federal_reserve"}, cfg.Sources.Order)
	assert.Equal(t, 30, cfg.Sources.TimeoutSec)
	assert.Equal(t, 2, cfg.Sources.MinSeries)
	assert.Empty(t, cfg.Sources.FredAPIKey)
	assert.Empty(t, cfg.Sources.FMPAPIKey)

	assert.Equal(t, 365, cfg.Analysis.LookbackDays)
	assert.Equal(t, []string{"3M", "2Y", "5Y", "10Y", "30Y"}, cfg.Analysis.Maturities)
	assert.Equal(t, 0.7, cfg.Analysis.InterpolationWeight)
	assert.Equal(t, 0.5, cfg.Analysis.FiveYearOffset)
	require.Len(t, cfg.Analysis.Spreads, 2)
	assert.Equal(t, SpreadConfig{Name: "2s10s", Long: "10Y", Short: "2Y_est"}, cfg.Analysis.Spreads[0])
	assert.Equal(t, "2s10s", cfg.Analysis.Primary)

	assert.True(t, cfg.Synthetic.Enabled)
	assert.Equal(t, int64(42), cfg.Synthetic.Seed)

	assert.True(t, strings.HasSuffix(cfg.Storage.DSN, filepath.Join(".yieldwatch", "cache.db")), cfg.Storage.DSN)
	assert.Equal(t, 720, cfg.Storage.TTLMinutes)

	assert.Equal(t, "127.0.0.1:8080", cfg.API.Addr())
	assert.Equal(t, 120, cfg.API.TimeoutSec)

	assert.Equal(t, "text", cfg.Report.Format)
	assert.Equal(t, 5, cfg.Report.SnapshotCount)
	assert.Equal(t, 20, cfg.Report.SnapshotStep)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

// ── Env overrides ──

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("YIELDWATCH_REPORT_FORMAT", "json")
	t.Setenv("YIELDWATCH_LOGGING_LEVEL", "debug")
	t.Setenv("FRED_API_KEY", "abcdef123456")
	t.Setenv("FMP_API_KEY", "fmp-key-7890")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "abcdef123456", cfg.Sources.FredAPIKey)
	assert.Equal(t, "fmp-key-7890", cfg.Sources.FMPAPIKey)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FRED_API_KEY=fromdotenv99\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FRED_API_KEY") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fromdotenv99", cfg.Sources.FredAPIKey)
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
sources:
  order: [treasury, yfinance]
  fred_api_key: file-key-12345
analysis:
  lookback_days: 730
  interpolation_weight: 0.6
  spreads:
    - {name: 3m10y, long: 10Y, short: 3M}
  primary: 3m10y
storage:
  dsn: ""
report:
  format: json
  chart_dir: /tmp/charts
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"treasury", "yfinance"}, cfg.Sources.Order)
	assert.Equal(t, "file-key-12345", cfg.Sources.FredAPIKey)
	assert.Equal(t, 730, cfg.Analysis.LookbackDays)
	assert.Equal(t, 0.6, cfg.Analysis.InterpolationWeight)
	assert.Equal(t, 0.5, cfg.Analysis.FiveYearOffset, "untouched keys keep defaults")
	assert.Equal(t, []SpreadConfig{{Name: "3m10y", Long: "10Y", Short: "3M"}}, cfg.Analysis.Spreads)
	assert.Empty(t, cfg.Storage.DSN)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "/tmp/charts", cfg.Report.ChartDir)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  format: pdf\nlogging:\n  level: loud\n"), 0o600))

	_, err := LoadFromFile(path)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, err.Error(), "Report.Format must be one of: text, json, html")
}

// ── Validate ──

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown source", func(c *Config) { c.Sources.Order = []string{"bloomberg"} }, "Sources.Order[0]"},
		{"no sources", func(c *Config) { c.Sources.Order = nil }, "Sources.Order"},
		{"min series", func(c *Config) { c.Sources.MinSeries = 1 }, "Sources.MinSeries"},
		{"weight above one", func(c *Config) { c.Analysis.InterpolationWeight = 1.5 }, "Analysis.InterpolationWeight"},
		{"one maturity", func(c *Config) { c.Analysis.Maturities = []string{"10Y"} }, "Analysis.Maturities"},
		{"same legs", func(c *Config) { c.Analysis.Spreads[0].Short = "10Y" }, "Analysis.Spreads[0].Short"},
		{"unknown primary", func(c *Config) { c.Analysis.Primary = "1s2s" }, "analysis.primary"},
		{"bad feed url", func(c *Config) { c.Report.NewsFeedURL = "not a url" }, "Report.NewsFeedURL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ── Keys ──

func TestCheckAPIKeys(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	keys := CheckAPIKeys(cfg)
	require.Len(t, keys, 2)
	assert.Equal(t, "fmp", keys[1].Provider)
	assert.False(t, keys[0].IsSet)
	assert.Equal(t, KeySourceNone, keys[0].Source)

	cfg.Sources.FredAPIKey = "abcdefghijklmnop"
	keys = CheckAPIKeys(cfg)
	assert.True(t, keys[0].IsSet)
	assert.Equal(t, KeySourceConfig, keys[0].Source)
	assert.Equal(t, "abc...nop", keys[0].Masked)

	t.Setenv("FRED_API_KEY", "abcdefghijklmnop")
	assert.Equal(t, KeySourceEnv, CheckAPIKeys(cfg)[0].Source)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "***", maskKey("short"))
	assert.Equal(t, "123...890", maskKey("1234567890"))
}
