// Package config handles configuration loading for yieldwatch.
// It supports YAML config files, a .env file and environment variable
// overrides, and validates the result before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/yieldwatch/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. YIELDWATCH_LOGGING_LEVEL.
const EnvPrefix = "YIELDWATCH"

// Config represents the complete application configuration.
type Config struct {
	Sources   SourcesConfig   `mapstructure:"sources"   yaml:"sources"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Synthetic SyntheticConfig `mapstructure:"synthetic" yaml:"synthetic"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Report    ReportConfig    `mapstructure:"report"    yaml:"report"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// SourcesConfig selects and configures the market data providers.
type SourcesConfig struct {
	Order      []string `mapstructure:"order"        yaml:"order"        validate:"min=1,dive,oneof=fred fmp treasury yfinance cboe federal_reserve synthetic"`
	FredAPIKey string   `mapstructure:"fred_api_key" yaml:"fred_api_key" json:"-"`
	FMPAPIKey  string   `mapstructure:"fmp_api_key"  yaml:"fmp_api_key"  json:"-"`
	TimeoutSec int      `mapstructure:"timeout_sec"  yaml:"timeout_sec"  validate:"gte=1,lte=600"`
	MinSeries  int      `mapstructure:"min_series"   yaml:"min_series"   validate:"gte=2"`
}

// SpreadConfig names a spread as long minus short.
type SpreadConfig struct {
	Name  string `mapstructure:"name"  yaml:"name"  validate:"required"`
	Long  string `mapstructure:"long"  yaml:"long"  validate:"required"`
	Short string `mapstructure:"short" yaml:"short" validate:"required,nefield=Long"`
}

// AnalysisConfig holds the analysis window and estimator settings.
type AnalysisConfig struct {
	LookbackDays        int            `mapstructure:"lookback_days"        yaml:"lookback_days"        validate:"gte=7,lte=36500"`
	Maturities          []string       `mapstructure:"maturities"           yaml:"maturities"           validate:"min=2,dive,required"`
	InterpolationWeight float64        `mapstructure:"interpolation_weight" yaml:"interpolation_weight" validate:"gt=0,lte=1"`
	FiveYearOffset      float64        `mapstructure:"five_year_offset"     yaml:"five_year_offset"     validate:"gte=0,lte=5"`
	Spreads             []SpreadConfig `mapstructure:"spreads"              yaml:"spreads"              validate:"min=1,dive"`
	Primary             string         `mapstructure:"primary"              yaml:"primary"              validate:"required"`
}

// SyntheticConfig controls the synthetic fallback source.
type SyntheticConfig struct {
	Enabled  bool    `mapstructure:"enabled"   yaml:"enabled"`
	Seed     int64   `mapstructure:"seed"      yaml:"seed"`
	Base10Y  float64 `mapstructure:"base_10y"  yaml:"base_10y"  validate:"gt=0"`
	DailyVol float64 `mapstructure:"daily_vol" yaml:"daily_vol" validate:"gte=0"`
}

// StorageConfig configures the SQLite observation cache.
type StorageConfig struct {
	DSN        string `mapstructure:"dsn"         yaml:"dsn"` // empty disables the cache
	TTLMinutes int    `mapstructure:"ttl_minutes" yaml:"ttl_minutes" validate:"gte=0"`
}

// ReportConfig holds report and chart settings.
type ReportConfig struct {
	Format        string `mapstructure:"format"         yaml:"format"         validate:"oneof=text json html"`
	ChartDir      string `mapstructure:"chart_dir"      yaml:"chart_dir"`
	SnapshotCount int    `mapstructure:"snapshot_count" yaml:"snapshot_count" validate:"gte=1,lte=20"`
	SnapshotStep  int    `mapstructure:"snapshot_step"  yaml:"snapshot_step"  validate:"gte=1"`
	NewsFeedURL   string `mapstructure:"news_feed_url"  yaml:"news_feed_url"  validate:"omitempty,url"`
	NewsLimit     int    `mapstructure:"news_limit"     yaml:"news_limit"     validate:"gte=0,lte=50"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path" yaml:"textfile_path"` // empty disables
}

// APIConfig holds the read-only HTTP server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         validate:"gte=1,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	TimeoutSec  int      `mapstructure:"timeout_sec"  yaml:"timeout_sec"  validate:"gte=1,lte=600"`
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.yieldwatch/config.yaml (home directory)
//  3. /etc/yieldwatch/config.yaml (system)
//
// A .env file in the working directory is loaded first, if present.
// Environment variables override config file values.
// Format: YIELDWATCH_<SECTION>_<KEY>, e.g. YIELDWATCH_REPORT_FORMAT
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".yieldwatch"))
	v.AddConfigPath("/etc/yieldwatch")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars.
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	cfg.Storage.DSN = expandHome(cfg.Storage.DSN)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Sources
	v.SetDefault("sources.order", []string{"fred", "fmp", "treasury", "yfinance", "cboe", "federal_reserve"})
	v.SetDefault("sources.fred_api_key", "")
	v.SetDefault("sources.fmp_api_key", "")
	v.SetDefault("sources.timeout_sec", 30)
	v.SetDefault("sources.min_series", 2)

	// Analysis
	v.SetDefault("analysis.lookback_days", 365)
	v.SetDefault("analysis.maturities", slices.Clone(models.DefaultMaturities))
	v.SetDefault("analysis.interpolation_weight", 0.7)
	v.SetDefault("analysis.five_year_offset", 0.5)
	v.SetDefault("analysis.spreads", []map[string]any{
		{"name": "2s10s", "long": "10Y", "short": "2Y_est"},
		{"name": "5s30s", "long": "30Y", "short": "5Y"},
	})
	v.SetDefault("analysis.primary", "2s10s")

	// Synthetic fallback
	v.SetDefault("synthetic.enabled", true)
	v.SetDefault("synthetic.seed", 42)
	v.SetDefault("synthetic.base_10y", 4.5)
	v.SetDefault("synthetic.daily_vol", 0.05)

	// Storage
	v.SetDefault("storage.dsn", "~/.yieldwatch/cache.db")
	v.SetDefault("storage.ttl_minutes", 720)

	// Report
	v.SetDefault("report.format", "text")
	v.SetDefault("report.chart_dir", "")
	v.SetDefault("report.snapshot_count", 5)
	v.SetDefault("report.snapshot_step", 20)
	v.SetDefault("report.news_feed_url", "https://www.federalreserve.gov/feeds/press_monetary.xml")
	v.SetDefault("report.news_limit", 5)

	// Metrics
	v.SetDefault("metrics.textfile_path", "")

	// API server
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.timeout_sec", 120)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads provider keys under their conventional names.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("FRED_API_KEY"); key != "" && cfg.Sources.FredAPIKey == "" {
		cfg.Sources.FredAPIKey = key
	}
	if key := os.Getenv("FMP_API_KEY"); key != "" && cfg.Sources.FMPAPIKey == "" {
		cfg.Sources.FMPAPIKey = key
	}
}

var validate = validator.New()

// ValidationError lists every invalid field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Fields, "; ")
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	var fields []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, describe(fe))
		}
	}

	primaryFound := false
	for _, s := range c.Analysis.Spreads {
		if s.Name == c.Analysis.Primary {
			primaryFound = true
		}
	}
	if c.Analysis.Primary != "" && !primaryFound {
		fields = append(fields, fmt.Sprintf("analysis.primary %q is not a configured spread", c.Analysis.Primary))
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:] // drop "Config."
	}
	switch fe.Tag() {
	case "required":
		return ns + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", ns, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte", "gt":
		return fmt.Sprintf("%s must be %s %s", ns, fe.Tag(), fe.Param())
	case "max", "lte", "lt":
		return fmt.Sprintf("%s must be %s %s", ns, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", ns, fe.Tag())
	}
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
