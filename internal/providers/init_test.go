package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/yieldwatch/internal/config"
	"github.com/seenimoa/yieldwatch/internal/provider"
)

func TestRegisterAll_NoFredKey(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.FredAPIKey = ""
	cfg.Sources.FMPAPIKey = ""

	reg := provider.NewRegistry()
	names, err := RegisterAll(reg, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"treasury", "yfinance", "cboe", "federal_reserve", "synthetic"}, names)
	_, err = reg.Get("fred")
	assert.ErrorIs(t, err, provider.ErrNotFound)

	def, ok := reg.DefaultProvider(provider.ModelTreasurySeries)
	require.True(t, ok)
	assert.Equal(t, "treasury", def)

	def, ok = reg.DefaultProvider(provider.ModelPolicyRate)
	require.True(t, ok)
	assert.Equal(t, "federal_reserve", def)
}

func TestRegisterAll_WithFredKey(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.FredAPIKey = "test-key-0000"
	cfg.Sources.FMPAPIKey = ""

	reg := provider.NewRegistry()
	names, err := RegisterAll(reg, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"fred", "treasury", "yfinance", "cboe", "federal_reserve", "synthetic"}, names)

	def, ok := reg.DefaultProvider(provider.ModelPolicyRate)
	require.True(t, ok)
	assert.Equal(t, "fred", def)
	assert.Equal(t, []string{"fred", "federal_reserve", "synthetic"}, reg.ProvidersFor(provider.ModelPolicyRate))
}

func TestRegisterAll_WithFMPKey(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.FredAPIKey = ""
	cfg.Sources.FMPAPIKey = "fmp-key-0000"

	reg := provider.NewRegistry()
	names, err := RegisterAll(reg, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmp", "treasury", "yfinance", "cboe", "federal_reserve", "synthetic"}, names)

	def, ok := reg.DefaultProvider(provider.ModelTreasurySeries)
	require.True(t, ok)
	assert.Equal(t, "fmp", def)
}

func TestRegisterAll_SyntheticDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Synthetic.Enabled = false
	cfg.Sources.Order = []string{"yfinance"}

	names, err := RegisterAll(provider.NewRegistry(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"yfinance"}, names)
}

func TestRegisterAll_SyntheticOnlyOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Order = []string{"synthetic", "treasury"}

	names, err := RegisterAll(provider.NewRegistry(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"synthetic", "treasury"}, names)
}

func TestRegisterAll_UnknownSource(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.Order = []string{"treasury", "bloomberg"}

	names, err := RegisterAll(provider.NewRegistry(), cfg)
	assert.ErrorIs(t, err, provider.ErrNotFound)
	assert.Equal(t, []string{"treasury"}, names)
}

func TestSyntheticParams(t *testing.T) {
	p := SyntheticParams(config.SyntheticConfig{Seed: 7, Base10Y: 3.2})
	assert.Equal(t, int64(7), p.Seed)
	assert.Equal(t, 3.2, p.Base10Y)
	assert.Equal(t, 0.05, p.DailyVol)
	assert.Equal(t, 7.0, p.Ceiling)
}
