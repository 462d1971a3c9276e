// Package providers builds the concrete data providers selected by the
// configuration and registers them with a provider registry.
package providers

import (
	"fmt"

	"github.com/seenimoa/yieldwatch/internal/config"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/internal/providers/cboe"
	"github.com/seenimoa/yieldwatch/internal/providers/federalreserve"
	"github.com/seenimoa/yieldwatch/internal/providers/fmp"
	"github.com/seenimoa/yieldwatch/internal/providers/fred"
	"github.com/seenimoa/yieldwatch/internal/providers/synthetic"
	"github.com/seenimoa/yieldwatch/internal/providers/treasury"
	"github.com/seenimoa/yieldwatch/internal/providers/yfinance"
)

// SyntheticName is the registry name of the synthetic fallback provider.
const SyntheticName = "synthetic"

// RegisterAll creates and registers the providers named in
// cfg.Sources.Order, in that order, so the first listed becomes the default
// for each model it serves. FRED and FMP are skipped when no API key is
// configured.
// The synthetic provider is registered last whenever it is enabled, even if
// the order does not list it. It returns the names actually registered.
func RegisterAll(reg *provider.Registry, cfg *config.Config) ([]string, error) {
	var names []string
	add := func(p provider.Provider, creds map[string]string) error {
		if err := p.Init(creds); err != nil {
			return fmt.Errorf("init %s: %w", p.Info().Name, err)
		}
		if err := reg.Register(p); err != nil {
			return err
		}
		names = append(names, p.Info().Name)
		return nil
	}

	synth := synthetic.New(SyntheticParams(cfg.Synthetic))
	for _, name := range cfg.Sources.Order {
		var err error
		switch name {
		case "fred":
			// --- FRED (requires API key) ---
			if cfg.Sources.FredAPIKey == "" {
				continue
			}
			err = add(fred.New(), map[string]string{"api_key": cfg.Sources.FredAPIKey})
		case "fmp":
			// --- Financial Modeling Prep (requires API key) ---
			if cfg.Sources.FMPAPIKey == "" {
				continue
			}
			err = add(fmp.New(), map[string]string{"api_key": cfg.Sources.FMPAPIKey})
		case "treasury":
			// --- Treasury.gov (free, HTML) ---
			err = add(treasury.New(), nil)
		case "yfinance":
			// --- Yahoo yield indices (free, no API key) ---
			err = add(yfinance.New(), nil)
		case "cboe":
			// --- CBOE yield indices (free, no 2Y) ---
			err = add(cboe.New(), nil)
		case "federal_reserve":
			// --- NY Fed Markets API (free, policy rate only) ---
			err = add(federalreserve.New(), nil)
		case SyntheticName:
			err = add(synth, nil)
		default:
			err = &provider.ErrProviderNotFound{Name: name}
		}
		if err != nil {
			return names, err
		}
	}

	if cfg.Synthetic.Enabled && !registered(names, SyntheticName) {
		if err := add(synth, nil); err != nil {
			return names, err
		}
	}
	return names, nil
}

// SyntheticParams maps the config section onto the generator parameters.
// Unset fields take the generator defaults.
func SyntheticParams(c config.SyntheticConfig) synthetic.Params {
	p := synthetic.DefaultParams()
	p.Seed = c.Seed
	if c.Base10Y > 0 {
		p.Base10Y = c.Base10Y
	}
	if c.DailyVol > 0 {
		p.DailyVol = c.DailyVol
	}
	return p
}

func registered(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
