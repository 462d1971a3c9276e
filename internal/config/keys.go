package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name     string       `json:"name"`
	Provider string       `json:"provider"`
	Source   APIKeySource `json:"source"`
	IsSet    bool         `json:"is_set"`
	Masked   string       `json:"masked,omitempty"` // e.g. "abc...xyz"
}

// CheckAPIKeys returns the status of every provider key.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("FRED API Key", "fred", cfg.Sources.FredAPIKey, "FRED_API_KEY", "YIELDWATCH_SOURCES_FRED_API_KEY"),
		checkKey("FMP API Key", "fmp", cfg.Sources.FMPAPIKey, "FMP_API_KEY", "YIELDWATCH_SOURCES_FMP_API_KEY"),
	}
}

// checkKey reports whether a key is set and whether an env var supplied it.
func checkKey(name, provider, value string, envVars ...string) KeyStatus {
	status := KeyStatus{Name: name, Provider: provider, IsSet: value != "", Source: KeySourceNone}
	if value == "" {
		return status
	}
	status.Source = KeySourceConfig
	for _, e := range envVars {
		if os.Getenv(e) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
