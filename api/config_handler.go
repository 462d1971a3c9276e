// Package api: configuration endpoints. The API never changes configuration.
package api

import (
	"net/http"

	"github.com/seenimoa/yieldwatch/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config     *config.Config `json:"config"`
	ConfigFile string         `json:"config_file,omitempty"` // empty when defaults and env only
}

// WithConfigFile records the config file the server was started with.
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// handleGetConfig returns the running configuration.
// Sensitive keys are excluded via json:"-" tags.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:     s.cfg,
			ConfigFile: s.configFile,
		},
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys, masked.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
