package main

import (
	"github.com/spf13/cobra"

	"github.com/seenimoa/yieldwatch/api"
	"github.com/seenimoa/yieldwatch/internal/pipeline"
)

// --- Serve Command ---

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analyses, charts and metrics over HTTP",
		Long: `Start the read-only HTTP API. Every analysis request runs the full pipeline
for the requested window; provider responses and the SQLite cache are shared
between requests.

Endpoints:
  GET /health
  GET /metrics
  GET /api/v1/analysis?start=&end=&days=&format=json|html|text&offline=
  GET /api/v1/charts[/{name}]
  GET /api/v1/providers
  GET /api/v1/config
  GET /api/v1/config/keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := a.cfg.API.Addr()
			if v, _ := cmd.Flags().GetString("addr"); v != "" {
				addr = v
			}

			runner, err := pipeline.New(a.cfg, a.log, nil)
			if err != nil {
				return err
			}
			defer runner.Close()
			if err := runner.OpenCache(); err != nil {
				a.log.Warn().Err(err).Str("dsn", a.cfg.Storage.DSN).Msg("cache unavailable, fetching without it")
			}

			configFile, _ := cmd.Flags().GetString("config")
			srv := api.NewServer(a.cfg, runner, a.log, api.WithVersion(version), api.WithConfigFile(configFile))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config api.host:api.port)")
	return cmd
}
