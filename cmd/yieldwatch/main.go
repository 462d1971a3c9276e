// yieldwatch: Treasury yield curve inversion monitor
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/yieldwatch/internal/config"
	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/logging"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/internal/providers"
	"github.com/seenimoa/yieldwatch/internal/store"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every command once PersistentPreRunE has run.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "yieldwatch",
		Short: "yieldwatch — Treasury yield curve inversion monitor",
		Long: `yieldwatch collects daily Treasury yields from public sources, aligns them
on a common calendar, estimates a 2-year rate when none is published, and
reports the 2s10s and 5s30s spreads with their inversion history.

When real data is unavailable it falls back to a clearly labelled synthetic
curve so the pipeline can still be exercised.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			configFile, _ := cmd.Flags().GetString("config")
			if configFile != "" {
				a.cfg, err = config.LoadFromFile(configFile)
			} else {
				a.cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				a.cfg.Logging.Level = lvl
			}
			a.log, err = logging.New(a.cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			// One process, one outbound timeout for every provider.
			infra.Client.Timeout = time.Duration(a.cfg.Sources.TimeoutSec) * time.Second
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newAnalyzeCmd(a))
	root.AddCommand(newFetchCmd(a))
	root.AddCommand(newProvidersCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// registry builds the provider registry from the loaded config.
func (a *app) registry() (*provider.Registry, []string, error) {
	reg := provider.NewRegistry()
	names, err := providers.RegisterAll(reg, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return reg, names, nil
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Version output never needs config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "yieldwatch %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}

// --- Providers Command ---

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List registered market data providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, order, err := a.registry()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Provider", "Models", "Maturities", "Credentials", "Description")
			for _, info := range reg.List() {
				models := make([]string, len(info.Models))
				for i, m := range info.Models {
					models[i] = string(m)
				}
				creds := make([]string, len(info.Credentials))
				for i, c := range info.Credentials {
					creds[i] = c.EnvVar
				}
				if err := table.Append(info.Name, strings.Join(models, ", "), strings.Join(info.Maturities, " "),
					strings.Join(creds, ", "), info.Description); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSource order: %s\n", strings.Join(order, " → "))
			return nil
		},
	}
}

// --- Status Command ---

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, API key and cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.cfg

			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintln(out, "  yieldwatch — System Status")
			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  Time (UTC):    %s\n", time.Now().UTC().Format(time.RFC3339))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  Configuration:")
			fmt.Fprintf(out, "    Sources:       %s\n", strings.Join(cfg.Sources.Order, ", "))
			fmt.Fprintf(out, "    Maturities:    %s\n", strings.Join(cfg.Analysis.Maturities, ", "))
			spreads := make([]string, len(cfg.Analysis.Spreads))
			for i, s := range cfg.Analysis.Spreads {
				spreads[i] = fmt.Sprintf("%s (%s-%s)", s.Name, s.Long, s.Short)
			}
			fmt.Fprintf(out, "    Spreads:       %s (primary: %s)\n", strings.Join(spreads, ", "), cfg.Analysis.Primary)
			fmt.Fprintf(out, "    Lookback:      %d days\n", cfg.Analysis.LookbackDays)
			synth := "disabled"
			if cfg.Synthetic.Enabled {
				synth = fmt.Sprintf("enabled (seed %d)", cfg.Synthetic.Seed)
			}
			fmt.Fprintf(out, "    Synthetic:     %s\n", synth)
			fmt.Fprintf(out, "    Report:        %s\n", cfg.Report.Format)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  API Keys:")
			for _, k := range config.CheckAPIKeys(cfg) {
				status := "❌ not set"
				if k.IsSet {
					status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
				}
				fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  Cache:")
			if cfg.Storage.DSN == "" {
				fmt.Fprintln(out, "    disabled")
			} else {
				fmt.Fprintf(out, "    Path:          %s (ttl %s)\n", cfg.Storage.DSN, cacheTTL(cfg))
				st, err := store.Open(cfg.Storage.DSN, cacheTTL(cfg))
				if err != nil {
					fmt.Fprintf(out, "    ❌ %v\n", err)
				} else {
					stats, err := st.Stats(cmd.Context())
					_ = st.Close()
					if err != nil {
						fmt.Fprintf(out, "    ❌ %v\n", err)
					} else {
						fmt.Fprintf(out, "    Entries:       %d series, %d observations, %d fetches\n",
							stats.Series, stats.Observations, stats.Fetches)
					}
				}
			}

			fmt.Fprintln(out, "═══════════════════════════════════════")
			return nil
		},
	}
}

func cacheTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Storage.TTLMinutes) * time.Minute
}
