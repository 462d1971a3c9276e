package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/seenimoa/yieldwatch/internal/pipeline"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// --- Fetch Command ---

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [maturity]",
		Short: "Fetch one raw yield series",
		Long: `Fetch a single maturity (3M, 2Y, 5Y, 10Y, 30Y) or the policy rate (FFR)
from one provider and print it without alignment or analysis.

Examples:
  yieldwatch fetch 10Y
  yieldwatch fetch 2Y --provider treasury --days 30
  yieldwatch fetch FFR --provider fred --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.ToUpper(strings.TrimSpace(args[0]))
			name, _ := cmd.Flags().GetString("provider")
			asJSON, _ := cmd.Flags().GetBool("json")
			startFlag, _ := cmd.Flags().GetString("start")
			endFlag, _ := cmd.Flags().GetString("end")
			days, _ := cmd.Flags().GetInt("days")

			start, end, err := pipeline.Window(startFlag, endFlag, days)
			if err != nil {
				return err
			}

			reg, _, err := a.registry()
			if err != nil {
				return err
			}

			model := provider.ModelTreasurySeries
			params := provider.SeriesParams(label, start, end)
			if label == models.PolicyRate {
				model = provider.ModelPolicyRate
				delete(params, provider.ParamSymbol)
			}
			if name != "" {
				params[provider.ParamProvider] = name
			}

			res, err := reg.Fetch(cmd.Context(), model, params)
			if err != nil {
				return err
			}
			series := res.Data.Sorted()
			series.Label = label

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Fprintf(out, "%s from %s: %d observations (%s to %s)\n",
				label, res.Provider, series.Len(), utils.FormatDate(start), utils.FormatDate(end))
			if series.Synthetic {
				fmt.Fprintln(out, "⚠️  SYNTHETIC DATA")
			}
			table := tablewriter.NewWriter(out)
			table.Header("Date", "Yield (%)")
			for _, o := range series.Observations {
				if err := table.Append(utils.FormatDate(o.Date), fmt.Sprintf("%.2f", o.Value)); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}

	cmd.Flags().String("provider", "", "provider name (default: the model's default provider)")
	cmd.Flags().String("start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "window end date (YYYY-MM-DD, default today)")
	cmd.Flags().Int("days", 30, "lookback in calendar days when --start is not set")
	cmd.Flags().Bool("json", false, "print the raw fetch result as JSON")
	return cmd
}
