// Package cli implements prctl, the operator command line for the solar PR
// monitor. Every command goes through the HTTP API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/apiclient"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/config"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type options struct {
	apiURL string
	format string
}

// NewRootCmd builds the prctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "prctl",
		Short: "Operate the solar performance-ratio monitor",
		Long: `prctl talks to the monitor API to inspect dashboards and alerts,
import workbooks and seed demo data.

Examples:
  prctl dashboard --site 1 --year 2023
  prctl dashboard --site 1 --start 2024-04-01 --end 2024-04-30
  prctl alerts --all --format json
  prctl import matrix portfolio.xlsx --year 2023
  prctl seed --from 2024-04-01 --to 2024-04-30`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.apiURL != "" {
				return nil
			}
			if err := config.Load(); err != nil {
				return err
			}
			opts.apiURL = config.APIURL()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (default: $API_URL)")
	root.PersistentFlags().StringVar(&opts.format, "format", formatTable, "Output format (table|json|yaml)")

	root.AddCommand(
		newDashboardCmd(opts),
		newForecastCmd(opts),
		newAlertsCmd(opts),
		newResolveCmd(opts),
		newImportCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// Execute runs prctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) client() *apiclient.Client {
	return apiclient.New(o.apiURL)
}

// render writes v as JSON or YAML, or hands a tabwriter to table.
func (o *options) render(w io.Writer, v interface{}, table func(*tabwriter.Writer)) error {
	switch o.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// Round-trip through JSON so YAML keys match the API.
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(generic)
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
}
