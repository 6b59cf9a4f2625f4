package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDashboardCmd(opts *options) *cobra.Command {
	var (
		siteID     int64
		year       int
		start, end string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show a site's PR dashboard",
		Long: `Show twelve fiscal-month rows of --year, or one row per day between
--start and --end. The seven-day forecast is printed below the rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (start == "") != (end == "") {
				return fmt.Errorf("--start and --end must be given together")
			}
			d, err := opts.client().Dashboard(cmd.Context(), siteID, year, start, end)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), d, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "PERIOD\tACTUAL\tTARGET\tPR\tSTATUS")
				for _, r := range d.Data {
					fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%s\n", r.Label, r.Actual, r.Target, r.PR, r.Status)
				}
				fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\t%.2f\t%s\n", d.Summary.Actual, d.Summary.Target, d.Summary.PR, d.Summary.Status)
				fmt.Fprintln(tw)
				fmt.Fprintln(tw, "FORECAST\tTARGET\tPREDICTED")
				for _, p := range d.Forecast {
					fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", p.Label, p.Target, p.Predicted)
				}
			})
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "Site id")
	cmd.Flags().IntVar(&year, "year", 0, "Fiscal year (April start), defaults to the current one")
	cmd.Flags().StringVar(&start, "start", "", "Range start, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Range end, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func newForecastCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Show the seven-day generation outlook",
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := opts.client().Forecast(cmd.Context())
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), points, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "DAY\tDATE\tTARGET\tPREDICTED")
				for _, p := range points {
					fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", p.Label, p.Date.Format("2006-01-02"), p.Target, p.Predicted)
				}
			})
		},
	}
}

func newAlertsCmd(opts *options) *cobra.Command {
	var (
		siteID int64
		all    bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List underperformance alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := opts.client().Alerts(cmd.Context(), siteID, all, limit)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), alerts, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tSITE\tSEVERITY\tRESOLVED\tCREATED\tMESSAGE")
				for _, a := range alerts {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%s\t%s\n", a.ID, a.SiteID, a.Severity, a.Resolved, a.CreatedAt.Format("2006-01-02 15:04"), a.Message)
				}
			})
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "Only alerts of this site id")
	cmd.Flags().BoolVar(&all, "all", false, "Include resolved alerts")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of alerts (server default 50)")
	return cmd
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Mark an alert resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.client().ResolveAlert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), a, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "resolved %s\t(site %d, %s)\n", a.ID, a.SiteID, a.Severity)
			})
		},
	}
}
