package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/version"
)

// NewRootCommand assembles the tallymark command tree.
func NewRootCommand() *cobra.Command {
	g := &Globals{}

	root := &cobra.Command{
		Use:   "tallymark",
		Short: "Tallymark - casualty data memorial toolkit",
		Long: `Tallymark loads the daily casualty series, derives calendar, peak, period
and trend views, relates magnitudes to familiar benchmarks, and publishes them
as terminal tables, a static HTML report, an HTTP API or MCP tools.

Commands:
  summary     Headline counters with a cumulative comparison
  calendar    Per-month calendar grid totals
  peaks       Deadliest days with daily comparisons
  periods     Totals by week of war, weekday, calendar week or month
  trend       Linear trend over the recent window
  compare     Relate a magnitude to the benchmark catalogue
  render      Write the static HTML report
  serve       Serve the JSON API
  mcp         Serve MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "config file (default .tallymark.yaml)")
	flags.StringVarP(&g.Format, "format", "f", FormatTable, "output format: table, json or yaml")
	flags.StringVar(&g.Lang, "lang", "", "output language: en or ar (default from config)")
	flags.BoolVar(&g.Debug, "debug", false, "enable debug logging to stderr")

	root.AddCommand(
		newSummaryCommand(g),
		newCalendarCommand(g),
		newPeaksCommand(g),
		newPeriodsCommand(g),
		newTrendCommand(g),
		newCompareCommand(g),
		newRenderCommand(g),
		newValidateCommand(g),
		newBenchmarksCommand(g),
		newCacheCommand(g),
		newServeCommand(g),
		newMCPCommand(g),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tallymark %s\n", version.String())
		},
	}
}
