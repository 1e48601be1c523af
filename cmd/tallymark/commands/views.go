package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/api"
	"github.com/Sumatoshi-tech/tallymark/pkg/casualty"
	"github.com/Sumatoshi-tech/tallymark/pkg/period"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/terminal"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

func metricFlag(cmd *cobra.Command, target *string) {
	names := make([]string, 0, len(casualty.Categories()))
	for _, c := range casualty.Categories() {
		names = append(names, string(c))
	}

	cmd.Flags().StringVarP(target, "metric", "m", "",
		"casualty metric: "+strings.Join(names, ", ")+" (default from config)")
}

func newSummaryCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show headline counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, g, func(ctx context.Context, a *app, svc *views.Service) error {
				s, err := svc.Summary(ctx, a.lang)
				if err != nil {
					return err
				}

				return writeOutput(cmd.OutOrStdout(), g.Format, s, func(w io.Writer) { terminal.Summary(w, s) })
			})
		},
	}
}

func newCalendarCommand(g *Globals) *cobra.Command {
	var metric string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the calendar grid by month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, g, func(_ context.Context, a *app, svc *views.Service) error {
				c, err := svc.Calendar(casualty.Category(metric), a.lang)
				if err != nil {
					return err
				}

				return writeOutput(cmd.OutOrStdout(), g.Format, c, func(w io.Writer) { terminal.Calendar(w, c) })
			})
		},
	}

	metricFlag(cmd, &metric)

	return cmd
}

func newPeaksCommand(g *Globals) *cobra.Command {
	var (
		metric string
		count  int
		window int
	)

	cmd := &cobra.Command{
		Use:   "peaks",
		Short: "List the deadliest days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, g, func(ctx context.Context, a *app, svc *views.Service) error {
				list, err := svc.Peaks(ctx, views.PeaksRequest{
					Metric: casualty.Category(metric),
					Count:  count,
					Window: window,
					Lang:   a.lang,
				})
				if err != nil {
					return err
				}

				return writeOutput(cmd.OutOrStdout(), g.Format, list, func(w io.Writer) { terminal.Peaks(w, list) })
			})
		},
	}

	metricFlag(cmd, &metric)
	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of peak days (default from config)")
	cmd.Flags().IntVar(&window, "window", -1, "adjacency window in weeks; 0 disables (default from config)")

	return cmd
}

func newPeriodsCommand(g *Globals) *cobra.Command {
	var (
		metric      string
		granularity string
	)

	names := make([]string, 0, len(period.Granularities()))
	for _, gr := range period.Granularities() {
		names = append(names, string(gr))
	}

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Aggregate totals by period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gr, err := period.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			return withService(cmd, g, func(_ context.Context, _ *app, svc *views.Service) error {
				p, periodsErr := svc.Periods(gr, casualty.Category(metric))
				if periodsErr != nil {
					return periodsErr
				}

				return writeOutput(cmd.OutOrStdout(), g.Format, p, func(w io.Writer) { terminal.Periods(w, p) })
			})
		},
	}

	metricFlag(cmd, &metric)
	cmd.Flags().StringVarP(&granularity, "granularity", "g", string(period.WeekOfWar),
		"period granularity: "+strings.Join(names, ", "))

	return cmd
}

func newTrendCommand(g *Globals) *cobra.Command {
	var (
		metric   string
		window   int
		timeline bool
		smooth   int
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Fit a linear trend to the recent window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, g, func(_ context.Context, _ *app, svc *views.Service) error {
				if timeline {
					t, err := svc.Timeline(casualty.Category(metric), smooth)
					if err != nil {
						return err
					}

					return writeOutput(cmd.OutOrStdout(), g.Format, t, func(w io.Writer) { terminal.Timeline(w, t) })
				}

				t, err := svc.Trend(casualty.Category(metric), window)
				if err != nil {
					return err
				}

				return writeOutput(cmd.OutOrStdout(), g.Format, t, func(w io.Writer) { terminal.Trend(w, t) })
			})
		},
	}

	metricFlag(cmd, &metric)
	cmd.Flags().IntVarP(&window, "window", "w", 0, "trailing days to fit; negative fits the whole series (default from config)")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "print the daily series with its moving average instead")
	cmd.Flags().IntVar(&smooth, "smooth", 0, "moving average window in days for --timeline (default from config)")

	return cmd
}

func newCompareCommand(g *Globals) *cobra.Command {
	var (
		scale  string
		random bool
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "compare <magnitude>",
		Short: "Relate a magnitude to a familiar benchmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			magnitude, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", ""), 64)
			if err != nil {
				return fmt.Errorf("magnitude %q: %w", args[0], err)
			}

			sc, err := relatability.ParseScale(scale)
			if err != nil {
				return err
			}

			return withService(cmd, g, func(ctx context.Context, a *app, svc *views.Service) error {
				req := views.CompareRequest{Magnitude: magnitude, Scale: sc, Lang: a.lang}
				if random {
					req.Rand = newRand(cmd, seed)
				}

				c, compareErr := svc.Compare(ctx, req)
				if compareErr != nil {
					return compareErr
				}

				resp := api.CompareResponse{Matched: c != nil, Comparison: c}

				return writeOutput(cmd.OutOrStdout(), g.Format, resp, func(w io.Writer) { terminal.Comparison(w, c) })
			})
		},
	}

	cmd.Flags().StringVarP(&scale, "scale", "s", string(relatability.ScaleDaily), "benchmark scale: daily or cumulative")
	cmd.Flags().BoolVarP(&random, "random", "r", false, "pick a random qualifying benchmark instead of the best")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for --random (default time based)")

	return cmd
}
