package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/config"
	"github.com/Sumatoshi-tech/tallymark/pkg/dataset"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/relatability"
	"github.com/Sumatoshi-tech/tallymark/pkg/terminal"
)

const filePerm = 0o644

// ErrValidationFailed is returned when any validated document is invalid.
var ErrValidationFailed = errors.New("dataset validation failed")

func kindNames() string {
	names := make([]string, 0, len(dataset.Kinds()))
	for _, k := range dataset.Kinds() {
		names = append(names, string(k))
	}

	return strings.Join(names, ", ")
}

func newValidateCommand(g *Globals) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate <file-or-url>...",
		Short: "Check datasets against their JSON schemas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := dataset.ParseKind(kind)
			if err != nil {
				return err
			}

			fetcher := &dataset.Loader{}
			reports := make(map[string]*dataset.ValidationReport, len(args))
			valid := true

			for _, location := range args {
				data, fetchErr := fetcher.Fetch(cmd.Context(), location)
				if fetchErr != nil {
					return fetchErr
				}

				rep, validateErr := dataset.Validate(k, data)
				if validateErr != nil {
					return fmt.Errorf("%s: %w", location, validateErr)
				}

				reports[location] = rep
				valid = valid && rep.Valid
			}

			err = writeOutput(cmd.OutOrStdout(), g.Format, reports, func(w io.Writer) {
				for _, location := range args {
					terminal.Validation(w, location, reports[location])
				}
			})
			if err != nil {
				return err
			}

			if !valid {
				return ErrValidationFailed
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", string(dataset.KindCasualties), "dataset kind: "+kindNames())

	return cmd
}

func newBenchmarksCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmarks",
		Short: "Inspect and merge benchmark catalogues",
	}

	cmd.AddCommand(newBenchmarksListCommand(g), newBenchmarksMergeCommand(g))

	return cmd
}

func newBenchmarksListCommand(g *Globals) *cobra.Command {
	var scale string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured benchmark catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			bundle, err := a.loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			matcher := a.viewOptions().Matcher
			eligible := map[relatability.Scale]map[string]bool{}

			for _, sc := range []relatability.Scale{relatability.ScaleDaily, relatability.ScaleCumulative} {
				eligible[sc] = map[string]bool{}
				for _, b := range matcher.Candidates(bundle.Benchmarks, sc) {
					eligible[sc][b.ID] = true
				}
			}

			list := bundle.Benchmarks

			if scale != "" {
				sc, scaleErr := relatability.ParseScale(scale)
				if scaleErr != nil {
					return scaleErr
				}

				list = matcher.Candidates(bundle.Benchmarks, sc)
			}

			scaleFor := func(b relatability.Benchmark) string {
				var scales []string

				for _, sc := range []relatability.Scale{relatability.ScaleDaily, relatability.ScaleCumulative} {
					if eligible[sc][b.ID] {
						scales = append(scales, string(sc))
					}
				}

				return strings.Join(scales, ", ")
			}

			return writeOutput(cmd.OutOrStdout(), g.Format, list, func(w io.Writer) {
				terminal.Benchmarks(w, list, scaleFor)
			})
		},
	}

	cmd.Flags().StringVarP(&scale, "scale", "s", "", "only list benchmarks eligible for daily or cumulative comparisons")

	return cmd
}

func newBenchmarksMergeCommand(g *Globals) *cobra.Command {
	var (
		output    string
		showDiffs bool
		validate  bool
	)

	cmd := &cobra.Command{
		Use:   "merge <file-or-url>...",
		Short: "Merge catalogues, keeping the first entry for each id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher := &dataset.Loader{}
			catalogues := make([][]relatability.Entry, 0, len(args))

			for _, location := range args {
				data, err := fetcher.Fetch(cmd.Context(), location)
				if err != nil {
					return err
				}

				if validate {
					rep, validateErr := dataset.Validate(dataset.KindBenchmarks, data)
					if validateErr != nil {
						return fmt.Errorf("%s: %w", location, validateErr)
					}

					if repErr := rep.Err(); repErr != nil {
						return fmt.Errorf("%s: %w", location, repErr)
					}
				}

				entries, err := relatability.ParseEntries(data)
				if err != nil {
					return fmt.Errorf("%s: %w", location, err)
				}

				catalogues = append(catalogues, entries)
			}

			result := relatability.Merge(catalogues...)

			if output != "" {
				err := writeCatalogue(output, result.Benchmarks)
				if err != nil {
					return err
				}
			}

			return writeOutput(cmd.OutOrStdout(), g.Format, result, func(w io.Writer) {
				terminal.Merge(w, result, showDiffs)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged catalogue to this file")
	cmd.Flags().BoolVar(&showDiffs, "diff", false, "show diffs of conflicting duplicates")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate each catalogue against the benchmark schema")

	return cmd
}

func writeCatalogue(path string, entries []relatability.Entry) error {
	var buf bytes.Buffer

	err := relatability.WriteEntries(&buf, entries)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, buf.Bytes(), filePerm)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

func newCacheCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the remote dataset cache",
	}

	openCache := func() (*dataset.Cache, error) {
		cfg, err := config.LoadConfig(g.ConfigPath)
		if err != nil {
			return nil, err
		}

		return dataset.NewCache(cfg.Data.ResolvedCacheDir(), cfg.Data.CacheTTL), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache entry count and size",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := openCache()
				if err != nil {
					return err
				}

				stats, err := c.Stats()
				if err != nil {
					return err
				}

				terminal.CacheStats(cmd.OutOrStdout(), c.Dir, stats)

				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cache entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := openCache()
				if err != nil {
					return err
				}

				n, err := c.Purge()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries from %s\n", n, c.Dir)

				return nil
			},
		},
	)

	return cmd
}
