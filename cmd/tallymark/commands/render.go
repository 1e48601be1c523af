package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/report"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

func newRenderCommand(g *Globals) *cobra.Command {
	var (
		outputDir   string
		title       string
		description string
		theme       string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the static HTML report",
		Long: `Render builds a self-contained HTML page with the summary, calendar grid,
timeline, period charts, peak days and comparisons, and writes it to
<output>/index.html. Charts load ECharts from a CDN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, g, func(ctx context.Context, a *app, svc *views.Service) error {
				if !cmd.Flags().Changed("output") {
					outputDir = a.cfg.Render.OutputDir
				}

				if !cmd.Flags().Changed("title") {
					title = a.cfg.Render.Title
				}

				if !cmd.Flags().Changed("theme") {
					theme = a.cfg.Render.Theme
				}

				th, err := report.ParseTheme(theme)
				if err != nil {
					return err
				}

				page, err := report.Build(ctx, svc, report.Options{
					Title:       title,
					Description: description,
					Theme:       th,
					Lang:        a.lang,
				})
				if err != nil {
					return err
				}

				path, err := report.WriteDir(outputDir, page)
				if err != nil {
					return err
				}

				a.logger.InfoContext(ctx, "report written", "path", path, "sections", len(page.Sections))
				fmt.Fprintln(cmd.OutOrStdout(), path)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "page title (default from config)")
	cmd.Flags().StringVar(&description, "description", "", "text under the page title")
	cmd.Flags().StringVar(&theme, "theme", "", "colour theme: light or dark (default from config)")

	return cmd
}
