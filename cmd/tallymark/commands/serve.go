package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tallymark/pkg/api"
	"github.com/Sumatoshi-tech/tallymark/pkg/mcp"
	"github.com/Sumatoshi-tech/tallymark/pkg/observability"
	"github.com/Sumatoshi-tech/tallymark/pkg/views"
)

const shutdownTimeout = 10 * time.Second

// ErrNoRecords fails the readiness check of an empty dataset.
var ErrNoRecords = errors.New("casualty dataset is empty")

// startServer bootstraps an app in mode and loads the service. Callers must
// defer app.close.
func startServer(cmd *cobra.Command, g *Globals, mode observability.AppMode) (*app, *views.Service, *observability.REDMetrics, error) {
	a, err := newApp(cmd, g, mode)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := a.service(cmd.Context())
	if err != nil {
		a.close()

		return nil, nil, nil, err
	}

	red, err := observability.NewREDMetrics(a.providers.Meter)
	if err != nil {
		a.close()

		return nil, nil, nil, fmt.Errorf("register red metrics: %w", err)
	}

	return a, svc, red, nil
}

func newServeCommand(g *Globals) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the derived views as a JSON API",
		Long: `Serve exposes the views under /api/*, liveness on /healthz, readiness on
/readyz and, when observability.prometheus is set, metrics on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, svc, red, err := startServer(cmd, g, observability.ModeServe)
			if err != nil {
				return err
			}
			defer a.close()

			handler := api.NewHandler(api.Deps{
				Service:        svc,
				Tracer:         a.providers.Tracer,
				RED:            red,
				Logger:         a.logger,
				MetricsHandler: a.providers.MetricsHandler,
				Ready: []observability.ReadyCheck{func(context.Context) error {
					if len(svc.Bundle().Records) == 0 {
						return ErrNoRecords
					}

					return nil
				}},
			})

			if !cmd.Flags().Changed("host") {
				host = a.cfg.Server.Host
			}

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}

			srv, err := api.Listen(cmd.Context(), net.JoinHostPort(host, strconv.Itoa(port)), handler, api.Timeouts{
				Read:     a.cfg.Server.ReadTimeout,
				Write:    a.cfg.Server.WriteTimeout,
				Idle:     a.cfg.Server.IdleTimeout,
				Shutdown: shutdownTimeout,
			}, a.logger)
			if err != nil {
				return err
			}

			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

func newMCPCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes the loaded dataset as tools that AI agents can discover
and invoke:
  - tallymark_compare: relate a magnitude to a familiar benchmark
  - tallymark_peaks: deadliest days with comparisons
  - tallymark_summary: headline counters
  - tallymark_periods: totals by period
  - tallymark_trend: recent linear trend
  - tallymark_annotations: curated events by date

Logs are written as JSON to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, svc, red, err := startServer(cmd, g, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcp.NewServer(mcp.ServerDeps{
				Service: svc,
				Logger:  a.logger,
				Metrics: red,
				Tracer:  a.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
