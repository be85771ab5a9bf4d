package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/vango-dev/arbor/pkg/server"
	"github.com/vango-dev/arbor/pkg/telemetry"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [demo]",
		Short: "Serve a demo with live sessions",
		Long: `Serve a demo application over HTTP.

GET / returns the server-rendered page. Each WebSocket connection to
/live mounts a private copy of the application and streams patches
as its state changes.

Examples:
  arbor serve
  arbor serve todo --addr=:3000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			a, err := app(cfg, args)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			sc := server.DefaultConfig()
			sc.Address = cfg.Server.Addr
			sc.Title = cfg.Export.Title
			sc.FrameBudget = cfg.FrameBudget()
			sc.ForceFirstWalk = cfg.Server.ForceFirstWalk

			opts := []server.Option{server.WithLogger(logger)}
			if cfg.Server.Metrics {
				reg := prometheus.NewRegistry()
				opts = append(opts, server.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg)), reg))
			}
			if cfg.Server.Tracing {
				opts = append(opts, server.WithTracing(otel.Tracer("arbor")))
			}
			srv := server.New(a.New, sc, opts...)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprint(cmd.OutOrStdout(), banner)
			fmt.Fprintf(cmd.OutOrStdout(), "  serving %s on %s\n\n", a.Name, sc.Address)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}
