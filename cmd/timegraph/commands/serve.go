package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/server"
)

// errEmptyNetwork fails the readiness check of a network with no events.
var errEmptyNetwork = errors.New("network has no nodes or edges")

func newServeCommand(flags *globalFlags) *cobra.Command {
	nf := &networkFlags{}

	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve <network>",
		Short: "Serve snapshot queries over HTTP",
		Long: `Serve loads a network and answers queries over HTTP:

  GET /v1/snapshot?at=T | start=S&end=E
  GET /v1/events
  GET /v1/neighbors/{node}?at=T&direction=out|in|both
  GET /v1/paths?from=A&to=B&at=T
  GET /v1/rank?at=T
  GET /healthz, /readyz
  GET /metrics (when telemetry.prometheus is set)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, observability.ModeServe, func(ctx context.Context, e *env) error {
				err := nf.apply(cmd, e.cfg)
				if err != nil {
					return err
				}

				if cmd.Flags().Changed("host") {
					e.cfg.Server.Host = host
				}

				if cmd.Flags().Changed("port") {
					e.cfg.Server.Port = port
				}

				svc, err := e.openService(ctx, args[0])
				if err != nil {
					return err
				}

				red, err := observability.NewREDMetrics(e.providers.Meter)
				if err != nil {
					return fmt.Errorf("red metrics: %w", err)
				}

				srv := server.New(server.Config{
					Addr:            net.JoinHostPort(e.cfg.Server.Host, strconv.Itoa(e.cfg.Server.Port)),
					ReadTimeout:     e.cfg.Server.ReadTimeout,
					WriteTimeout:    e.cfg.Server.WriteTimeout,
					IdleTimeout:     e.cfg.Server.IdleTimeout,
					ShutdownTimeout: e.cfg.Server.ShutdownTimeout,
				}, svc,
					server.WithLogger(observability.Component(e.logger, "server")),
					server.WithTracer(e.providers.Tracer),
					server.WithRED(red),
					server.WithMetricsHandler(e.providers.MetricsHandler),
					server.WithReadyChecks(networkReady(svc)),
				)

				return srv.Run(ctx)
			})
		},
	}

	nf.register(cmd)
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")

	return cmd
}

// networkReady reports ready once the served network holds at least one
// node or edge at some time.
func networkReady(svc *query.Service) observability.ReadyCheck {
	return observability.ReadyCheck{
		Name: "network",
		Check: func(context.Context) error {
			network := svc.Network()
			if network.Nodes.Len() == 0 && network.Edges.Len() == 0 {
				return errEmptyNetwork
			}

			return nil
		},
	}
}
