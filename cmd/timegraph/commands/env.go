package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/timegraph/pkg/config"
	"github.com/Sumatoshi-tech/timegraph/pkg/observability"
	"github.com/Sumatoshi-tech/timegraph/pkg/query"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
	"github.com/Sumatoshi-tech/timegraph/pkg/timeline"
	"github.com/Sumatoshi-tech/timegraph/pkg/version"
)

// env is what a command body runs with: configuration, telemetry and an
// output printer.
type env struct {
	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	out       *printer
}

// networkFlags override the snapshot section of the configuration.
type networkFlags struct {
	weight string
	window float64
}

func (nf *networkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&nf.weight, "weight", "", "edge attribute holding weights (default from config)")
	cmd.Flags().Float64Var(&nf.window, "window", 0, "width an --at query expands to (default from config)")
}

func (nf *networkFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("weight") {
		cfg.Snapshot.WeightAttribute = nf.weight
	}

	if cmd.Flags().Changed("window") {
		cfg.Snapshot.Window = nf.window
	}

	return cfg.Validate()
}

// withEnv loads configuration, starts telemetry in mode and runs fn.
// Telemetry is flushed when fn returns.
func withEnv(cmd *cobra.Command, flags *globalFlags, mode observability.AppMode, fn func(ctx context.Context, e *env) error) (err error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	obsCfg := cfg.Observability(mode, version.Version)
	obsCfg.LogWriter = cmd.ErrOrStderr()

	switch {
	case flags.quiet:
		obsCfg.LogLevel = slog.LevelError
	case flags.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	providers, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(ctx)))
	}()

	return fn(ctx, &env{
		cfg:       cfg,
		providers: providers,
		logger:    providers.Logger,
		out:       newPrinter(cmd.OutOrStdout(), flags.output),
	})
}

// openService loads the network at path and wires a query service over it.
func (e *env) openService(ctx context.Context, path string) (*query.Service, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open network: %w", err)
	}

	loader, err := timeline.NewLoader(
		timeline.WithValidation(e.cfg.Loader.ValidateSchema),
		timeline.WithLoaderLogger(observability.Component(e.logger, "timeline")),
	)
	if err != nil {
		return nil, err
	}

	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	network, err := timeline.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	network.Directed = !e.cfg.Snapshot.Undirected(network.Directed)

	metrics, err := observability.NewSnapshotMetrics(e.providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("snapshot metrics: %w", err)
	}

	engine := network.NewEngine(e.cfg.Snapshot.WeightAttribute,
		snapshot.WithLogger(observability.Component(e.logger, "snapshot")),
		snapshot.WithTracer(e.providers.Tracer),
		snapshot.WithMetrics(metrics),
	)

	e.logger.InfoContext(ctx, "network loaded",
		"path", path,
		"size", humanize.Bytes(uint64(max(info.Size(), 0))),
		"nodes", len(doc.Nodes),
		"edges", len(doc.Edges),
		"directed", network.Directed,
	)

	return query.New(network, engine,
		query.WithWindow(e.cfg.Snapshot.Window),
		query.WithLogger(observability.Component(e.logger, "query")),
	), nil
}
