package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/identity"
	"github.com/dwsmith1983/chartpulse/internal/pipeline"
	"github.com/dwsmith1983/chartpulse/internal/secrets"
	"github.com/dwsmith1983/chartpulse/internal/sink"
	"github.com/dwsmith1983/chartpulse/internal/telemetry"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

const shutdownTimeout = 10 * time.Second

type buildFlags struct {
	dryRun      bool
	workers     int
	seed        uint64
	summaryJSON bool
}

func newBuildCmd(g *globals) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the feature table and write it to every configured sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, cmd, g, f)
		},
	}

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "build without writing to sinks")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "override the configured worker count")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "override the configured sampling seed (0 is a valid seed)")
	cmd.Flags().BoolVar(&f.summaryJSON, "summary-json", false, "print the build summary as JSON")
	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command, g *globals, f buildFlags) error {
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		cfg.Sampling.Seed = &seed
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, g.version, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	reg, err := loadIdentity(cfg.IdentityDirs)
	if err != nil {
		return err
	}
	logger.Debug("identity tables loaded", "tables", reg.Versions())

	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	in, err := pipeline.Load(ctx, src, cfg, logger)
	if err != nil {
		return fmt.Errorf("loading inputs: %w", err)
	}

	res, err := pipeline.New(cfg, identity.NewResolver(reg.Table()), pipeline.WithLogger(logger)).Build(ctx, in)
	if err != nil {
		return fmt.Errorf("building feature table: %w", err)
	}

	out := cmd.OutOrStdout()
	if f.dryRun {
		_, _ = color.New(color.FgYellow).Fprintln(out, "Dry run: sinks skipped")
	} else if err := publish(ctx, cfg, res, logger); err != nil {
		printSummary(out, res.Summary, f.summaryJSON)
		return err
	}
	printSummary(out, res.Summary, f.summaryJSON)
	return nil
}

// publish opens every configured sink and writes the result to all of them.
func publish(ctx context.Context, cfg *types.ProjectConfig, res *pipeline.Result, logger *slog.Logger) error {
	opts := []sink.Option{sink.WithLogger(logger)}
	if needsSecrets(cfg.Sinks) {
		r, err := secrets.NewResolver(ctx, nil)
		if err != nil {
			return fmt.Errorf("creating secret resolver: %w", err)
		}
		opts = append(opts, sink.WithDSNResolver(r.PostgresDSN))
	}

	d, err := sink.NewDispatcher(ctx, cfg.Sinks, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("closing sinks", "error", err)
		}
	}()
	if d.Len() == 0 {
		logger.Warn("no sinks configured, feature table not written", "runId", res.Summary.RunID)
		return nil
	}
	if err := pipeline.Publish(ctx, d, res); err != nil {
		return fmt.Errorf("writing feature table: %w", err)
	}
	return nil
}

func needsSecrets(sinks []types.SinkConfig) bool {
	for _, s := range sinks {
		if s.Type == types.SinkPostgres && s.DSN == "" && s.DSNSecretARN != "" {
			return true
		}
	}
	return false
}

func printSummary(out io.Writer, sum types.BuildSummary, asJSON bool) {
	if asJSON {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			fmt.Fprintf(out, "encoding summary: %v\n", err)
			return
		}
		fmt.Fprintln(out, string(data))
		return
	}

	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Run %s\n", sum.RunID)
	fmt.Fprintf(out, "  %-18s %s\n", "duration", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "  %-18s %d\n", "chart rows", sum.ChartRows)
	fmt.Fprintf(out, "  %-18s %d\n", "releases", sum.Releases)
	fmt.Fprintf(out, "  %-18s %d\n", "emerging", sum.Emerging)
	fmt.Fprintf(out, "  %-18s %d (seed %d)\n", "sampled", sum.Sampled, sum.Seed)
	fmt.Fprintf(out, "  %-18s %d\n", "metadata matched", sum.MetadataMatched)
	fmt.Fprintf(out, "  %-18s %d (%d empty)\n", "groups", sum.Groups, sum.EmptyGroups)
	fmt.Fprintf(out, "  %-18s %d\n", "proxy-missing", sum.ProxyMissing)
	fmt.Fprintf(out, "  %-18s %d\n", "interpolated", sum.Interpolated)
	if sum.Unresolved > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(out, "  %-18s %d\n", "unresolved", sum.Unresolved)
	}
	if len(sum.Skipped) > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(out, "  %-18s %d\n", "skipped rows", len(sum.Skipped))
	}
	_, _ = color.New(color.FgGreen).Fprintf(out, "  %-18s %d\n", "feature rows", sum.Rows)
}
