// Package commands implements the CLI subcommands for the chartpulse binary.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/config"
	"github.com/dwsmith1983/chartpulse/internal/identity"
	"github.com/dwsmith1983/chartpulse/internal/source"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configDir string
	logLevel  string
	logFormat string
	version   string
}

// NewRootCmd creates the chartpulse root command with every subcommand
// attached.
func NewRootCmd(version string) *cobra.Command {
	g := &globals{version: version}
	root := &cobra.Command{
		Use:   "chartpulse",
		Short: "Build chart-lifespan training tables from chart and social data",
		Long: `Chartpulse joins weekly singles charts with daily artist social statistics.
It extracts each release's chart lifecycle, resolves its main artist, densifies
and repairs the artist's social series around the release date, and writes one
feature row per emerging release.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configDir, "config", "c", ".", "directory containing "+config.FileName)
	pf.StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newInitCmd(),
		newValidateCmd(g),
		newResolveCmd(g),
		newLifecyclesCmd(g),
		newBuildCmd(g),
	)
	return root
}

// logger builds the slog logger selected by the global flags. Logs go to
// stderr so command output on stdout stays clean.
func (g *globals) logger(cmd *cobra.Command) (*slog.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), g.logFormat, g.logLevel)
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// loadConfig loads chartpulse.yaml from the configured directory.
func (g *globals) loadConfig() (*types.ProjectConfig, error) {
	cfg, err := config.Load(g.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// loadIdentity merges the builtin identity table with every table found in
// dirs, later tables taking precedence.
func loadIdentity(dirs []string) (*identity.Registry, error) {
	reg := identity.NewRegistry()
	if err := reg.Register(identity.DefaultTable()); err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := reg.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("loading identity tables from %s: %w", dir, err)
		}
	}
	return reg, nil
}

// openSource opens the configured input location.
func openSource(ctx context.Context, cfg *types.ProjectConfig) (source.Source, error) {
	src, err := source.New(ctx, cfg.Source.URI)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	return src, nil
}
