package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/assemble"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func newValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check chartpulse.yaml and the identity tables it references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), g)
		},
	}
}

func runValidate(out io.Writer, g *globals) error {
	red := color.New(color.FgRed)
	cfg, err := g.loadConfig()
	if err != nil {
		_, _ = red.Fprintf(out, "  ✗ %v\n", err)
		return err
	}
	reg, err := loadIdentity(cfg.IdentityDirs)
	if err != nil {
		_, _ = red.Fprintf(out, "  ✗ %v\n", err)
		return err
	}

	_, _ = color.New(color.FgGreen).Fprintln(out, "  ✓ Configuration valid")
	printConfig(out, cfg, reg.Versions())
	return nil
}

func printConfig(out io.Writer, cfg *types.ProjectConfig, identityVersions []string) {
	bold := color.New(color.Bold)
	layout := assemble.NewLayout(*cfg)

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Source:")
	fmt.Fprintf(out, "  %-10s %s\n", "uri", cfg.Source.URI)
	fmt.Fprintf(out, "  %-10s %s\n", "chart", cfg.Source.Chart)
	fmt.Fprintf(out, "  %-10s %s\n", "metadata", cfg.Source.Metadata)

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Window:")
	fmt.Fprintf(out, "  length=%dd lag=%dd scale=%g workers=%d\n",
		cfg.Window.LengthDays, cfg.Window.LagDays, cfg.Window.GrowthScale, cfg.Workers)

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Platforms:")
	for _, p := range layout.Platforms {
		fmt.Fprintf(out, "  %-10s prefix=%-4s metrics=%s file=%s\n",
			p.Name, p.Prefix, strings.Join(p.MetricNames(), ","), p.SourceFile())
	}
	fmt.Fprintf(out, "  %d feature columns\n", len(layout.Columns()))

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Identity tables:")
	for _, v := range identityVersions {
		fmt.Fprintf(out, "  %s\n", v)
	}

	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Sinks:")
	if len(cfg.Sinks) == 0 {
		_, _ = color.New(color.FgYellow).Fprintln(out, "  none configured, build will not write output")
	}
	for _, s := range cfg.Sinks {
		fmt.Fprintf(out, "  %-10s %s\n", s.Type, sinkTarget(s))
	}
}

func sinkTarget(s types.SinkConfig) string {
	switch s.Type {
	case types.SinkCSV, types.SinkJSONL:
		return s.Path
	case types.SinkS3:
		return "s3://" + s.Bucket + "/" + s.Prefix
	case types.SinkPostgres:
		if s.DSNSecretARN != "" {
			return "table=" + s.Table + " secret=" + s.DSNSecretARN
		}
		return "table=" + s.Table
	default:
		return ""
	}
}
