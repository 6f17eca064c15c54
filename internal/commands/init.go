package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [project-dir]",
		Short: "Initialize a new chartpulse project",
		Long:  "Creates a chartpulse.yaml, a starter identity table and an empty data directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing chartpulse.yaml")
	return cmd
}

const starterConfig = `source:
  uri: ./data
  chart: chart.csv
  metadata: metadata.csv
identityDirs:
  - ./identity
window:
  lengthDays: 28
  lagDays: 28
  growthScale: 100
sampling:
  seed: 42
platforms:
  - name: instagram
    prefix: ig
    metrics:
      - name: followers
      - name: following
      - name: media
        zeroAsMissing: false
  - name: tiktok
    prefix: tt
    metrics:
      - name: followers
      - name: following
      - name: uploads
        zeroAsMissing: false
      - name: likes
  - name: youtube
    prefix: yt
    metrics:
      - name: subs
      - name: views
sinks:
  - type: csv
    path: ./out/features.csv
`

const starterIdentity = `name: local
version: "1"
# Artist names that contain a delimiter and must not be split.
exceptions: []
# Alternate spellings mapped to a canonical name.
aliases: {}
`

func runInit(out io.Writer, dir string, force bool) error {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(out, "Initializing chartpulse project: %s\n", dir)

	for _, sub := range []string{"data", "identity", "out"} {
		path := filepath.Join(dir, sub)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", path, err)
		}
	}

	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	identityPath := filepath.Join(dir, "identity", "local.yaml")
	if _, err := os.Stat(identityPath); os.IsNotExist(err) {
		if err := os.WriteFile(identityPath, []byte(starterIdentity), 0o644); err != nil {
			return fmt.Errorf("writing identity table: %w", err)
		}
	}

	_, _ = color.New(color.FgGreen).Fprintln(out, "  ✓ Project scaffolded")
	fmt.Fprintln(out)
	_, _ = bold.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  copy chart.csv, metadata.csv and social_<platform>.csv into %s\n", filepath.Join(dir, "data"))
	fmt.Fprintf(out, "  chartpulse validate -c %s\n", dir)
	fmt.Fprintf(out, "  chartpulse build -c %s\n", dir)
	return nil
}
