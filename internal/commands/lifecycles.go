package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/chartpulse/internal/chart"
	"github.com/dwsmith1983/chartpulse/internal/identity"
	"github.com/dwsmith1983/chartpulse/internal/ingest"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func newLifecyclesCmd(g *globals) *cobra.Command {
	var (
		emerging bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "lifecycles",
		Short: "Print one lifecycle record per charted release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycles(cmd.Context(), cmd, g, emerging, format)
		},
	}

	cmd.Flags().BoolVar(&emerging, "emerging", false, "only releases that debuted inside the observation window")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}

func runLifecycles(ctx context.Context, cmd *cobra.Command, g *globals, emerging bool, format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q", format)
	}
	logger, err := g.logger(cmd)
	if err != nil {
		return err
	}
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	reg, err := loadIdentity(cfg.IdentityDirs)
	if err != nil {
		return err
	}
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}

	rc, err := src.Open(ctx, cfg.Source.Chart)
	if err != nil {
		return fmt.Errorf("opening chart table: %w", err)
	}
	defer func() { _ = rc.Close() }()
	res, err := ingest.NewReader(logger).Chart(rc)
	if err != nil {
		return fmt.Errorf("reading chart table: %w", err)
	}

	records := chart.ExtractLifecyclesWithLogger(res.Rows, identity.NewResolver(reg.Table()), logger)
	if emerging {
		w, err := chart.ParseObservationWindow(cfg.Observation)
		if err != nil {
			return err
		}
		records = chart.FilterEmerging(records, w)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeRecordsJSON(out, records)
	}
	writeRecordsText(out, records)
	return nil
}

func writeRecordsJSON(out io.Writer, records []types.ReleaseRecord) error {
	enc := json.NewEncoder(out)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding %s: %w", rec.EntityID, err)
		}
	}
	return nil
}

func writeRecordsText(out io.Writer, records []types.ReleaseRecord) {
	fmt.Fprintf(out, "%-50s %-25s %-10s %5s %5s %8s %6s\n",
		"RELEASE", "MAIN ARTIST", "ENTRY", "POS", "PEAK", "LIFESPAN", "COLLAB")
	for _, rec := range records {
		collab := ""
		if rec.IsCollaboration {
			collab = "yes"
		}
		fmt.Fprintf(out, "%-50s %-25s %-10s %5d %5d %8d %6s\n",
			truncate(rec.EntityID, 50),
			truncate(rec.CanonicalMainArtist, 25),
			rec.EntryWeek.Format(types.DateLayout),
			rec.EntryRank,
			rec.PeakRank,
			rec.Lifespan,
			collab)
	}
	fmt.Fprintf(out, "%d releases\n", len(records))
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
