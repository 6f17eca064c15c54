package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dwsmith1983/chartpulse/internal/ingest"
	"github.com/dwsmith1983/chartpulse/internal/metrics"
	"github.com/dwsmith1983/chartpulse/internal/source"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Inputs are the parsed input tables of one build.
type Inputs struct {
	Chart    []types.ChartEntry
	Social   map[types.Platform][]types.SocialSnapshot
	Metadata []types.ReleaseMetadata
	Skipped  []types.SkippedRow
}

// Load reads every input table from src. The chart table is required; a
// missing metadata or social table is logged and treated as empty.
func Load(ctx context.Context, src source.Source, cfg *types.ProjectConfig, logger *slog.Logger) (*Inputs, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, span := tracer.Start(ctx, "ingest")
	defer span.End()

	reader := ingest.NewReader(logger)
	in := &Inputs{Social: make(map[types.Platform][]types.SocialSnapshot)}

	chartFile := cfg.Source.Chart
	if chartFile == "" {
		chartFile = types.DefaultChartFile
	}
	if err := readTable(ctx, src, chartFile, func(rc io.ReadCloser) error {
		res, err := reader.Chart(rc)
		if err != nil {
			return err
		}
		in.Chart = res.Rows
		in.Skipped = append(in.Skipped, res.Skipped...)
		metrics.ChartRowsRead.Add(ctx, int64(len(res.Rows)))
		return nil
	}); err != nil {
		return nil, err
	}

	metaFile := cfg.Source.Metadata
	if metaFile == "" {
		metaFile = types.DefaultMetadataFile
	}
	err := readTable(ctx, src, metaFile, func(rc io.ReadCloser) error {
		res, err := reader.Metadata(rc)
		if err != nil {
			return err
		}
		in.Metadata = res.Rows
		in.Skipped = append(in.Skipped, res.Skipped...)
		return nil
	})
	if errors.Is(err, source.ErrNotFound) {
		logger.Warn("metadata table not found, continuing without it", "table", metaFile, "source", src.String())
	} else if err != nil {
		return nil, err
	}

	for _, p := range types.ResolvePlatforms(*cfg) {
		err := readTable(ctx, src, p.SourceFile(), func(rc io.ReadCloser) error {
			res, err := reader.Social(rc, p)
			if err != nil {
				return err
			}
			in.Social[p.Name] = res.Rows
			in.Skipped = append(in.Skipped, res.Skipped...)
			metrics.SocialRowsRead.Add(ctx, int64(len(res.Rows)))
			return nil
		})
		if errors.Is(err, source.ErrNotFound) {
			logger.Warn("social table not found, platform features will be missing", "platform", p.Name, "table", p.SourceFile())
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	metrics.RowsSkipped.Add(ctx, int64(len(in.Skipped)))
	span.SetAttributes(
		attribute.Int("chart.rows", len(in.Chart)),
		attribute.Int("metadata.rows", len(in.Metadata)),
		attribute.Int("skipped.rows", len(in.Skipped)),
	)
	return in, nil
}

func readTable(ctx context.Context, src source.Source, name string, fn func(io.ReadCloser) error) error {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	if err := fn(rc); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}
