// Package pipeline runs the feature build end to end: lifecycles, sampling,
// metadata linking, per-group window processing and table assembly.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/chartpulse/internal/assemble"
	"github.com/dwsmith1983/chartpulse/internal/chart"
	"github.com/dwsmith1983/chartpulse/internal/features"
	"github.com/dwsmith1983/chartpulse/internal/identity"
	"github.com/dwsmith1983/chartpulse/internal/matcher"
	"github.com/dwsmith1983/chartpulse/internal/metrics"
	"github.com/dwsmith1983/chartpulse/internal/series"
	"github.com/dwsmith1983/chartpulse/internal/sink"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

var tracer = otel.Tracer("github.com/dwsmith1983/chartpulse/internal/pipeline")

// Builder builds feature tables from parsed inputs.
type Builder struct {
	cfg      *types.ProjectConfig
	resolver *identity.Resolver
	matcher  *matcher.Matcher
	layout   assemble.Layout
	logger   *slog.Logger
	now      func() time.Time
	entropy  io.Reader
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// WithClock overrides the clock used for run ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithEntropy overrides the entropy source of run ids.
func WithEntropy(r io.Reader) Option {
	return func(b *Builder) { b.entropy = r }
}

// WithMatcher replaces the metadata matcher.
func WithMatcher(m *matcher.Matcher) Option {
	return func(b *Builder) { b.matcher = m }
}

// New creates a Builder. cfg should already carry defaults.
func New(cfg *types.ProjectConfig, resolver *identity.Resolver, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		resolver: resolver,
		matcher:  matcher.New(cfg.Matcher.Threshold, matcher.ScorerFor(cfg.Matcher.Scorer)),
		layout:   assemble.NewLayout(*cfg),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	if b.entropy == nil {
		b.entropy = ulid.DefaultEntropy()
	}
	if b.resolver == nil {
		b.resolver = identity.NewResolver(identity.DefaultTable())
	}
	return b
}

// Result is a finished build.
type Result struct {
	Summary types.BuildSummary
	Layout  assemble.Layout
	Records []types.ReleaseRecord
	Rows    []types.FeatureRow
}

// Table returns the result in the form sinks consume.
func (r *Result) Table() sink.Table {
	return sink.Table{RunID: r.Summary.RunID, Layout: r.Layout, Rows: r.Rows}
}

// Build runs every stage over in.
func (b *Builder) Build(ctx context.Context, in *Inputs) (*Result, error) {
	started := b.now().UTC()
	runID, err := ulid.New(ulid.Timestamp(started), b.entropy)
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	logger := b.logger.With("runId", runID.String())

	ctx, span := tracer.Start(ctx, "pipeline.Build")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID.String()))
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With("traceId", sc.TraceID().String())
	}
	metrics.BuildsTotal.Inc(ctx)

	res, err := b.build(ctx, in, logger)
	if err != nil {
		metrics.BuildErrors.Inc(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res.Summary.RunID = runID.String()
	res.Summary.StartedAt = started
	res.Summary.FinishedAt = b.now().UTC()
	res.Summary.Skipped = in.Skipped
	span.SetAttributes(attribute.Int("rows", len(res.Rows)))
	logger.Info("feature table built",
		"rows", res.Summary.Rows,
		"releases", res.Summary.Releases,
		"sampled", res.Summary.Sampled,
		"groups", res.Summary.Groups,
		"emptyGroups", res.Summary.EmptyGroups)
	return res, nil
}

func (b *Builder) build(ctx context.Context, in *Inputs, logger *slog.Logger) (*Result, error) {
	sum := types.BuildSummary{ChartRows: len(in.Chart)}

	records, err := b.selectReleases(ctx, in, logger, &sum)
	if err != nil {
		return nil, err
	}

	meta := b.linkMetadata(records, in.Metadata, logger)
	sum.MetadataMatched = len(meta)
	metrics.MetadataMatched.Add(ctx, int64(len(meta)))

	feats, err := b.processGroups(ctx, records, meta, in.Social, &sum)
	if err != nil {
		return nil, err
	}

	_, span := tracer.Start(ctx, "assemble")
	rows := assemble.Assemble(records, feats, meta, b.layout)
	span.End()
	sum.Rows = len(rows)

	return &Result{Summary: sum, Layout: b.layout, Records: records, Rows: rows}, nil
}

// selectReleases extracts lifecycles and narrows them to the releases under
// study.
func (b *Builder) selectReleases(ctx context.Context, in *Inputs, logger *slog.Logger, sum *types.BuildSummary) ([]types.ReleaseRecord, error) {
	ctx, span := tracer.Start(ctx, "lifecycles")
	defer span.End()

	window, err := chart.ParseObservationWindow(b.cfg.Observation)
	if err != nil {
		return nil, err
	}

	all := chart.ExtractLifecyclesWithLogger(in.Chart, b.resolver, logger)
	sum.Releases = len(all)
	metrics.ReleasesExtracted.Add(ctx, int64(len(all)))

	emerging := chart.FilterEmerging(all, window)
	sum.Emerging = len(emerging)

	resolved, unresolved := assemble.DropUnresolved(emerging)
	sum.Unresolved = unresolved
	if unresolved > 0 {
		logger.Warn("dropping releases without a resolvable main artist", "count", unresolved)
		metrics.UnresolvedArtists.Add(ctx, int64(unresolved))
	}

	if !b.cfg.Sampling.IncludeCollaborations {
		resolved = assemble.SoloOnly(resolved)
	}
	if !b.cfg.Sampling.Disabled {
		sum.Seed = b.cfg.Sampling.SeedValue()
		resolved = assemble.SampleOnePerArtist(resolved, sum.Seed)
	}
	sum.Sampled = len(resolved)
	span.SetAttributes(
		attribute.Int("releases", sum.Releases),
		attribute.Int("emerging", sum.Emerging),
		attribute.Int("sampled", sum.Sampled),
	)
	return resolved, nil
}

// linkMetadata indexes catalog rows by entity id. Rows without an entity id
// are linked to the best fuzzy match among the remaining records.
func (b *Builder) linkMetadata(records []types.ReleaseRecord, rows []types.ReleaseMetadata, logger *slog.Logger) map[string]types.ReleaseMetadata {
	wanted := make(map[string]bool, len(records))
	for _, rec := range records {
		wanted[rec.EntityID] = true
	}

	out := make(map[string]types.ReleaseMetadata)
	var unlinked []types.ReleaseMetadata
	for _, m := range rows {
		if m.EntityID == "" {
			unlinked = append(unlinked, m)
			continue
		}
		if wanted[m.EntityID] {
			if _, dup := out[m.EntityID]; !dup {
				out[m.EntityID] = m
			}
		}
	}
	if len(unlinked) == 0 {
		return out
	}

	candidates := make([]matcher.Candidate, len(unlinked))
	for i, m := range unlinked {
		candidates[i] = matcher.Candidate{Title: m.Title, Artist: m.ArtistName}
	}
	for _, rec := range records {
		if _, ok := out[rec.EntityID]; ok {
			continue
		}
		match, ok := b.matcher.Best(matcher.Candidate{Title: rec.Title, Artist: rec.CanonicalMainArtist}, candidates)
		if !ok {
			continue
		}
		m := unlinked[match.Index]
		m.EntityID = rec.EntityID
		out[rec.EntityID] = m
		logger.Debug("linked metadata by similarity",
			"entity", rec.EntityID,
			"title", m.Title,
			"titleScore", match.TitleScore,
			"artistScore", match.ArtistScore)
	}
	return out
}

type groupResult struct {
	key      types.FeatureKey
	features types.PlatformFeatures
	report   series.ImputeReport
	empty    bool
}

// processGroups densifies, imputes and derives every (artist, platform,
// reference date) window. Each worker writes only its own result slot.
func (b *Builder) processGroups(ctx context.Context, records []types.ReleaseRecord, meta map[string]types.ReleaseMetadata, social map[types.Platform][]types.SocialSnapshot, sum *types.BuildSummary) (assemble.Features, error) {
	ctx, span := tracer.Start(ctx, "groups")
	defer span.End()

	observations := make(map[types.GroupKey][]types.Observation)
	for _, snaps := range social {
		for k, obs := range series.Group(snaps) {
			observations[k] = append(observations[k], obs...)
		}
	}

	schemas := make(map[types.Platform]types.PlatformSchema, len(b.layout.Platforms))
	for _, p := range b.layout.Platforms {
		schemas[p.Name] = p
	}
	requests := windowRequests(records, meta, b.layout.Platforms)

	opts := features.Options{LagDays: b.cfg.Window.LagDays, Scale: b.cfg.Window.GrowthScale}
	windowDays := b.cfg.Window.LengthDays
	if windowDays <= 0 {
		windowDays = types.DefaultWindowDays
	}

	results := make([]groupResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	workers := b.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g.SetLimit(workers)
	for i, req := range requests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := types.GroupKey{ArtistID: req.ArtistID, Platform: req.Platform}
			schema := schemas[req.Platform]
			obs := observations[key]

			w := series.Densify(obs, key, req.ReferenceDate, windowDays, schema.MetricNames())
			w, report := series.Impute(w, schema.Metrics)
			results[i] = groupResult{
				key:      req,
				features: features.Derive(w, schema.MetricNames(), opts),
				report:   report,
				empty:    len(obs) == 0,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("processing groups: %w", err)
	}

	out := make(assemble.Features, len(results))
	for _, r := range results {
		out[r.key] = r.features
		proxy, interpolated, _ := r.report.Totals()
		sum.ProxyMissing += proxy
		sum.Interpolated += interpolated
		if r.empty {
			sum.EmptyGroups++
		}
	}
	sum.Groups = len(results)

	metrics.GroupsProcessed.Add(ctx, int64(sum.Groups))
	metrics.EmptyGroups.Add(ctx, int64(sum.EmptyGroups))
	metrics.ProxyMissingValues.Add(ctx, int64(sum.ProxyMissing))
	metrics.InterpolatedValues.Add(ctx, int64(sum.Interpolated))
	span.SetAttributes(attribute.Int("groups", sum.Groups), attribute.Int("workers", workers))
	return out, nil
}

// windowRequests lists the distinct windows the records need, sorted.
func windowRequests(records []types.ReleaseRecord, meta map[string]types.ReleaseMetadata, platforms []types.PlatformSchema) []types.FeatureKey {
	seen := make(map[types.FeatureKey]bool)
	var out []types.FeatureKey
	for _, rec := range records {
		m, ok := meta[rec.EntityID]
		ref := assemble.ReferenceDate(rec, m, ok)
		for _, p := range platforms {
			k := types.FeatureKey{ArtistID: rec.CanonicalMainArtist, Platform: p.Name, ReferenceDate: ref}
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ArtistID != b.ArtistID {
			return a.ArtistID < b.ArtistID
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.ReferenceDate.Before(b.ReferenceDate)
	})
	return out
}

// Publish writes the result through the dispatcher.
func Publish(ctx context.Context, d *sink.Dispatcher, res *Result) error {
	ctx, span := tracer.Start(ctx, "sink")
	defer span.End()

	if err := d.Dispatch(ctx, res.Table()); err != nil {
		metrics.SinkFailures.Inc(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	metrics.FeatureRowsWritten.Add(ctx, int64(len(res.Rows)))
	return nil
}
