// Package metrics exposes build counters via expvar and mirrors them to the
// global OpenTelemetry meter.
package metrics

import (
	"context"
	"expvar"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dwsmith1983/chartpulse"

// Counter is a monotonically increasing process counter.
type Counter struct {
	name string
	v    *expvar.Int

	once sync.Once
	inst metric.Int64Counter
}

func newCounter(name string) *Counter {
	return &Counter{name: name, v: expvar.NewInt(name)}
}

// Add increments the counter by n.
func (c *Counter) Add(ctx context.Context, n int64) {
	if n == 0 {
		return
	}
	c.v.Add(n)
	if inst := c.instrument(); inst != nil {
		inst.Add(ctx, n)
	}
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context) { c.Add(ctx, 1) }

// Value returns the expvar value.
func (c *Counter) Value() int64 { return c.v.Value() }

// Name returns the counter's expvar name.
func (c *Counter) Name() string { return c.name }

func (c *Counter) instrument() metric.Int64Counter {
	c.once.Do(func() {
		inst, err := otel.Meter(meterName).Int64Counter("chartpulse." + c.name)
		if err == nil {
			c.inst = inst
		}
	})
	return c.inst
}

var (
	BuildsTotal        = newCounter("builds_total")
	BuildErrors        = newCounter("build_errors")
	ChartRowsRead      = newCounter("chart_rows_read")
	SocialRowsRead     = newCounter("social_rows_read")
	RowsSkipped        = newCounter("rows_skipped")
	ReleasesExtracted  = newCounter("releases_extracted")
	UnresolvedArtists  = newCounter("unresolved_artists")
	MetadataMatched    = newCounter("metadata_matched")
	GroupsProcessed    = newCounter("groups_processed")
	EmptyGroups        = newCounter("empty_groups")
	ProxyMissingValues = newCounter("proxy_missing_values")
	InterpolatedValues = newCounter("interpolated_values")
	FeatureRowsWritten = newCounter("feature_rows_written")
	SinkFailures       = newCounter("sink_failures")
)
