// Package testutil provides shared fixtures for chartpulse tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dwsmith1983/chartpulse/internal/sink"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Date parses a YYYY-MM-DD date and panics on malformed input.
func Date(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// ChartRun returns consecutive weekly chart rows for one release starting at
// firstWeek, one row per rank, with weeks-on-chart counting up from 1.
func ChartRun(title, performers, firstWeek string, ranks ...int) []types.ChartEntry {
	start := Date(firstWeek)
	out := make([]types.ChartEntry, len(ranks))
	for i, r := range ranks {
		out[i] = types.ChartEntry{
			EntityID:     title + types.EntitySeparator + performers,
			Title:        title,
			Performers:   performers,
			ChartWeek:    start.AddDate(0, 0, 7*i),
			Rank:         r,
			WeeksOnChart: i + 1,
		}
	}
	return out
}

// DailySeries returns one snapshot per day for a single metric starting at
// start. Missing values produce no snapshot, leaving a gap.
func DailySeries(artist string, platform types.Platform, metric, start string, values ...float64) []types.SocialSnapshot {
	d := Date(start)
	var out []types.SocialSnapshot
	for i, v := range values {
		if types.IsMissing(v) {
			continue
		}
		out = append(out, types.SocialSnapshot{
			ArtistID: artist,
			Platform: platform,
			Date:     d.AddDate(0, 0, i),
			Values:   map[string]float64{metric: v},
		})
	}
	return out
}

// WriteFiles writes name -> content pairs under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// Compile-time interface satisfaction check.
var _ sink.Sink = (*MemorySink)(nil)

// MemorySink records every table written to it.
type MemorySink struct {
	mu     sync.Mutex
	tables []sink.Table
	err    error
}

// NewMemorySink creates a sink that fails every write with err when err is
// non-nil.
func NewMemorySink(err error) *MemorySink { return &MemorySink{err: err} }

// Name returns the sink identifier.
func (m *MemorySink) Name() string { return "memory" }

// Write records the table.
func (m *MemorySink) Write(_ context.Context, t sink.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, t)
	return m.err
}

// Tables returns the recorded tables.
func (m *MemorySink) Tables() []sink.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sink.Table(nil), m.tables...)
}
