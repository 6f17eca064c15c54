// Package chart turns weekly chart rows into one lifecycle record per release.
package chart

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Rank bounds of a Hot-100 style chart.
const (
	MinRank = 1
	MaxRank = 100
)

// IdentityResolver resolves a performer credit to a canonical main artist.
type IdentityResolver interface {
	ResolveMainArtist(credit string) string
}

// EntityID builds the composite release identifier from a title and its
// performer credit.
func EntityID(title, performers string) string {
	return strings.TrimSpace(title) + types.EntitySeparator + strings.TrimSpace(performers)
}

// Validate checks a chart entry's invariants.
func Validate(e types.ChartEntry) error {
	if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Performers) == "" {
		return fmt.Errorf("entry has neither title nor performers")
	}
	if e.Rank < MinRank || e.Rank > MaxRank {
		return fmt.Errorf("rank %d outside [%d, %d]", e.Rank, MinRank, MaxRank)
	}
	if e.WeeksOnChart < 1 {
		return fmt.Errorf("weeks on chart %d < 1", e.WeeksOnChart)
	}
	if e.ChartWeek.IsZero() {
		return fmt.Errorf("entry has no chart week")
	}
	return nil
}

// ExtractLifecycles aggregates chart rows into one ReleaseRecord per entity,
// sorted by EntityID.
//
// Lifespan is the largest weeks-on-chart counter the chart reported, which
// already counts weeks spent off the chart between re-entries as the chart
// defines them. CalendarSpanWeeks is the elapsed span from entry to last
// appearance.
func ExtractLifecycles(entries []types.ChartEntry, r IdentityResolver) []types.ReleaseRecord {
	return extract(entries, r, slog.Default())
}

// ExtractLifecyclesWithLogger is ExtractLifecycles with an explicit logger for
// re-entry diagnostics.
func ExtractLifecyclesWithLogger(entries []types.ChartEntry, r IdentityResolver, logger *slog.Logger) []types.ReleaseRecord {
	if logger == nil {
		logger = slog.Default()
	}
	return extract(entries, r, logger)
}

func extract(entries []types.ChartEntry, r IdentityResolver, logger *slog.Logger) []types.ReleaseRecord {
	byEntity := make(map[string]*types.ReleaseRecord)
	for _, e := range entries {
		id := e.EntityID
		if id == "" {
			id = EntityID(e.Title, e.Performers)
		}
		week := types.Day(e.ChartWeek)

		rec, ok := byEntity[id]
		if !ok {
			byEntity[id] = &types.ReleaseRecord{
				EntityID:          id,
				Title:             strings.TrimSpace(e.Title),
				Performers:        strings.TrimSpace(e.Performers),
				EntryWeek:         week,
				EntryRank:         e.Rank,
				FirstWeeksOnChart: e.WeeksOnChart,
				LastWeek:          week,
				PeakRank:          e.Rank,
				Lifespan:          e.WeeksOnChart,
			}
			continue
		}

		switch {
		case week.Before(rec.EntryWeek):
			rec.EntryWeek = week
			rec.EntryRank = e.Rank
			rec.FirstWeeksOnChart = e.WeeksOnChart
		case week.Equal(rec.EntryWeek):
			// Two rows for the entry week: keep the better rank.
			if e.Rank < rec.EntryRank {
				rec.EntryRank = e.Rank
				rec.FirstWeeksOnChart = e.WeeksOnChart
			}
		}
		if week.After(rec.LastWeek) {
			rec.LastWeek = week
		}
		if e.Rank < rec.PeakRank {
			rec.PeakRank = e.Rank
		}
		if e.WeeksOnChart > rec.Lifespan {
			rec.Lifespan = e.WeeksOnChart
		}
	}

	out := make([]types.ReleaseRecord, 0, len(byEntity))
	for _, rec := range byEntity {
		rec.CalendarSpanWeeks = calendarSpanWeeks(rec.EntryWeek, rec.LastWeek)
		if rec.Lifespan < 1 {
			rec.Lifespan = 1
		}
		if r != nil {
			rec.CanonicalMainArtist = r.ResolveMainArtist(rec.Performers)
			rec.IsCollaboration = isCollaboration(r, rec.Performers, rec.CanonicalMainArtist)
		}
		if rec.CalendarSpanWeeks != rec.Lifespan {
			logger.Debug("lifespan differs from calendar span",
				"entity", rec.EntityID,
				"lifespan", rec.Lifespan,
				"calendarSpanWeeks", rec.CalendarSpanWeeks)
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// canonicalizer is implemented by resolvers that also rewrite whole credits
// through an alias table.
type canonicalizer interface {
	Canonicalize(name string) string
}

// isCollaboration compares the main artist to the full credit, passing the
// credit through the same alias table when the resolver has one.
func isCollaboration(r IdentityResolver, credit, canonical string) bool {
	credit = strings.TrimSpace(credit)
	if c, ok := r.(canonicalizer); ok {
		credit = c.Canonicalize(credit)
	}
	return canonical != credit
}

func calendarSpanWeeks(entry, last time.Time) int {
	return types.DaysBetween(entry, last)/7 + 1
}

// ObservationWindow bounds the entry weeks of releases under study. A zero
// bound is open.
type ObservationWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w ObservationWindow) Contains(t time.Time) bool {
	d := types.Day(t)
	if !w.Start.IsZero() && d.Before(types.Day(w.Start)) {
		return false
	}
	if !w.End.IsZero() && d.After(types.Day(w.End)) {
		return false
	}
	return true
}

// ParseObservationWindow parses the configured YYYY-MM-DD bounds. Empty
// bounds stay open.
func ParseObservationWindow(cfg types.ObservationConfig) (ObservationWindow, error) {
	var w ObservationWindow
	var err error
	if cfg.Start != "" {
		if w.Start, err = time.Parse(types.DateLayout, cfg.Start); err != nil {
			return w, fmt.Errorf("parsing observation.start: %w", err)
		}
	}
	if cfg.End != "" {
		if w.End, err = time.Parse(types.DateLayout, cfg.End); err != nil {
			return w, fmt.Errorf("parsing observation.end: %w", err)
		}
	}
	return w, nil
}

// FilterEmerging keeps releases that debuted inside the window, excluding
// re-entries of songs that first charted before the chart history began.
func FilterEmerging(records []types.ReleaseRecord, w ObservationWindow) []types.ReleaseRecord {
	var out []types.ReleaseRecord
	for _, rec := range records {
		if rec.FirstWeeksOnChart != 1 || !w.Contains(rec.EntryWeek) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
