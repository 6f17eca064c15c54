// Package assemble joins release lifecycles, catalog metadata and derived
// social features into the feature table.
package assemble

import (
	"strings"
	"time"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Features holds derived social features keyed by (artist, platform,
// reference date).
type Features map[types.FeatureKey]types.PlatformFeatures

// ReferenceDate returns the date social features are measured at for a
// release: its catalog release date, or its chart entry week when the
// catalog has none.
func ReferenceDate(rec types.ReleaseRecord, meta types.ReleaseMetadata, ok bool) time.Time {
	if ok && meta.HasReleaseDate() {
		return types.Day(meta.ReleaseDate)
	}
	return types.Day(rec.EntryWeek)
}

// Assemble produces one feature row per record, in record order. Records
// without metadata or social data keep missing values in those columns.
func Assemble(records []types.ReleaseRecord, features Features, metadata map[string]types.ReleaseMetadata, layout Layout) []types.FeatureRow {
	rows := make([]types.FeatureRow, 0, len(records))
	for _, rec := range records {
		meta, ok := metadata[rec.EntityID]
		ref := ReferenceDate(rec, meta, ok)

		row := types.FeatureRow{
			EntityID:          rec.EntityID,
			Title:             rec.Title,
			Artist:            rec.CanonicalMainArtist,
			SongLengthMin:     types.Missing(),
			EntryWeek:         rec.EntryWeek,
			EntryRank:         rec.EntryRank,
			PeakRank:          rec.PeakRank,
			Lifespan:          rec.Lifespan,
			CalendarSpanWeeks: rec.CalendarSpanWeeks,
			IsCollaboration:   rec.IsCollaboration,
			Social:            make(map[string]float64),
		}
		if ok {
			row.Genres = CleanGenres(meta.GenreTags, layout.DropGenres)
			row.SongLengthMin = SongLengthMinutes(meta.DurationMS)
			if meta.HasReleaseDate() {
				row.ReleaseDate = types.Day(meta.ReleaseDate)
			}
		}

		for _, p := range layout.Platforms {
			pf := features[types.FeatureKey{ArtistID: rec.CanonicalMainArtist, Platform: p.Name, ReferenceDate: ref}]
			for _, m := range p.Metrics {
				f, found := pf[m.Name]
				if !found {
					f = types.MetricFeatures{Snapshot: types.Missing(), GrowthRate: types.Missing()}
				}
				row.Social[SnapshotColumn(p.Prefix, m.Name)] = f.Snapshot
				row.Social[GrowthColumn(p.Prefix, m.Name, layout.LagDays)] = f.GrowthRate
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// SongLengthMinutes converts a duration in milliseconds to minutes. Unknown
// or non-positive durations are missing.
func SongLengthMinutes(ms float64) float64 {
	if types.IsMissing(ms) || ms <= 0 {
		return types.Missing()
	}
	return ms / 60000
}

// CleanGenres trims tags, drops empty and placeholder tags (case-insensitive)
// and removes duplicates while keeping first-seen order.
func CleanGenres(tags, drop []string) []string {
	dropped := make(map[string]bool, len(drop))
	for _, d := range drop {
		dropped[strings.ToLower(strings.TrimSpace(d))] = true
	}
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		low := strings.ToLower(tag)
		if tag == "" || dropped[low] || seen[low] {
			continue
		}
		seen[low] = true
		out = append(out, tag)
	}
	return out
}
