// Package types defines the public domain types for the chartpulse feature pipeline.
package types

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format used by every input and output table.
const DateLayout = "2006-01-02"

// EntitySeparator joins a release title to its performer credit in an entity id.
const EntitySeparator = " — "

// Missing returns the marker used for an absent metric or feature value.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// ChartEntry is one row of a weekly singles chart.
type ChartEntry struct {
	EntityID     string    `json:"entityId"`
	Title        string    `json:"title"`
	Performers   string    `json:"performers"`
	ChartWeek    time.Time `json:"chartWeek"`
	Rank         int       `json:"rank"`
	WeeksOnChart int       `json:"weeksOnChart"`
}

// ReleaseRecord aggregates every chart row of one release.
type ReleaseRecord struct {
	EntityID            string    `json:"entityId"`
	Title               string    `json:"title"`
	Performers          string    `json:"performers"`
	CanonicalMainArtist string    `json:"canonicalMainArtist"`
	IsCollaboration     bool      `json:"isCollaboration"`
	EntryWeek           time.Time `json:"entryWeek"`
	EntryRank           int       `json:"entryRank"`
	FirstWeeksOnChart   int       `json:"firstWeeksOnChart"`
	LastWeek            time.Time `json:"lastWeek"`
	PeakRank            int       `json:"peakRank"`
	Lifespan            int       `json:"lifespan"`
	CalendarSpanWeeks   int       `json:"calendarSpanWeeks"`
}

// GroupKey identifies one (artist, platform) time series.
type GroupKey struct {
	ArtistID string   `json:"artistId"`
	Platform Platform `json:"platform"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s/%s", k.ArtistID, k.Platform)
}

// Less orders keys by artist, then platform.
func (k GroupKey) Less(o GroupKey) bool {
	if k.ArtistID != o.ArtistID {
		return k.ArtistID < o.ArtistID
	}
	return k.Platform < o.Platform
}

// SocialSnapshot is one day of platform statistics for an artist.
type SocialSnapshot struct {
	ArtistID string             `json:"artistId"`
	Platform Platform           `json:"platform"`
	Date     time.Time          `json:"date"`
	Values   map[string]float64 `json:"values"`
}

// Key returns the series this snapshot belongs to.
func (s SocialSnapshot) Key() GroupKey {
	return GroupKey{ArtistID: s.ArtistID, Platform: s.Platform}
}

// Observation strips the group identity off the snapshot.
func (s SocialSnapshot) Observation() Observation {
	return Observation{Date: s.Date, Values: s.Values}
}

// Observation is one dated point of a raw series. Synthesized is set only
// when the observation was itself produced by window densification.
type Observation struct {
	Date        time.Time
	Values      map[string]float64
	Synthesized bool
}

// WindowRow is one calendar day of a densified window.
type WindowRow struct {
	Date           time.Time          `json:"date"`
	Values         map[string]float64 `json:"values"`
	WasSynthesized bool               `json:"wasSynthesized"`
}

// Value returns the metric value on the row, or Missing.
func (r WindowRow) Value(metric string) float64 {
	v, ok := r.Values[metric]
	if !ok {
		return Missing()
	}
	return v
}

// DensifiedWindow is a gap-free daily series ending at ReferenceDate.
type DensifiedWindow struct {
	Key           GroupKey    `json:"key"`
	ReferenceDate time.Time   `json:"referenceDate"`
	WindowDays    int         `json:"windowDays"`
	Metrics       []string    `json:"metrics"`
	Rows          []WindowRow `json:"rows"`
}

// Start returns the first calendar day of the window.
func (w DensifiedWindow) Start() time.Time {
	return Day(w.ReferenceDate).AddDate(0, 0, -w.WindowDays)
}

// Index returns the row offset of date, or false when date is outside the window.
func (w DensifiedWindow) Index(date time.Time) (int, bool) {
	i := DaysBetween(w.Start(), date)
	if i < 0 || i >= len(w.Rows) {
		return 0, false
	}
	return i, true
}

// Series returns the values of one metric in date order.
func (w DensifiedWindow) Series(metric string) []float64 {
	out := make([]float64, len(w.Rows))
	for i, r := range w.Rows {
		out[i] = r.Value(metric)
	}
	return out
}

// Clone returns a deep copy of the window.
func (w DensifiedWindow) Clone() DensifiedWindow {
	c := w
	c.Metrics = append([]string(nil), w.Metrics...)
	c.Rows = make([]WindowRow, len(w.Rows))
	for i, r := range w.Rows {
		vals := make(map[string]float64, len(r.Values))
		for k, v := range r.Values {
			vals[k] = v
		}
		c.Rows[i] = WindowRow{Date: r.Date, Values: vals, WasSynthesized: r.WasSynthesized}
	}
	return c
}

// AsObservations converts the rows back into raw observations.
func (w DensifiedWindow) AsObservations() []Observation {
	out := make([]Observation, len(w.Rows))
	for i, r := range w.Rows {
		out[i] = Observation{Date: r.Date, Values: r.Values, Synthesized: r.WasSynthesized}
	}
	return out
}

// ReleaseMetadata is catalog information about a release.
type ReleaseMetadata struct {
	EntityID    string    `json:"entityId"`
	Title       string    `json:"title"`
	ArtistName  string    `json:"artistName"`
	ReleaseDate time.Time `json:"releaseDate"`
	GenreTags   []string  `json:"genreTags"`
	DurationMS  float64   `json:"durationMs"`
}

// HasReleaseDate reports whether the catalog supplied a release date.
func (m ReleaseMetadata) HasReleaseDate() bool { return !m.ReleaseDate.IsZero() }

// FeatureKey joins derived social features back to a release.
type FeatureKey struct {
	ArtistID      string
	Platform      Platform
	ReferenceDate time.Time
}

// MetricFeatures holds the derived values for one metric of one window.
type MetricFeatures struct {
	Snapshot   float64 `json:"snapshot"`
	GrowthRate float64 `json:"growthRate"`
}

// PlatformFeatures maps metric name to its derived features.
type PlatformFeatures map[string]MetricFeatures

// FeatureRow is one release of the model's training table.
type FeatureRow struct {
	EntityID          string             `json:"entity_id"`
	Title             string             `json:"title"`
	Artist            string             `json:"artist"`
	Genres            []string           `json:"genres"`
	SongLengthMin     float64            `json:"song_length"`
	ReleaseDate       time.Time          `json:"release_date"`
	EntryWeek         time.Time          `json:"entry_week_date"`
	EntryRank         int                `json:"entry_week_pos"`
	PeakRank          int                `json:"peak_pos"`
	Lifespan          int                `json:"lifespan"`
	CalendarSpanWeeks int                `json:"calendar_span_weeks"`
	IsCollaboration   bool               `json:"is_collaboration"`
	Social            map[string]float64 `json:"social"`
}

// SkippedRow records an input row that could not be parsed.
type SkippedRow struct {
	Table  TableName `json:"table"`
	Line   int       `json:"line"`
	Reason string    `json:"reason"`
}

// BuildSummary describes the outcome of one feature table build.
type BuildSummary struct {
	RunID           string       `json:"runId"`
	StartedAt       time.Time    `json:"startedAt"`
	FinishedAt      time.Time    `json:"finishedAt"`
	ChartRows       int          `json:"chartRows"`
	Releases        int          `json:"releases"`
	Emerging        int          `json:"emerging"`
	Sampled         int          `json:"sampled"`
	Seed            uint64       `json:"seed"`
	Unresolved      int          `json:"unresolved"`
	Groups          int          `json:"groups"`
	EmptyGroups     int          `json:"emptyGroups"`
	ProxyMissing    int          `json:"proxyMissing"`
	Interpolated    int          `json:"interpolated"`
	MetadataMatched int          `json:"metadataMatched"`
	Rows            int          `json:"rows"`
	Skipped         []SkippedRow `json:"skipped,omitempty"`
}
