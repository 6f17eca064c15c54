package assemble

import (
	"strconv"
	"strings"
	"time"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Fixed columns of every feature table, in output order.
var baseColumns = []string{
	"entity_id",
	"title",
	"artist",
	"genres",
	"song_length",
	"release_date",
	"entry_week_date",
	"entry_week_pos",
	"peak_pos",
	"lifespan",
	"calendar_span_weeks",
	"is_collaboration",
}

// Layout fixes the column set and order of the feature table.
type Layout struct {
	Platforms  []types.PlatformSchema
	LagDays    int
	DropGenres []string
}

// NewLayout builds a layout from project configuration.
func NewLayout(cfg types.ProjectConfig) Layout {
	lag := cfg.Window.LagDays
	if lag <= 0 {
		lag = types.DefaultLagDays
	}
	drop := cfg.Genres.Drop
	if drop == nil {
		drop = types.DefaultDroppedGenres
	}
	return Layout{
		Platforms:  types.ResolvePlatforms(cfg),
		LagDays:    lag,
		DropGenres: drop,
	}
}

// LagSuffix renders a lag as "4w" style weeks when it is a whole number of
// weeks and as days otherwise.
func LagSuffix(days int) string {
	if days > 0 && days%7 == 0 {
		return strconv.Itoa(days/7) + "w"
	}
	return strconv.Itoa(days) + "d"
}

// SnapshotColumn names the reference-date value column of a metric.
func SnapshotColumn(prefix, metric string) string {
	return prefix + "_" + metric + "_release_date"
}

// GrowthColumn names the growth-rate column of a metric.
func GrowthColumn(prefix, metric string, lagDays int) string {
	return prefix + "_" + metric + "_cgr_" + LagSuffix(lagDays)
}

// SocialColumns returns the social feature columns in output order.
func (l Layout) SocialColumns() []string {
	var out []string
	for _, p := range l.Platforms {
		for _, m := range p.Metrics {
			out = append(out, SnapshotColumn(p.Prefix, m.Name), GrowthColumn(p.Prefix, m.Name, l.LagDays))
		}
	}
	return out
}

// Columns returns the full header of the feature table.
func (l Layout) Columns() []string {
	return append(append([]string(nil), baseColumns...), l.SocialColumns()...)
}

// Record renders a row as text cells in column order. Missing values and
// unknown dates render as empty cells.
func (l Layout) Record(row types.FeatureRow) []string {
	out := []string{
		row.EntityID,
		row.Title,
		row.Artist,
		strings.Join(row.Genres, "|"),
		formatFloat(row.SongLengthMin),
		formatDate(row.ReleaseDate),
		formatDate(row.EntryWeek),
		strconv.Itoa(row.EntryRank),
		strconv.Itoa(row.PeakRank),
		strconv.Itoa(row.Lifespan),
		strconv.Itoa(row.CalendarSpanWeeks),
		strconv.FormatBool(row.IsCollaboration),
	}
	for _, col := range l.SocialColumns() {
		v, ok := row.Social[col]
		if !ok {
			v = types.Missing()
		}
		out = append(out, formatFloat(v))
	}
	return out
}

func formatFloat(v float64) string {
	if types.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(types.DateLayout)
}
