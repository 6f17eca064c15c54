package ingest

import (
	"io"
	"strings"

	"github.com/dwsmith1983/chartpulse/internal/chart"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Chart reads chart.csv: title, performers, chart_week, rank, weeks_on_chart.
func (r *Reader) Chart(in io.Reader) (Result[types.ChartEntry], error) {
	var (
		res  Result[types.ChartEntry]
		cols []int
	)
	skipped, err := r.scan(in, types.TableChart, func(h header) error {
		var err error
		cols, err = h.require(types.TableChart,
			[]string{"title", "song"},
			[]string{"performers", "performer", "artist"},
			[]string{"chart_week", "current_week", "week", "date"},
			[]string{"rank", "current_rank", "position"},
			[]string{"weeks_on_chart", "wks_on_chart"},
		)
		return err
	}, func(rec []string, _ int) string {
		week, err := parseDate(cell(rec, cols[2]))
		if err != nil {
			return err.Error()
		}
		rank, err := parseInt(cell(rec, cols[3]))
		if err != nil {
			return "rank: " + err.Error()
		}
		weeks, err := parseInt(cell(rec, cols[4]))
		if err != nil {
			return "weeks_on_chart: " + err.Error()
		}
		e := types.ChartEntry{
			Title:        cell(rec, cols[0]),
			Performers:   cell(rec, cols[1]),
			ChartWeek:    week,
			Rank:         rank,
			WeeksOnChart: weeks,
		}
		e.EntityID = chart.EntityID(e.Title, e.Performers)
		if err := chart.Validate(e); err != nil {
			return err.Error()
		}
		res.Rows = append(res.Rows, e)
		return ""
	})
	res.Skipped = skipped
	return res, err
}

// Social reads a social_<platform>.csv table for one platform schema. Every
// metric of the schema must have a column; empty cells are Missing. Rows with
// a negative metric are skipped.
func (r *Reader) Social(in io.Reader, schema types.PlatformSchema) (Result[types.SocialSnapshot], error) {
	var (
		res      Result[types.SocialSnapshot]
		cols     []int
		platform = -1
		metrics  = schema.MetricNames()
	)
	skipped, err := r.scan(in, types.TableSocial, func(h header) error {
		required := [][]string{{"artist_id", "artist", "main_artist"}, {"date"}}
		for _, m := range metrics {
			required = append(required, []string{strings.ToLower(m)})
		}
		var err error
		cols, err = h.require(types.TableSocial, required...)
		if i, ok := h.index("platform"); ok {
			platform = i
		}
		return err
	}, func(rec []string, _ int) string {
		artist := cell(rec, cols[0])
		if artist == "" {
			return "empty artist_id"
		}
		if platform >= 0 {
			if p := types.Platform(strings.ToLower(cell(rec, platform))); p != "" && p != schema.Name {
				return "row platform " + string(p) + " does not match " + string(schema.Name)
			}
		}
		date, err := parseDate(cell(rec, cols[1]))
		if err != nil {
			return err.Error()
		}
		vals := make(map[string]float64, len(metrics))
		for i, m := range metrics {
			v, err := parseMetric(cell(rec, cols[2+i]))
			if err != nil {
				return m + ": " + err.Error()
			}
			if v < 0 {
				return m + ": negative value"
			}
			vals[m] = v
		}
		res.Rows = append(res.Rows, types.SocialSnapshot{
			ArtistID: artist,
			Platform: schema.Name,
			Date:     date,
			Values:   vals,
		})
		return ""
	})
	res.Skipped = skipped
	return res, err
}

// Metadata reads metadata.csv. Only title and artist_name are required;
// entity_id may be blank when the catalog row still needs linking.
func (r *Reader) Metadata(in io.Reader) (Result[types.ReleaseMetadata], error) {
	var (
		res      Result[types.ReleaseMetadata]
		cols     []int
		optional = map[string]int{}
	)
	skipped, err := r.scan(in, types.TableMetadata, func(h header) error {
		var err error
		cols, err = h.require(types.TableMetadata,
			[]string{"title", "name"},
			[]string{"artist_name", "artist"},
		)
		for name, aliases := range map[string][]string{
			"entity_id":    {"entity_id", "song_id"},
			"release_date": {"release_date", "releasedate"},
			"genre_tags":   {"genre_tags", "genres", "genre_names"},
			"duration_ms":  {"duration_ms", "durationinmillis"},
		} {
			if i, ok := h.index(aliases...); ok {
				optional[name] = i
			}
		}
		return err
	}, func(rec []string, _ int) string {
		get := func(name string) string {
			if i, ok := optional[name]; ok {
				return cell(rec, i)
			}
			return ""
		}
		m := types.ReleaseMetadata{
			EntityID:   get("entity_id"),
			Title:      cell(rec, cols[0]),
			ArtistName: cell(rec, cols[1]),
			GenreTags:  parseGenres(get("genre_tags")),
		}
		if m.Title == "" {
			return "empty title"
		}
		if s := get("release_date"); s != "" {
			d, err := parseDate(s)
			if err != nil {
				return err.Error()
			}
			m.ReleaseDate = d
		}
		dur, err := parseMetric(get("duration_ms"))
		if err != nil {
			return "duration_ms: " + err.Error()
		}
		m.DurationMS = dur
		res.Rows = append(res.Rows, m)
		return ""
	})
	res.Skipped = skipped
	return res, err
}
