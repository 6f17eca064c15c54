package assemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func TestLagSuffix(t *testing.T) {
	assert.Equal(t, "4w", LagSuffix(28))
	assert.Equal(t, "1w", LagSuffix(7))
	assert.Equal(t, "10d", LagSuffix(10))
	assert.Equal(t, "0d", LagSuffix(0))
}

func TestLayout_Columns(t *testing.T) {
	l := NewLayout(types.ProjectConfig{})
	cols := l.Columns()

	assert.Equal(t, baseColumns, cols[:len(baseColumns)])
	social := cols[len(baseColumns):]
	require.Len(t, social, 2*(3+4+2))
	assert.Equal(t, []string{
		"ig_followers_release_date", "ig_followers_cgr_4w",
		"ig_following_release_date", "ig_following_cgr_4w",
	}, social[:4])
	assert.Equal(t, "yt_views_cgr_4w", social[len(social)-1])
	assert.Equal(t, []string{"Music"}, l.DropGenres)
}

func TestLayout_CustomPlatforms(t *testing.T) {
	l := NewLayout(types.ProjectConfig{
		Window: types.WindowConfig{LagDays: 14},
		Platforms: []types.PlatformSchema{
			{Name: types.PlatformYouTube, Prefix: "yt", Metrics: []types.MetricSchema{{Name: "subs"}}},
		},
	})
	assert.Equal(t, []string{"yt_subs_release_date", "yt_subs_cgr_2w"}, l.SocialColumns())
}

func TestLayout_Record(t *testing.T) {
	l := Layout{
		LagDays: 28,
		Platforms: []types.PlatformSchema{
			{Name: types.PlatformYouTube, Prefix: "yt", Metrics: []types.MetricSchema{{Name: "subs"}}},
		},
	}
	row := types.FeatureRow{
		EntityID:          "Song A — Artist X",
		Title:             "Song A",
		Artist:            "Artist X",
		Genres:            []string{"Pop", "Dance"},
		SongLengthMin:     3.5,
		ReleaseDate:       time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		EntryWeek:         time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC),
		EntryRank:         40,
		PeakRank:          12,
		Lifespan:          9,
		CalendarSpanWeeks: 9,
		Social: map[string]float64{
			"yt_subs_release_date": 1200,
			"yt_subs_cgr_4w":       types.Missing(),
		},
	}

	got := l.Record(row)
	assert.Equal(t, []string{
		"Song A — Artist X", "Song A", "Artist X", "Pop|Dance", "3.5",
		"2025-01-03", "2025-01-18", "40", "12", "9", "9", "false",
		"1200", "",
	}, got)
	assert.Len(t, got, len(l.Columns()))
}
