package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

var (
	ref = time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	key = types.GroupKey{ArtistID: "Artist X", Platform: types.PlatformTikTok}
)

func daysBefore(n int) time.Time { return ref.AddDate(0, 0, -n) }

func obsAt(n int, vals map[string]float64) types.Observation {
	return types.Observation{Date: daysBefore(n), Values: vals}
}

func TestDensify_RowCountAndOrder(t *testing.T) {
	for _, days := range []int{0, 1, 7, 28, 90} {
		w := Densify(nil, key, ref, days, []string{"followers"})
		require.Len(t, w.Rows, days+1)
		assert.Equal(t, ref, w.Rows[len(w.Rows)-1].Date)
		assert.Equal(t, daysBefore(days), w.Rows[0].Date)
		for i := 1; i < len(w.Rows); i++ {
			assert.Equal(t, 1, types.DaysBetween(w.Rows[i-1].Date, w.Rows[i].Date))
		}
	}
}

func TestDensify_EmptyGroup(t *testing.T) {
	w := Densify(nil, key, ref, 28, []string{"followers", "likes"})
	require.Len(t, w.Rows, 29)
	for _, row := range w.Rows {
		assert.True(t, row.WasSynthesized)
		assert.True(t, types.IsMissing(row.Value("followers")))
		assert.True(t, types.IsMissing(row.Value("likes")))
	}
}

func TestDensify_JoinsAndIgnoresOutside(t *testing.T) {
	obs := []types.Observation{
		obsAt(0, map[string]float64{"followers": 400}),
		obsAt(28, map[string]float64{"followers": 100}),
		obsAt(29, map[string]float64{"followers": 1}),
		{Date: ref.AddDate(0, 0, 1), Values: map[string]float64{"followers": 2}},
		{Date: daysBefore(3).Add(15 * time.Hour), Values: map[string]float64{"followers": 250}},
	}

	w := Densify(obs, key, ref, 28, []string{"followers"})
	require.Len(t, w.Rows, 29)
	assert.Equal(t, 100.0, w.Rows[0].Value("followers"))
	assert.False(t, w.Rows[0].WasSynthesized)
	assert.Equal(t, 400.0, w.Rows[28].Value("followers"))
	assert.Equal(t, 250.0, w.Rows[25].Value("followers"))
	assert.True(t, w.Rows[1].WasSynthesized)

	synth := 0
	for _, row := range w.Rows {
		if row.WasSynthesized {
			synth++
		}
	}
	assert.Equal(t, 26, synth)
}

func TestDensify_DuplicateDates(t *testing.T) {
	obs := []types.Observation{
		obsAt(1, map[string]float64{"followers": 10, "likes": 5}),
		obsAt(1, map[string]float64{"followers": 12, "likes": types.Missing()}),
	}

	w := Densify(obs, key, ref, 2, []string{"followers", "likes"})
	assert.Equal(t, 12.0, w.Rows[1].Value("followers"))
	assert.Equal(t, 5.0, w.Rows[1].Value("likes"))
}

func TestDensify_Idempotent(t *testing.T) {
	obs := []types.Observation{
		obsAt(0, map[string]float64{"followers": 400}),
		obsAt(5, map[string]float64{"followers": 0}),
		obsAt(20, map[string]float64{"followers": types.Missing()}),
		obsAt(28, map[string]float64{"followers": 100}),
	}
	metrics := []string{"followers"}

	once := Densify(obs, key, ref, 28, metrics)
	twice := Densify(once.AsObservations(), key, ref, 28, metrics)

	require.Len(t, twice.Rows, len(once.Rows))
	for i := range once.Rows {
		assert.Equal(t, once.Rows[i].Date, twice.Rows[i].Date)
		assert.Equal(t, once.Rows[i].WasSynthesized, twice.Rows[i].WasSynthesized, "row %d", i)
		a, b := once.Rows[i].Value("followers"), twice.Rows[i].Value("followers")
		if types.IsMissing(a) {
			assert.True(t, types.IsMissing(b), "row %d", i)
		} else {
			assert.Equal(t, a, b, "row %d", i)
		}
	}
}

func TestDensify_NegativeWindowClamped(t *testing.T) {
	w := Densify(nil, key, ref, -3, []string{"followers"})
	assert.Len(t, w.Rows, 1)
	assert.Equal(t, 0, w.WindowDays)
}

func TestDensifyAll(t *testing.T) {
	groups := Group([]types.SocialSnapshot{
		{ArtistID: "Artist X", Platform: types.PlatformTikTok, Date: ref, Values: map[string]float64{"followers": 9}},
		{ArtistID: "Artist Y", Platform: types.PlatformYouTube, Date: ref, Values: map[string]float64{"subs": 3}},
	})
	requests := []types.FeatureKey{
		{ArtistID: "Artist Y", Platform: types.PlatformYouTube, ReferenceDate: ref},
		{ArtistID: "Artist X", Platform: types.PlatformTikTok, ReferenceDate: ref},
		{ArtistID: "Nobody", Platform: types.PlatformInstagram, ReferenceDate: ref},
	}
	metrics := map[types.Platform][]string{
		types.PlatformTikTok:    {"followers"},
		types.PlatformYouTube:   {"subs"},
		types.PlatformInstagram: {"followers"},
	}

	ws := DensifyAll(groups, requests, 7, metrics)
	require.Len(t, ws, 3)
	assert.Equal(t, 3.0, ws[0].Rows[7].Value("subs"))
	assert.Equal(t, 9.0, ws[1].Rows[7].Value("followers"))
	assert.Len(t, ws[2].Rows, 8)
	assert.True(t, ws[2].Rows[7].WasSynthesized)
}
