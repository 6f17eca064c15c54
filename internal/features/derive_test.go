package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/internal/series"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

var (
	ref = time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC)
	key = types.GroupKey{ArtistID: "Artist X", Platform: types.PlatformYouTube}
)

func window(days int, points map[int]map[string]float64, metrics ...string) types.DensifiedWindow {
	var obs []types.Observation
	for back, vals := range points {
		obs = append(obs, types.Observation{Date: ref.AddDate(0, 0, -back), Values: vals})
	}
	return series.Densify(obs, key, ref, days, metrics)
}

func TestDerive_CompoundDailyGrowth(t *testing.T) {
	w := window(28, map[int]map[string]float64{
		28: {"subs": 100},
		0:  {"subs": 200},
	}, "subs")

	got := Derive(w, []string{"subs"}, DefaultOptions())
	assert.Equal(t, 200.0, got["subs"].Snapshot)
	assert.InDelta(t, math.Pow(2, 1.0/28)-1, got["subs"].GrowthRate, 1e-12)
}

func TestDerive_Scale(t *testing.T) {
	w := window(28, map[int]map[string]float64{
		28: {"subs": 100},
		0:  {"subs": 200},
	}, "subs")

	got := Derive(w, []string{"subs"}, Options{LagDays: 28, Scale: 100})
	assert.InDelta(t, (math.Pow(2, 1.0/28)-1)*100, got["subs"].GrowthRate, 1e-10)
}

func TestDerive_MissingDenominator(t *testing.T) {
	w := window(28, map[int]map[string]float64{
		0: {"subs": 200},
	}, "subs")

	got := Derive(w, []string{"subs"}, DefaultOptions())
	assert.Equal(t, 200.0, got["subs"].Snapshot)
	assert.True(t, types.IsMissing(got["subs"].GrowthRate))
}

func TestDerive_NonPositiveDenominator(t *testing.T) {
	for _, past := range []float64{0, -5} {
		w := window(28, map[int]map[string]float64{
			28: {"subs": past},
			0:  {"subs": 200},
		}, "subs")

		got := Derive(w, []string{"subs"}, DefaultOptions())
		assert.True(t, types.IsMissing(got["subs"].GrowthRate), "past=%v", past)
	}
}

func TestDerive_LagOutsideWindow(t *testing.T) {
	w := window(7, map[int]map[string]float64{
		7: {"subs": 100},
		0: {"subs": 200},
	}, "subs")

	got := Derive(w, []string{"subs"}, Options{LagDays: 28})
	assert.True(t, types.IsMissing(got["subs"].GrowthRate))

	got = Derive(w, []string{"subs"}, Options{LagDays: 0})
	assert.True(t, types.IsMissing(got["subs"].GrowthRate))

	got = Derive(w, []string{"subs"}, Options{LagDays: 7})
	assert.InDelta(t, math.Pow(2, 1.0/7)-1, got["subs"].GrowthRate, 1e-12)
}

func TestDerive_MissingSnapshot(t *testing.T) {
	w := window(28, map[int]map[string]float64{
		28: {"subs": 100},
	}, "subs")

	got := Derive(w, []string{"subs"}, DefaultOptions())
	assert.True(t, types.IsMissing(got["subs"].Snapshot))
	assert.True(t, types.IsMissing(got["subs"].GrowthRate))
}

func TestDerive_MetricsIndependent(t *testing.T) {
	w := window(28, map[int]map[string]float64{
		28: {"subs": 100, "views": 0},
		0:  {"subs": 400, "views": 50},
	}, "subs", "views")

	got := Derive(w, []string{"subs", "views"}, DefaultOptions())
	require.Len(t, got, 2)
	assert.InDelta(t, math.Pow(4, 1.0/28)-1, got["subs"].GrowthRate, 1e-12)
	assert.True(t, types.IsMissing(got["views"].GrowthRate))
	assert.Equal(t, 50.0, got["views"].Snapshot)
}

func TestGrowthRate_NeverInfinite(t *testing.T) {
	g := GrowthRate(math.SmallestNonzeroFloat64, math.MaxFloat64, 1, 1)
	assert.True(t, types.IsMissing(g))
	assert.True(t, types.IsMissing(GrowthRate(1, math.Inf(1), 1, 1)))
}

func TestDeriveAll(t *testing.T) {
	a := window(28, map[int]map[string]float64{28: {"subs": 100}, 0: {"subs": 200}}, "subs")
	b := series.Densify(nil, types.GroupKey{ArtistID: "Artist Y", Platform: types.PlatformTikTok}, ref, 28, []string{"followers"})

	got := DeriveAll([]types.DensifiedWindow{a, b}, map[types.Platform][]string{
		types.PlatformYouTube: {"subs"},
		types.PlatformTikTok:  {"followers"},
	}, DefaultOptions())

	require.Len(t, got, 2)
	fa := got[types.FeatureKey{ArtistID: "Artist X", Platform: types.PlatformYouTube, ReferenceDate: ref}]
	assert.Equal(t, 200.0, fa["subs"].Snapshot)
	fb := got[types.FeatureKey{ArtistID: "Artist Y", Platform: types.PlatformTikTok, ReferenceDate: ref}]
	assert.True(t, types.IsMissing(fb["followers"].Snapshot))
}
