package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func windowOf(metric string, vals ...float64) types.DensifiedWindow {
	obs := make([]types.Observation, len(vals))
	for i, v := range vals {
		obs[i] = obsAt(len(vals)-1-i, map[string]float64{metric: v})
	}
	return Densify(obs, key, ref, len(vals)-1, []string{metric})
}

func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if types.IsMissing(want[i]) {
			assert.True(t, types.IsMissing(got[i]), "index %d: got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestClassifyAndImpute_ZerosInterpolated(t *testing.T) {
	w := windowOf("followers", 10, 0, 0, 40)

	out, report := ClassifyAndImpute(w, []string{"followers"})
	assertSeries(t, []float64{10, 20, 30, 40}, out.Series("followers"))
	assert.Equal(t, 2, report.ProxyMissing["followers"])
	assert.Equal(t, 2, report.Interpolated["followers"])
	assert.Equal(t, 0, report.Unfilled["followers"])
}

func TestClassifyAndImpute_AllZeroUntouched(t *testing.T) {
	w := windowOf("likes", 0, 0, 0, 0)

	out, report := ClassifyAndImpute(w, []string{"likes"})
	assertSeries(t, []float64{0, 0, 0, 0}, out.Series("likes"))
	assert.Equal(t, 0, report.ProxyMissing["likes"])
}

func TestClassifyAndImpute_BoundaryStaysMissing(t *testing.T) {
	nan := types.Missing()
	w := windowOf("followers", 0, 5, nan, 9, 0)

	out, report := ClassifyAndImpute(w, []string{"followers"})
	assertSeries(t, []float64{nan, 5, 7, 9, nan}, out.Series("followers"))
	assert.Equal(t, 2, report.ProxyMissing["followers"])
	assert.Equal(t, 1, report.Interpolated["followers"])
	assert.Equal(t, 2, report.Unfilled["followers"])

	proxy, interpolated, unfilled := report.Totals()
	assert.Equal(t, 2, proxy)
	assert.Equal(t, 1, interpolated)
	assert.Equal(t, 2, unfilled)
}

func TestClassifyAndImpute_FilledStrictlyBetweenNeighbours(t *testing.T) {
	w := windowOf("views", 100, 0, 0, 0, 0, 0, 700)

	out, _ := ClassifyAndImpute(w, []string{"views"})
	got := out.Series("views")
	for i := 1; i < 6; i++ {
		assert.Greater(t, got[i], got[i-1])
		assert.Less(t, got[i], 700.0)
	}
}

func TestClassifyAndImpute_DoesNotMutateInput(t *testing.T) {
	w := windowOf("followers", 10, 0, 0, 40)

	_, _ = ClassifyAndImpute(w, []string{"followers"})
	assertSeries(t, []float64{10, 0, 0, 40}, w.Series("followers"))
}

func TestClassifyAndImpute_MetricsIndependent(t *testing.T) {
	obs := []types.Observation{
		obsAt(2, map[string]float64{"followers": 10, "likes": 0}),
		obsAt(1, map[string]float64{"followers": 0, "likes": 0}),
		obsAt(0, map[string]float64{"followers": 30, "likes": 0}),
	}
	w := Densify(obs, key, ref, 2, []string{"followers", "likes"})

	out, _ := ClassifyAndImpute(w, []string{"followers", "likes"})
	assertSeries(t, []float64{10, 20, 30}, out.Series("followers"))
	assertSeries(t, []float64{0, 0, 0}, out.Series("likes"))
}

func TestImpute_ZeroOptOut(t *testing.T) {
	keep := false
	nan := types.Missing()
	w := windowOf("media", 4, 0, nan, 8)

	out, report := Impute(w, []types.MetricSchema{{Name: "media", ZeroAsMissing: &keep}})
	assertSeries(t, []float64{4, 0, 4, 8}, out.Series("media"))
	assert.Equal(t, 0, report.ProxyMissing["media"])
	assert.Equal(t, 1, report.Interpolated["media"])
}

func TestClassifyAndImpute_NoInfinities(t *testing.T) {
	w := windowOf("subs", 1e308, 0, 1e308)

	out, _ := ClassifyAndImpute(w, []string{"subs"})
	for _, v := range out.Series("subs") {
		assert.False(t, math.IsInf(v, 0))
	}
}
