// Package features derives snapshot and compound growth features from
// densified, imputed social windows.
package features

import (
	"math"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Options configures growth derivation.
type Options struct {
	LagDays int     // distance in days between the two growth endpoints
	Scale   float64 // multiplier applied to the daily rate; 0 means 1
}

// DefaultOptions returns a 28-day lag with a fractional (unscaled) rate.
func DefaultOptions() Options {
	return Options{LagDays: types.DefaultLagDays, Scale: types.DefaultGrowthScale}
}

// Derive computes per-metric features for the window's reference date.
//
// The snapshot is the value on the reference date. The growth rate is the
// compound daily rate (v[t]/v[t-lag])^(1/lag) - 1 multiplied by Scale. Any
// value that cannot be computed is missing; Derive never returns an infinity.
func Derive(w types.DensifiedWindow, metrics []string, opts Options) map[string]types.MetricFeatures {
	out := make(map[string]types.MetricFeatures, len(metrics))
	t, ok := w.Index(w.ReferenceDate)
	for _, m := range metrics {
		f := types.MetricFeatures{Snapshot: types.Missing(), GrowthRate: types.Missing()}
		if ok {
			f.Snapshot = w.Rows[t].Value(m)
			if back := t - opts.LagDays; opts.LagDays > 0 && back >= 0 {
				f.GrowthRate = GrowthRate(w.Rows[back].Value(m), f.Snapshot, opts.LagDays, opts.Scale)
			}
		}
		out[m] = f
	}
	return out
}

// GrowthRate returns the scaled compound daily growth from past to current
// over lag days, or Missing when it is undefined.
func GrowthRate(past, current float64, lag int, scale float64) float64 {
	if lag <= 0 || types.IsMissing(past) || types.IsMissing(current) || past <= 0 || current < 0 {
		return types.Missing()
	}
	if scale == 0 {
		scale = 1
	}
	g := (math.Pow(current/past, 1/float64(lag)) - 1) * scale
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return types.Missing()
	}
	return g
}

// DeriveAll derives features for many windows. metrics maps each platform to
// the columns derived for it.
func DeriveAll(windows []types.DensifiedWindow, metrics map[types.Platform][]string, opts Options) map[types.FeatureKey]types.PlatformFeatures {
	out := make(map[types.FeatureKey]types.PlatformFeatures, len(windows))
	for _, w := range windows {
		out[KeyOf(w)] = Derive(w, metrics[w.Key.Platform], opts)
	}
	return out
}

// KeyOf returns the feature key a window's features are joined on.
func KeyOf(w types.DensifiedWindow) types.FeatureKey {
	return types.FeatureKey{
		ArtistID:      w.Key.ArtistID,
		Platform:      w.Key.Platform,
		ReferenceDate: types.Day(w.ReferenceDate),
	}
}
