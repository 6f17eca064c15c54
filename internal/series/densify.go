// Package series normalizes sparse daily social statistics into fixed,
// gap-free windows and repairs their missing values.
package series

import (
	"time"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Densify returns the daily window [ref-windowDays, ref] for one group.
//
// Observations are left-joined on their calendar date. Days without an
// observation are synthesized with every metric missing. Observations outside
// the window are ignored. When two observations share a date, a later present
// value replaces an earlier one and a missing value never replaces a present
// one. The result always holds windowDays+1 rows.
func Densify(obs []types.Observation, key types.GroupKey, ref time.Time, windowDays int, metrics []string) types.DensifiedWindow {
	if windowDays < 0 {
		windowDays = 0
	}
	w := types.DensifiedWindow{
		Key:           key,
		ReferenceDate: types.Day(ref),
		WindowDays:    windowDays,
		Metrics:       append([]string(nil), metrics...),
		Rows:          make([]types.WindowRow, windowDays+1),
	}

	start := w.Start()
	for i := range w.Rows {
		vals := make(map[string]float64, len(metrics))
		for _, m := range metrics {
			vals[m] = types.Missing()
		}
		w.Rows[i] = types.WindowRow{
			Date:           start.AddDate(0, 0, i),
			Values:         vals,
			WasSynthesized: true,
		}
	}

	observed := make([]bool, len(w.Rows))
	for _, o := range obs {
		i, ok := w.Index(o.Date)
		if !ok {
			continue
		}
		row := &w.Rows[i]
		if !o.Synthesized {
			observed[i] = true
		}
		for _, m := range metrics {
			if v, ok := o.Values[m]; ok && !types.IsMissing(v) {
				row.Values[m] = v
			}
		}
	}
	for i := range w.Rows {
		w.Rows[i].WasSynthesized = !observed[i]
	}
	return w
}

// DensifyAll densifies one window per request. Groups without observations
// still yield a full window of synthesized rows. metrics maps each platform
// to the columns its windows carry. Results follow request order.
func DensifyAll(groups map[types.GroupKey][]types.Observation, requests []types.FeatureKey, windowDays int, metrics map[types.Platform][]string) []types.DensifiedWindow {
	out := make([]types.DensifiedWindow, len(requests))
	for i, req := range requests {
		key := types.GroupKey{ArtistID: req.ArtistID, Platform: req.Platform}
		out[i] = Densify(groups[key], key, req.ReferenceDate, windowDays, metrics[req.Platform])
	}
	return out
}

// Group buckets snapshots by (artist, platform).
func Group(snaps []types.SocialSnapshot) map[types.GroupKey][]types.Observation {
	out := make(map[types.GroupKey][]types.Observation)
	for _, s := range snaps {
		k := s.Key()
		out[k] = append(out[k], s.Observation())
	}
	return out
}
