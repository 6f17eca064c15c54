package assemble

import (
	"math/rand/v2"
	"sort"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// SampleOnePerArtist keeps one release per canonical main artist, chosen by a
// PCG generator seeded with seed. Artists and their releases are visited in
// sorted order, so equal inputs and seeds always pick the same releases.
// Records with no resolved artist are dropped. The result is sorted by
// EntityID.
func SampleOnePerArtist(records []types.ReleaseRecord, seed uint64) []types.ReleaseRecord {
	byArtist := make(map[string][]types.ReleaseRecord)
	for _, rec := range records {
		if rec.CanonicalMainArtist == "" {
			continue
		}
		byArtist[rec.CanonicalMainArtist] = append(byArtist[rec.CanonicalMainArtist], rec)
	}

	artists := make([]string, 0, len(byArtist))
	for a := range byArtist {
		artists = append(artists, a)
	}
	sort.Strings(artists)

	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]types.ReleaseRecord, 0, len(artists))
	for _, a := range artists {
		group := byArtist[a]
		sort.Slice(group, func(i, j int) bool { return group[i].EntityID < group[j].EntityID })
		out = append(out, group[rng.IntN(len(group))])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// SoloOnly keeps releases credited to their main artist alone.
func SoloOnly(records []types.ReleaseRecord) []types.ReleaseRecord {
	var out []types.ReleaseRecord
	for _, rec := range records {
		if !rec.IsCollaboration {
			out = append(out, rec)
		}
	}
	return out
}

// DropUnresolved removes records whose main artist could not be resolved and
// reports how many were removed.
func DropUnresolved(records []types.ReleaseRecord) ([]types.ReleaseRecord, int) {
	out := make([]types.ReleaseRecord, 0, len(records))
	for _, rec := range records {
		if rec.CanonicalMainArtist != "" {
			out = append(out, rec)
		}
	}
	return out, len(records) - len(out)
}
