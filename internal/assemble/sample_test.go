package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

func sampleRecords() []types.ReleaseRecord {
	return []types.ReleaseRecord{
		{EntityID: "A1 — Artist A", CanonicalMainArtist: "Artist A"},
		{EntityID: "A2 — Artist A", CanonicalMainArtist: "Artist A"},
		{EntityID: "A3 — Artist A & Artist B", CanonicalMainArtist: "Artist A", IsCollaboration: true},
		{EntityID: "B1 — Artist B", CanonicalMainArtist: "Artist B"},
		{EntityID: "C1 — Artist C", CanonicalMainArtist: "Artist C"},
		{EntityID: "C2 — Artist C", CanonicalMainArtist: "Artist C"},
		{EntityID: "?? — ", CanonicalMainArtist: ""},
	}
}

func TestSampleOnePerArtist(t *testing.T) {
	got := SampleOnePerArtist(sampleRecords(), 42)
	require.Len(t, got, 3)

	artists := map[string]bool{}
	for _, rec := range got {
		assert.False(t, artists[rec.CanonicalMainArtist], "artist sampled twice")
		artists[rec.CanonicalMainArtist] = true
	}
	assert.Equal(t, "B1 — Artist B", got[1].EntityID)
}

func TestSampleOnePerArtist_Deterministic(t *testing.T) {
	recs := sampleRecords()
	first := SampleOnePerArtist(recs, 42)

	// Input order must not matter.
	reversed := make([]types.ReleaseRecord, len(recs))
	for i, rec := range recs {
		reversed[len(recs)-1-i] = rec
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SampleOnePerArtist(recs, 42))
		assert.Equal(t, first, SampleOnePerArtist(reversed, 42))
	}
}

func TestSoloOnly(t *testing.T) {
	got := SoloOnly(sampleRecords())
	assert.Len(t, got, 6)
	for _, rec := range got {
		assert.False(t, rec.IsCollaboration)
	}
}

func TestDropUnresolved(t *testing.T) {
	got, dropped := DropUnresolved(sampleRecords())
	assert.Len(t, got, 6)
	assert.Equal(t, 1, dropped)
}
