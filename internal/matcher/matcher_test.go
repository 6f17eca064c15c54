package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinScorer(t *testing.T) {
	s := LevenshteinScorer{}

	assert.Equal(t, 100.0, s.Score("Espresso", "espresso"))
	assert.Equal(t, 100.0, s.Score("", ""))
	assert.Equal(t, 0.0, s.Score("abc", ""))
	assert.InDelta(t, 100*(1-1.0/8), s.Score("Espresso", "Expresso"), 1e-9)
	assert.InDelta(t, 100*(1-1.0/7), s.Score("Beyoncé", "Beyonce"), 1e-9)
}

func TestIndelScorer(t *testing.T) {
	s := IndelScorer{}

	assert.Equal(t, 100.0, s.Score("Espresso", "espresso"))
	assert.Equal(t, 100.0, s.Score("", ""))
	assert.Equal(t, 0.0, s.Score("abc", ""))
	assert.InDelta(t, 100*14.0/16, s.Score("Espresso", "Expresso"), 1e-9)
	assert.InDelta(t, 100*10.0/19, s.Score("Gunna", "Gunna & Future"), 1e-9)
	assert.InDelta(t, 100*12.0/14, s.Score("Beyoncé", "Beyonce"), 1e-9)
	assert.Equal(t, s.Score("abcde", "ace"), s.Score("ace", "abcde"))
}

func TestScorerFor(t *testing.T) {
	assert.IsType(t, IndelScorer{}, ScorerFor(""))
	assert.IsType(t, IndelScorer{}, ScorerFor("indel"))
	assert.IsType(t, LevenshteinScorer{}, ScorerFor("levenshtein"))
	assert.IsType(t, IndelScorer{}, New(0, nil).Scorer)
}

func TestMatcher_Accept(t *testing.T) {
	m := New(0, nil)
	require.Equal(t, 65.0, m.Threshold)

	tests := []struct {
		name  string
		query Candidate
		cand  Candidate
		want  bool
	}{
		{"exact", Candidate{"Espresso", "Sabrina Carpenter"}, Candidate{"Espresso", "Sabrina Carpenter"}, true},
		{"typo", Candidate{"Espresso", "Sabrina Carpenter"}, Candidate{"Expresso", "Sabrina Carpentr"}, true},
		{"title substring", Candidate{"Lose Control", "Teddy Swims"}, Candidate{"Lose Control (Live From The Grand Ole Opry)", "Teddy Swims"}, true},
		{"artist substring", Candidate{"Pink Pony Club", "Chappell Roan"}, Candidate{"Pink Pony Club", "Chappell Roan & The Band"}, true},
		{"wrong artist", Candidate{"Espresso", "Sabrina Carpenter"}, Candidate{"Espresso", "Morgan Wallen"}, false},
		{"wrong title", Candidate{"Espresso", "Sabrina Carpenter"}, Candidate{"Please Please Please", "Sabrina Carpenter"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Accept(tt.query, tt.cand)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatcher_Best(t *testing.T) {
	m := New(65, nil)
	query := Candidate{"Espresso", "Sabrina Carpenter"}
	cands := []Candidate{
		{"Please Please Please", "Sabrina Carpenter"},
		{"Espresso (Remix)", "Sabrina Carpenter"},
		{"Espresso", "Sabrina Carpenter"},
		{"Espresso", "Sabrina Carpenter"},
	}

	got, ok := m.Best(query, cands)
	require.True(t, ok)
	assert.Equal(t, 2, got.Index)
	assert.Equal(t, 200.0, got.Score())
}

func TestMatcher_Best_None(t *testing.T) {
	m := New(65, nil)
	_, ok := m.Best(Candidate{"Espresso", "Sabrina Carpenter"}, nil)
	assert.False(t, ok)

	_, ok = m.Best(Candidate{"Espresso", "Sabrina Carpenter"}, []Candidate{{"Tennessee Whiskey", "Chris Stapleton"}})
	assert.False(t, ok)
}

type fixedScorer float64

func (f fixedScorer) Score(string, string) float64 { return float64(f) }

func TestMatcher_CustomScorer(t *testing.T) {
	m := &Matcher{Scorer: fixedScorer(90), Threshold: 80}
	got, ok := m.Best(Candidate{"a", "b"}, []Candidate{{"x", "y"}, {"z", "w"}})
	require.True(t, ok)
	assert.Equal(t, 0, got.Index)
}
