// Package matcher links catalog rows to chart releases by fuzzy title and
// artist similarity.
package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Scorer rates the similarity of two strings from 0 (unrelated) to 100
// (identical).
type Scorer interface {
	Score(a, b string) float64
}

// IndelScorer scores by insertion/deletion distance over the summed length of
// both lower-cased strings: 100 * 2*LCS / (len(a)+len(b)).
type IndelScorer struct{}

// Score implements Scorer.
func (IndelScorer) Score(a, b string) float64 {
	ra, rb := []rune(normalize(a)), []rune(normalize(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*lcs(ra, rb)) / float64(total)
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			switch {
			case a[i] == b[j]:
				cur[j+1] = prev[j] + 1
			case prev[j+1] >= cur[j]:
				cur[j+1] = prev[j+1]
			default:
				cur[j+1] = cur[j]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// LevenshteinScorer scores by edit distance normalized by the longer
// lower-cased string. Substitutions cost 1 here where IndelScorer charges 2,
// so it rates near misses higher.
type LevenshteinScorer struct{}

// Score implements Scorer.
func (LevenshteinScorer) Score(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// ScorerFor returns the scorer registered under name. Unknown and empty names
// select IndelScorer.
func ScorerFor(name string) Scorer {
	if name == types.ScorerLevenshtein {
		return LevenshteinScorer{}
	}
	return IndelScorer{}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Candidate is a catalog entry that may describe a release.
type Candidate struct {
	Title  string
	Artist string
}

// Match is an accepted candidate.
type Match struct {
	Index       int
	TitleScore  float64
	ArtistScore float64
}

// Score is the combined score used to rank matches.
func (m Match) Score() float64 { return m.TitleScore + m.ArtistScore }

// Matcher accepts candidates whose title and artist both clear Threshold or
// contain the query text.
type Matcher struct {
	Scorer    Scorer
	Threshold float64
}

// New returns a matcher. A non-positive threshold selects the default and a
// nil scorer selects IndelScorer.
func New(threshold float64, scorer Scorer) *Matcher {
	if threshold <= 0 {
		threshold = types.DefaultMatcherThreshold
	}
	if scorer == nil {
		scorer = IndelScorer{}
	}
	return &Matcher{Scorer: scorer, Threshold: threshold}
}

// Accept scores one candidate against the query.
func (m *Matcher) Accept(query, c Candidate) (Match, bool) {
	scorer := m.Scorer
	if scorer == nil {
		scorer = IndelScorer{}
	}
	ts := scorer.Score(query.Title, c.Title)
	as := scorer.Score(query.Artist, c.Artist)
	ok := (ts >= m.Threshold || contains(c.Title, query.Title)) &&
		(as >= m.Threshold || contains(c.Artist, query.Artist))
	return Match{TitleScore: ts, ArtistScore: as}, ok
}

// Best returns the highest scoring acceptable candidate. Ties go to the
// earliest candidate.
func (m *Matcher) Best(query Candidate, candidates []Candidate) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for i, c := range candidates {
		match, ok := m.Accept(query, c)
		if !ok {
			continue
		}
		match.Index = i
		if !found || match.Score() > best.Score() {
			best, found = match, true
		}
	}
	return best, found
}

func contains(haystack, needle string) bool {
	needle = normalize(needle)
	return needle != "" && strings.Contains(normalize(haystack), needle)
}
