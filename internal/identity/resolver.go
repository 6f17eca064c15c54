// Package identity resolves raw chart performer credits into canonical
// main-artist identities.
package identity

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// delimiterPattern matches the separators charts place between credited
// artists. Word delimiters need surrounding whitespace; punctuation does not.
var delimiterPattern = regexp.MustCompile(`(?i),\s*|\s+(?:featuring|presents|with|and)\s+|\s+y\s+|\s+x\s+|\s*&\s*|\s*/\s*|\s*\+\s*`)

// joinerFollows matches text that opens with another delimiter. An "x"
// directly before one is the end of a name ("Artist X Featuring ...").
var joinerFollows = regexp.MustCompile(`(?i)^(?:(?:featuring|presents|with|and|x|y)\s|[,&/+])`)

// Resolution is the outcome of resolving one performer credit.
type Resolution struct {
	Credit          string // trimmed input
	MainArtist      string // before alias rewrite
	Canonical       string // after alias rewrite
	IsCollaboration bool
	Exception       string // exception rule that matched, if any
}

type exceptionRule struct {
	name    string
	pattern *regexp.Regexp
	order   int
}

// Resolver maps performer credits to canonical artist names. It is safe for
// concurrent use once constructed.
type Resolver struct {
	exceptions []exceptionRule
	aliases    map[string]string
}

// NewResolver builds a resolver from an identity table.
//
// When more than one exception prefixes a credit the longest exception wins;
// equal lengths fall back to table order.
func NewResolver(t Table) *Resolver {
	r := &Resolver{aliases: make(map[string]string, len(t.Aliases))}
	for from, to := range t.Aliases {
		r.aliases[from] = to
	}
	for i, e := range t.Exceptions {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		r.exceptions = append(r.exceptions, exceptionRule{
			name:    e,
			pattern: regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(e)),
			order:   i,
		})
	}
	sort.SliceStable(r.exceptions, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(r.exceptions[i].name), utf8.RuneCountInString(r.exceptions[j].name)
		if li != lj {
			return li > lj
		}
		return r.exceptions[i].order < r.exceptions[j].order
	})
	return r
}

// ResolveMainArtist returns the canonical main artist of a credit, or "" for
// a blank credit.
func (r *Resolver) ResolveMainArtist(credit string) string {
	return r.Resolve(credit).Canonical
}

// Resolve resolves a performer credit.
func (r *Resolver) Resolve(credit string) Resolution {
	s := strings.TrimSpace(credit)
	if s == "" {
		return Resolution{}
	}

	main, exception := r.mainArtist(s)
	canonical := r.Canonicalize(main)
	return Resolution{
		Credit:          s,
		MainArtist:      main,
		Canonical:       canonical,
		IsCollaboration: canonical != r.Canonicalize(s),
		Exception:       exception,
	}
}

// Canonicalize applies the alias table to a single artist name.
func (r *Resolver) Canonicalize(name string) string {
	if to, ok := r.aliases[name]; ok {
		return to
	}
	return name
}

func (r *Resolver) mainArtist(s string) (string, string) {
	for _, e := range r.exceptions {
		loc := e.pattern.FindStringIndex(s)
		if loc == nil || !atBoundary(s, loc[1]) {
			continue
		}
		return s[:loc[1]], e.name
	}

	for from := 0; from < len(s); {
		loc := delimiterPattern.FindStringIndex(s[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		if isXJoiner(s[start:end]) && joinerFollows.MatchString(s[end:]) {
			from = start + 1
			continue
		}
		return strings.TrimSpace(s[:start]), ""
	}
	return s, ""
}

func isXJoiner(delim string) bool {
	return strings.EqualFold(strings.TrimSpace(delim), "x")
}

// atBoundary reports whether an exception ending at byte offset end stops on
// a name boundary, so "Dan + Shay" does not claim "Dan + Shayla".
func atBoundary(s string, end int) bool {
	if end >= len(s) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(s[:end])
	next, _ := utf8.DecodeRuneInString(s[end:])
	return !isWordRune(last) || !isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ExtractCredit returns the performer part of an entity id, splitting on the
// last title separator. Ids without a separator are returned trimmed.
func ExtractCredit(entityID string) string {
	s := strings.TrimSpace(entityID)
	cut := -1
	width := 0
	for _, sep := range []string{types.EntitySeparator, " - "} {
		if i := strings.LastIndex(s, sep); i > cut {
			cut, width = i, len(sep)
		}
	}
	if cut < 0 {
		return s
	}
	return strings.TrimSpace(s[cut+width:])
}
