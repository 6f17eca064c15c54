package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMainArtist_Delimiters(t *testing.T) {
	r := NewResolver(DefaultTable())

	tests := []struct {
		credit string
		want   string
	}{
		{"Artist X Featuring Artist Y", "Artist X"},
		{"Artist X featuring Artist Y", "Artist X"},
		{"Artist X, Artist Y & Artist Z", "Artist X"},
		{"Artist X,Artist Y", "Artist X"},
		{"DJ X Presents Artist Y", "DJ X"},
		{"Artist X With Artist Y", "Artist X"},
		{"Artist X And Artist Y", "Artist X"},
		{"Artist X y Artist Y", "Artist X"},
		{"Artist X x Artist Y", "Artist X"},
		{"Artist X X Artist Y", "Artist X"},
		{"Marshmello X Jonas Brothers", "Marshmello"},
		{"Marshmello x Jonas Brothers", "Marshmello"},
		{"DJ X X Artist Y Featuring Artist Z", "DJ X"},
		{"Artist X & Artist Y", "Artist X"},
		{"Artist X&Artist Y", "Artist X"},
		{"Artist X / Artist Y", "Artist X"},
		{"Artist X+Artist Y", "Artist X"},
		{"  Artist X   Featuring   Artist Y  ", "Artist X"},
		{"Artist X & Artist Y Featuring Artist Z", "Artist X"},
	}
	for _, tt := range tests {
		t.Run(tt.credit, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveMainArtist(tt.credit))
		})
	}
}

func TestResolveMainArtist_NoDelimiterReturnsTrimmed(t *testing.T) {
	r := NewResolver(DefaultTable())

	for _, s := range []string{
		"Taylor Swift",
		"  Morgan Wallen ",
		"Andy Grammer",
		"Sandy Xavier",
		"Withered Hand",
		"Yung Gravy",
		"SZA",
		"Kendrick Lamar\t",
		"Artist X",
	} {
		res := r.Resolve(s)
		assert.Equal(t, res.Credit, res.Canonical, s)
		assert.False(t, res.IsCollaboration, s)
	}
	assert.Equal(t, "Andy Grammer", r.ResolveMainArtist("Andy Grammer"))
	assert.Equal(t, "Morgan Wallen", r.ResolveMainArtist("  Morgan Wallen "))
}

func TestResolve_ExceptionBeatsDelimiter(t *testing.T) {
	r := NewResolver(DefaultTable())

	tests := []struct {
		credit string
		want   string
		collab bool
	}{
		{"Tyler, The Creator", "Tyler, The Creator", false},
		{"Tyler, The Creator Featuring Kanye West", "Tyler, The Creator", true},
		{"Dan + Shay", "Dan + Shay", false},
		{"Dan + Shay & Justin Bieber", "Dan + Shay", true},
		{"Brooks & Dunn, Artist Y", "Brooks & Dunn", true},
		{"Lil Nas X Featuring Jack Harlow", "Lil Nas X", true},
		{"HUNTR/X: EJAE, Audrey Nuna & REI AMI", "HUNTR/X", true},
		{"Florence + The Machine", "Florence + The Machine", false},
	}
	for _, tt := range tests {
		t.Run(tt.credit, func(t *testing.T) {
			res := r.Resolve(tt.credit)
			assert.Equal(t, tt.want, res.Canonical)
			assert.Equal(t, tt.collab, res.IsCollaboration)
			assert.NotEmpty(t, res.Exception)
		})
	}
}

func TestResolve_ExceptionIsCaseInsensitiveAndVerbatim(t *testing.T) {
	r := NewResolver(Table{Version: "t", Exceptions: []string{"Dan + Shay"}})

	res := r.Resolve("DAN + SHAY with Someone")
	assert.Equal(t, "DAN + SHAY", res.MainArtist)
	assert.Equal(t, "Dan + Shay", res.Exception)
}

func TestResolve_ExceptionNeedsNameBoundary(t *testing.T) {
	r := NewResolver(Table{Version: "t", Exceptions: []string{"Dan + Shay"}})

	assert.Equal(t, "Dan", r.ResolveMainArtist("Dan + Shayla"))
}

func TestResolve_LongestExceptionWins(t *testing.T) {
	r := NewResolver(Table{Version: "t", Exceptions: []string{
		"Florence",
		"Florence + The Machine",
	}})

	res := r.Resolve("Florence + The Machine & Someone")
	assert.Equal(t, "Florence + The Machine", res.MainArtist)
	assert.Equal(t, "Florence + The Machine", res.Exception)

	res = r.Resolve("Florence & Someone")
	assert.Equal(t, "Florence", res.MainArtist)
}

func TestResolve_AliasRewrite(t *testing.T) {
	r := NewResolver(DefaultTable())

	res := r.Resolve("mgk Featuring Trippie Redd")
	assert.Equal(t, "mgk", res.MainArtist)
	assert.Equal(t, "Machine Gun Kelly", res.Canonical)
	assert.True(t, res.IsCollaboration)

	solo := r.Resolve("mgk")
	assert.Equal(t, "Machine Gun Kelly", solo.Canonical)
	assert.False(t, solo.IsCollaboration)

	assert.Equal(t, "Mariah the Scientist", r.ResolveMainArtist("Mariah The Scientist"))
}

func TestResolve_Blank(t *testing.T) {
	r := NewResolver(DefaultTable())

	for _, s := range []string{"", "   ", "\t\n"} {
		res := r.Resolve(s)
		assert.Equal(t, Resolution{}, res)
		assert.Equal(t, "", r.ResolveMainArtist(s))
	}
}

func TestResolve_ScenarioFromEntityID(t *testing.T) {
	r := NewResolver(DefaultTable())

	credit := ExtractCredit("Song A — Artist X Featuring Artist Y")
	require.Equal(t, "Artist X Featuring Artist Y", credit)
	assert.Equal(t, "Artist X", r.ResolveMainArtist(credit))
}

func TestResolve_UpperCaseXJoiner(t *testing.T) {
	r := NewResolver(DefaultTable())

	res := r.Resolve("Marshmello X Jonas Brothers")
	assert.Equal(t, "Marshmello", res.Canonical)
	assert.True(t, res.IsCollaboration)

	res = r.Resolve("Artist X Featuring Artist Y")
	assert.Equal(t, "Artist X", res.Canonical)
	assert.True(t, res.IsCollaboration)

	res = r.Resolve("Lil Nas X & Artist Y")
	assert.Equal(t, "Lil Nas X", res.Canonical)
	assert.Equal(t, "Lil Nas X", res.Exception)
}

func TestExtractCredit(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"Song A — Artist X", "Artist X"},
		{"Song - Remix — Artist X", "Artist X"},
		{"Song A - Artist X", "Artist X"},
		{"  Just A Title  ", "Just A Title"},
		{"A — B — Artist Z", "Artist Z"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractCredit(tt.id), tt.id)
	}
}
