package identity

// Table is one versioned set of identity rules.
//
// Exceptions are artist names that themselves contain a delimiter ("Dan +
// Shay", "Tyler, The Creator"). Aliases rewrite alternate spellings of a
// name onto its canonical form.
type Table struct {
	Name       string            `yaml:"name" json:"name"`
	Version    string            `yaml:"version" json:"version"`
	Exceptions []string          `yaml:"exceptions,omitempty" json:"exceptions,omitempty"`
	Aliases    map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// DefaultTable returns the builtin curated exceptions and aliases.
func DefaultTable() Table {
	return Table{
		Name:    "builtin",
		Version: "2025-10-01",
		Exceptions: []string{
			"Tyler, The Creator",
			"Brooks & Dunn",
			"Yahritza y Su Esencia",
			"Dan + Shay",
			"Florence + The Machine",
			"Lil Nas X",
			"Richy Mitch And The Coal Miners",
			"HUNTR/X",
		},
		Aliases: map[string]string{
			"JIN":                   "Jin",
			"4*TOWN (From Disney":   "4*TOWN (From Disney And Pixar's Turning Red)",
			"mgk":                   "Machine Gun Kelly",
			"¥$: Kanye West":        "Kanye West",
			"$uicideBoy$":           "$uicideboy$",
			"Charli XCX":            "Charli xcx",
			"Yahritza y Su Esencia": "Yahritza Y Su Esencia",
			"Tyler, the Creator":    "Tyler, The Creator",
			"twenty one pilots":     "Twenty One Pilots",
			"jessie murph":          "Jessie Murph",
			"BLEU":                  "Yung Bleu",
			"HUNTRX":                "HUNTR/X",
			"HUNTR":                 "HUNTR/X",
			"Twice":                 "TWICE",
			"Pharrell":              "Pharrell Williams",
			"BossMan DLow":          "BossMan Dlow",
			"Richy Mitch":           "Richy Mitch And The Coal Miners",
			"Jennie":                "JENNIE",
			"Mariah The Scientist":  "Mariah the Scientist",
		},
	}
}
