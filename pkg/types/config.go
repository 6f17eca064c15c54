package types

// Defaults applied to a ProjectConfig before validation.
const (
	DefaultWindowDays       = 28
	DefaultLagDays          = 28
	DefaultGrowthScale      = 1.0
	DefaultSeed             = 42
	DefaultMatcherThreshold = 65.0
	DefaultChartFile        = "chart.csv"
	DefaultMetadataFile     = "metadata.csv"
)

// DefaultDroppedGenres lists placeholder genre tags removed from feature rows.
var DefaultDroppedGenres = []string{"Music"}

// MetricSchema describes one numeric column of a platform's social table.
type MetricSchema struct {
	Name          string `yaml:"name" json:"name" validate:"required"`
	ZeroAsMissing *bool  `yaml:"zeroAsMissing,omitempty" json:"zeroAsMissing,omitempty"`
}

// ReclassifiesZeros reports whether exact zeros may be treated as proxy-missing.
func (m MetricSchema) ReclassifiesZeros() bool {
	return m.ZeroAsMissing == nil || *m.ZeroAsMissing
}

// PlatformSchema describes the metric columns collected for a platform.
type PlatformSchema struct {
	Name    Platform       `yaml:"name" json:"name" validate:"required,oneof=instagram tiktok youtube"`
	Prefix  string         `yaml:"prefix" json:"prefix" validate:"required"`
	File    string         `yaml:"file,omitempty" json:"file,omitempty"`
	Metrics []MetricSchema `yaml:"metrics" json:"metrics" validate:"min=1,dive"`
}

// MetricNames returns the schema's metric names in declaration order.
func (p PlatformSchema) MetricNames() []string {
	out := make([]string, len(p.Metrics))
	for i, m := range p.Metrics {
		out[i] = m.Name
	}
	return out
}

// SourceFile returns the social table file name for the platform.
func (p PlatformSchema) SourceFile() string {
	if p.File != "" {
		return p.File
	}
	return "social_" + string(p.Name) + ".csv"
}

// DefaultPlatformSchemas returns the metric columns the social collectors
// export for each platform. Post and upload counts keep their zeros.
func DefaultPlatformSchemas() []PlatformSchema {
	return []PlatformSchema{
		{Name: PlatformInstagram, Prefix: "ig", Metrics: []MetricSchema{
			{Name: "followers"}, {Name: "following"}, {Name: "media", ZeroAsMissing: keepZeros()},
		}},
		{Name: PlatformTikTok, Prefix: "tt", Metrics: []MetricSchema{
			{Name: "followers"}, {Name: "following"}, {Name: "uploads", ZeroAsMissing: keepZeros()}, {Name: "likes"},
		}},
		{Name: PlatformYouTube, Prefix: "yt", Metrics: []MetricSchema{
			{Name: "subs"}, {Name: "views"},
		}},
	}
}

// keepZeros marks a count metric whose zeros are real observations.
func keepZeros() *bool {
	b := false
	return &b
}

// SourceConfig locates the input tables.
type SourceConfig struct {
	URI      string `yaml:"uri" json:"uri" validate:"required"` // directory or s3://bucket/prefix
	Chart    string `yaml:"chart,omitempty" json:"chart,omitempty"`
	Metadata string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// WindowConfig sizes the densified window and the growth lag.
type WindowConfig struct {
	LengthDays  int     `yaml:"lengthDays" json:"lengthDays" validate:"gte=1"`
	LagDays     int     `yaml:"lagDays" json:"lagDays" validate:"gte=1"`
	GrowthScale float64 `yaml:"growthScale" json:"growthScale" validate:"gt=0"`
}

// ObservationConfig bounds the entry weeks of emerging releases.
type ObservationConfig struct {
	Start string `yaml:"start,omitempty" json:"start,omitempty" validate:"omitempty,datetime=2006-01-02"`
	End   string `yaml:"end,omitempty" json:"end,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SamplingConfig controls the one-release-per-artist draw.
// An unset seed defaults to DefaultSeed; an explicit 0 is kept.
type SamplingConfig struct {
	Seed                  *uint64 `yaml:"seed" json:"seed"`
	IncludeCollaborations bool    `yaml:"includeCollaborations,omitempty" json:"includeCollaborations,omitempty"`
	Disabled              bool    `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// SeedValue returns the configured seed, or DefaultSeed when unset.
func (s SamplingConfig) SeedValue() uint64 {
	if s.Seed == nil {
		return DefaultSeed
	}
	return *s.Seed
}

// GenreConfig controls genre tag cleanup.
type GenreConfig struct {
	Drop []string `yaml:"drop,omitempty" json:"drop,omitempty"`
}

// MatcherConfig tunes fuzzy metadata linking.
type MatcherConfig struct {
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gte=0,lte=100"`
	Scorer    string  `yaml:"scorer,omitempty" json:"scorer,omitempty" validate:"omitempty,oneof=indel levenshtein"`
}

// Similarity scorers selectable in MatcherConfig.
const (
	ScorerIndel       = "indel"
	ScorerLevenshtein = "levenshtein"
)

// SinkConfig defines a feature table destination.
type SinkConfig struct {
	Type         SinkType `yaml:"type" json:"type" validate:"required,oneof=csv jsonl s3 postgres"`
	Path         string   `yaml:"path,omitempty" json:"path,omitempty"`
	Bucket       string   `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix       string   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	DSN          string   `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	DSNSecretARN string   `yaml:"dsnSecretArn,omitempty" json:"dsnSecretArn,omitempty"`
	Table        string   `yaml:"table,omitempty" json:"table,omitempty"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"` // host:port of an OTLP gRPC collector
	Insecure bool   `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// ProjectConfig represents the top-level chartpulse.yaml configuration.
type ProjectConfig struct {
	Source       SourceConfig      `yaml:"source" json:"source"`
	IdentityDirs []string          `yaml:"identityDirs,omitempty" json:"identityDirs,omitempty"`
	Window       WindowConfig      `yaml:"window" json:"window"`
	Observation  ObservationConfig `yaml:"observation,omitempty" json:"observation,omitempty"`
	Sampling     SamplingConfig    `yaml:"sampling" json:"sampling"`
	Genres       GenreConfig       `yaml:"genres,omitempty" json:"genres,omitempty"`
	Platforms    []PlatformSchema  `yaml:"platforms,omitempty" json:"platforms,omitempty" validate:"dive"`
	Matcher      MatcherConfig     `yaml:"matcher" json:"matcher"`
	Workers      int               `yaml:"workers,omitempty" json:"workers,omitempty" validate:"gte=0"`
	Sinks        []SinkConfig      `yaml:"sinks,omitempty" json:"sinks,omitempty" validate:"dive"`
	Telemetry    *TelemetryConfig  `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
}

// ResolvePlatforms returns the configured platform schemas, or the defaults
// when none are configured.
func ResolvePlatforms(cfg ProjectConfig) []PlatformSchema {
	if len(cfg.Platforms) > 0 {
		return cfg.Platforms
	}
	return DefaultPlatformSchemas()
}
