// Package config handles loading and validation of chartpulse.yaml project
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// FileName is the project configuration file looked up by Load.
const FileName = "chartpulse.yaml"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Load reads and parses chartpulse.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads, defaults and validates a configuration file. Relative
// local paths are resolved against the file's directory.
func LoadFile(path string) (*types.ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	ApplyDefaults(&cfg)
	resolvePaths(&cfg, filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset field except the source.
func ApplyDefaults(cfg *types.ProjectConfig) {
	if cfg.Source.Chart == "" {
		cfg.Source.Chart = types.DefaultChartFile
	}
	if cfg.Source.Metadata == "" {
		cfg.Source.Metadata = types.DefaultMetadataFile
	}
	if cfg.Window.LengthDays == 0 {
		cfg.Window.LengthDays = types.DefaultWindowDays
	}
	if cfg.Window.LagDays == 0 {
		cfg.Window.LagDays = types.DefaultLagDays
	}
	if cfg.Window.GrowthScale == 0 {
		cfg.Window.GrowthScale = types.DefaultGrowthScale
	}
	if cfg.Sampling.Seed == nil {
		seed := uint64(types.DefaultSeed)
		cfg.Sampling.Seed = &seed
	}
	if cfg.Genres.Drop == nil {
		cfg.Genres.Drop = append([]string(nil), types.DefaultDroppedGenres...)
	}
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = types.DefaultPlatformSchemas()
	}
	if cfg.Matcher.Threshold == 0 {
		cfg.Matcher.Threshold = types.DefaultMatcherThreshold
	}
	if cfg.Matcher.Scorer == "" {
		cfg.Matcher.Scorer = types.ScorerIndel
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	for i := range cfg.Sinks {
		if cfg.Sinks[i].Type == types.SinkPostgres && cfg.Sinks[i].Table == "" {
			cfg.Sinks[i].Table = "feature_rows"
		}
	}
}

func resolvePaths(cfg *types.ProjectConfig, base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	if !strings.HasPrefix(cfg.Source.URI, "s3://") {
		cfg.Source.URI = abs(cfg.Source.URI)
	}
	for i, d := range cfg.IdentityDirs {
		cfg.IdentityDirs[i] = abs(d)
	}
	for i := range cfg.Sinks {
		cfg.Sinks[i].Path = abs(cfg.Sinks[i].Path)
	}
}

// Validate checks struct tags, then the cross-field rules tags cannot
// express.
func Validate(cfg *types.ProjectConfig) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = describe(fe)
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if cfg.Window.LagDays > cfg.Window.LengthDays {
		return fmt.Errorf("window.lagDays (%d) exceeds window.lengthDays (%d)", cfg.Window.LagDays, cfg.Window.LengthDays)
	}
	if cfg.Observation.Start != "" && cfg.Observation.End != "" {
		start, _ := time.Parse(types.DateLayout, cfg.Observation.Start)
		end, _ := time.Parse(types.DateLayout, cfg.Observation.End)
		if end.Before(start) {
			return fmt.Errorf("observation.end %s is before observation.start %s", cfg.Observation.End, cfg.Observation.Start)
		}
	}

	names := map[types.Platform]bool{}
	prefixes := map[string]bool{}
	for _, p := range cfg.Platforms {
		if names[p.Name] {
			return fmt.Errorf("platform %s configured twice", p.Name)
		}
		names[p.Name] = true
		if prefixes[p.Prefix] {
			return fmt.Errorf("platform prefix %q used twice", p.Prefix)
		}
		prefixes[p.Prefix] = true
		metrics := map[string]bool{}
		for _, m := range p.Metrics {
			if metrics[m.Name] {
				return fmt.Errorf("platform %s lists metric %s twice", p.Name, m.Name)
			}
			metrics[m.Name] = true
		}
	}

	for i, s := range cfg.Sinks {
		switch s.Type {
		case types.SinkCSV, types.SinkJSONL:
			if s.Path == "" {
				return fmt.Errorf("sinks[%d]: %s sink requires path", i, s.Type)
			}
		case types.SinkS3:
			if s.Bucket == "" {
				return fmt.Errorf("sinks[%d]: s3 sink requires bucket", i)
			}
		case types.SinkPostgres:
			if s.DSN == "" && s.DSNSecretARN == "" {
				return fmt.Errorf("sinks[%d]: postgres sink requires dsn or dsnSecretArn", i)
			}
		}
	}

	if t := cfg.Telemetry; t != nil && t.Enabled && t.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "ProjectConfig.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", field, fe.Param())
	case "gte", "gt", "lte", "min":
		return fmt.Sprintf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s fails %s", field, fe.Tag())
	}
}
