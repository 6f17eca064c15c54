// Package sink writes the assembled feature table to its configured
// destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dwsmith1983/chartpulse/internal/assemble"
	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// Table is one finished feature table.
type Table struct {
	RunID  string
	Layout assemble.Layout
	Rows   []types.FeatureRow
}

// Sink is a feature table destination.
type Sink interface {
	Write(ctx context.Context, t Table) error
	Name() string
}

// DSNResolver looks up a Postgres DSN stored as a secret.
type DSNResolver func(ctx context.Context, secretARN string) (string, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithS3Client sets the client used by S3 sinks (useful for testing).
func WithS3Client(c S3API) Option {
	return func(d *Dispatcher) { d.s3Client = c }
}

// WithDSNResolver sets how Postgres sinks resolve dsnSecretArn.
func WithDSNResolver(r DSNResolver) Option {
	return func(d *Dispatcher) { d.resolveDSN = r }
}

// Dispatcher fans a table out to every configured sink.
type Dispatcher struct {
	sinks      []Sink
	logger     *slog.Logger
	s3Client   S3API
	resolveDSN DSNResolver
}

// NewDispatcher creates a dispatcher from sink configs.
func NewDispatcher(ctx context.Context, configs []types.SinkConfig, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	for _, cfg := range configs {
		s, err := d.newSink(ctx, cfg)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.sinks = append(d.sinks, s)
	}
	return d, nil
}

// Add appends a sink to the dispatcher.
func (d *Dispatcher) Add(s Sink) { d.sinks = append(d.sinks, s) }

// Len returns the number of sinks.
func (d *Dispatcher) Len() int { return len(d.sinks) }

// Dispatch writes the table to every sink. A failing sink does not stop the
// others; all failures are returned joined.
func (d *Dispatcher) Dispatch(ctx context.Context, t Table) error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Write(ctx, t); err != nil {
			d.logger.Error("sink write failed", "sink", s.Name(), "runId", t.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		d.logger.Info("feature table written", "sink", s.Name(), "runId", t.RunID, "rows", len(t.Rows))
	}
	return errors.Join(errs...)
}

// Close releases sink resources.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) newSink(ctx context.Context, cfg types.SinkConfig) (Sink, error) {
	switch cfg.Type {
	case types.SinkCSV:
		if cfg.Path == "" {
			return nil, fmt.Errorf("csv path required")
		}
		return NewCSVSink(cfg.Path), nil
	case types.SinkJSONL:
		if cfg.Path == "" {
			return nil, fmt.Errorf("jsonl path required")
		}
		return NewJSONLSink(cfg.Path), nil
	case types.SinkS3:
		return NewS3Sink(ctx, cfg.Bucket, cfg.Prefix, d.s3Client)
	case types.SinkPostgres:
		dsn := cfg.DSN
		if dsn == "" && cfg.DSNSecretARN != "" {
			if d.resolveDSN == nil {
				return nil, fmt.Errorf("dsnSecretArn set but no secret resolver configured")
			}
			var err error
			if dsn, err = d.resolveDSN(ctx, cfg.DSNSecretARN); err != nil {
				return nil, fmt.Errorf("resolving postgres DSN: %w", err)
			}
		}
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn required")
		}
		return NewPostgresSink(ctx, dsn, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
