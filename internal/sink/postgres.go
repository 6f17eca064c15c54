package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the Postgres table written when none is configured.
const DefaultTable = "feature_rows"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS %[1]s (
    run_id              TEXT NOT NULL,
    entity_id           TEXT NOT NULL,
    title               TEXT NOT NULL,
    artist              TEXT NOT NULL,
    genres              TEXT[] NOT NULL DEFAULT '{}',
    song_length         DOUBLE PRECISION,
    release_date        DATE,
    entry_week_date     DATE,
    entry_week_pos      INTEGER NOT NULL,
    peak_pos            INTEGER NOT NULL,
    lifespan            INTEGER NOT NULL,
    calendar_span_weeks INTEGER NOT NULL,
    is_collaboration    BOOLEAN NOT NULL,
    social              JSONB NOT NULL,
    written_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (run_id, entity_id)
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (artist);
`

const upsertRow = `
INSERT INTO %s (run_id, entity_id, title, artist, genres, song_length, release_date,
    entry_week_date, entry_week_pos, peak_pos, lifespan, calendar_span_weeks,
    is_collaboration, social)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (run_id, entity_id) DO UPDATE SET
    title = EXCLUDED.title,
    artist = EXCLUDED.artist,
    genres = EXCLUDED.genres,
    song_length = EXCLUDED.song_length,
    release_date = EXCLUDED.release_date,
    entry_week_date = EXCLUDED.entry_week_date,
    entry_week_pos = EXCLUDED.entry_week_pos,
    peak_pos = EXCLUDED.peak_pos,
    lifespan = EXCLUDED.lifespan,
    calendar_span_weeks = EXCLUDED.calendar_span_weeks,
    is_collaboration = EXCLUDED.is_collaboration,
    social = EXCLUDED.social,
    written_at = NOW()`

// DB is the subset of pgxpool.Pool used by PostgresSink.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSink upserts feature rows keyed by (run_id, entity_id).
type PostgresSink struct {
	db    DB
	close func()
	table string
}

// NewPostgresSink connects, verifies the connection and migrates the table.
func NewPostgresSink(ctx context.Context, dsn, table string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := NewPostgresSinkWithDB(pool, table)
	s.close = pool.Close
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresSinkWithDB wraps an existing connection.
func NewPostgresSinkWithDB(db DB, table string) *PostgresSink {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSink{db: db, table: table}
}

// Name returns the sink identifier.
func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) ident() string {
	return pgx.Identifier(strings.Split(s.table, ".")).Sanitize()
}

// Migrate creates the table and its index.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	index := pgx.Identifier{"idx_" + strings.ReplaceAll(s.table, ".", "_") + "_artist"}.Sanitize()
	if _, err := s.db.Exec(ctx, fmt.Sprintf(schemaDDL, s.ident(), index)); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Write upserts every row in one batch.
func (s *PostgresSink) Write(ctx context.Context, t Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	sql := fmt.Sprintf(upsertRow, s.ident())
	b := &pgx.Batch{}
	for _, row := range t.Rows {
		social, err := json.Marshal(socialObject(t, row))
		if err != nil {
			return fmt.Errorf("encoding social features for %s: %w", row.EntityID, err)
		}
		b.Queue(sql,
			t.RunID, row.EntityID, row.Title, row.Artist, nonNil(row.Genres),
			nullable(row.SongLengthMin), dateArg(row.ReleaseDate), dateArg(row.EntryWeek),
			row.EntryRank, row.PeakRank, row.Lifespan, row.CalendarSpanWeeks,
			row.IsCollaboration, social,
		)
	}

	br := s.db.SendBatch(ctx, b)
	for _, row := range t.Rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upserting %s: %w", row.EntityID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}
	return nil
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Close releases the connection pool.
func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
