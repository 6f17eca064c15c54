package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// CSVSink writes the table as a CSV file with a header row.
type CSVSink struct {
	path string
}

// NewCSVSink creates a CSV file sink.
func NewCSVSink(path string) *CSVSink { return &CSVSink{path: path} }

// Name returns the sink identifier.
func (s *CSVSink) Name() string { return "csv" }

// Write replaces the file with the table.
func (s *CSVSink) Write(_ context.Context, t Table) error {
	return writeFile(s.path, func(w io.Writer) error { return EncodeCSV(w, t) })
}

// EncodeCSV renders the table as CSV.
func EncodeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Layout.Columns()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(t.Layout.Record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONLSink writes one JSON object per row. Missing values become null.
type JSONLSink struct {
	path string
}

// NewJSONLSink creates a JSON lines file sink.
func NewJSONLSink(path string) *JSONLSink { return &JSONLSink{path: path} }

// Name returns the sink identifier.
func (s *JSONLSink) Name() string { return "jsonl" }

// Write replaces the file with the table.
func (s *JSONLSink) Write(_ context.Context, t Table) error {
	return writeFile(s.path, func(w io.Writer) error { return EncodeJSONL(w, t) })
}

// EncodeJSONL renders the table as JSON lines.
func EncodeJSONL(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	for _, row := range t.Rows {
		if err := enc.Encode(rowObject(t, row)); err != nil {
			return fmt.Errorf("encoding %s: %w", row.EntityID, err)
		}
	}
	return nil
}

// object is a JSON object that keeps its keys in insertion order.
type object struct {
	keys []string
	vals []any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// rowObject renders a row with run_id first and the rest in layout column order.
func rowObject(t Table, row types.FeatureRow) object {
	vals := []any{
		t.RunID,
		row.EntityID,
		row.Title,
		row.Artist,
		nonNil(row.Genres),
		nullable(row.SongLengthMin),
		dateOrNil(row.ReleaseDate),
		dateOrNil(row.EntryWeek),
		row.EntryRank,
		row.PeakRank,
		row.Lifespan,
		row.CalendarSpanWeeks,
		row.IsCollaboration,
	}
	return object{
		keys: append([]string{"run_id"}, t.Layout.Columns()...),
		vals: append(vals, socialValues(t, row)...),
	}
}

// socialValues returns the layout's social values in column order with
// missing values as nil.
func socialValues(t Table, row types.FeatureRow) []any {
	cols := t.Layout.SocialColumns()
	out := make([]any, len(cols))
	for i, col := range cols {
		v, ok := row.Social[col]
		if !ok {
			v = types.Missing()
		}
		out[i] = nullable(v)
	}
	return out
}

// socialObject returns the layout's social columns keyed by name.
func socialObject(t Table, row types.FeatureRow) map[string]any {
	vals := socialValues(t, row)
	out := make(map[string]any, len(vals))
	for i, col := range t.Layout.SocialColumns() {
		out[col] = vals[i]
	}
	return out
}

func nullable(v float64) any {
	if types.IsMissing(v) {
		return nil
	}
	return v
}

func dateOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(types.DateLayout)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// writeFile writes through a temp file in the same directory and renames it
// into place.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".chartpulse-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
