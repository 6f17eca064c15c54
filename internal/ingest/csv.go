// Package ingest reads the chart, social and metadata input tables.
//
// Rows that cannot be parsed are skipped and reported; a table that lacks a
// required column fails with ErrSchema.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

// ErrSchema reports a table whose header lacks a required column.
var ErrSchema = errors.New("table schema error")

// Result holds the parsed rows of one table and the rows that were skipped.
type Result[T any] struct {
	Rows    []T
	Skipped []types.SkippedRow
}

// Reader parses input tables, logging every skipped row.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader. A nil logger uses slog.Default().
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// header maps lower-cased column names to their position.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		c = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[c]; !dup {
			h[c] = i
		}
	}
	return h
}

// index returns the position of the first name present.
func (h header) index(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i, true
		}
	}
	return 0, false
}

// require resolves required columns, each given as a canonical name followed
// by accepted aliases.
func (h header) require(table types.TableName, cols ...[]string) ([]int, error) {
	out := make([]int, len(cols))
	var missing []string
	for i, names := range cols {
		idx, ok := h.index(names...)
		if !ok {
			missing = append(missing, names[0])
			continue
		}
		out[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s table missing columns %s: %w", table, strings.Join(missing, ", "), ErrSchema)
	}
	return out, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// scan reads a CSV table, handing each data record and its line number to fn.
// fn returns a non-empty reason to skip the row.
func (r *Reader) scan(in io.Reader, table types.TableName, onHeader func(header) error, fn func(rec []string, line int) string) ([]types.SkippedRow, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s table is empty: %w", table, ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s header: %w", table, err)
	}
	if err := onHeader(newHeader(cols)); err != nil {
		return nil, err
	}

	var skipped []types.SkippedRow
	skip := func(line int, reason string) {
		skipped = append(skipped, types.SkippedRow{Table: table, Line: line, Reason: reason})
		r.logger.Warn("skipping malformed row", "table", table, "line", line, "reason", reason)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			skip(perr.Line, perr.Err.Error())
			continue
		}
		if err != nil {
			return skipped, fmt.Errorf("reading %s: %w", table, err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		if reason := fn(rec, line); reason != "" {
			skip(line, reason)
		}
	}
	return skipped, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
