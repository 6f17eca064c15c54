package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dwsmith1983/chartpulse/pkg/types"
)

var dateLayouts = []string{
	types.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// parseDate parses a calendar date in any of the layouts exported by the
// collection jobs and truncates it to UTC midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseMetric parses a numeric cell. An empty cell, "nan" or "null" is
// Missing.
func parseMetric(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "null", "none", "na":
		return types.Missing(), nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric value %q", s)
	}
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("infinite value %q", s)
	}
	return f, nil
}

// parseInt accepts integers written as floats ("40.0") the way spreadsheet
// exports produce them.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-integer value %q", s)
	}
	return int(f), nil
}

// parseGenres splits a genre cell given either as "a|b" or as a list literal
// such as ["a", "b"] or ['a', 'b'].
func parseGenres(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var tags []string
		if err := json.Unmarshal([]byte(s), &tags); err == nil {
			return trimAll(tags)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		return trimAll(strings.Split(inner, ","))
	}
	return trimAll(strings.Split(s, "|"))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.Trim(strings.TrimSpace(t), `'"`)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
