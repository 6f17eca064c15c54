package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry manages identity tables loaded from YAML files. Tables are merged
// in load order: exceptions accumulate, and a later alias for the same name
// replaces an earlier one.
type Registry struct {
	tables []Table
}

// NewRegistry creates a new empty identity registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// LoadDir loads all YAML identity files from a directory in file name order.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading identity dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := r.LoadFile(path); err != nil {
			return fmt.Errorf("loading identity table %s: %w", path, err)
		}
	}
	return nil
}

// LoadFile loads a single identity table YAML file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return r.Register(t)
}

// Register adds a table directly to the registry.
func (r *Registry) Register(t Table) error {
	if t.Version == "" {
		return fmt.Errorf("identity table %q has no version", t.Name)
	}
	for from, to := range t.Aliases {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("identity table %q has an empty alias entry", t.Name)
		}
	}
	r.tables = append(r.tables, t)
	return nil
}

// Len returns the number of registered tables.
func (r *Registry) Len() int { return len(r.tables) }

// Versions returns "name@version" for every registered table in load order.
func (r *Registry) Versions() []string {
	out := make([]string, len(r.tables))
	for i, t := range r.tables {
		out[i] = t.Name + "@" + t.Version
	}
	return out
}

// Table returns the merged view of every registered table.
func (r *Registry) Table() Table {
	merged := Table{Name: "merged", Aliases: make(map[string]string)}
	seen := make(map[string]bool)
	for _, t := range r.tables {
		merged.Version = t.Version
		for _, e := range t.Exceptions {
			if e = strings.TrimSpace(e); e == "" || seen[e] {
				continue
			}
			seen[e] = true
			merged.Exceptions = append(merged.Exceptions, e)
		}
		for from, to := range t.Aliases {
			merged.Aliases[from] = to
		}
	}
	return merged
}
