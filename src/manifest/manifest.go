// Package manifest persists the durable record of what was last backed
// up: one JSON document per backup root mapping each tracked relative
// path to its size, mtime, and content hash.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"dirbackup/src/logging"
)

// DefaultName is the manifest file name inside the backup root.
const DefaultName = "manifest.json"

// ErrCorrupt marks a manifest document that exists but cannot be parsed.
// This is fatal for the run: treating it as empty would re-copy the whole
// tree and mask real corruption signals.
var ErrCorrupt = errors.New("manifest is corrupt")

// Entry records one tracked file as of its last successful backup.
// Hash is always the digest of the exact bytes written into the backup
// tree when the entry was last updated.
type Entry struct {
	Path  string `json:"path"`
	Size  int64  `json:"size"`
	Mtime int64  `json:"mtime"` // unix nanoseconds
	Hash  string `json:"hash"`  // hex sha256
}

// Manifest maps slash-normalized relative paths to entries.
type Manifest struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{Version: 1, Entries: map[string]Entry{}}
}

// Load reads the manifest document at path. A missing document is a
// first run and yields an empty manifest; an unparseable one fails with
// ErrCorrupt.
func Load(path string) (*Manifest, error) {
	l := logging.Sub("manifest")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		l.Debug("no manifest yet, starting empty", "path", path)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w: %w", path, ErrCorrupt, err)
	}
	if m.Entries == nil {
		m.Entries = map[string]Entry{}
	}
	l.Debug("manifest loaded", "path", path, "entries", len(m.Entries))
	return &m, nil
}

// Save atomically replaces the document at path with the full current
// mapping: the JSON is written to a temporary file and renamed into
// place, so a crash mid-write never truncates a prior valid manifest.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace manifest %s: %w", path, err)
	}
	logging.Sub("manifest").Debug("manifest saved", "path", path, "entries", len(m.Entries))
	return nil
}

// Get returns the entry for path, if tracked.
func (m *Manifest) Get(path string) (Entry, bool) {
	e, ok := m.Entries[path]
	return e, ok
}

// Put records or replaces the entry for e.Path.
func (m *Manifest) Put(e Entry) {
	m.Entries[e.Path] = e
}

// Delete removes the entry for path, if tracked.
func (m *Manifest) Delete(path string) {
	delete(m.Entries, path)
}

// Len reports the number of tracked paths.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Paths returns all tracked paths in sorted order, for deterministic
// iteration and reports.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Entries))
	for p := range m.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
