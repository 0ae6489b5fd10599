package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dirbackup/src/logging"
	"dirbackup/src/manifest"
	"dirbackup/src/scan"
)

// PruneOptions configures one prune run.
type PruneOptions struct {
	SourceRoot   string
	BackupRoot   string
	ManifestPath string    // defaults to <BackupRoot>/manifest.json
	Out          io.Writer // per-file removal lines; nil to silence
}

// PruneResult reports what a prune run removed.
type PruneResult struct {
	Removed  []string    `json:"removed"`
	Failures []FileError `json:"failures,omitempty"`
}

// PruneCandidates returns the tracked paths currently absent from the
// source tree, in sorted order. Backup and verify runs only ever report
// these; removal is this separate, operator-confirmed step.
func PruneCandidates(opts PruneOptions) ([]string, error) {
	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(opts.BackupRoot, manifest.DefaultName)
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	src, err := scan.Tree(opts.SourceRoot, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	var candidates []string
	for _, path := range m.Paths() {
		if _, present := src[path]; !present {
			candidates = append(candidates, path)
		}
	}
	return candidates, nil
}

// Prune deletes the backup copy and manifest entry for every tracked
// path missing from source. A copy that fails to delete keeps its
// manifest entry, so a later prune can retry it. The manifest is saved
// once, after all removals.
func Prune(opts PruneOptions) (*PruneResult, error) {
	l := logging.Sub("prune")

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(opts.BackupRoot, manifest.DefaultName)
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}
	src, err := scan.Tree(opts.SourceRoot, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	result := &PruneResult{}
	for _, path := range m.Paths() {
		if _, present := src[path]; present {
			continue
		}
		dst := filepath.Join(opts.BackupRoot, filepath.FromSlash(path))
		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.Warn("prune failed", "path", path, "err", err)
			result.Failures = append(result.Failures, FileError{Path: path, Err: err})
			continue
		}
		m.Delete(path)
		result.Removed = append(result.Removed, path)
		if opts.Out != nil {
			fmt.Fprintf(opts.Out, "removed %s\n", path)
		}
	}

	if err := m.Save(manifestPath); err != nil {
		return nil, err
	}
	l.Info("prune complete", "removed", len(result.Removed), "failed", len(result.Failures))
	return result, nil
}
