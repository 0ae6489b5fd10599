// Package scan enumerates the regular files currently present under a
// root. The result is recomputed on every run and never persisted.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dirbackup/src/logging"
)

// FileStat holds the cheap per-file metadata used for change detection.
type FileStat struct {
	Size  int64
	Mtime int64 // unix nanoseconds
}

// Result maps slash-normalized relative paths to their current stat.
type Result map[string]FileStat

// Tree walks root and returns a stat for every regular file beneath it.
// Paths are relative to root with forward slashes, so manifests written
// on one OS compare cleanly on another. Absolute paths listed in skip
// (typically the manifest document itself) are excluded. A missing root
// yields an empty result: a freshly created backup root has nothing to
// scan yet.
func Tree(root string, skip ...string) (Result, error) {
	l := logging.Sub("scan")
	result := Result{}

	skipAbs := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipAbs[abs] = struct{}{}
		}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, os.ErrNotExist) {
				return filepath.SkipAll
			}
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil {
			if _, skipped := skipAbs[abs]; skipped {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		result[filepath.ToSlash(rel)] = FileStat{
			Size:  info.Size(),
			Mtime: info.ModTime().UnixNano(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.Debug("scan complete", "root", root, "files", len(result))
	return result, nil
}
