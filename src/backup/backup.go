// Package backup applies change-detection decisions to the backup tree:
// it copies new and modified files, records their post-copy digests, and
// persists the updated manifest exactly once per run.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"dirbackup/src/detect"
	"dirbackup/src/fileops"
	"dirbackup/src/hasher"
	"dirbackup/src/logging"
	"dirbackup/src/manifest"
	"dirbackup/src/scan"
)

// Files below this size copy too fast for a progress line to be useful.
const progressThreshold = 8 << 20

// Seams for tests.
var (
	copyFile = fileops.Copy
	hashFile = hasher.File
	nowFunc  = time.Now
)

// Options configures one backup run.
type Options struct {
	SourceRoot   string
	BackupRoot   string
	ManifestPath string    // defaults to <BackupRoot>/manifest.json
	Out          io.Writer // per-file copy lines; nil to silence
	Progress     io.Writer // in-file progress for large copies; nil to disable
}

// FileError records one file that could not be backed up this run. Its
// manifest entry is left untouched so the file is retried next run.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Summary is the result of one backup run.
type Summary struct {
	New               int           `json:"new"`
	Modified          int           `json:"modified"`
	Unchanged         int           `json:"unchanged"`
	MissingFromSource int           `json:"missing_from_source"`
	Failures          []FileError   `json:"failures,omitempty"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Failed reports the number of files that could not be processed.
func (s *Summary) Failed() int { return len(s.Failures) }

// Run performs one backup pass from SourceRoot into BackupRoot.
//
// Per-file copy and hash failures are collected in Summary.Failures and
// never abort the run. A manifest load or save failure, or context
// cancellation, aborts the whole run; since Save only happens at the
// end, an aborted run leaves the manifest exactly as it started.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	l := logging.Sub("backup")
	start := nowFunc()

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = filepath.Join(opts.BackupRoot, manifest.DefaultName)
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.BackupRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create backup root: %w", err)
	}

	src, err := scan.Tree(opts.SourceRoot, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	decisions := detect.Changes(src, m, opts.SourceRoot)

	toCopy := 0
	for _, d := range decisions {
		if d.Err == nil && (d.Class == detect.New || d.Class == detect.Modified) {
			toCopy++
		}
	}

	summary := &Summary{}
	copied := 0
	for _, d := range decisions {
		if d.Err != nil {
			summary.Failures = append(summary.Failures, FileError{Path: d.Path, Err: d.Err})
			continue
		}
		switch d.Class {
		case detect.New, detect.Modified:
			copied++
			if opts.Out != nil {
				fmt.Fprintf(opts.Out, "[%d/%d] copy %s\n", copied, toCopy, d.Path)
			}
			entry, err := backupOne(ctx, opts, d.Path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				l.Warn("backup failed", "path", d.Path, "err", err)
				summary.Failures = append(summary.Failures, FileError{Path: d.Path, Err: err})
				continue
			}
			m.Put(entry)
			if d.Class == detect.New {
				summary.New++
			} else {
				summary.Modified++
			}
		case detect.Unchanged:
			summary.Unchanged++
		case detect.MissingFromSource:
			// Reported only. The backup copy and manifest entry stay; an
			// operator deletes them explicitly via prune.
			summary.MissingFromSource++
		case detect.MissingFromBackup, detect.CorruptedSource, detect.CorruptedBackup:
			// Verify-mode findings; the change detector never emits them.
		}
	}

	if err := m.Save(manifestPath); err != nil {
		return nil, err
	}

	summary.Elapsed = nowFunc().Sub(start)
	l.Info("backup complete",
		"new", summary.New, "modified", summary.Modified,
		"unchanged", summary.Unchanged, "missing", summary.MissingFromSource,
		"failed", summary.Failed(), "elapsed", summary.Elapsed)
	return summary, nil
}

// backupOne copies a single file into the backup tree and builds its
// manifest entry. The recorded digest is computed from the destination
// bytes, not the source, so a copy-time corruption is caught immediately
// rather than certified.
func backupOne(ctx context.Context, opts Options, relPath string) (manifest.Entry, error) {
	srcPath := filepath.Join(opts.SourceRoot, filepath.FromSlash(relPath))
	dstPath := filepath.Join(opts.BackupRoot, filepath.FromSlash(relPath))

	progressOut := opts.Progress
	if progressOut != nil {
		if info, err := os.Stat(srcPath); err != nil || info.Size() < progressThreshold {
			progressOut = nil
		}
	}

	if err := copyFile(ctx, srcPath, dstPath, progressOut); err != nil {
		return manifest.Entry{}, fmt.Errorf("copy %s: %w", relPath, err)
	}

	sum, err := hashFile(dstPath)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("hash copied %s: %w", relPath, err)
	}
	info, err := os.Stat(dstPath)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("stat copied %s: %w", relPath, err)
	}

	return manifest.Entry{
		Path:  relPath,
		Size:  info.Size(),
		Mtime: info.ModTime().UnixNano(),
		Hash:  sum,
	}, nil
}
