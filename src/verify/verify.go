// Package verify re-hashes source and backup copies independently and
// cross-checks both against the manifest. It is strictly read-only: no
// run of verify ever mutates the manifest or either tree.
package verify

import (
	"fmt"
	"path/filepath"

	"dirbackup/src/detect"
	"dirbackup/src/hasher"
	"dirbackup/src/logging"
	"dirbackup/src/manifest"
	"dirbackup/src/scan"
)

// hashFile is a seam for tests.
var hashFile = hasher.File

// Options configures one verification run.
type Options struct {
	SourceRoot   string
	BackupRoot   string
	ManifestPath string // defaults to <BackupRoot>/manifest.json
}

// Finding is one non-verified path.
type Finding struct {
	Path   string       `json:"path"`
	Class  detect.Class `json:"-"`
	Status string       `json:"status"`
	Detail string       `json:"detail,omitempty"`
}

// Report holds per-class counts plus the ordered list of non-verified
// paths.
type Report struct {
	Verified          int       `json:"verified"`
	MissingFromSource int       `json:"missing_from_source"`
	MissingFromBackup int       `json:"missing_from_backup"`
	CorruptedSource   int       `json:"corrupted_source"`
	CorruptedBackup   int       `json:"corrupted_backup"`
	Findings          []Finding `json:"findings,omitempty"`
}

// Clean reports whether every tracked path verified.
func (r *Report) Clean() bool { return len(r.Findings) == 0 }

// Run checks every manifest entry against the current source and backup
// trees. Both copies must hash to the recorded value: the two trees
// agreeing with each other but not with the manifest is still corruption
// against the recorded baseline. A file that cannot be read hashes to
// nothing and is reported corrupted with the read error as detail — a
// failed hash is never treated as verified.
func Run(opts Options) (*Report, error) {
	l := logging.Sub("verify")

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
	bak, err := scan.Tree(opts.BackupRoot, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("scan backup: %w", err)
	}

	report := &Report{}
	for _, path := range m.Paths() {
		entry, _ := m.Get(path)

		_, inSource := src[path]
		_, inBackup := bak[path]
		if !inSource {
			report.add(Finding{Path: path, Class: detect.MissingFromSource})
		}
		if !inBackup {
			report.add(Finding{Path: path, Class: detect.MissingFromBackup})
		}
		if !inSource || !inBackup {
			continue
		}

		srcOK := report.checkCopy(path, filepath.Join(opts.SourceRoot, filepath.FromSlash(path)), entry.Hash, detect.CorruptedSource)
		bakOK := report.checkCopy(path, filepath.Join(opts.BackupRoot, filepath.FromSlash(path)), entry.Hash, detect.CorruptedBackup)
		if srcOK && bakOK {
			report.Verified++
		}
	}

	l.Info("verify complete",
		"verified", report.Verified,
		"missing_source", report.MissingFromSource,
		"missing_backup", report.MissingFromBackup,
		"corrupted_source", report.CorruptedSource,
		"corrupted_backup", report.CorruptedBackup)
	return report, nil
}

// checkCopy hashes one copy of a tracked file and records a finding when
// it does not match the recorded digest. Returns true when the copy
// verified.
func (r *Report) checkCopy(relPath, fullPath, recorded string, badClass detect.Class) bool {
	sum, err := hashFile(fullPath)
	if err != nil {
		r.add(Finding{Path: relPath, Class: badClass, Detail: fmt.Sprintf("read failed: %v", err)})
		return false
	}
	if sum != recorded {
		r.add(Finding{Path: relPath, Class: badClass,
			Detail: fmt.Sprintf("hash %s, recorded %s", short(sum), short(recorded))})
		return false
	}
	return true
}

func (r *Report) add(f Finding) {
	f.Status = f.Class.String()
	r.Findings = append(r.Findings, f)
	switch f.Class {
	case detect.MissingFromSource:
		r.MissingFromSource++
	case detect.MissingFromBackup:
		r.MissingFromBackup++
	case detect.CorruptedSource:
		r.CorruptedSource++
	case detect.CorruptedBackup:
		r.CorruptedBackup++
	case detect.New, detect.Modified, detect.Unchanged:
		// Backup-mode classes; never findings.
	}
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
