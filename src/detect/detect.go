// Package detect classifies every file in a scanned source tree against
// the manifest, deciding which files the executor must copy.
package detect

import (
	"path/filepath"
	"sort"

	"dirbackup/src/hasher"
	"dirbackup/src/logging"
	"dirbackup/src/manifest"
	"dirbackup/src/scan"
)

// Decision is the classification of one path. Hash carries the freshly
// computed source digest when the classifier had to hash (Modified and
// hash-confirmed Unchanged); it is empty on the stat-only fast path and
// for New files. Err is set when the file could not be hashed; such a
// file is never reported Unchanged.
type Decision struct {
	Path  string
	Class Class
	Hash  string
	Err   error
}

// hashFile is a seam for tests.
var hashFile = hasher.File

// Changes classifies each path in src against m. The check is two-stage:
// size and mtime are compared first, and the content is only re-hashed
// when the metadata disagrees with the recorded entry. A change that
// preserves both size and mtime is therefore invisible here; verify mode
// always hashes and will catch such drift. Tracked paths absent from src
// are classified MissingFromSource but never deleted from anything.
// Decisions are returned in path order.
func Changes(src scan.Result, m *manifest.Manifest, srcRoot string) []Decision {
	l := logging.Sub("detect")
	decisions := make([]Decision, 0, len(src))

	for path, stat := range src {
		entry, tracked := m.Get(path)
		if !tracked {
			// No hash yet: the executor hashes the destination bytes
			// after the copy, which is the digest the manifest records.
			decisions = append(decisions, Decision{Path: path, Class: New})
			continue
		}

		if stat.Size == entry.Size && stat.Mtime == entry.Mtime {
			decisions = append(decisions, Decision{Path: path, Class: Unchanged})
			continue
		}

		// Metadata disagrees: hash settles it. An mtime touch without a
		// content change still classifies Unchanged.
		sum, err := hashFile(filepath.Join(srcRoot, filepath.FromSlash(path)))
		if err != nil {
			l.Warn("hash failed", "path", path, "err", err)
			decisions = append(decisions, Decision{Path: path, Class: Modified, Err: err})
			continue
		}
		if sum == entry.Hash {
			decisions = append(decisions, Decision{Path: path, Class: Unchanged, Hash: sum})
			continue
		}
		decisions = append(decisions, Decision{Path: path, Class: Modified, Hash: sum})
	}

	for _, path := range m.Paths() {
		if _, present := src[path]; !present {
			decisions = append(decisions, Decision{Path: path, Class: MissingFromSource})
		}
	}

	sort.Slice(decisions, func(i, j int) bool { return decisions[i].Path < decisions[j].Path })
	l.Debug("classification complete", "files", len(decisions))
	return decisions
}
