package detect

// Class is the closed set of per-file outcomes from comparing current
// filesystem state against the manifest. Switches over Class are kept
// exhaustive; there is deliberately no catch-all "other" value.
type Class int

const (
	// New: present in source, not tracked by the manifest.
	New Class = iota
	// Modified: tracked, and the current content hash disagrees with
	// the recorded one.
	Modified
	// Unchanged: tracked and byte-identical to the recorded state
	// (either metadata matched, or the re-hash matched after mtime drift).
	Unchanged
	// MissingFromSource: tracked but absent from the source tree.
	MissingFromSource
	// MissingFromBackup: tracked but absent from the backup tree.
	MissingFromBackup
	// CorruptedSource: the source bytes no longer hash to the recorded value.
	CorruptedSource
	// CorruptedBackup: the backup bytes no longer hash to the recorded value.
	CorruptedBackup
)

func (c Class) String() string {
	switch c {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Unchanged:
		return "unchanged"
	case MissingFromSource:
		return "missing-from-source"
	case MissingFromBackup:
		return "missing-from-backup"
	case CorruptedSource:
		return "corrupted-source"
	case CorruptedBackup:
		return "corrupted-backup"
	}
	return "unknown"
}
