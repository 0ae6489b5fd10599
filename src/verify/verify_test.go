package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirbackup/src/backup"
	"dirbackup/src/detect"
	"dirbackup/src/manifest"
)

// backedUp creates a source tree, runs a real backup, and returns the
// verify options for the resulting pair of trees.
func backedUp(t *testing.T, files map[string]string) (string, string, Options) {
	t.Helper()
	srcRoot := t.TempDir()
	bakRoot := filepath.Join(t.TempDir(), "backup")
	for rel, content := range files {
		path := filepath.Join(srcRoot, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	_, err := backup.Run(context.Background(), backup.Options{SourceRoot: srcRoot, BackupRoot: bakRoot})
	require.NoError(t, err)
	return srcRoot, bakRoot, Options{SourceRoot: srcRoot, BackupRoot: bakRoot}
}

func findingsFor(r *Report, path string) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Path == path {
			out = append(out, f)
		}
	}
	return out
}

func TestRun_CleanAfterBackup(t *testing.T) {
	_, _, opts := backedUp(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})

	report, err := Run(opts)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 2, report.Verified)
}

func TestRun_CorruptedBackupCopy(t *testing.T) {
	_, bakRoot, opts := backedUp(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})

	// Flip the backup copy only; source and manifest stay intact.
	require.NoError(t, os.WriteFile(filepath.Join(bakRoot, "b.txt"), []byte("bXta"), 0o644))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.Verified, "untouched path still verifies")
	assert.Equal(t, 1, report.CorruptedBackup)
	assert.Equal(t, 0, report.CorruptedSource)

	fs := findingsFor(report, "b.txt")
	require.Len(t, fs, 1)
	assert.Equal(t, detect.CorruptedBackup, fs[0].Class)
	assert.Equal(t, "corrupted-backup", fs[0].Status)
}

func TestRun_CorruptedSourceCopy(t *testing.T) {
	srcRoot, _, opts := backedUp(t, map[string]string{"a.txt": "alpha"})
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.txt"), []byte("drift"), 0o644))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CorruptedSource)
	assert.Equal(t, 0, report.CorruptedBackup)
}

func TestRun_BothTreesDriftedIdentically(t *testing.T) {
	// Source and backup agree with each other but not with the manifest:
	// still corruption against the recorded baseline.
	srcRoot, bakRoot, opts := backedUp(t, map[string]string{"a.txt": "alpha"})
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.txt"), []byte("drift"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bakRoot, "a.txt"), []byte("drift"), 0o644))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.CorruptedSource)
	assert.Equal(t, 1, report.CorruptedBackup)
	assert.Equal(t, 0, report.Verified)
}

func TestRun_MissingFromSource(t *testing.T) {
	srcRoot, bakRoot, opts := backedUp(t, map[string]string{"gone.txt": "bye"})
	require.NoError(t, os.Remove(filepath.Join(srcRoot, "gone.txt")))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissingFromSource)
	assert.Equal(t, 0, report.MissingFromBackup)

	// Verify never deletes anything.
	_, err = os.Stat(filepath.Join(bakRoot, "gone.txt"))
	assert.NoError(t, err)
	m, err := manifest.Load(filepath.Join(bakRoot, manifest.DefaultName))
	require.NoError(t, err)
	_, tracked := m.Get("gone.txt")
	assert.True(t, tracked)
}

func TestRun_MissingFromBackup(t *testing.T) {
	_, bakRoot, opts := backedUp(t, map[string]string{"gone.txt": "bye"})
	require.NoError(t, os.Remove(filepath.Join(bakRoot, "gone.txt")))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissingFromBackup)
	assert.Equal(t, 0, report.MissingFromSource)
}

func TestRun_MissingFromBoth(t *testing.T) {
	srcRoot, bakRoot, opts := backedUp(t, map[string]string{"gone.txt": "bye"})
	require.NoError(t, os.Remove(filepath.Join(srcRoot, "gone.txt")))
	require.NoError(t, os.Remove(filepath.Join(bakRoot, "gone.txt")))

	report, err := Run(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MissingFromSource)
	assert.Equal(t, 1, report.MissingFromBackup)
	assert.Len(t, report.Findings, 2)
}

func TestRun_ReadOnly(t *testing.T) {
	_, bakRoot, opts := backedUp(t, map[string]string{"a.txt": "alpha"})
	manifestPath := filepath.Join(bakRoot, manifest.DefaultName)
	before, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	_, err = Run(opts)
	require.NoError(t, err)

	after, err := os.ReadFile(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "verify must not rewrite the manifest")
}

func TestRun_EmptyManifestIsClean(t *testing.T) {
	opts := Options{SourceRoot: t.TempDir(), BackupRoot: t.TempDir()}
	report, err := Run(opts)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Zero(t, report.Verified)
}

func TestRun_CorruptManifestIsFatal(t *testing.T) {
	bakRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bakRoot, manifest.DefaultName), []byte("not json"), 0o644))

	_, err := Run(Options{SourceRoot: t.TempDir(), BackupRoot: bakRoot})
	require.ErrorIs(t, err, manifest.ErrCorrupt)
}

func TestRun_UnreadableCopyIsNeverVerified(t *testing.T) {
	_, _, opts := backedUp(t, map[string]string{"a.txt": "alpha"})

	orig := hashFile
	hashFile = func(string) (string, error) { return "", os.ErrPermission }
	defer func() { hashFile = orig }()

	report, err := Run(opts)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Zero(t, report.Verified)
}
