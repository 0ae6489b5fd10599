package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dirbackup/src/backup"
	"dirbackup/src/detect"
	"dirbackup/src/manifest"
	"dirbackup/src/scan"
	"dirbackup/src/target"
)

func newBackupCmd(stdout, stderr io.Writer) *cobra.Command {
	var source, manifestPath string
	var showProgress bool
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Copy new and modified files from the source into the backup target",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, src, mPath, err := resolveRoots(cmd, source, manifestPath)
			if err != nil {
				return err
			}

			if getSafetyOptions(cmd).DryRun {
				return printBackupPlan(stdout, src, tgt.DirPath, mPath)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			var progress io.Writer
			if showProgress {
				progress = stdout
			}
			summary, err := backup.Run(ctx, backup.Options{
				SourceRoot:   src,
				BackupRoot:   tgt.DirPath,
				ManifestPath: mPath,
				Out:          stdout,
				Progress:     progress,
			})
			if err != nil {
				return err
			}

			printBackupSummary(stdout, summary)
			for _, f := range summary.Failures {
				fmt.Fprintf(stderr, "failed: %s: %v\n", f.Path, f.Err)
			}
			if n := summary.Failed(); n > 0 {
				return fmt.Errorf("%d file(s) failed to back up", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source directory to back up")
	cmd.Flags().String("target", "", "Backup target URI (e.g., dir:/path)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file path (default: <target>/"+manifest.DefaultName+")")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show in-file progress for large copies")
	return cmd
}

// resolveRoots validates the common --source/--target/--manifest flags.
func resolveRoots(cmd *cobra.Command, source, manifestPath string) (target.Target, string, string, error) {
	tgtStr, _ := cmd.Flags().GetString("target")
	if tgtStr == "" {
		return target.Target{}, "", "", errors.New("--target is required (e.g., dir:/path)")
	}
	tgt, err := target.Parse(tgtStr)
	if err != nil {
		return target.Target{}, "", "", err
	}
	if source == "" {
		return target.Target{}, "", "", errors.New("--source is required")
	}
	info, err := os.Stat(source)
	if err != nil {
		return target.Target{}, "", "", fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return target.Target{}, "", "", fmt.Errorf("source is not a directory: %s", source)
	}
	return tgt, source, manifestPath, nil
}

// printBackupPlan classifies without copying and prints what a real run
// would do.
func printBackupPlan(out io.Writer, srcRoot, backupRoot, manifestPath string) error {
	if manifestPath == "" {
		manifestPath = filepath.Join(backupRoot, manifest.DefaultName)
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	srcScan, err := scan.Tree(srcRoot, manifestPath)
	if err != nil {
		return fmt.Errorf("scan source: %w", err)
	}
	for _, d := range detect.Changes(srcScan, m, srcRoot) {
		switch d.Class {
		case detect.New, detect.Modified:
			fmt.Fprintf(out, "would copy %s (%s)\n", d.Path, d.Class)
		case detect.MissingFromSource:
			fmt.Fprintf(out, "missing from source: %s\n", d.Path)
		case detect.Unchanged, detect.MissingFromBackup,
			detect.CorruptedSource, detect.CorruptedBackup:
		}
	}
	return nil
}

func printBackupSummary(out io.Writer, s *backup.Summary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Backup summary:")
	fmt.Fprintf(tw, "  new\t%d\n", s.New)
	fmt.Fprintf(tw, "  modified\t%d\n", s.Modified)
	fmt.Fprintf(tw, "  unchanged\t%d\n", s.Unchanged)
	fmt.Fprintf(tw, "  missing from source\t%d\n", s.MissingFromSource)
	fmt.Fprintf(tw, "  failed\t%d\n", s.Failed())
	fmt.Fprintf(tw, "  elapsed\t%s\n", s.Elapsed.Round(10*time.Millisecond))
	tw.Flush()
}
