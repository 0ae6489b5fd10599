package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dirbackup/src/backup"
	"dirbackup/src/manifest"
	"dirbackup/src/safety"
)

func newPruneCmd(stdout, stderr io.Writer) *cobra.Command {
	var source, manifestPath string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete backup copies of files that no longer exist in the source",
		Long: "Backup and verify runs only report files that vanished from the source;\n" +
			"prune is the explicit, confirmed step that removes their backup copies\n" +
			"and manifest entries.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, src, mPath, err := resolveRoots(cmd, source, manifestPath)
			if err != nil {
				return err
			}
			opts := backup.PruneOptions{
				SourceRoot:   src,
				BackupRoot:   tgt.DirPath,
				ManifestPath: mPath,
				Out:          stdout,
			}

			candidates, err := backup.PruneCandidates(opts)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(stdout, "nothing to prune")
				return nil
			}

			safetyOpts := getSafetyOptions(cmd)
			if safetyOpts.DryRun {
				for _, p := range candidates {
					fmt.Fprintf(stdout, "would remove %s\n", p)
				}
				return nil
			}

			question := fmt.Sprintf("Delete %d backup file(s) and their manifest entries?", len(candidates))
			ok, err := safety.Confirm(safetyOpts, cmd.InOrStdin(), stdout, question)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "aborted")
				return nil
			}

			result, err := backup.Prune(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "removed %d file(s)\n", len(result.Removed))
			for _, f := range result.Failures {
				fmt.Fprintf(stderr, "failed: %s: %v\n", f.Path, f.Err)
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d file(s) failed to prune", len(result.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source directory the backup was taken from")
	cmd.Flags().String("target", "", "Backup target URI (e.g., dir:/path)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file path (default: <target>/"+manifest.DefaultName+")")
	return cmd
}
