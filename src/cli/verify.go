package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dirbackup/src/manifest"
	"dirbackup/src/verify"
)

func newVerifyCmd(stdout, stderr io.Writer) *cobra.Command {
	var source, manifestPath, output string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash source and backup copies and check both against the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgt, src, mPath, err := resolveRoots(cmd, source, manifestPath)
			if err != nil {
				return err
			}

			report, err := verify.Run(verify.Options{
				SourceRoot:   src,
				BackupRoot:   tgt.DirPath,
				ManifestPath: mPath,
			})
			if err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case "table", "":
				renderVerifyReport(stdout, report)
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}

			if !report.Clean() {
				return fmt.Errorf("verification found %d problem(s)", len(report.Findings))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source directory the backup was taken from")
	cmd.Flags().String("target", "", "Backup target URI (e.g., dir:/path)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file path (default: <target>/"+manifest.DefaultName+")")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func renderVerifyReport(out io.Writer, r *verify.Report) {
	if len(r.Findings) > 0 {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "PATH\tSTATUS\tDETAIL")
		for _, f := range r.Findings {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Path, f.Status, f.Detail)
		}
		tw.Flush()
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "verified %d, missing from source %d, missing from backup %d, corrupted source %d, corrupted backup %d\n",
		r.Verified, r.MissingFromSource, r.MissingFromBackup, r.CorruptedSource, r.CorruptedBackup)
}
