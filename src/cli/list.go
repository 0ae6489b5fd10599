package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dirbackup/src/manifest"
	"dirbackup/src/target"
)

func newListCmd(stdout, stderr io.Writer) *cobra.Command {
	var manifestPath, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the files tracked by the target's manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			tgtStr, _ := cmd.Flags().GetString("target")
			if tgtStr == "" {
				return errors.New("--target is required (e.g., dir:/path)")
			}
			tgt, err := target.Parse(tgtStr)
			if err != nil {
				return err
			}
			mPath := manifestPath
			if mPath == "" {
				mPath = filepath.Join(tgt.DirPath, manifest.DefaultName)
			}
			m, err := manifest.Load(mPath)
			if err != nil {
				return err
			}

			switch output {
			case "json":
				entries := make([]manifest.Entry, 0, m.Len())
				for _, p := range m.Paths() {
					e, _ := m.Get(p)
					entries = append(entries, e)
				}
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "table", "":
				return renderManifestTable(stdout, m)
			default:
				return fmt.Errorf("unsupported --output: %s", output)
			}
		},
	}
	cmd.Flags().String("target", "", "Backup target URI (e.g., dir:/path)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest file path (default: <target>/"+manifest.DefaultName+")")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table|json")
	return cmd
}

func renderManifestTable(w io.Writer, m *manifest.Manifest) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSIZE\tMTIME\tHASH")
	for _, p := range m.Paths() {
		e, _ := m.Get(p)
		mtime := time.Unix(0, e.Mtime).UTC().Format(time.RFC3339)
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", e.Path, e.Size, mtime, hash)
	}
	return tw.Flush()
}
