package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dirbackup/src/logging"
)

// NewRootCmd returns the root cobra command for the dirbackup CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirbackup",
		Short: "Incrementally back up a directory tree and verify its integrity",
		Long: "dirbackup mirrors a source directory into a backup directory and keeps\n" +
			"a manifest of content hashes, so changed files are detected by digest\n" +
			"rather than timestamp and both trees can later be verified against the\n" +
			"recorded state.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logFile, _ := cmd.Root().PersistentFlags().GetString("log-file")
			verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
			logging.Init(logFile, verbose)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newBackupCmd(stdout, stderr))
	cmd.AddCommand(newVerifyCmd(stdout, stderr))
	cmd.AddCommand(newListCmd(stdout, stderr))
	cmd.AddCommand(newPruneCmd(stdout, stderr))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio and returns the exit code.
func Execute() int {
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
