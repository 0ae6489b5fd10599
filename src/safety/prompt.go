// Package safety gates destructive operations behind an explicit
// confirmation, with flags to run non-interactively.
package safety

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Options carries the global safety flags.
type Options struct {
	// DryRun shows planned actions without making changes.
	DryRun bool
	// Yes answers prompts affirmatively without asking.
	Yes bool
	// Force skips extra guards on dangerous operations (implies Yes).
	Force bool
}

// Confirm prompts the user to confirm a destructive action.
//   - In dry-run mode it returns false with no error: nothing may change.
//   - With Yes or Force set it returns true without prompting.
//
// The caller decides what to do with the result.
func Confirm(opts Options, in io.Reader, out io.Writer, question string) (bool, error) {
	if opts.DryRun {
		return false, nil
	}
	if opts.Yes || opts.Force {
		return true, nil
	}
	if out != nil {
		fmt.Fprintf(out, "%s [y/N]: ", strings.TrimSpace(question))
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	ans := strings.TrimSpace(strings.ToLower(line))
	return ans == "y" || ans == "yes", nil
}
