// chat2md converts GitHub Copilot chat session exports (JSON) into
// readable markdown documents, and keeps a small full-text index over
// them for browsing and search.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

func main() {
	root := &cobra.Command{
		Use:     "chat2md",
		Short:   "Convert Copilot chat exports to markdown",
		Version: version,
		Long: `chat2md turns GitHub Copilot chat session exports into markdown
documents with a table of contents, per-request navigation and
collapsible tool call details.

Point it at one or more exported .json files (or a directory of them)
and it writes .md files next to them, merged, or per file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newConvertCmd())
	root.AddCommand(newCollapseCmd())
	root.AddCommand(newBrowseCmd())
	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newDoctorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
