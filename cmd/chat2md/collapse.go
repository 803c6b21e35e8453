package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/collapse"
)

func newCollapseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <file.md ...>",
		Short: "Rewrite converted documents with collapsible requests",
		Long: `Rewrite already-converted markdown files in place so that each
request section folds into an open <details> block. A .bak copy of the
original is written alongside each file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range args {
				if err := collapse.RewriteFile(f); err != nil {
					return fmt.Errorf("%s: %w", f, err)
				}
				fmt.Printf("Rewrote %s (backup at %s.bak)\n", f, f)
			}
			return nil
		},
	}
}
