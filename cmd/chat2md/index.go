package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/config"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/index"
)

func newIndexCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Build or refresh the full-text index",
		Long: `Scan the chat root for exports and bring the search index up to
date. Unchanged files are skipped, vanished ones pruned.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				root = args[0]
			}
			if root == "" {
				root = cfg.ChatRoot
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := index.IndexAll(db, root)
			fmt.Fprintln(os.Stderr, stats.String())
			return err
		},
	}

	return cmd
}
