package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/config"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/index"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/markdown"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/search"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/tui"
)

func newSearchCmd() *cobra.Command {
	var (
		status string
		since  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search indexed chats",
		Long: `Full-text search over the indexed chats. Without a query all
chats are listed, newest first.

On a terminal this opens the interactive browser seeded with the
query; when piped it prints tab-separated results.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			run := func(q string) ([]search.Result, error) {
				opts := search.Options{Query: q, Status: status, Since: since, Limit: limit}
				if strings.TrimSpace(q) == "" {
					return search.ListAll(db, opts)
				}
				return search.Search(db, opts)
			}

			if !term.IsTerminal(int(os.Stdout.Fd())) {
				results, err := run(query)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Printf("%s\t%s\t%s\t%s\n",
						r.ChatKey, r.FirstTS, r.Status, oneLine(r.Snippet))
				}
				return nil
			}

			load := func(filter string) ([]tui.Item, error) {
				q := filter
				if q == "" {
					q = query
				}
				results, err := run(q)
				if err != nil {
					return nil, err
				}
				var items []tui.Item
				for _, r := range results {
					items = append(items, tui.Item{
						Title:    r.ChatKey,
						Date:     r.FirstTS,
						Sub:      oneLine(r.Snippet),
						Status:   r.Status,
						FilePath: r.FilePath,
					})
				}
				return items, nil
			}

			selected, err := tui.Run(load, markdown.Options{TOCWidth: cfg.TOCWidth})
			if err != nil {
				return err
			}
			if selected == nil {
				return nil
			}

			if err := clipboard.WriteAll(selected.FilePath); err != nil {
				fmt.Println(selected.FilePath)
			} else {
				fmt.Printf("%s (path copied to clipboard)\n", selected.FilePath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by request status (ok, canceled, error)")
	cmd.Flags().StringVar(&since, "since", "", "only chats on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results")

	return cmd
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}
