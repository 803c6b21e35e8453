package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/collapse"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/config"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/markdown"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/scan"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	var (
		root        string
		outDir      string
		collapsible bool
	)

	cmd := &cobra.Command{
		Use:   "browse [dir]",
		Short: "Interactively browse and convert chat exports",
		Long: `Open an interactive browser over the chat exports under a
directory (the configured chat root by default). The right panel
previews the rendered markdown; Enter converts the selected chat and
copies the output path to the clipboard.`,
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
			if outDir == "" {
				outDir = cfg.OutDir
			}
			opts := markdown.Options{TOCWidth: cfg.TOCWidth}

			load := func(filter string) ([]tui.Item, error) {
				files, err := scan.ScanRoot(root)
				if err != nil {
					return nil, err
				}
				var items []tui.Item
				for _, f := range files {
					rel, err := filepath.Rel(root, f.Path)
					if err != nil {
						rel = f.Path
					}
					if filter != "" && !strings.Contains(strings.ToLower(rel), strings.ToLower(filter)) {
						continue
					}
					items = append(items, tui.Item{
						Title:    strings.TrimSuffix(filepath.Base(f.Path), ".json"),
						Date:     time.Unix(f.Mtime, 0).Format("2006-01-02"),
						Sub:      rel,
						FilePath: f.Path,
					})
				}
				return items, nil
			}

			selected, err := tui.Run(load, opts)
			if err != nil {
				return err
			}
			if selected == nil {
				return nil
			}

			log, err := chatlog.Load(selected.FilePath)
			if err != nil {
				return err
			}
			doc := markdown.RenderChat(log, opts)
			if collapsible {
				doc = collapse.Rewrite(doc)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			out := outputPath(selected.FilePath, outDir)
			if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("Converted %s -> %s (%d requests)\n", selected.FilePath, out, len(log.Requests))

			if err := clipboard.WriteAll(out); err != nil {
				fmt.Fprintf(os.Stderr, "Clipboard unavailable, output path: %s\n", out)
			} else {
				fmt.Println("Output path copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "output directory for converted files")
	cmd.Flags().BoolVar(&collapsible, "collapsible", false, "wrap each request in a collapsible section")

	return cmd
}
