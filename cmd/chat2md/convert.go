package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/collapse"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/config"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/markdown"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/scan"
)

func newConvertCmd() *cobra.Command {
	var (
		combine     bool
		separate    bool
		outPath     string
		title       string
		tocWidth    int
		collapsible bool
	)

	cmd := &cobra.Command{
		Use:   "convert [file|dir ...]",
		Short: "Convert chat exports to markdown",
		Long: `Convert one or more chat export files to markdown. Directories
expand to the export files inside them.

By default each input becomes a sibling .md file. With --combine all
inputs merge into a single document ordered by first timestamp; with
--separate each output lands in the directory given by --out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if combine && separate {
				return fmt.Errorf("--combine and --separate are mutually exclusive")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if tocWidth == 0 {
				tocWidth = cfg.TOCWidth
			}
			opts := markdown.Options{Title: title, TOCWidth: tocWidth}

			files, skipped, err := scan.Expand(args)
			if err != nil {
				return err
			}
			for _, s := range skipped {
				fmt.Fprintf(os.Stderr, "Warning: skipping %s (not a .json file)\n", s)
			}
			if len(files) == 0 {
				return fmt.Errorf("no chat export files found")
			}

			if combine {
				return convertCombined(files, outPath, opts, collapsible)
			}

			outDir := ""
			if separate {
				outDir = outPath
				if outDir == "" {
					outDir = cfg.OutDir
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
			return convertEach(files, outDir, opts, collapsible)
		},
	}

	cmd.Flags().BoolVar(&combine, "combine", false, "merge all inputs into one document")
	cmd.Flags().BoolVar(&separate, "separate", false, "write one document per input into --out")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (--combine) or directory (--separate)")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().IntVar(&tocWidth, "toc-width", 0, "table of contents preview width")
	cmd.Flags().BoolVar(&collapsible, "collapsible", false, "wrap each request in a collapsible section")

	return cmd
}

func convertEach(files []string, outDir string, opts markdown.Options, collapsible bool) error {
	var failed int
	for _, f := range files {
		log, err := chatlog.Load(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", f, err)
			failed++
			continue
		}

		doc := markdown.RenderChat(log, opts)
		if collapsible {
			doc = collapse.Rewrite(doc)
		}

		out := outputPath(f, outDir)
		if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Printf("Converted %s -> %s (%d requests)\n", f, out, len(log.Requests))
	}
	if failed == len(files) {
		return fmt.Errorf("no input could be converted")
	}
	return nil
}

func convertCombined(files []string, outPath string, opts markdown.Options, collapsible bool) error {
	var logs []*chatlog.ChatLog
	for _, f := range files {
		log, err := chatlog.Load(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", f, err)
			continue
		}
		logs = append(logs, log)
	}
	if len(logs) == 0 {
		return fmt.Errorf("no input could be converted")
	}

	for _, log := range logs {
		if log.FirstTimestamp() == 0 {
			fmt.Fprintf(os.Stderr, "Warning: %s has no timestamps, sorting it last\n", log.FilePath)
		}
	}

	doc := markdown.RenderCombined(logs, opts)
	if collapsible {
		doc = collapse.Rewrite(doc)
	}

	if outPath == "" {
		outPath = "combined_chat_log.md"
	}
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("Combined %d chats -> %s\n", len(logs), outPath)
	return nil
}

// outputPath maps in.json to in.md, either as a sibling or inside dir.
func outputPath(in, dir string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".md"
	if dir == "" {
		return filepath.Join(filepath.Dir(in), base)
	}
	return filepath.Join(dir, base)
}
