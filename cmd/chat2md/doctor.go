package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/config"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/index"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/scan"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, chat root and index health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Println("Config:")
			fmt.Printf("  chat_root: %s\n", cfg.ChatRoot)
			fmt.Printf("  out_dir:   %s\n", cfg.OutDir)
			fmt.Printf("  db_path:   %s\n", cfg.DBPath)
			fmt.Printf("  toc_width: %d\n", cfg.TOCWidth)

			fmt.Println("Chat root:")
			if info, err := os.Stat(cfg.ChatRoot); err != nil {
				fmt.Printf("  MISSING: %v\n", err)
			} else if !info.IsDir() {
				fmt.Printf("  NOT A DIRECTORY: %s\n", cfg.ChatRoot)
			} else {
				files, err := scan.ScanRoot(cfg.ChatRoot)
				if err != nil {
					fmt.Printf("  scan error: %v\n", err)
				} else {
					fmt.Printf("  ok, %d chat exports\n", len(files))
				}
			}

			fmt.Println("Index:")
			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				fmt.Printf("  open error: %v\n", err)
				return nil
			}
			defer db.Close()

			chats, err := db.ChatCount()
			if err != nil {
				fmt.Printf("  chats: error: %v\n", err)
			} else {
				fmt.Printf("  chats: %d\n", chats)
			}
			reqs, err := db.RequestCount()
			if err != nil {
				fmt.Printf("  requests: error: %v\n", err)
			} else {
				fmt.Printf("  requests: %d\n", reqs)
			}

			var ftsRows int
			if err := db.Raw().QueryRow("SELECT COUNT(*) FROM requests_fts").Scan(&ftsRows); err != nil {
				fmt.Printf("  fts: error: %v\n", err)
			} else if ftsRows != reqs {
				fmt.Printf("  fts: OUT OF SYNC (%d rows vs %d requests), run 'chat2md index'\n", ftsRows, reqs)
			} else {
				fmt.Printf("  fts: in sync (%d rows)\n", ftsRows)
			}

			return nil
		},
	}
}
