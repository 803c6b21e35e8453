package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/markdown"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/scan"
)

// maxTextSize caps the text stored per request column for FTS.
const maxTextSize = 8 * 1024

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// IndexAll scans root for chat exports and brings the database up to
// date: new and changed files are re-indexed, vanished ones pruned.
func IndexAll(db *DB, root string) (Stats, error) {
	var stats Stats

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which files we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		key := chatKey(fi.Path, root)
		seenKeys[key] = struct{}{}

		needs, err := needsUpdate(db, key, fi.Mtime, fi.Size)
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		log, err := chatlog.Load(fi.Path)
		if err != nil {
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: parse %s: %v\n", fi.Path, err)
			continue
		}

		if err := indexChat(db, key, fi, log); err != nil {
			stats.Errors++
			fmt.Fprintf(os.Stderr, "  WARN: index %s: %v\n", fi.Path, err)
			continue
		}
		stats.Updated++
	}

	pruned, err := pruneChats(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func chatKey(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return strings.TrimSuffix(rel, ".json")
}

func needsUpdate(db *DB, chatKey string, mtime, size int64) (bool, error) {
	info, err := db.GetChatInfo(chatKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new chat
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func indexChat(db *DB, key string, fi scan.FileInfo, log *chatlog.ChatLog) error {
	// delete old data first
	if err := db.DeleteChat(key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO chats (chat_key, file_path, requester, responder, first_ts, summary, request_count, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		fi.Path,
		log.Requester,
		log.Responder,
		formatTS(log.FirstTimestamp()),
		chatSummary(log),
		len(log.Requests),
		fi.Mtime,
		fi.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO requests (chat_key, request_id, ts, model, status, user_text, response_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, req := range log.Requests {
		_, err := stmt.Exec(
			key,
			i+1,
			formatTS(req.TimestampMs),
			req.Model,
			req.Status.String(),
			clip(req.UserText),
			clip(markdown.JoinParts(req.Response)),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func formatTS(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05Z")
}

func chatSummary(log *chatlog.ChatLog) string {
	for _, req := range log.Requests {
		s := strings.TrimSpace(req.UserText)
		if s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "\n", " ")
		if r := []rune(s); len(r) > 200 {
			s = string(r[:200])
		}
		return s
	}
	return ""
}

// clip truncates to at most maxTextSize bytes on a rune boundary, so
// the FTS columns never hold a split UTF-8 sequence.
func clip(s string) string {
	if len(s) <= maxTextSize {
		return s
	}
	cut := maxTextSize
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func pruneChats(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllChatKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteChat(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
