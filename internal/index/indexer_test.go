package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

const exportJSON = `{
	"requesterUsername": "me",
	"requests": [
		{"message": {"text": "how do I sort a slice"}, "response": ["Use sort.Slice."], "timestamp": 1700000000000},
		{"message": {"text": "thanks"}, "response": ["You're welcome."]}
	]
}`

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeExport(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexAll(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeExport(t, root, "session.json", exportJSON)
	writeExport(t, root, filepath.Join("project", "debug.json"), exportJSON)

	stats, err := IndexAll(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Scanned != 2 || stats.Updated != 2 || stats.Errors != 0 {
		t.Errorf("stats = %s", stats)
	}

	chats, err := db.ChatCount()
	if err != nil {
		t.Fatal(err)
	}
	if chats != 2 {
		t.Errorf("ChatCount = %d", chats)
	}
	reqs, err := db.RequestCount()
	if err != nil {
		t.Fatal(err)
	}
	if reqs != 4 {
		t.Errorf("RequestCount = %d", reqs)
	}

	row, err := db.GetChatByKey("session")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil {
		t.Fatal("chat 'session' not indexed")
	}
	if row.Summary != "how do I sort a slice" {
		t.Errorf("Summary = %q", row.Summary)
	}
	if row.RequestCount != 2 {
		t.Errorf("RequestCount = %d", row.RequestCount)
	}
	if row.FirstTS != "2023-11-14T22:13:20Z" {
		t.Errorf("FirstTS = %q", row.FirstTS)
	}

	nested, err := db.GetChatByKey(filepath.Join("project", "debug"))
	if err != nil {
		t.Fatal(err)
	}
	if nested == nil {
		t.Error("nested chat key missing")
	}
}

func TestIndexAllSkipsUnchanged(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeExport(t, root, "a.json", exportJSON)

	if _, err := IndexAll(db, root); err != nil {
		t.Fatal(err)
	}
	stats, err := IndexAll(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 0 || stats.Skipped != 1 {
		t.Errorf("second run should skip: %s", stats)
	}
}

func TestIndexAllReindexesChanged(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	path := writeExport(t, root, "a.json", exportJSON)
	if _, err := IndexAll(db, root); err != nil {
		t.Fatal(err)
	}

	changed := `{"requests":[{"message":{"text":"new question"}}]}`
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	// size differs, so mtime granularity does not matter here
	stats, err := IndexAll(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Updated != 1 {
		t.Errorf("changed file not re-indexed: %s", stats)
	}

	row, err := db.GetChatByKey("a")
	if err != nil {
		t.Fatal(err)
	}
	if row.Summary != "new question" {
		t.Errorf("Summary = %q", row.Summary)
	}
	reqs, _ := db.RequestCount()
	if reqs != 1 {
		t.Errorf("stale requests left behind: %d", reqs)
	}
}

func TestIndexAllPrunesVanished(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	path := writeExport(t, root, "gone.json", exportJSON)
	if _, err := IndexAll(db, root); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	stats, err := IndexAll(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pruned != 1 {
		t.Errorf("vanished file not pruned: %s", stats)
	}
	chats, _ := db.ChatCount()
	if chats != 0 {
		t.Errorf("ChatCount = %d after prune", chats)
	}
}

func TestIndexAllCountsParseErrors(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	// passes the scan probe but fails to decode
	writeExport(t, root, "broken.json", `{"requests": "not an array"}`)

	stats, err := IndexAll(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Errors != 1 || stats.Updated != 0 {
		t.Errorf("stats = %s", stats)
	}
}

func TestFormatTS(t *testing.T) {
	if got := formatTS(0); got != "" {
		t.Errorf("formatTS(0) = %q", got)
	}
	ms := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli()
	if got := formatTS(ms); got != "2024-03-01T12:30:00Z" {
		t.Errorf("formatTS = %q", got)
	}
}

func TestChatKey(t *testing.T) {
	root := string(filepath.Separator) + "exports"
	tests := []struct {
		path string
		want string
	}{
		{filepath.Join(root, "a.json"), "a"},
		{filepath.Join(root, "sub", "b.json"), filepath.Join("sub", "b")},
	}
	for _, tt := range tests {
		if got := chatKey(tt.path, root); got != tt.want {
			t.Errorf("chatKey(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClipKeepsValidUTF8(t *testing.T) {
	// pad so a multi-byte rune straddles the byte limit
	s := strings.Repeat("a", maxTextSize-1) + "位置"
	got := clip(s)
	if len(got) > maxTextSize {
		t.Errorf("clip exceeded limit: %d bytes", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("clip split a rune mid-sequence")
	}
	if got != strings.Repeat("a", maxTextSize-1) {
		t.Errorf("unexpected cut point: trailing %q", got[len(got)-8:])
	}

	if clip("short") != "short" {
		t.Error("short strings must pass through")
	}
}

func TestChatSummaryTruncatesOnRunes(t *testing.T) {
	log := &chatlog.ChatLog{Requests: []chatlog.Request{
		{UserText: strings.Repeat("位", 300)},
	}}
	got := chatSummary(log)
	if !utf8.ValidString(got) {
		t.Error("summary split a rune mid-sequence")
	}
	if r := []rune(got); len(r) != 200 {
		t.Errorf("summary length = %d runes, want 200", len(r))
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Scanned: 5, Updated: 2, Skipped: 3, Pruned: 1, Errors: 0}
	want := "scanned=5 updated=2 skipped=3 pruned=1 errors=0"
	if got := s.String(); got != want {
		t.Errorf("got %q", got)
	}
}
