package search

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/index"
)

type Result struct {
	ChatKey   string
	RequestID int
	FilePath  string
	FirstTS   string
	Status    string
	Summary   string
	Snippet   string
	Rank      float64
}

type Options struct {
	Query  string
	Status string // "" = all, "ok", "canceled", "error"
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query
// in text, case-insensitively. The byte offset of the match is only
// valid in the folded string, where lowercasing may have changed rune
// byte widths; rune offsets line up across both because ToLower maps
// runes one to one, so the position is carried over as a rune count.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	runePos := utf8.RuneCountInString(lower[:idx])
	matchEnd := runePos + utf8.RuneCountInString(qLower)
	if matchEnd > len(runes) {
		matchEnd = len(runes)
	}
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := matchEnd + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:matchEnd]) + "<<<" +
		string(runes[matchEnd:end])
	return prefix + snippet + suffix
}

// Search runs a full-text query over indexed requests, deduplicated to
// the best hit per chat. FTS5 cannot tokenize CJK substrings, so those
// queries fall back to LIKE.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ChatKey] {
			continue
		}
		seen[r.ChatKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filterConditions(opts Options) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	if opts.Status != "" {
		conditions = append(conditions, "r.status = ?")
		args = append(args, opts.Status)
	}
	if opts.Since != "" {
		conditions = append(conditions, "c.first_ts >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"requests_fts MATCH ?"}
	args := []interface{}{opts.Query}

	fc, fa := filterConditions(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			r.chat_key,
			r.request_id,
			c.file_path,
			c.first_ts,
			r.status,
			c.summary,
			snippet(requests_fts, 1, '>>>', '<<<', '...', 40) as snip,
			bm25(requests_fts, 1.0, 1.0) as rank
		FROM requests_fts
		JOIN requests r ON requests_fts.rowid = r.rowid
		JOIN chats c ON r.chat_key = c.chat_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ChatKey, &r.RequestID, &r.FilePath, &r.FirstTS,
			&r.Status, &r.Summary, &r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"(r.user_text LIKE ? OR r.response_text LIKE ?)"}
	pattern := "%" + opts.Query + "%"
	args := []interface{}{pattern, pattern}

	fc, fa := filterConditions(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			r.chat_key,
			r.request_id,
			c.file_path,
			c.first_ts,
			r.status,
			c.summary,
			r.user_text,
			r.response_text
		FROM requests r
		JOIN chats c ON r.chat_key = c.chat_key
		WHERE %s
		ORDER BY c.first_ts DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var userText, responseText string
		if err := rows.Scan(
			&r.ChatKey, &r.RequestID, &r.FilePath, &r.FirstTS,
			&r.Status, &r.Summary, &userText, &responseText,
		); err != nil {
			return nil, err
		}
		// snippet from whichever column actually matched
		source := responseText
		if !strings.Contains(strings.ToLower(responseText), strings.ToLower(opts.Query)) {
			source = userText
		}
		r.Snippet = makeSnippet(source, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns all indexed chats sorted by first timestamp, newest
// first, with the chat summary standing in for the snippet.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}

	var conditions []string
	var args []interface{}
	if opts.Since != "" {
		conditions = append(conditions, "c.first_ts >= ?")
		args = append(args, opts.Since)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT c.chat_key, c.file_path, c.first_ts, c.summary, c.request_count
		FROM chats c
		%s
		ORDER BY c.first_ts DESC
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var count int
		if err := rows.Scan(&r.ChatKey, &r.FilePath, &r.FirstTS, &r.Summary, &count); err != nil {
			return nil, err
		}
		r.RequestID = -1
		r.Snippet = fmt.Sprintf("%d requests", count)
		results = append(results, r)
	}
	return results, rows.Err()
}
