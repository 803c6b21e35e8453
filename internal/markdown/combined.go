package markdown

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

// RenderCombined merges multiple chat logs into one document. Logs are
// sorted ascending by the timestamp of their first request (logs with
// no timestamp sort last, ties keep input order), labeled "Chat K" in
// sorted order, and numbered with one dense global request sequence so
// every anchor and navigation link resolves within the document.
func RenderCombined(logs []*chatlog.ChatLog, opts Options) string {
	type entry struct {
		log   *chatlog.ChatLog
		name  string
		order int
		ts    int64
	}

	entries := make([]entry, 0, len(logs))
	for i, log := range logs {
		name := strings.TrimSuffix(filepath.Base(log.FilePath), filepath.Ext(log.FilePath))
		if name == "" || name == "." {
			name = fmt.Sprintf("chat-%d", i+1)
		}
		entries = append(entries, entry{log: log, name: name, order: i, ts: log.FirstTimestamp()})
	}

	// explicit tie-break on input order keeps output deterministic
	// regardless of the sort algorithm's stability guarantees
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.ts == 0) != (b.ts == 0) {
			return b.ts == 0
		}
		if a.ts != b.ts {
			return a.ts < b.ts
		}
		return a.order < b.order
	})

	total := 0
	for _, e := range entries {
		total += len(e.log.Requests)
	}

	title := opts.Title
	if title == "" {
		title = defaultTitle + " (Combined)"
	}

	var d docBuilder
	d.add("# " + title)
	if len(entries) > 0 {
		d.add(fmt.Sprintf("**Participant:** %s\n<br>**Assistant:** %s",
			entries[0].log.Requester, entries[0].log.Responder))
	}

	d.add("<a name=\"table-of-contents\"></a>\n## Table of Contents")
	global := 0
	for k, e := range entries {
		d.add(fmt.Sprintf("### [Chat %d: %s](#chat-%d)", k+1, escapeBrackets(e.name), k+1))
		var items []string
		for m := range e.log.Requests {
			global++
			items = append(items, fmt.Sprintf("- [Request %d](#request-%d): %s",
				m+1, global, tocPreview(e.log.Requests[m].UserText, opts.tocWidth())))
		}
		if len(items) > 0 {
			d.add(strings.Join(items, "\n"))
		}
	}

	global = 0
	for k, e := range entries {
		for m, req := range e.log.Requests {
			global++
			d.add("---")
			if m == 0 {
				d.add(fmt.Sprintf("<a name=\"chat-%d\"></a>\n## Chat %d: %s",
					k+1, k+1, escapeBrackets(e.name)))
			}
			renderRequest(&d, req, requestContext{
				Heading:      fmt.Sprintf("Chat %d - Request %d", k+1, m+1),
				HeadingLevel: "###",
				Anchor:       global,
				HasPrev:      global > 1,
				HasNext:      global < total,
			})
		}
	}

	return AddDetailsSpacing(d.String())
}

func escapeBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", `\[`)
	return strings.ReplaceAll(s, "]", `\]`)
}
