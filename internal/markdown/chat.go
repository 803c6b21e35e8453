package markdown

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

const (
	defaultTitle    = "GitHub Copilot Chat Log"
	defaultTOCWidth = 80
)

// Options control document-level rendering.
type Options struct {
	Title    string // document title; default "GitHub Copilot Chat Log"
	TOCWidth int    // TOC preview truncation width in columns; default 80
}

func (o Options) title() string {
	if o.Title != "" {
		return o.Title
	}
	return defaultTitle
}

func (o Options) tocWidth() int {
	if o.TOCWidth > 0 {
		return o.TOCWidth
	}
	return defaultTOCWidth
}

// RenderChat produces the complete markdown document for one chat log:
// header, table of contents, then one section per request with
// prev/next/index navigation.
func RenderChat(log *chatlog.ChatLog, opts Options) string {
	var d docBuilder

	d.add("# " + opts.title())
	d.add(fmt.Sprintf("**Participant:** %s\n<br>**Assistant:** %s", log.Requester, log.Responder))

	d.add("<a name=\"table-of-contents\"></a>\n## Table of Contents")
	if len(log.Requests) > 0 {
		var entries []string
		for i, req := range log.Requests {
			n := i + 1
			entries = append(entries, fmt.Sprintf("- [Request %d](#request-%d): %s",
				n, n, tocPreview(req.UserText, opts.tocWidth())))
		}
		d.add(strings.Join(entries, "\n"))
	}

	for i, req := range log.Requests {
		d.add("---")
		renderRequest(&d, req, requestContext{
			Heading:      fmt.Sprintf("Request %d", i+1),
			HeadingLevel: "##",
			Anchor:       i + 1,
			HasPrev:      i > 0,
			HasNext:      i < len(log.Requests)-1,
		})
	}

	return AddDetailsSpacing(d.String())
}

// tocPreview returns the first line of the user message, truncated to
// width columns with an ellipsis so the TOC stays scannable.
func tocPreview(userText string, width int) string {
	line := userText
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "[No message content]"
	}
	if runewidth.StringWidth(line) > width {
		line = runewidth.Truncate(line, width, "...")
	}
	return line
}
