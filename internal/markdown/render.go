package markdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

// docBuilder accumulates markdown blocks and joins them once at the
// end. A block never carries leading or trailing blank lines; blocks
// are separated by exactly one blank line in the output.
type docBuilder struct {
	blocks []string
}

func (d *docBuilder) add(block string) {
	block = strings.Trim(block, "\n")
	if block == "" {
		return
	}
	d.blocks = append(d.blocks, block)
}

func (d *docBuilder) String() string {
	return strings.Join(d.blocks, "\n\n") + "\n"
}

// requestContext carries the numbering and navigation facts a request
// section needs: the display heading, the global anchor number, and
// whether neighbors exist.
type requestContext struct {
	Heading      string // "Request 2" or "Chat 1 - Request 3"
	HeadingLevel string // "##" single-log, "###" combined
	Anchor       int    // global request number, dense from 1
	HasPrev      bool
	HasNext      bool
}

// renderRequest emits one request section into the builder:
// header (anchor, heading, nav, status marker), optional timestamp,
// optional user section, assistant section, optional timing and model.
func renderRequest(d *docBuilder, req chatlog.Request, ctx requestContext) {
	d.add(requestHeader(req, ctx))

	if req.TimestampMs != 0 {
		d.add("**Timestamp:** " + formatTimestamp(req.TimestampMs))
	}

	if user := formatMessageText(req.UserText); user != "" {
		d.add("### User\n\n" + user)
	}

	d.add("### Assistant")
	if refs := formatReferences(req.References); refs != "" {
		d.add(refs)
	}
	if body := renderResponseBody(req); body != "" {
		d.add(body)
	}
	if errBox := formatErrorBox(req.ErrorMsg); errBox != "" {
		d.add(errBox)
	}

	if req.HasElapsed {
		d.add(fmt.Sprintf("*Response time: %.2f seconds*", req.ElapsedMs/1000))
	}
	if info := modelInfo(req); info != "" {
		d.add("*Model: " + info + "*")
	}
}

// modelInfo combines the model id with the request details field when
// the details add anything beyond the id itself.
func modelInfo(req chatlog.Request) string {
	parts := make([]string, 0, 2)
	if req.Model != "" {
		parts = append(parts, req.Model)
	}
	if req.Details != "" && req.Details != req.Model {
		parts = append(parts, req.Details)
	}
	return strings.Join(parts, " • ")
}

func requestHeader(req chatlog.Request, ctx requestContext) string {
	nav := []string{"[^](#table-of-contents)"}
	if ctx.HasPrev {
		nav = append(nav, fmt.Sprintf("[<](#request-%d)", ctx.Anchor-1))
	}
	if ctx.HasNext {
		nav = append(nav, fmt.Sprintf("[>](#request-%d)", ctx.Anchor+1))
	}

	lines := []string{
		fmt.Sprintf(`<a name="request-%d"></a>`, ctx.Anchor),
		fmt.Sprintf("%s %s %s", ctx.HeadingLevel, ctx.Heading, strings.Join(nav, " ")),
	}
	switch req.Status {
	case chatlog.StatusCanceled:
		lines = append(lines, "**CANCELED**")
	case chatlog.StatusError:
		lines = append(lines, "**ERROR**")
	}
	return strings.Join(lines, "\n")
}

// renderResponseBody formats the assistant response. Plain responses
// prefer the consolidated per-round text from the request metadata;
// responses carrying tool or edit blocks render the incremental parts
// in order, since only those hold the block payloads. Either way the
// result is fence-balanced and blank-collapsed; an all-empty response
// yields "".
func renderResponseBody(req chatlog.Request) string {
	parts := req.Response
	if !hasBlockParts(parts) && len(req.RoundResponses) > 0 {
		return collapseBlankLines(BalanceFences(strings.Join(req.RoundResponses, "\n")))
	}

	type frag struct {
		text  string
		block bool // details blocks get blank-line separation
	}
	var frags []frag
	for _, p := range parts {
		switch p.Kind {
		case chatlog.PartText, chatlog.PartInlineReference:
			if usable(p.Text) {
				frags = append(frags, frag{text: p.Text})
			}
		case chatlog.PartProgressTask:
			if line := formatProgress(p); line != "" {
				frags = append(frags, frag{text: line})
			}
		case chatlog.PartToolInvocation:
			if b := formatToolInvocation(p); b != "" {
				frags = append(frags, frag{text: b, block: true})
			}
		case chatlog.PartTextEditGroup:
			if b := formatEditGroup(p.Edit); b != "" {
				frags = append(frags, frag{text: b, block: true})
			}
		}
		// PartPrepareTool and PartUnrecognized contribute nothing
	}
	if len(frags) == 0 {
		return ""
	}

	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			if f.block || frags[i-1].block {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(f.text)
	}
	return collapseBlankLines(BalanceFences(b.String()))
}

func hasBlockParts(parts []chatlog.ResponsePart) bool {
	for _, p := range parts {
		if p.Kind == chatlog.PartToolInvocation || p.Kind == chatlog.PartTextEditGroup {
			return true
		}
	}
	return false
}

// formatMessageText normalizes user message text: literal \n\n escape
// sequences from some exports become real breaks, fences get balanced,
// and blank runs collapse.
func formatMessageText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = strings.ReplaceAll(text, `\n\n`, "\n\n")
	return collapseBlankLines(BalanceFences(text))
}

// collapseBlankLines trims trailing space per line, allows at most one
// blank line in a row, and strips leading/trailing blanks.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	prevBlank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		blank := line == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, line)
		prevBlank = blank
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// AddDetailsSpacing inserts a <br /> after </details> blocks that are
// followed by regular content; without it most renderers glue the next
// paragraph onto the collapsed block.
func AddDetailsSpacing(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	for i, line := range lines {
		out = append(out, line)
		if strings.TrimSpace(line) != "</details>" {
			continue
		}
		next := i + 1
		for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		if next < len(lines) {
			n := strings.TrimSpace(lines[next])
			if n != "" && !strings.HasPrefix(n, "<details") {
				out = append(out, "<br />")
			}
		}
	}
	return strings.Join(out, "\n")
}
