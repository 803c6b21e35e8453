package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

const (
	glyphProgress = "✔️"
	glyphFile     = "📄"
	glyphSetting  = "⚙️"
	glyphPrompt   = "☰"
	glyphEdit     = "🛠️"
	glyphError    = "🚫"
)

// fileLinkRe matches the empty-label file links VS Code embeds in
// invocation messages, e.g. [](file:///a/b.go#1-10).
var fileLinkRe = regexp.MustCompile(`\[\]\(file://([^)#]+)(#[^)]*)?\)`)

// fileHeaderRe matches the "File: path. Lines X to Y ...: ```lang"
// header that read_file results open with; the header's own fence
// would collide with the wrapping one, so it gets stripped.
var fileHeaderRe = regexp.MustCompile("^File:.*?Lines [0-9]+ to [0-9]+.*?:\\s*(`+)([A-Za-z0-9]+)[ \t]*\n")

// fileExtRe pulls a file extension out of a raw invocation message for
// syntax highlighting of unfenced result content.
var fileExtRe = regexp.MustCompile(`\.\w+`)

// cleanInvocationMessage rewrites raw invocation messages into a short
// human-readable action line.
func cleanInvocationMessage(msg string) string {
	if m := fileLinkRe.FindStringSubmatchIndex(msg); m != nil {
		filePath := msg[m[2]:m[3]]
		fragment := ""
		if m[4] >= 0 {
			fragment = msg[m[4]:m[5]]
		}
		display := path.Base(filePath) + fragment
		rest := strings.TrimRight(msg[m[1]:], " ")
		if strings.TrimSpace(rest) != "" {
			msg = "Read **" + display + "**" + rest
		} else {
			msg = "Read **" + display + "**"
		}
	}
	return strings.ReplaceAll(msg, "Reading ", "Read ")
}

// formatToolInvocation renders a tool call as a collapsible block with
// a one-line action summary. A matched tool call result embeds the
// actual content; otherwise the resultDetails input/output fallback is
// shown. Payloads are wrapped in a fence longer than any backtick run
// they contain so nested fences cannot toggle the outer document.
// Without any payload it degrades to a plain italic line.
func formatToolInvocation(p chatlog.ResponsePart) string {
	tool := p.Tool
	rawMsg := ""
	if tool != nil {
		rawMsg = tool.Message
		if rawMsg == "" {
			rawMsg = tool.PastTense
		}
	}
	if rawMsg == "" {
		rawMsg = p.Text
	}
	if rawMsg == "" {
		rawMsg = "Ran tool"
	}
	msg := cleanInvocationMessage(rawMsg)

	if tool != nil && tool.Result != "" {
		return formatToolResult(msg, rawMsg, tool.Result)
	}

	if tool == nil || (tool.Input == "" && tool.Output == "") {
		return "*" + msg + "*"
	}

	var b []string
	b = append(b, "<details>")
	b = append(b, "  <summary>"+msg+"</summary>")

	if tool.Input != "" {
		b = append(b, "  <p>Input</p>", "")
		fence := fenceFor(tool.Input)
		b = append(b, fence+"json", prettyJSON(tool.Input), fence, "")
	}
	if tool.Output != "" {
		b = append(b, "  <p>Output</p>", "")
		fence := fenceFor(tool.Output)
		b = append(b, fence, strings.TrimRight(tool.Output, "\n"), fence, "")
	}

	b = append(b, "</details>")
	return strings.Join(b, "\n")
}

// formatToolResult renders a matched tool call result as a collapsible
// block holding the actual content. Content opening with the read_file
// "File: ... Lines X to Y: ```lang" header has that header and its
// matching trailing fence stripped, keeping the header's language.
func formatToolResult(msg, rawMsg, content string) string {
	lang := ""
	if m := fileHeaderRe.FindStringSubmatch(content); m != nil {
		lang = m[2]
		content = content[len(m[0]):]
		trimmed := strings.TrimRight(content, " \n")
		if strings.HasSuffix(trimmed, m[1]) {
			content = strings.TrimRight(strings.TrimSuffix(trimmed, m[1]), " \n")
		}
	} else if strings.Contains(content, "```") {
		lang = "markdown"
	} else if ext := fileExtRe.FindString(rawMsg); ext != "" {
		lang = langForFile("x" + ext)
	}

	fence := fenceFor(content)
	return strings.Join([]string{
		"<details>",
		"  <summary>" + msg + "</summary>",
		"",
		fence + lang,
		strings.TrimRight(content, "\n"),
		fence,
		"",
		"</details>",
	}, "\n")
}

func prettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return strings.TrimRight(s, "\n")
	}
	return buf.String()
}

// formatProgress renders a progress message as one scannable line.
func formatProgress(p chatlog.ResponsePart) string {
	if !usable(p.Text) {
		return ""
	}
	return glyphProgress + " " + p.Text
}

// formatEditGroup renders the edits applied to one file as a
// collapsible block, one labeled code fence per edit.
func formatEditGroup(e *chatlog.TextEditGroup) string {
	if e == nil || len(e.Edits) == 0 {
		return ""
	}
	lang := langForFile(e.FileName)

	var b []string
	b = append(b, "<details>")
	b = append(b, "  <summary>"+glyphEdit+" File Edit: "+e.FileName+"</summary>")
	for _, edit := range e.Edits {
		b = append(b, "")
		switch {
		case edit.StartLine > 0 && edit.StartLine == edit.EndLine:
			b = append(b, fmt.Sprintf("**Line %d:**", edit.StartLine), "")
		case edit.StartLine > 0 && edit.EndLine > 0:
			b = append(b, fmt.Sprintf("**Lines %d-%d:**", edit.StartLine, edit.EndLine), "")
		}
		fence := fenceFor(edit.Text)
		b = append(b, fence+lang, strings.TrimRight(edit.Text, "\n"), fence)
	}
	b = append(b, "", "</details>")
	return strings.Join(b, "\n")
}

func langForFile(name string) string {
	switch path.Ext(name) {
	case ".md":
		return "markdown"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".go":
		return "go"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".html":
		return "html"
	case ".css":
		return "css"
	case ".sh":
		return "bash"
	case ".txt":
		return "text"
	}
	return ""
}

// formatReferences renders the file/setting references a request used.
func formatReferences(refs []chatlog.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	var b []string
	b = append(b, "<details>")
	b = append(b, fmt.Sprintf("  <summary>Used %d references</summary>", len(refs)))
	b = append(b, "")
	for _, r := range refs {
		glyph := glyphFile
		switch r.Kind {
		case chatlog.RefSetting:
			glyph = glyphSetting
		case chatlog.RefPrompt:
			glyph = glyphPrompt
		}
		b = append(b, "- "+glyph+" "+r.Display)
	}
	b = append(b, "", "</details>")
	return strings.Join(b, "\n")
}

// formatErrorBox renders error details as a blockquote.
func formatErrorBox(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	var b []string
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(b) == 0 {
			b = append(b, "> "+glyphError+" "+line)
		} else {
			b = append(b, "> "+line)
		}
	}
	return strings.Join(b, "\n")
}
