package markdown

import (
	"strings"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

// ExtractText returns the displayable text of a response part. Parts
// decode to their display text at ingestion, so this only needs to
// pick the right field per variant.
func ExtractText(p chatlog.ResponsePart) string {
	switch p.Kind {
	case chatlog.PartText, chatlog.PartInlineReference, chatlog.PartProgressTask:
		return p.Text
	case chatlog.PartToolInvocation:
		if p.Text != "" {
			return p.Text
		}
		if p.Tool != nil {
			if p.Tool.Message != "" {
				return p.Tool.Message
			}
			return p.Tool.PastTense
		}
	}
	return ""
}

// usable reports whether an extracted value survives filtering: empty
// strings and the lone "*" placeholder artifact contribute nothing.
func usable(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && t != "*"
}

// JoinParts joins the surviving extracted strings of a part sequence
// with single newlines.
func JoinParts(parts []chatlog.ResponsePart) string {
	var kept []string
	for _, p := range parts {
		if t := ExtractText(p); usable(t) {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}
