package markdown

import (
	"testing"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		part chatlog.ResponsePart
		want string
	}{
		{"text", textPart("hello"), "hello"},
		{
			"progress",
			chatlog.ResponsePart{Kind: chatlog.PartProgressTask, Text: "working"},
			"working",
		},
		{
			"tool with text",
			chatlog.ResponsePart{Kind: chatlog.PartToolInvocation, Text: "Ran it"},
			"Ran it",
		},
		{
			"tool falls back to message",
			chatlog.ResponsePart{
				Kind: chatlog.PartToolInvocation,
				Tool: &chatlog.ToolInvocation{Message: "Searched"},
			},
			"Searched",
		},
		{
			"tool falls back to past tense",
			chatlog.ResponsePart{
				Kind: chatlog.PartToolInvocation,
				Tool: &chatlog.ToolInvocation{PastTense: "Listed files"},
			},
			"Listed files",
		},
		{"unrecognized", chatlog.ResponsePart{}, ""},
		{
			"edit group has no text",
			chatlog.ResponsePart{Kind: chatlog.PartTextEditGroup, Edit: &chatlog.TextEditGroup{}},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.part); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJoinParts(t *testing.T) {
	parts := []chatlog.ResponsePart{
		textPart("one"),
		textPart("*"),
		textPart(""),
		{Kind: chatlog.PartProgressTask, Text: "two"},
		textPart("three"),
	}
	want := "one\ntwo\nthree"
	if got := JoinParts(parts); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := JoinParts(nil); got != "" {
		t.Errorf("nil parts: got %q", got)
	}
}
