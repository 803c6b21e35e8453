package markdown

import (
	"strings"
	"testing"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
)

func TestCleanInvocationMessage(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare file link",
			"[](file:///src/main.go)",
			"Read **main.go**",
		},
		{
			"file link with fragment",
			"Reading [](file:///src/main.go#1-20)",
			"Read **main.go#1-20**",
		},
		{
			"file link with trailing text",
			"[](file:///a/util.py), lines 1 to 40",
			"Read **util.py**, lines 1 to 40",
		},
		{
			"reading without link",
			"Reading directory src",
			"Read directory src",
		},
		{
			"plain message untouched",
			"Ran terminal command",
			"Ran terminal command",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanInvocationMessage(tt.in); got != tt.want {
				t.Errorf("cleanInvocationMessage(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatToolInvocationNoPayload(t *testing.T) {
	p := chatlog.ResponsePart{
		Kind: chatlog.PartToolInvocation,
		Tool: &chatlog.ToolInvocation{Message: "Searched for files"},
	}
	got := formatToolInvocation(p)
	if got != "*Searched for files*" {
		t.Errorf("got %q, want italic line", got)
	}
}

func TestFormatToolInvocationWithPayload(t *testing.T) {
	p := chatlog.ResponsePart{
		Kind: chatlog.PartToolInvocation,
		Tool: &chatlog.ToolInvocation{
			Message: "Ran tool",
			Input:   `{"query":"foo"}`,
			Output:  "2 results",
		},
	}
	got := formatToolInvocation(p)

	for _, want := range []string{
		"<details>",
		"  <summary>Ran tool</summary>",
		"  <p>Input</p>",
		"```json",
		"\"query\": \"foo\"",
		"  <p>Output</p>",
		"2 results",
		"</details>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatToolInvocationWidensFence(t *testing.T) {
	p := chatlog.ResponsePart{
		Kind: chatlog.PartToolInvocation,
		Tool: &chatlog.ToolInvocation{
			Message: "Read file",
			Output:  "```go\nfunc main() {}\n```",
		},
	}
	got := formatToolInvocation(p)
	if !strings.Contains(got, "````\n```go") {
		t.Errorf("output fence not widened past nested fence:\n%s", got)
	}
}

func TestFormatToolInvocationWithResult(t *testing.T) {
	t.Run("file header stripped", func(t *testing.T) {
		p := chatlog.ResponsePart{
			Kind: chatlog.PartToolInvocation,
			Tool: &chatlog.ToolInvocation{
				Message: "Read [](file:///src/main.go#1-20)",
				Result:  "File: /src/main.go. Lines 1 to 20:\n```go\nfunc main() {}\n```",
			},
		}
		got := formatToolInvocation(p)
		for _, want := range []string{
			"  <summary>Read **main.go#1-20**</summary>",
			"```go\nfunc main() {}\n```",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q:\n%s", want, got)
			}
		}
		if strings.Contains(got, "File:") {
			t.Errorf("file header not stripped:\n%s", got)
		}
	})

	t.Run("fenced content gets markdown lang", func(t *testing.T) {
		p := chatlog.ResponsePart{
			Kind: chatlog.PartToolInvocation,
			Tool: &chatlog.ToolInvocation{
				Message: "Read [](file:///notes/plan.md)",
				Result:  "Plan:\n```py\nprint(1)\n```",
			},
		}
		got := formatToolInvocation(p)
		if !strings.Contains(got, "````markdown\n") {
			t.Errorf("inner fences need a wider markdown fence:\n%s", got)
		}
	})

	t.Run("plain content uses extension lang", func(t *testing.T) {
		p := chatlog.ResponsePart{
			Kind: chatlog.PartToolInvocation,
			Tool: &chatlog.ToolInvocation{
				Message: "Read [](file:///a/util.py)",
				Result:  "just some text",
			},
		}
		got := formatToolInvocation(p)
		if !strings.Contains(got, "```python\njust some text\n```") {
			t.Errorf("extension lang not applied:\n%s", got)
		}
	})

	t.Run("result wins over fallback payload", func(t *testing.T) {
		p := chatlog.ResponsePart{
			Kind: chatlog.PartToolInvocation,
			Tool: &chatlog.ToolInvocation{
				Message: "Read [](file:///a/b.txt)",
				Input:   `{"filePath":"/a/b.txt"}`,
				Output:  "truncated preview",
				Result:  "full file content",
			},
		}
		got := formatToolInvocation(p)
		if !strings.Contains(got, "full file content") {
			t.Errorf("result content missing:\n%s", got)
		}
		if strings.Contains(got, "truncated preview") || strings.Contains(got, "<p>Input</p>") {
			t.Errorf("fallback payload rendered alongside the result:\n%s", got)
		}
	})
}

func TestFormatToolInvocationFallbackMessage(t *testing.T) {
	p := chatlog.ResponsePart{
		Kind: chatlog.PartToolInvocation,
		Tool: &chatlog.ToolInvocation{PastTense: "Listed directory"},
	}
	if got := formatToolInvocation(p); got != "*Listed directory*" {
		t.Errorf("got %q, want past tense fallback", got)
	}

	p = chatlog.ResponsePart{Kind: chatlog.PartToolInvocation, Tool: &chatlog.ToolInvocation{}}
	if got := formatToolInvocation(p); got != "*Ran tool*" {
		t.Errorf("got %q, want generic fallback", got)
	}
}

func TestFormatProgress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Analyzing workspace", "✔️ Analyzing workspace"},
		{"*", ""},
		{"", ""},
	}
	for _, tt := range tests {
		p := chatlog.ResponsePart{Kind: chatlog.PartProgressTask, Text: tt.in}
		if got := formatProgress(p); got != tt.want {
			t.Errorf("formatProgress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEditGroup(t *testing.T) {
	e := &chatlog.TextEditGroup{
		FileName: "main.go",
		Edits: []chatlog.TextEdit{
			{StartLine: 3, EndLine: 3, Text: "x := 1"},
			{StartLine: 10, EndLine: 12, Text: "func f() {\n}"},
		},
	}
	got := formatEditGroup(e)

	for _, want := range []string{
		"  <summary>🛠️ File Edit: main.go</summary>",
		"**Line 3:**",
		"**Lines 10-12:**",
		"```go",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatEditGroupEmpty(t *testing.T) {
	if got := formatEditGroup(nil); got != "" {
		t.Errorf("nil group: got %q", got)
	}
	if got := formatEditGroup(&chatlog.TextEditGroup{FileName: "a.go"}); got != "" {
		t.Errorf("no edits: got %q", got)
	}
}

func TestFormatReferences(t *testing.T) {
	refs := []chatlog.Reference{
		{Kind: chatlog.RefFile, Display: "main.go"},
		{Kind: chatlog.RefSetting, Display: "github.copilot.chat.codeGeneration.instructions"},
		{Kind: chatlog.RefPrompt, Display: "review.prompt.md"},
	}
	got := formatReferences(refs)

	for _, want := range []string{
		"  <summary>Used 3 references</summary>",
		"- 📄 main.go",
		"- ⚙️ github.copilot.chat.codeGeneration.instructions",
		"- ☰ review.prompt.md",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	if formatReferences(nil) != "" {
		t.Error("no references should render nothing")
	}
}

func TestFormatErrorBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single line", "Request canceled", "> 🚫 Request canceled"},
		{
			"multi line",
			"Rate limit exceeded\nRetry after 60s",
			"> 🚫 Rate limit exceeded\n> Retry after 60s",
		},
		{
			"skips blank lines",
			"first\n\n  \nsecond",
			"> 🚫 first\n> second",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatErrorBox(tt.in); got != tt.want {
				t.Errorf("formatErrorBox(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLangForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"main.go", "go"},
		{"script.py", "python"},
		{"notes.md", "markdown"},
		{"data.bin", ""},
	}
	for _, tt := range tests {
		if got := langForFile(tt.name); got != tt.want {
			t.Errorf("langForFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
