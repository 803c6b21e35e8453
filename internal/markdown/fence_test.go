package markdown

import "testing"

func TestBalanceFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no fences", "plain text\nmore text", "plain text\nmore text"},
		{"balanced pair", "```go\ncode\n```", "```go\ncode\n```"},
		{"unclosed opener", "```go\ncode", "```go\ncode\n```"},
		{"unclosed with trailing newline", "```\ncode\n", "```\ncode\n```"},
		{"three fences", "```\na\n```\ntext\n```", "```\na\n```\ntext\n```\n```"},
		{"indented fence counts", "  ```\ncode", "  ```\ncode\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BalanceFences(tt.in)
			if got != tt.want {
				t.Errorf("BalanceFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBalanceFencesIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"```go\ncode",
		"```\na\n```",
		"text\n```\nmore",
	}
	for _, in := range inputs {
		once := BalanceFences(in)
		twice := BalanceFences(once)
		if once != twice {
			t.Errorf("BalanceFences not idempotent for %q: %q != %q", in, once, twice)
		}
		if countFenceLines(once)%2 != 0 {
			t.Errorf("BalanceFences(%q) left odd fence count", in)
		}
	}
}

func TestFenceFor(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"no backticks here", "```"},
		{"inline `code` span", "```"},
		{"``double``", "```"},
		{"```\nnested fence\n```", "````"},
		{"````four", "`````"},
	}
	for _, tt := range tests {
		if got := fenceFor(tt.content); got != tt.want {
			t.Errorf("fenceFor(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestMaxBacktickRun(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"`", 1},
		{"a```b``c", 3},
		{"``` ` ````", 4},
	}
	for _, tt := range tests {
		if got := maxBacktickRun(tt.in); got != tt.want {
			t.Errorf("maxBacktickRun(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
