package markdown

import "strings"

// BalanceFences ensures every triple-backtick fence in text is closed.
// Response parts are concatenated from independent fragments that may
// each contain an unterminated fence; viewers treat fences as toggling
// state, so one stray opener corrupts everything after it. Counting
// fence lines and appending a single closer when the count is odd is
// enough to keep the rest of the document intact, and is idempotent.
func BalanceFences(text string) string {
	if countFenceLines(text)%2 == 0 {
		return text
	}
	if text == "" || strings.HasSuffix(text, "\n") {
		return text + "```"
	}
	return text + "\n```"
}

func countFenceLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			n++
		}
	}
	return n
}

// maxBacktickRun returns the length of the longest consecutive
// backtick run in s.
func maxBacktickRun(s string) int {
	max, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			if run > max {
				max = run
			}
		} else {
			run = 0
		}
	}
	return max
}

// fenceFor returns a fence long enough to safely wrap content that may
// itself contain backtick fences: one backtick more than the longest
// run inside, and never shorter than three.
func fenceFor(content string) string {
	n := maxBacktickRun(content) + 1
	if n < 3 {
		n = 3
	}
	return strings.Repeat("`", n)
}
