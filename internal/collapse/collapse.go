// Package collapse rewrites a rendered chat document so each request
// section folds into a <details open> block. The pass is purely
// textual: it never looks at the record model, only at separator lines
// and request anchors in the emitted markdown.
package collapse

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const separator = "\n\n---\n\n"

var requestAnchorRe = regexp.MustCompile(`<a name="request-(\d+)"></a>`)

// Rewrite wraps every blank-line-delimited section that contains a
// request anchor in an outer <details open> block labeled "Request N".
func Rewrite(text string) string {
	trailingNewline := strings.HasSuffix(text, "\n")
	sections := strings.Split(text, separator)
	for i, sec := range sections {
		sec = strings.Trim(sec, "\n")
		if m := requestAnchorRe.FindStringSubmatch(sec); m != nil {
			sec = "<details open>\n<summary>Request " + m[1] + "</summary>\n\n" +
				sec + "\n\n</details>"
		}
		sections[i] = sec
	}
	out := strings.Join(sections, separator)
	if trailingNewline && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

// RewriteFile rewrites path in place, writing a .bak copy of the
// original first.
func RewriteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.WriteFile(path, []byte(Rewrite(string(data))), 0o644); err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}
	return nil
}
