package runner

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff renders the line changes between before and after. Each run of
// changed lines is introduced by an @@ marker naming the line in after
// where it starts. Returns "" when nothing changed.
func Diff(name string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", name, name)

	line := 1
	inHunk := false
	for _, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			line += len(text)
			inHunk = false
			continue
		case diffmatchpatch.DiffDelete, diffmatchpatch.DiffInsert:
			if !inHunk {
				fmt.Fprintf(&out, "@@ %d @@\n", line)
				inHunk = true
			}
		}

		prefix := "-"
		if d.Type == diffmatchpatch.DiffInsert {
			prefix = "+"
			line += len(text)
		}
		for _, l := range text {
			out.WriteString(prefix)
			out.WriteString(l)
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}
