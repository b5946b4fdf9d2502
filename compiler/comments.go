package compiler

import "strings"

// StripComments drops blank lines and lines whose first non-blank
// character is '#'. Comments only ever span a whole line.
func StripComments() Stage {
	return rewriteStage("comments", func(s *Scope) string {
		return stripComments(s.Content)
	})
}

func stripComments(content string) string {
	var kept []string
	for _, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
