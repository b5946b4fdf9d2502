package compiler

import "strings"

// continuationKeyword starts a line that continues the previous one.
const continuationKeyword = "back"

// Back joins continuation lines onto the logical line they continue:
//
//	tellraw @a {"text":
//	back  "hello"}
//
// becomes `tellraw @a {"text": "hello"}`. The keyword and the single blank
// that delimits it are dropped; everything after is appended verbatim.
func Back() Stage {
	return rewriteStage("back", func(s *Scope) string {
		return joinContinuations(s.Content)
	})
}

func joinContinuations(content string) string {
	lines := splitLines(content)
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		var sb strings.Builder
		sb.WriteString(lines[i])
		for i+1 < len(lines) && isContinuation(lines[i+1]) {
			i++
			sb.WriteString(continuationTail(lines[i]))
		}
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}

func isContinuation(line string) bool {
	return firstField(line) == continuationKeyword
}

func continuationTail(line string) string {
	_, rest, _ := strings.Cut(line, continuationKeyword)
	if rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
		rest = rest[1:]
	}
	return rest
}
