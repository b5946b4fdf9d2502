package compiler

import (
	"iter"
	"strings"

	"github.com/rubiojr/mcfc/datapack"
)

// Scope is one unit of compilation: a function name inside a namespace and
// the text that will become that function's body. Stages rewrite Content in
// place and hand the scope to the next stage; a scope has one owner at a
// time.
type Scope struct {
	Name      string
	Namespace *datapack.Namespace
	Content   string
}

// NewScope returns a scope named name in ns.
func NewScope(ns *datapack.Namespace, name, content string) *Scope {
	return &Scope{Name: name, Namespace: ns, Content: content}
}

// Reference returns the "<namespace>:<name>" form used by function calls.
func (s *Scope) Reference() string {
	return s.Namespace.Reference(s.Name)
}

// Stream is a lazily evaluated sequence of scopes. A non-nil error ends the
// stream; consumers must stop after receiving one.
type Stream = iter.Seq2[*Scope, error]

// Scopes returns a stream over already built scopes, in order.
func Scopes(scopes ...*Scope) Stream {
	return func(yield func(*Scope, error) bool) {
		for _, s := range scopes {
			if !yield(s, nil) {
				return
			}
		}
	}
}

// Collect drains src into a slice, stopping at the first error.
func Collect(src Stream) ([]*Scope, error) {
	var out []*Scope
	for s, err := range src {
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// splitLines splits content into lines the way a text editor shows them: a
// trailing newline does not start an empty line and a CR before LF is
// dropped.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// indentDepth counts the leading tabs of line.
func indentDepth(line string) int {
	n := 0
	for n < len(line) && line[n] == '\t' {
		n++
	}
	return n
}

// firstField returns the first whitespace-delimited word of line.
func firstField(line string) string {
	line = strings.TrimLeft(line, " \t")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}
