package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rubiojr/mcfc/datapack"
)

const (
	generateKeyword = "generate"
	functionKeyword = "function"
	callKeyword     = "call"
	// separateScopeDirective as the first body line makes every call of
	// the macro produce its own function instead of being inlined.
	separateScopeDirective = "with scope"
)

// DefaultMaxExpansionPasses bounds how often one scope is re-expanded
// before inline expansion is considered runaway.
const DefaultMaxExpansionPasses = 1000

// macroDef is a "generate function NAME PARAM..." block.
type macroDef struct {
	name     string
	params   []string
	body     []string
	separate bool
	// definedIn is the reference of the scope the definition came from.
	definedIn string
}

// expand returns the body with args substituted for the parameters.
func (d *macroDef) expand(args []string) []string {
	out := make([]string, len(d.body))
	for i, line := range d.body {
		out[i] = substituteParams(line, d.params, args)
	}
	return out
}

// macroCall is a memoized call: one generated function per macro name and
// argument list.
type macroCall struct {
	macro     string
	args      []string
	scopeName string
	namespace *datapack.Namespace
	caller    string
	// materialized is set once the generated scope has been built from
	// the macro body. Calls seen before their definition stay pending.
	materialized bool
}

func (c *macroCall) reference() string {
	return c.namespace.Reference(c.scopeName)
}

// MacroCompiler expands "generate function" definitions and "call" sites.
//
// A call to a macro that is already defined is spliced inline, unless the
// macro was declared "with scope" or the call follows other command text
// on its line, in which case the expanded body becomes its own function.
// Calls that precede their definition become a function too; the body is
// generated once the definition shows up. Identical calls share one
// generated function.
//
// A MacroCompiler holds the definitions and call table of one compilation
// run and must not be reused.
type MacroCompiler struct {
	log       *slog.Logger
	maxPasses int
	ids       *Allocator

	defs    []*macroDef
	byName  map[string]*macroDef
	calls   map[string]*macroCall
	ordered []*macroCall

	// pending holds scopes that still have to go through this stage:
	// generated functions and scopes left polluted by inline expansion.
	pending []*Scope
	passes  map[*Scope]int
}

// NewMacroCompiler returns a macro stage for a single compilation run.
// maxPasses <= 0 selects DefaultMaxExpansionPasses.
func NewMacroCompiler(log *slog.Logger, maxPasses int) *MacroCompiler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if maxPasses <= 0 {
		maxPasses = DefaultMaxExpansionPasses
	}
	return &MacroCompiler{
		log:       log,
		maxPasses: maxPasses,
		ids:       NewDescendingAllocator(),
		byName:    make(map[string]*macroDef),
		calls:     make(map[string]*macroCall),
		passes:    make(map[*Scope]int),
	}
}

func (m *MacroCompiler) Name() string { return "macros" }

// Apply consumes upstream first, then the pending buffer, then replays the
// definitions against the call table until nothing new is produced.
func (m *MacroCompiler) Apply(src Stream) Stream {
	return func(yield func(*Scope, error) bool) {
		for s, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if !m.process(s, yield) {
				return
			}
		}
		for {
			for len(m.pending) > 0 {
				s := m.pending[len(m.pending)-1]
				m.pending = m.pending[:len(m.pending)-1]
				if !m.process(s, yield) {
					return
				}
			}
			if !m.closingPass() {
				break
			}
		}
		if err := m.unresolved(); err != nil {
			yield(nil, err)
		}
	}
}

// process expands s once. A finished scope is yielded; a polluted one is
// queued for another pass. It reports whether the stream should go on.
func (m *MacroCompiler) process(s *Scope, yield func(*Scope, error) bool) bool {
	polluted, err := m.expandScope(s)
	if err != nil {
		yield(nil, err)
		return false
	}
	if polluted {
		m.passes[s]++
		if m.passes[s] > m.maxPasses {
			yield(nil, fmt.Errorf("%s: %w after %d passes", s.Reference(), ErrExpansionLimit, m.passes[s]))
			return false
		}
		m.pending = append(m.pending, s)
		return true
	}
	delete(m.passes, s)
	return yield(s, nil)
}

// expandScope runs one pass over s: definitions are registered and cut
// out, call sites are resolved. It reports whether anything was inlined.
func (m *MacroCompiler) expandScope(s *Scope) (bool, error) {
	lines := splitLines(s.Content)
	out := make([]string, 0, len(lines))
	polluted := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if name, params, ok := parseGenerate(line); ok {
			if name == "" {
				return false, fmt.Errorf("%s: %w", s.Reference(), ErrEmptyDefinition)
			}
			depth := indentDepth(line)
			end := i + 1
			for end < len(lines) && indentDepth(lines[end]) > depth {
				end++
			}
			m.define(s, name, params, lines[i+1:end], depth+1)
			i = end - 1
			continue
		}

		prefix, payload, ok := splitCall(line)
		if !ok {
			out = append(out, line)
			continue
		}
		expanded, inlined, err := m.resolve(s, prefix, payload)
		if err != nil {
			return false, err
		}
		out = append(out, expanded...)
		polluted = polluted || inlined
	}
	s.Content = strings.Join(out, "\n")
	return polluted, nil
}

// define registers a macro. dedent is the number of tabs stripped from
// every body line. Calls already waiting for this macro get their
// functions generated right away.
func (m *MacroCompiler) define(s *Scope, name string, params, raw []string, dedent int) {
	if prev, ok := m.byName[name]; ok {
		m.log.Warn("macro redefined, keeping first definition",
			"macro", name, "first", prev.definedIn, "ignored", s.Reference())
		return
	}
	body := make([]string, len(raw))
	for i, l := range raw {
		body[i] = l[min(dedent, indentDepth(l)):]
	}
	def := &macroDef{name: name, params: params, definedIn: s.Reference()}
	if len(body) > 0 && strings.TrimSpace(body[0]) == separateScopeDirective {
		def.separate = true
		body = body[1:]
	}
	def.body = body
	m.defs = append(m.defs, def)
	m.byName[name] = def
	m.log.Debug("macro defined", "macro", name, "params", len(params), "separate", def.separate, "scope", def.definedIn)

	for _, c := range m.ordered {
		if c.macro == name && !c.materialized {
			m.materialize(c, def)
		}
	}
}

// resolve turns one call site into output lines. inlined is true when the
// macro body was spliced in, since the spliced text may hold more calls.
func (m *MacroCompiler) resolve(s *Scope, prefix, payload string) (lines []string, inlined bool, err error) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return nil, false, fmt.Errorf("%s: %w", s.Reference(), ErrEmptyCall)
	}
	name, args := fields[0], fields[1:]

	key := callKey(s.Namespace, name, args)
	if c, ok := m.calls[key]; ok {
		return []string{prefix + functionKeyword + " " + c.reference()}, false, nil
	}

	def := m.byName[name]
	if def != nil && !def.separate && strings.TrimSpace(prefix) == "" {
		body := def.expand(args)
		lines = make([]string, len(body))
		for i, l := range body {
			lines[i] = prefix + l
		}
		return lines, true, nil
	}

	scopeName, err := m.ids.Next()
	if err != nil {
		return nil, false, fmt.Errorf("%s: calling %s: %w", s.Reference(), name, err)
	}
	c := &macroCall{macro: name, args: args, scopeName: scopeName, namespace: s.Namespace, caller: s.Reference()}
	m.calls[key] = c
	m.ordered = append(m.ordered, c)
	if def != nil {
		m.materialize(c, def)
	} else {
		m.log.Debug("forward macro call", "macro", name, "function", c.reference(), "scope", c.caller)
	}
	return []string{prefix + functionKeyword + " " + c.reference()}, false, nil
}

// materialize builds the generated function for c and queues it.
func (m *MacroCompiler) materialize(c *macroCall, def *macroDef) {
	c.materialized = true
	scope := NewScope(c.namespace, c.scopeName, strings.Join(def.expand(c.args), "\n"))
	m.pending = append(m.pending, scope)
	m.log.Debug("macro function generated", "macro", def.name, "function", scope.Reference())
}

// closingPass generates functions for calls whose definition was
// registered after the call was first seen. It reports whether anything
// was produced.
func (m *MacroCompiler) closingPass() bool {
	produced := false
	for _, def := range m.defs {
		for _, c := range m.ordered {
			if c.macro == def.name && !c.materialized {
				m.materialize(c, def)
				produced = true
			}
		}
	}
	return produced
}

// unresolved returns an error for the first call whose macro was never
// defined.
func (m *MacroCompiler) unresolved() error {
	for _, c := range m.ordered {
		if c.materialized {
			continue
		}
		names := make([]string, len(m.defs))
		for i, d := range m.defs {
			names[i] = d.name
		}
		return &UnknownMacroError{Name: c.macro, Caller: c.caller, Suggestion: closestMacro(c.macro, names)}
	}
	return nil
}

func callKey(ns *datapack.Namespace, name string, args []string) string {
	return ns.Name + "\x00" + name + "\x00" + strings.Join(args, " ")
}

// parseGenerate recognizes "generate function NAME PARAM...". ok is true
// for any line starting with the two keywords, even when NAME is missing.
func parseGenerate(line string) (name string, params []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != generateKeyword || fields[1] != functionKeyword {
		return "", nil, false
	}
	if len(fields) == 2 {
		return "", nil, true
	}
	return fields[2], fields[3:], true
}

// splitCall splits line around the first standalone "call" word. prefix
// keeps everything before the keyword verbatim.
func splitCall(line string) (prefix, payload string, ok bool) {
	for from := 0; from < len(line); {
		i := strings.Index(line[from:], callKeyword)
		if i < 0 {
			return "", "", false
		}
		i += from
		end := i + len(callKeyword)
		if (i == 0 || isBlank(line[i-1])) && (end == len(line) || isBlank(line[end])) {
			return line[:i], line[end:], true
		}
		from = end
	}
	return "", "", false
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// substituteParams replaces whole-token occurrences of params with the
// matching args in a single left-to-right pass, so an argument is never
// substituted again. Parameters and arguments are paired positionally;
// extras on either side are ignored.
func substituteParams(line string, params, args []string) string {
	n := min(len(params), len(args))
	if n == 0 {
		return line
	}
	params = params[:n]
	var sb strings.Builder
	for i := 0; i < len(line); {
		if i == 0 || !isWordByte(line[i-1]) {
			if k := matchParam(line[i:], params); k >= 0 {
				sb.WriteString(args[k])
				i += len(params[k])
				continue
			}
		}
		sb.WriteByte(line[i])
		i++
	}
	return sb.String()
}

// matchParam returns the index of the longest parameter that s starts
// with as a whole token, or -1.
func matchParam(s string, params []string) int {
	best := -1
	for k, p := range params {
		if p == "" || !strings.HasPrefix(s, p) {
			continue
		}
		if len(p) < len(s) && isWordByte(s[len(p)]) && isWordByte(p[len(p)-1]) {
			continue
		}
		if best < 0 || len(p) > len(params[best]) {
			best = k
		}
	}
	return best
}
