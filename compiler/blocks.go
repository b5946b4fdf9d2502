package compiler

import (
	"fmt"
	"log/slog"
	"strings"
)

// BlockCompiler lowers tab-indented blocks into generated functions. The
// run of lines indented under a line is cut out, dedented by one tab and
// moved into a new scope; the line gets " function <ref>" appended:
//
//	execute as @a run
//		say hi
//
// becomes "execute as @a run function ns:_/00/00/00/00" plus a scope
// holding "say hi". Nested blocks recurse, so every generated scope is
// flat. Generated scopes are emitted before the scope that calls them.
type BlockCompiler struct {
	log *slog.Logger
	ids *Allocator

	// dedupe maps lowered block content to the scope already generated
	// for it. Nil unless deduplication is enabled.
	dedupe map[string]string
}

// NewBlockCompiler returns an indentation stage for a single compilation
// run. With dedupe set, byte-identical blocks share one generated scope.
func NewBlockCompiler(log *slog.Logger, dedupe bool) *BlockCompiler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	b := &BlockCompiler{log: log, ids: NewAscendingAllocator()}
	if dedupe {
		b.dedupe = make(map[string]string)
	}
	return b
}

func (b *BlockCompiler) Name() string { return "blocks" }

func (b *BlockCompiler) Apply(src Stream) Stream {
	return func(yield func(*Scope, error) bool) {
		for s, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			var out []*Scope
			if err := b.lower(s, &out); err != nil {
				yield(nil, err)
				return
			}
			for _, o := range append(out, s) {
				if !yield(o, nil) {
					return
				}
			}
		}
	}
}

// lower rewrites s in place and appends the scopes generated for its
// blocks to out, deepest first.
func (b *BlockCompiler) lower(s *Scope, out *[]*Scope) error {
	lines := splitLines(s.Content)
	content := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "\t") {
			content = append(content, lines[i])
			i++
			continue
		}
		var block []string
		for i < len(lines) && strings.HasPrefix(lines[i], "\t") {
			block = append(block, lines[i][1:])
			i++
		}
		ref, err := b.extract(s, strings.Join(block, "\n"), out)
		if err != nil {
			return err
		}
		call := functionKeyword + " " + ref
		if len(content) == 0 {
			content = append(content, call)
		} else {
			content[len(content)-1] += " " + call
		}
	}
	s.Content = strings.Join(content, "\n")
	return nil
}

// extract turns one dedented block into a generated scope and returns
// its reference.
func (b *BlockCompiler) extract(parent *Scope, block string, out *[]*Scope) (string, error) {
	child := NewScope(parent.Namespace, "", block)
	if b.dedupe == nil {
		name, err := b.ids.Next()
		if err != nil {
			return "", fmt.Errorf("%s: %w", parent.Reference(), err)
		}
		child.Name = name
		if err := b.lower(child, out); err != nil {
			return "", err
		}
		*out = append(*out, child)
		b.log.Debug("block extracted", "function", child.Reference(), "parent", parent.Reference())
		return child.Reference(), nil
	}

	// Nested blocks of a duplicate are duplicates themselves and resolve
	// to cached scopes, so lowering before the lookup emits nothing new.
	if err := b.lower(child, out); err != nil {
		return "", err
	}
	key := parent.Namespace.Name + "\x00" + child.Content
	if name, ok := b.dedupe[key]; ok {
		b.log.Debug("block reused", "function", parent.Namespace.Reference(name), "parent", parent.Reference())
		return parent.Namespace.Reference(name), nil
	}
	name, err := b.ids.Next()
	if err != nil {
		return "", fmt.Errorf("%s: %w", parent.Reference(), err)
	}
	child.Name = name
	b.dedupe[key] = name
	*out = append(*out, child)
	b.log.Debug("block extracted", "function", child.Reference(), "parent", parent.Reference())
	return child.Reference(), nil
}
