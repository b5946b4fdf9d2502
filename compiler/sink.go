package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Sink is the terminal consumer of a compiled stream.
type Sink interface {
	Accept(s *Scope) error
}

// Drain pulls every scope from src into sink and returns how many were
// accepted. The first error from either side ends the run.
func Drain(src Stream, sink Sink) (int, error) {
	n := 0
	for s, err := range src {
		if err != nil {
			return n, err
		}
		if err := sink.Accept(s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// FileSink writes each scope to its .mcfunction file inside the datapack,
// creating directories as needed.
type FileSink struct {
	log     *slog.Logger
	written map[string]bool
}

// NewFileSink returns a sink for one compilation run.
func NewFileSink(log *slog.Logger) *FileSink {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FileSink{log: log, written: make(map[string]bool)}
}

// Accept writes s. Writing the same function twice in one run is an
// error since the second write would silently replace the first.
func (f *FileSink) Accept(s *Scope) error {
	path, err := s.Namespace.FunctionPath(s.Name)
	if err != nil {
		return err
	}
	if f.written[path] {
		return fmt.Errorf("function %s produced twice", s.Reference())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", s.Reference(), err)
	}
	if err := os.WriteFile(path, []byte(s.Content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	f.written[path] = true
	f.log.Debug("function written", "function", s.Reference(), "path", path)
	return nil
}

// TextSink prints each scope as its reference followed by its content.
type TextSink struct {
	W io.Writer
	// Color highlights the reference headers with ANSI escapes.
	Color bool
}

func (t *TextSink) Accept(s *Scope) error {
	header := s.Reference() + ":"
	if t.Color {
		header = "\033[1;36m" + header + "\033[0m"
	}
	_, err := fmt.Fprintf(t.W, "%s\n%s\n\n", header, s.Content)
	return err
}
