package compiler

import (
	"io"
	"log/slog"

	"github.com/rubiojr/mcfc/datapack"
)

// Compiler orchestrates the full compilation pipeline:
//
//	source -> comments -> macros -> blocks -> substitutions -> back -> sink
//
// Every call to Compile builds fresh stages, so runs never share macro
// tables or name allocators and the same input always yields the same
// output.
type Compiler struct {
	// Logger receives debug and warning events. Nil discards them.
	Logger *slog.Logger
	// DedupeBlocks makes byte-identical indented blocks share one
	// generated function.
	DedupeBlocks bool
	// MaxExpansionPasses bounds inline re-expansion of a single scope.
	// Zero selects DefaultMaxExpansionPasses.
	MaxExpansionPasses int
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Stages returns a new, ordered set of pipeline stages for one run.
func (c *Compiler) Stages() []Stage {
	log := c.logger()
	return []Stage{
		StripComments(),
		NewMacroCompiler(log, c.MaxExpansionPasses),
		NewBlockCompiler(log, c.DedupeBlocks),
		Substitutions(),
		Back(),
	}
}

// Compile returns the compiled stream for src. Nothing is read from src
// until the result is consumed.
func (c *Compiler) Compile(src Stream) Stream {
	return Chain(c.Stages()...).Apply(src)
}

// Build compiles every source function of ns and writes the result into
// the datapack. It returns the number of functions written.
func (c *Compiler) Build(ns *datapack.Namespace) (int, error) {
	log := c.logger()
	n, err := Drain(c.Compile(Source(ns, log)), NewFileSink(log))
	if err != nil {
		return n, err
	}
	log.Info("namespace compiled", "namespace", ns.Name, "functions", n)
	return n, nil
}

// Emit compiles ns and prints the result to w instead of writing files.
func (c *Compiler) Emit(ns *datapack.Namespace, w io.Writer, color bool) (int, error) {
	return Drain(c.Compile(Source(ns, c.logger())), &TextSink{W: w, Color: color})
}
