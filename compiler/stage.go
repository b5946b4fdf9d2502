package compiler

// Stage is one step of the compilation pipeline. Apply wraps an upstream
// stream and returns the downstream one; no work happens until the
// returned stream is ranged over.
type Stage interface {
	Name() string
	Apply(src Stream) Stream
}

// StageFunc adapts a named function to the Stage interface.
type StageFunc struct {
	N string
	F func(Stream) Stream
}

func (s StageFunc) Name() string            { return s.N }
func (s StageFunc) Apply(src Stream) Stream { return s.F(src) }

// Chain composes stages left-to-right into a single Stage.
func Chain(stages ...Stage) Stage {
	return StageFunc{
		N: "chain",
		F: func(src Stream) Stream {
			for _, s := range stages {
				src = s.Apply(src)
			}
			return src
		},
	}
}

// rewriteStage builds a stateless stage that replaces each scope's content
// with rewrite(scope) and passes the scope on unchanged otherwise.
func rewriteStage(name string, rewrite func(*Scope) string) Stage {
	return StageFunc{
		N: name,
		F: func(src Stream) Stream {
			return func(yield func(*Scope, error) bool) {
				for s, err := range src {
					if err != nil {
						yield(nil, err)
						return
					}
					s.Content = rewrite(s)
					if !yield(s, nil) {
						return
					}
				}
			}
		},
	}
}
