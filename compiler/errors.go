package compiler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	// ErrUnknownMacro is wrapped by UnknownMacroError.
	ErrUnknownMacro = errors.New("unknown macro")
	// ErrEmptyCall is returned for a call line with no macro name.
	ErrEmptyCall = errors.New("call without macro name")
	// ErrEmptyDefinition is returned for "generate function" with no name.
	ErrEmptyDefinition = errors.New("generate function without macro name")
	// ErrExpansionLimit is returned when inline expansion never settles,
	// usually because a macro calls itself.
	ErrExpansionLimit = errors.New("macro expansion did not settle")
	// ErrAllocatorExhausted is returned when an allocator runs out of ids.
	ErrAllocatorExhausted = errors.New("anonymous name space exhausted")
)

// UnknownMacroError reports a call to a macro that was never defined
// anywhere in the compilation run.
type UnknownMacroError struct {
	Name string
	// Caller is the reference of the scope holding the first such call.
	Caller string
	// Suggestion is the closest defined macro name, if any.
	Suggestion string
}

func (e *UnknownMacroError) Error() string {
	msg := fmt.Sprintf("%s: unknown macro %q", e.Caller, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *UnknownMacroError) Unwrap() error { return ErrUnknownMacro }

// closestMacro returns the defined macro name closest to name, or "" when
// nothing is close enough to be a plausible typo.
func closestMacro(name string, defined []string) string {
	if ranks := fuzzy.RankFindFold(name, defined); len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 3
	for _, d := range defined {
		maxDist := 2
		if min(len(name), len(d)) <= 4 {
			maxDist = 1
		}
		dist := fuzzy.LevenshteinDistance(name, d)
		if dist > 0 && dist <= maxDist && dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}
