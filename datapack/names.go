package datapack

import (
	"fmt"
	"strings"
)

// NameKind identifies what a validated name belongs to.
type NameKind string

const (
	KindDatapack  NameKind = "datapack"
	KindNamespace NameKind = "namespace"
	KindFunction  NameKind = "function"
)

// NameError reports a name containing characters the game does not accept.
type NameError struct {
	Kind NameKind
	Name string
	// Char is the first offending rune, or 0 when the name is empty.
	Char rune
}

func (e *NameError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("invalid %s name %q: name is empty", e.Kind, e.Name)
	}
	return fmt.Sprintf("invalid %s name %q: character %q not allowed (use %s)", e.Kind, e.Name, e.Char, allowedChars(e.Kind))
}

func allowedChars(kind NameKind) string {
	if kind == KindFunction {
		return "a-z 0-9 _ - /"
	}
	return "a-z 0-9 _ -"
}

// ValidateName checks name against the character set allowed for kind.
// Datapack and namespace names accept [a-z0-9_-]; function names also
// accept '/' as a path separator.
func ValidateName(kind NameKind, name string) error {
	if name == "" {
		return &NameError{Kind: kind, Name: name}
	}
	for _, c := range name {
		if !isNameChar(c) && !(kind == KindFunction && c == '/') {
			return &NameError{Kind: kind, Name: name, Char: c}
		}
	}
	if kind == KindFunction && (strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.Contains(name, "//")) {
		return &NameError{Kind: kind, Name: name, Char: '/'}
	}
	return nil
}

func isNameChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}
