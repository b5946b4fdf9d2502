package compiler

import (
	"crypto/sha256"
	"encoding/base32"
	"regexp"
	"strings"
)

var (
	hashPattern  = regexp.MustCompile(`#\[([a-z0-9\-_.]+)\]`)
	scorePattern = regexp.MustCompile(`([a-z0-9\-_]+)@([a-z0-9\-_]+)`)
)

// Substitutions rewrites the reserved tokens into plain command syntax:
//
//	$this        -> reference of the scope itself
//	$namespace   -> namespace name
//	#[value]     -> ContentHash(value)
//	name@board   -> name board
func Substitutions() Stage {
	return rewriteStage("substitutions", substitute)
}

func substitute(s *Scope) string {
	content := strings.ReplaceAll(s.Content, "$this", s.Reference())
	content = strings.ReplaceAll(content, "$namespace", s.Namespace.Name)
	content = hashPattern.ReplaceAllStringFunc(content, func(m string) string {
		return ContentHash(hashPattern.FindStringSubmatch(m)[1])
	})
	return scorePattern.ReplaceAllString(content, "${1} ${2}")
}

// ContentHash returns a short identifier derived from value: the first 16
// characters of the base32 encoded SHA-256 digest, lowercased. It is valid
// as a scoreboard objective, tag or storage key.
func ContentHash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return strings.ToLower(base32.StdEncoding.EncodeToString(sum[:])[:16])
}
