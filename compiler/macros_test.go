package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expandMacros(t *testing.T, scopes ...*Scope) []*Scope {
	t.Helper()
	return runStage(t, NewMacroCompiler(nil, 0), scopes...)
}

func TestMacroInlinedWhenDefinedFirst(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function greet who\n\tsay hello who\n\tsay bye who\ncall greet bob\nsay done"
	out := expandMacros(t, NewScope(ns, "main", src))
	require.Len(t, out, 1)
	assert.Equal(t, "say hello bob\nsay bye bob\nsay done", out[0].Content)
}

func TestMacroForwardReferenceMatchesInline(t *testing.T) {
	ns := testNamespace(t)
	forward := expandMacros(t, NewScope(ns, "main", "call greet bob\ngenerate function greet who\n\tsay hello who"))
	backward := expandMacros(t, NewScope(ns, "main", "generate function greet who\n\tsay hello who\ncall greet bob"))

	require.Len(t, forward, 2)
	assert.Equal(t, []string{"main", "_/ff/ff/ff/ff"}, names(forward))
	assert.Equal(t, "function ns:_/ff/ff/ff/ff", forward[0].Content)

	require.Len(t, backward, 1)
	assert.Equal(t, backward[0].Content, forward[1].Content)
	assert.Equal(t, "say hello bob", forward[1].Content)
}

func TestMacroForwardReferenceAcrossScopes(t *testing.T) {
	ns := testNamespace(t)
	out := expandMacros(t,
		NewScope(ns, "caller", "call greet x"),
		NewScope(ns, "lib", "generate function greet who\n\tsay who"),
	)
	assert.Equal(t, []string{"caller", "lib", "_/ff/ff/ff/ff"}, names(out))
	got := contents(out)
	assert.Equal(t, "function ns:_/ff/ff/ff/ff", got["caller"])
	assert.Equal(t, "", got["lib"])
	assert.Equal(t, "say x", got["_/ff/ff/ff/ff"])
}

func TestMacroMemoization(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function tp where\n\twith scope\n\ttp @s where\ncall tp spawn\ncall tp spawn\ncall tp home"
	out := expandMacros(t, NewScope(ns, "main", src))

	assert.Equal(t, []string{"main", "_/ff/ff/ff/fe", "_/ff/ff/ff/ff"}, names(out))
	got := contents(out)
	assert.Equal(t, "function ns:_/ff/ff/ff/ff\nfunction ns:_/ff/ff/ff/ff\nfunction ns:_/ff/ff/ff/fe", got["main"])
	assert.Equal(t, "tp @s spawn", got["_/ff/ff/ff/ff"])
	assert.Equal(t, "tp @s home", got["_/ff/ff/ff/fe"])
}

func TestMacroMemoizationAcrossScopes(t *testing.T) {
	ns := testNamespace(t)
	out := expandMacros(t,
		NewScope(ns, "a", "call later 1"),
		NewScope(ns, "b", "call later 1\ncall later 2"),
		NewScope(ns, "lib", "generate function later n\n\tsay n"),
	)
	got := contents(out)
	assert.Equal(t, "function ns:_/ff/ff/ff/ff", got["a"])
	assert.Equal(t, "function ns:_/ff/ff/ff/ff\nfunction ns:_/ff/ff/ff/fe", got["b"])
	assert.Equal(t, "say 1", got["_/ff/ff/ff/ff"])
	assert.Equal(t, "say 2", got["_/ff/ff/ff/fe"])
	assert.Len(t, out, 5)
}

func TestMacroFixpoint(t *testing.T) {
	ns := testNamespace(t)
	src := strings.Join([]string{
		"generate function inner x",
		"\tsay inner x",
		"generate function outer y",
		"\tcall inner y",
		"\tsay outer y",
		"call outer 7",
	}, "\n")
	out := expandMacros(t, NewScope(ns, "main", src))
	require.Len(t, out, 1)
	assert.Equal(t, "say inner 7\nsay outer 7", out[0].Content)
	assert.NotContains(t, out[0].Content, "call")
}

func TestMacroCallAfterCommandTextGeneratesFunction(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function hi who\n\tsay hi who\nexecute as @a run call hi there\n\tcall hi there"
	out := expandMacros(t, NewScope(ns, "main", src))
	got := contents(out)
	assert.Equal(t, "execute as @a run function ns:_/ff/ff/ff/ff\n\tfunction ns:_/ff/ff/ff/ff", got["main"])
	assert.Equal(t, "say hi there", got["_/ff/ff/ff/ff"])
}

func TestMacroInlineKeepsIndentation(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function each\n\texecute as @a run\n\t\tsay hi\nexecute if x run\n\tcall each"
	out := expandMacros(t, NewScope(ns, "main", src))
	require.Len(t, out, 1)
	assert.Equal(t, "execute if x run\n\texecute as @a run\n\t\tsay hi", out[0].Content)
}

func TestMacroRedefinitionKeepsFirst(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function x\n\tsay one\ngenerate function x\n\tsay two\ncall x"
	out := expandMacros(t, NewScope(ns, "main", src))
	assert.Equal(t, "say one", out[0].Content)
}

func TestMacroCallKeywordMustStandAlone(t *testing.T) {
	ns := testNamespace(t)
	src := "say recall\nsay callback\ntellraw @a \"caller\""
	out := expandMacros(t, NewScope(ns, "main", src))
	assert.Equal(t, src, out[0].Content)
}

func TestMacroUnknownIsFatal(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function greet who\n\tsay who\ncall gret bob"
	_, err := Collect(NewMacroCompiler(nil, 0).Apply(Scopes(NewScope(ns, "main", src))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMacro))

	var unknown *UnknownMacroError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "gret", unknown.Name)
	assert.Equal(t, "ns:main", unknown.Caller)
	assert.Equal(t, "greet", unknown.Suggestion)
	assert.EqualError(t, err, `ns:main: unknown macro "gret" (did you mean "greet"?)`)
}

func TestMacroUnknownWithoutSuggestion(t *testing.T) {
	ns := testNamespace(t)
	_, err := Collect(NewMacroCompiler(nil, 0).Apply(Scopes(NewScope(ns, "main", "call nope"))))
	assert.EqualError(t, err, `ns:main: unknown macro "nope"`)
}

func TestMacroEmptyCall(t *testing.T) {
	ns := testNamespace(t)
	_, err := Collect(NewMacroCompiler(nil, 0).Apply(Scopes(NewScope(ns, "main", "say x\ncall"))))
	assert.ErrorIs(t, err, ErrEmptyCall)
}

func TestMacroEmptyDefinition(t *testing.T) {
	ns := testNamespace(t)
	_, err := Collect(NewMacroCompiler(nil, 0).Apply(Scopes(NewScope(ns, "main", "generate function\n\tsay x"))))
	assert.ErrorIs(t, err, ErrEmptyDefinition)
}

func TestMacroExpansionLimit(t *testing.T) {
	ns := testNamespace(t)
	src := "generate function loop\n\tcall loop\ncall loop"
	_, err := Collect(NewMacroCompiler(nil, 5).Apply(Scopes(NewScope(ns, "main", src))))
	assert.ErrorIs(t, err, ErrExpansionLimit)
}

func TestMacroUpstreamErrorStopsStage(t *testing.T) {
	boom := errors.New("boom")
	src := func(yield func(*Scope, error) bool) {
		yield(nil, boom)
	}
	_, err := Collect(NewMacroCompiler(nil, 0).Apply(src))
	assert.ErrorIs(t, err, boom)
}

func TestMacroClosingPass(t *testing.T) {
	ns := testNamespace(t)
	m := NewMacroCompiler(nil, 0)
	def := &macroDef{name: "late", params: []string{"v"}, body: []string{"say v"}}
	m.defs = append(m.defs, def)
	m.byName["late"] = def
	m.ordered = append(m.ordered, &macroCall{macro: "late", args: []string{"1"}, scopeName: "_/ff/ff/ff/ff", namespace: ns})

	assert.True(t, m.closingPass())
	require.Len(t, m.pending, 1)
	assert.Equal(t, "say 1", m.pending[0].Content)
	assert.False(t, m.closingPass())
	assert.NoError(t, m.unresolved())
}

func TestSubstituteParams(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		params []string
		args   []string
		want   string
	}{
		{"whole tokens only", "give @s item item_count count", []string{"item", "count"}, []string{"stone", "5"}, "give @s stone item_count 5"},
		{"simultaneous", "a b", []string{"a", "b"}, []string{"b", "a"}, "b a"},
		{"missing args leave params", "a b", []string{"a", "b"}, []string{"1"}, "1 b"},
		{"extra args ignored", "a b", []string{"a"}, []string{"1", "2"}, "1 b"},
		{"punctuation boundaries", "score@obj minecraft:score", []string{"score"}, []string{"kills"}, "kills@obj minecraft:kills"},
		{"longest parameter wins", "ab a", []string{"a", "ab"}, []string{"1", "2"}, "2 1"},
		{"no params", "say x", nil, nil, "say x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteParams(tt.line, tt.params, tt.args))
		})
	}
}

func TestSplitCall(t *testing.T) {
	prefix, payload, ok := splitCall("\texecute run call foo 1 2")
	require.True(t, ok)
	assert.Equal(t, "\texecute run ", prefix)
	assert.Equal(t, " foo 1 2", payload)

	_, _, ok = splitCall("say recall callers")
	assert.False(t, ok)

	prefix, payload, ok = splitCall("say recall call x")
	require.True(t, ok)
	assert.Equal(t, "say recall ", prefix)
	assert.Equal(t, " x", payload)
}

func TestClosestMacro(t *testing.T) {
	defined := []string{"greet", "teleport"}
	assert.Equal(t, "greet", closestMacro("gret", defined))
	assert.Equal(t, "greet", closestMacro("grete", defined))
	assert.Equal(t, "", closestMacro("zzz", defined))
	assert.Equal(t, "", closestMacro("x", nil))
}
