package compiler

import (
	"testing"

	"github.com/rubiojr/mcfc/datapack"
	"github.com/stretchr/testify/require"
)

func testNamespace(t *testing.T) *datapack.Namespace {
	t.Helper()
	dp, err := datapack.New(t.TempDir(), "pack")
	require.NoError(t, err)
	ns, err := dp.Namespace("ns")
	require.NoError(t, err)
	return ns
}

// runStage applies st to scopes and collects the result.
func runStage(t *testing.T, st Stage, scopes ...*Scope) []*Scope {
	t.Helper()
	out, err := Collect(st.Apply(Scopes(scopes...)))
	require.NoError(t, err)
	return out
}

func names(scopes []*Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = s.Name
	}
	return out
}

func contents(scopes []*Scope) map[string]string {
	out := make(map[string]string, len(scopes))
	for _, s := range scopes {
		out[s.Name] = s.Content
	}
	return out
}
