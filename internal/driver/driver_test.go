package driver

import (
	"context"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/internal/depgraph"
	"github.com/ternlang/tern/internal/diag"
	"github.com/ternlang/tern/internal/manifest"
	"github.com/ternlang/tern/internal/query"
	"github.com/ternlang/tern/internal/sema"
)

func loadTestManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	v := cuecontext.New().CompileString(`
		crate: core: {
			id: 0
			defs: [
				{path: "core::Vec", kind: "struct", type: "struct Vec<T>",
				 generics: ["T"], members: ["core::Vec::len"]},
				{path: "core::Vec::len", kind: "fn", type: "fn(&Vec<T>) -> usize"},
			]
		}
		crate: std: {
			id: 1
			defs: [
				{path: "std::HashMap", kind: "struct", type: "struct HashMap<K, V>",
				 generics: ["K", "V"]},
			]
		}
	`)
	require.NoError(t, v.Err())
	m, err := manifest.Compile(v)
	require.NoError(t, err)
	return m
}

func TestNew_NilManifest(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestSession_RunDeclaredFacts(t *testing.T) {
	session, err := New(loadTestManifest(t),
		WithTokenGenerator(query.NewFixedGenerator("session-test")))
	require.NoError(t, err)

	vec := sema.DefID{Crate: 0, Index: 0}

	res := session.Run(query.TypeOf, vec)
	require.NoError(t, res.Err)
	assert.Equal(t, "core::Vec", res.Path)
	assert.Equal(t, "struct Vec<T>", res.Rendered)

	res = session.Run(query.GenericsOf, vec)
	require.NoError(t, res.Err)
	assert.Equal(t, "<T>", res.Rendered)

	res = session.Run(query.AssocItemIDs, vec)
	require.NoError(t, res.Err)
	assert.Equal(t, "[0:1]", res.Rendered)
}

func TestSession_DerivedKindsNestQueries(t *testing.T) {
	session, err := New(loadTestManifest(t))
	require.NoError(t, err)

	hashMap := sema.DefID{Crate: 1, Index: 0}

	res := session.Run(query.PredicatesOf, hashMap)
	require.NoError(t, res.Err)
	assert.Equal(t, "K: Sized, V: Sized", res.Rendered)

	res = session.Run(query.VariancesOf, hashMap)
	require.NoError(t, res.Err)
	assert.Equal(t, "[o, o]", res.Rendered)

	res = session.Run(query.SizedConstraint, hashMap)
	require.NoError(t, res.Err)
	assert.Equal(t, "struct HashMap<K, V>", res.Rendered)

	// predicates_of ran on top of generics_of: the nesting must be an
	// edge in the dep graph.
	assert.Contains(t, session.Graph.Edges(), depgraph.Edge{
		From: depgraph.MakeNodeID("PredicatesOf", "1:0"),
		To:   depgraph.MakeNodeID("GenericsOf", "1:0"),
	})
}

func TestSession_UnknownCrateUnsupported(t *testing.T) {
	sink := &diag.RecordingSink{}
	session, err := New(loadTestManifest(t), WithSink(sink))
	require.NoError(t, err)

	res := session.Run(query.TypeOf, sema.DefID{Crate: 7, Index: 0})
	require.Error(t, res.Err)
	assert.True(t, query.IsUnsupportedError(res.Err))
	assert.Empty(t, res.Rendered)

	require.Len(t, sink.Reports, 1)
	assert.Equal(t, "UNSUPPORTED_QUERY", sink.Reports[0].Code)
}

func TestSession_InvocationHookCountsMemoization(t *testing.T) {
	calls := make(map[string]int)
	session, err := New(loadTestManifest(t),
		WithInvocationHook(func(kind query.Kind, key sema.DefID) {
			calls[kind.String()+"("+key.String()+")"]++
		}))
	require.NoError(t, err)

	vec := sema.DefID{Crate: 0, Index: 0}

	// generics_of runs once; predicates_of and variances_of both nest
	// it but hit the memo.
	require.NoError(t, session.Run(query.GenericsOf, vec).Err)
	require.NoError(t, session.Run(query.PredicatesOf, vec).Err)
	require.NoError(t, session.Run(query.VariancesOf, vec).Err)

	assert.Equal(t, 1, calls["generics_of(0:0)"])
	assert.Equal(t, 1, calls["predicates_of(0:0)"])
	assert.Equal(t, 1, calls["variances_of(0:0)"])
}

func TestSession_ResolveAll(t *testing.T) {
	session, err := New(loadTestManifest(t))
	require.NoError(t, err)

	results := session.ResolveAll()
	assert.Len(t, results, 3*query.NumKinds)
	for _, res := range results {
		assert.NoError(t, res.Err, "%s(%s)", res.Kind, res.Def)
	}
	assert.Equal(t, 0, session.Engine.StackDepth())
}

func TestSession_Persist(t *testing.T) {
	session, err := New(loadTestManifest(t),
		WithTokenGenerator(query.NewFixedGenerator("session-persist")))
	require.NoError(t, err)

	session.ResolveAll()

	store, err := depgraph.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, session.Persist(ctx, store))

	rec, err := store.ReadSession(ctx, "session-persist")
	require.NoError(t, err)
	assert.Equal(t, session.Manifest.Hash, rec.ManifestHash)
	assert.Len(t, rec.Nodes, session.Graph.NodeCount())
	assert.Len(t, rec.Edges, session.Graph.EdgeCount())
}
