package manifest

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/internal/sema"
)

func compileString(t *testing.T, src string) (*Manifest, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return Compile(v)
}

func TestCompile_Basic(t *testing.T) {
	m, err := compileString(t, `
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
	require.NoError(t, err)

	require.Len(t, m.Crates, 2)
	assert.Equal(t, sema.CrateID(0), m.Crates[0].ID)
	assert.Equal(t, "core", m.Crates[0].Name)
	assert.Equal(t, sema.CrateID(1), m.Crates[1].ID)
	assert.Equal(t, 3, m.DefCount())
	assert.NotEmpty(t, m.Hash)

	vec, ok := m.DefByPath("core::Vec")
	require.True(t, ok)
	assert.Equal(t, sema.DefID{Crate: 0, Index: 0}, vec.ID)
	assert.Equal(t, sema.TypeStruct, vec.Kind)
	assert.Equal(t, []string{"T"}, vec.Generics)
	assert.Equal(t, []sema.DefID{{Crate: 0, Index: 1}}, vec.MemberIDs)

	byID, ok := m.DefByID(sema.DefID{Crate: 1, Index: 0})
	require.True(t, ok)
	assert.Equal(t, "std::HashMap", byID.Path)

	_, ok = m.DefByID(sema.DefID{Crate: 0, Index: 99})
	assert.False(t, ok)
	_, ok = m.DefByPath("core::Missing")
	assert.False(t, ok)
}

func TestCompile_CratesSortedByID(t *testing.T) {
	m, err := compileString(t, `
		crate: dep: {
			id: 2
			defs: [{path: "dep::A", kind: "struct", type: "struct A"}]
		}
		crate: main: {
			id: 0
			defs: [{path: "main::B", kind: "struct", type: "struct B"}]
		}
	`)
	require.NoError(t, err)

	require.Len(t, m.Crates, 2)
	assert.Equal(t, sema.CrateID(0), m.Crates[0].ID)
	assert.Equal(t, sema.CrateID(2), m.Crates[1].ID)
}

func TestCompile_MissingRequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		field string
	}{
		{"no id", `crate: core: {defs: [{path: "a", kind: "fn", type: "fn()"}]}`, "id"},
		{"no defs", `crate: core: {id: 0}`, "defs"},
		{"empty defs", `crate: core: {id: 0, defs: []}`, "defs"},
		{"no path", `crate: core: {id: 0, defs: [{kind: "fn", type: "fn()"}]}`, "path"},
		{"no kind", `crate: core: {id: 0, defs: [{path: "a", type: "fn()"}]}`, "kind"},
		{"no type", `crate: core: {id: 0, defs: [{path: "a", kind: "fn"}]}`, "type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileString(t, tc.src)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestCompile_PathNormalization(t *testing.T) {
	// Decomposed "e" + combining acute in the source; lookups with the
	// composed form must still find the def.
	m, err := compileString(t, `
		crate: core: {
			id: 0
			defs: [{path: "core::café", kind: "struct", type: "struct Cafe"}]
		}
	`)
	require.NoError(t, err)

	def, ok := m.DefByPath("core::café")
	require.True(t, ok)
	assert.Equal(t, sema.NormalizePath("core::café"), def.Path)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			"duplicate crate id",
			`crate: a: {id: 0, defs: [{path: "a::X", kind: "struct", type: "struct X"}]}
			 crate: b: {id: 0, defs: [{path: "b::Y", kind: "struct", type: "struct Y"}]}`,
			"duplicate crate id",
		},
		{
			"duplicate def path",
			`crate: a: {id: 0, defs: [
				{path: "a::X", kind: "struct", type: "struct X"},
				{path: "a::X", kind: "fn", type: "fn()"},
			]}`,
			"duplicate def path",
		},
		{
			"unknown kind",
			`crate: a: {id: 0, defs: [{path: "a::X", kind: "module", type: "mod X"}]}`,
			"unknown def kind",
		},
		{
			"dangling member",
			`crate: a: {id: 0, defs: [
				{path: "a::X", kind: "struct", type: "struct X", members: ["a::Missing"]},
			]}`,
			"not found in crate",
		},
		{
			"self member",
			`crate: a: {id: 0, defs: [
				{path: "a::X", kind: "struct", type: "struct X", members: ["a::X"]},
			]}`,
			"lists itself",
		},
		{
			"bad path",
			`crate: a: {id: 0, defs: [{path: "a::::X", kind: "struct", type: "struct X"}]}`,
			"empty segment",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compileString(t, tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_ForwardMemberReference(t *testing.T) {
	// A member declared after its parent resolves fine.
	m, err := compileString(t, `
		crate: a: {id: 0, defs: [
			{path: "a::Trait", kind: "trait", type: "trait Trait", members: ["a::Trait::method"]},
			{path: "a::Trait::method", kind: "fn", type: "fn(&self)"},
		]}
	`)
	require.NoError(t, err)

	trait, ok := m.DefByPath("a::Trait")
	require.True(t, ok)
	assert.Equal(t, []sema.DefID{{Crate: 0, Index: 1}}, trait.MemberIDs)
}

func TestHashManifest_Stability(t *testing.T) {
	src := `
		crate: core: {
			id: 0
			defs: [{path: "core::Vec", kind: "struct", type: "struct Vec<T>", generics: ["T"]}]
		}
	`
	m1, err := compileString(t, src)
	require.NoError(t, err)
	m2, err := compileString(t, src)
	require.NoError(t, err)
	assert.Equal(t, m1.Hash, m2.Hash)

	changed, err := compileString(t, `
		crate: core: {
			id: 0
			defs: [{path: "core::Vec", kind: "struct", type: "struct Vec<U>", generics: ["U"]}]
		}
	`)
	require.NoError(t, err)
	assert.NotEqual(t, m1.Hash, changed.Hash)
}

func TestLoadDir(t *testing.T) {
	m, err := LoadDir("testdata/basic")
	require.NoError(t, err)

	assert.Len(t, m.Crates, 2)
	assert.Equal(t, 4, m.DefCount())
	assert.NotEmpty(t, m.Hash)

	vec, ok := m.DefByPath("core::Vec")
	require.True(t, ok)
	assert.Equal(t, []string{"core::Vec::len"}, vec.Members)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir("testdata/no-such-dir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadDir_NoCUEFiles(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}
