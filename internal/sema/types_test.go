package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerics_Render(t *testing.T) {
	assert.Equal(t, "<>", Generics{}.Render())
	assert.Equal(t, "<T>", Generics{Params: []string{"T"}}.Render())
	assert.Equal(t, "<T, U>", Generics{Params: []string{"T", "U"}}.Render())
}

func TestPredicates_Render(t *testing.T) {
	assert.Equal(t, "", Predicates{}.Render())

	preds := Predicates{Preds: []Predicate{
		{Param: "T", Bound: "Sized"},
		{Param: "U", Bound: "Clone"},
	}}
	assert.Equal(t, "T: Sized, U: Clone", preds.Render())
}

func TestVariance_Render(t *testing.T) {
	assert.Equal(t, "o", Invariant.String())
	assert.Equal(t, "+", Covariant.String())
	assert.Equal(t, "-", Contravariant.String())
	assert.Equal(t, "*", Bivariant.String())

	assert.Equal(t, "[]", RenderVariances(nil))
	assert.Equal(t, "[o, +, -]", RenderVariances([]Variance{Invariant, Covariant, Contravariant}))
}

func TestRenderDefIDs(t *testing.T) {
	assert.Equal(t, "[]", RenderDefIDs(nil))
	assert.Equal(t, "[0:1, 0:2]", RenderDefIDs([]DefID{{Index: 1}, {Index: 2}}))
}

func TestValidTypeKind(t *testing.T) {
	for _, k := range []string{"struct", "enum", "fn", "trait", "const"} {
		assert.True(t, ValidTypeKind(k), k)
	}
	assert.False(t, ValidTypeKind(""))
	assert.False(t, ValidTypeKind("module"))
}
