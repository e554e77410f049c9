package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternlang/tern/internal/sema"
)

func TestProviderTable_RegisterBackfillsNilSlots(t *testing.T) {
	table := NewProviderTable()
	table.Register(0, Providers{
		TypeOf: func(_ *Context, key sema.DefID) (sema.Type, error) {
			return sema.Type{Kind: sema.TypeStruct, Repr: "t"}, nil
		},
	})

	p := table.providersFor(0)
	require.NotNil(t, p.GenericsOf)

	_, err := p.GenericsOf(nil, def(0, 1))
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))

	got, err := p.TypeOf(nil, def(0, 1))
	require.NoError(t, err)
	assert.Equal(t, "t", got.Repr)
}

func TestProviderTable_UnregisteredCrateGetsStubs(t *testing.T) {
	table := NewProviderTable()

	p := table.providersFor(7)
	_, err := p.SizedConstraint(nil, def(7, 2))
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))
	assert.Contains(t, err.Error(), "sized_constraint(7:2)")
}

func TestProviderTable_Crates(t *testing.T) {
	table := NewProviderTable()
	assert.Empty(t, table.Crates())

	table.Register(0, Providers{})
	table.Register(3, Providers{})
	assert.ElementsMatch(t, []sema.CrateID{0, 3}, table.Crates())
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	first := gen.Generate()
	second := gen.Generate()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
