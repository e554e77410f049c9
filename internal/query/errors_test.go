package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryError_Codes(t *testing.T) {
	cycle := NewCycleError(TypeOf, "0:1", []Frame{frame(TypeOf, "0:1")})
	unsupported := NewUnsupportedError(GenericsOf, "1:3")
	purity := NewPurityError(TypeOf, "0:1")
	depth := NewDepthError(TypeOf, "0:700", 512)

	assert.True(t, IsCycleError(cycle))
	assert.True(t, IsUnsupportedError(unsupported))
	assert.True(t, IsPurityError(purity))
	assert.True(t, IsDepthError(depth))

	assert.False(t, IsCycleError(unsupported))
	assert.False(t, IsUnsupportedError(cycle))
	assert.False(t, IsCycleError(nil))
	assert.False(t, IsCycleError(fmt.Errorf("plain error")))
}

func TestQueryError_WrappedDetection(t *testing.T) {
	inner := NewUnsupportedError(TypeOf, "2:5")
	wrapped := fmt.Errorf("resolving member: %w", inner)

	assert.True(t, IsUnsupportedError(wrapped))
	assert.False(t, IsCycleError(wrapped))
}

func TestQueryError_Messages(t *testing.T) {
	unsupported := NewUnsupportedError(TypeOf, "1:3")
	assert.Equal(t, "UNSUPPORTED_QUERY: type_of(1:3) unsupported by its crate", unsupported.Error())

	chain := []Frame{frame(TypeOf, "0:1"), frame(TypeOf, "0:2")}
	cycle := NewCycleError(TypeOf, "0:1", chain)
	assert.Equal(t, "CYCLE_DETECTED: cyclic dependency computing type_of(0:1) (chain length 2)", cycle.Error())

	depth := NewDepthError(GenericsOf, "0:9", 16)
	require.Equal(t, 16, depth.Limit)
	assert.Contains(t, depth.Error(), "depth limit (16)")
}

func TestKind_WireNames(t *testing.T) {
	want := map[Kind]string{
		TypeOf:          "type_of",
		GenericsOf:      "generics_of",
		PredicatesOf:    "predicates_of",
		VariancesOf:     "variances_of",
		AssocItemIDs:    "assoc_item_ids",
		SizedConstraint: "sized_constraint",
	}
	require.Len(t, want, NumKinds)

	for kind, name := range want {
		assert.Equal(t, name, kind.String())

		parsed, ok := KindFromString(name)
		require.True(t, ok)
		assert.Equal(t, kind, parsed)
	}

	_, ok := KindFromString("no_such_kind")
	assert.False(t, ok)
}

func TestKind_DepLabelsDistinct(t *testing.T) {
	seen := make(map[string]Kind)
	for _, kind := range Kinds() {
		label := kind.depLabel()
		prev, dup := seen[label]
		require.False(t, dup, "kinds %s and %s share dep label %q", prev, kind, label)
		seen[label] = kind
	}
}
