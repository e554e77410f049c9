package query

import (
	"fmt"

	"github.com/ternlang/tern/internal/sema"
)

// Kind names one of the fixed, compile-time-registered semantic
// computations. The set is closed: adding a kind means adding an enum
// value, a Providers slot, a memo table, and an Engine accessor - all
// checked at compile time.
type Kind int

const (
	TypeOf Kind = iota
	GenericsOf
	PredicatesOf
	VariancesOf
	AssocItemIDs
	SizedConstraint

	numKinds
)

// NumKinds is the number of registered query kinds.
const NumKinds = int(numKinds)

// String returns the kind's wire name, e.g. "type_of".
func (k Kind) String() string {
	switch k {
	case TypeOf:
		return "type_of"
	case GenericsOf:
		return "generics_of"
	case PredicatesOf:
		return "predicates_of"
	case VariancesOf:
		return "variances_of"
	case AssocItemIDs:
		return "assoc_item_ids"
	case SizedConstraint:
		return "sized_constraint"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// depLabel is the dependency-node label for the kind.
//
// Each kind gets its own label, so node identity coincides exactly
// with (kind, key) equality - both for the cycle scan and for
// dep-graph node reuse. Two kinds never alias one node.
func (k Kind) depLabel() string {
	switch k {
	case TypeOf:
		return "TypeOf"
	case GenericsOf:
		return "GenericsOf"
	case PredicatesOf:
		return "PredicatesOf"
	case VariancesOf:
		return "VariancesOf"
	case AssocItemIDs:
		return "AssocItemDefIds"
	case SizedConstraint:
		return "SizedConstraint"
	}
	return fmt.Sprintf("Kind%d", int(k))
}

// KindFromString parses a wire name back to a Kind.
func KindFromString(s string) (Kind, bool) {
	for k := Kind(0); k < numKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns all registered kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, NumKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Key is the constraint every query key satisfies: comparable (memo
// map key), knows its owning crate (dispatch routing), and has a
// canonical rendering (node identity and diagnostics).
//
// All current kinds key on sema.DefID; the constraint keeps the
// dispatcher generic over future kinds with other key types.
type Key interface {
	comparable
	OwningCrate() sema.CrateID
	String() string
}
