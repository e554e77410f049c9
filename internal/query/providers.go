package query

import (
	"github.com/ternlang/tern/internal/sema"
)

// ProviderFn computes the value for one key of one kind. The Context
// handle reaches back into the same engine, so a provider may issue
// further queries - including ones answered by other crates'
// providers.
type ProviderFn[K Key, V any] func(*Context, K) (V, error)

// Providers is one crate's implementation of the query kinds: one
// typed slot per kind. The closed kind set makes this a plain struct
// rather than a runtime registry - adding a kind without adding a
// slot does not compile.
type Providers struct {
	TypeOf          ProviderFn[sema.DefID, sema.Type]
	GenericsOf      ProviderFn[sema.DefID, sema.Generics]
	PredicatesOf    ProviderFn[sema.DefID, sema.Predicates]
	VariancesOf     ProviderFn[sema.DefID, []sema.Variance]
	AssocItemIDs    ProviderFn[sema.DefID, []sema.DefID]
	SizedConstraint ProviderFn[sema.DefID, sema.Type]
}

// DefaultProviders returns a Providers with every slot filled by a
// stub that fails with UNSUPPORTED_QUERY naming the kind and key.
//
// An unregistered slot is a compiler defect, not a default value:
// silently returning a zero value would mask the missing
// registration, so the stub surfaces it through the error channel
// instead.
func DefaultProviders() Providers {
	return Providers{
		TypeOf:          unsupported[sema.DefID, sema.Type](TypeOf),
		GenericsOf:      unsupported[sema.DefID, sema.Generics](GenericsOf),
		PredicatesOf:    unsupported[sema.DefID, sema.Predicates](PredicatesOf),
		VariancesOf:     unsupported[sema.DefID, []sema.Variance](VariancesOf),
		AssocItemIDs:    unsupported[sema.DefID, []sema.DefID](AssocItemIDs),
		SizedConstraint: unsupported[sema.DefID, sema.Type](SizedConstraint),
	}
}

func unsupported[K Key, V any](kind Kind) ProviderFn[K, V] {
	return func(_ *Context, key K) (V, error) {
		var zero V
		return zero, NewUnsupportedError(kind, key.String())
	}
}

// ProviderTable routes (kind, crate) to a provider. It is assembled
// once at session start by the driver and read-only afterwards.
type ProviderTable struct {
	byCrate map[sema.CrateID]Providers
}

// NewProviderTable creates an empty table. Every crate resolves to
// the unsupported stubs until Register fills its row.
func NewProviderTable() *ProviderTable {
	return &ProviderTable{
		byCrate: make(map[sema.CrateID]Providers),
	}
}

// Register installs a crate's providers. Nil slots are backfilled
// with the unsupported stubs, so a crate that implements only some
// kinds fails loudly - not with a nil call - on the rest.
// Registering the same crate again replaces its row.
func (t *ProviderTable) Register(crate sema.CrateID, p Providers) {
	defaults := DefaultProviders()
	if p.TypeOf == nil {
		p.TypeOf = defaults.TypeOf
	}
	if p.GenericsOf == nil {
		p.GenericsOf = defaults.GenericsOf
	}
	if p.PredicatesOf == nil {
		p.PredicatesOf = defaults.PredicatesOf
	}
	if p.VariancesOf == nil {
		p.VariancesOf = defaults.VariancesOf
	}
	if p.AssocItemIDs == nil {
		p.AssocItemIDs = defaults.AssocItemIDs
	}
	if p.SizedConstraint == nil {
		p.SizedConstraint = defaults.SizedConstraint
	}
	t.byCrate[crate] = p
}

// Crates returns the crates with a registered row.
func (t *ProviderTable) Crates() []sema.CrateID {
	out := make([]sema.CrateID, 0, len(t.byCrate))
	for crate := range t.byCrate {
		out = append(out, crate)
	}
	return out
}

// providersFor resolves a crate's row, falling back to the stubs for
// a crate that was never registered.
func (t *ProviderTable) providersFor(crate sema.CrateID) Providers {
	if p, ok := t.byCrate[crate]; ok {
		return p
	}
	return DefaultProviders()
}
