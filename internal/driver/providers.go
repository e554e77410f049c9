package driver

import (
	"fmt"

	"github.com/ternlang/tern/internal/manifest"
	"github.com/ternlang/tern/internal/query"
	"github.com/ternlang/tern/internal/sema"
)

// manifestProviders answers queries from manifest declarations.
//
// These are deliberately not semantic analysis: type_of is the
// declared type, generics_of the declared parameters, and the derived
// kinds (predicates_of, variances_of, sized_constraint) demonstrate
// nested queries by building on the declared facts. One instance
// serves all crates; routing by owning crate happens in the engine,
// and the def index spans the whole manifest.
type manifestProviders struct {
	defs map[sema.DefID]*manifest.Def
	hook InvocationHook
}

func newManifestProviders(m *manifest.Manifest, hook InvocationHook) *manifestProviders {
	p := &manifestProviders{
		defs: make(map[sema.DefID]*manifest.Def, m.DefCount()),
		hook: hook,
	}
	for ci := range m.Crates {
		crate := &m.Crates[ci]
		for di := range crate.Defs {
			def := &crate.Defs[di]
			p.defs[def.ID] = def
		}
	}
	return p
}

// forCrate returns the provider set registered for each manifest
// crate. The same set serves every crate; the engine's routing
// guarantees a provider only ever sees keys its table was registered
// for.
func (p *manifestProviders) forCrate() query.Providers {
	return query.Providers{
		TypeOf:          p.typeOf,
		GenericsOf:      p.genericsOf,
		PredicatesOf:    p.predicatesOf,
		VariancesOf:     p.variancesOf,
		AssocItemIDs:    p.assocItemIDs,
		SizedConstraint: p.sizedConstraint,
	}
}

func (p *manifestProviders) observe(kind query.Kind, key sema.DefID) {
	if p.hook != nil {
		p.hook(kind, key)
	}
}

func (p *manifestProviders) lookup(kind query.Kind, key sema.DefID) (*manifest.Def, error) {
	def, ok := p.defs[key]
	if !ok {
		return nil, fmt.Errorf("%s: no definition %s in manifest", kind, key)
	}
	return def, nil
}

func (p *manifestProviders) typeOf(_ *query.Context, key sema.DefID) (sema.Type, error) {
	p.observe(query.TypeOf, key)
	def, err := p.lookup(query.TypeOf, key)
	if err != nil {
		return sema.Type{}, err
	}
	return sema.Type{Kind: def.Kind, Repr: def.Type}, nil
}

func (p *manifestProviders) genericsOf(_ *query.Context, key sema.DefID) (sema.Generics, error) {
	p.observe(query.GenericsOf, key)
	def, err := p.lookup(query.GenericsOf, key)
	if err != nil {
		return sema.Generics{}, err
	}
	return sema.Generics{Params: def.Generics}, nil
}

// predicatesOf derives one Sized bound per generic parameter. Issues
// a nested generics_of query rather than reading the manifest
// directly, so the derivation is recorded in the dep graph.
func (p *manifestProviders) predicatesOf(ctx *query.Context, key sema.DefID) (sema.Predicates, error) {
	p.observe(query.PredicatesOf, key)
	generics, err := ctx.GenericsOf(key)
	if err != nil {
		return sema.Predicates{}, fmt.Errorf("%s(%s): %w", query.PredicatesOf, key, err)
	}

	preds := sema.Predicates{}
	for _, param := range generics.Params {
		preds.Preds = append(preds.Preds, sema.Predicate{Param: param, Bound: "Sized"})
	}
	return preds, nil
}

// variancesOf reports every parameter as invariant - the safe answer
// absent real variance inference. Nested generics_of for the
// parameter count.
func (p *manifestProviders) variancesOf(ctx *query.Context, key sema.DefID) ([]sema.Variance, error) {
	p.observe(query.VariancesOf, key)
	generics, err := ctx.GenericsOf(key)
	if err != nil {
		return nil, fmt.Errorf("%s(%s): %w", query.VariancesOf, key, err)
	}

	vs := make([]sema.Variance, len(generics.Params))
	for i := range vs {
		vs[i] = sema.Invariant
	}
	return vs, nil
}

func (p *manifestProviders) assocItemIDs(_ *query.Context, key sema.DefID) ([]sema.DefID, error) {
	p.observe(query.AssocItemIDs, key)
	def, err := p.lookup(query.AssocItemIDs, key)
	if err != nil {
		return nil, err
	}
	out := make([]sema.DefID, len(def.MemberIDs))
	copy(out, def.MemberIDs)
	return out, nil
}

// sizedConstraint is the definition's own type: without field-level
// analysis, a def is exactly as sized as its declared type.
func (p *manifestProviders) sizedConstraint(ctx *query.Context, key sema.DefID) (sema.Type, error) {
	p.observe(query.SizedConstraint, key)
	typ, err := ctx.TypeOf(key)
	if err != nil {
		return sema.Type{}, fmt.Errorf("%s(%s): %w", query.SizedConstraint, key, err)
	}
	return typ, nil
}
