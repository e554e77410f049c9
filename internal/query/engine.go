package query

import (
	"errors"
	"log/slog"

	"github.com/ternlang/tern/internal/depgraph"
	"github.com/ternlang/tern/internal/diag"
	"github.com/ternlang/tern/internal/sema"
)

// DefaultMaxDepth is the default limit on the in-flight query stack.
// Deep linear chains are legal but a chain this deep almost certainly
// means a provider is generating fresh keys forever.
const DefaultMaxDepth = 512

// Engine is the query dispatcher for one compilation session.
//
// It owns one memo table per kind, the in-flight query stack, and a
// handle to the dependency-graph recorder. All of it belongs to one
// thread of control: evaluation is synchronous and recursive, and
// concurrent use of one Engine from multiple goroutines is
// unsupported.
//
// The provider table is assembled by the driver before the first
// request and never changes afterwards. Memo tables and the stack
// start empty and grow lazily over the session; they are discarded
// with the engine (the dep-graph layer owns persistence).
type Engine struct {
	providers *ProviderTable
	graph     depgraph.Recorder
	diags     diag.Sink
	stack     queryStack
	maxDepth  int
	token     string

	typeOf          memoTable[sema.DefID, sema.Type]
	genericsOf      memoTable[sema.DefID, sema.Generics]
	predicatesOf    memoTable[sema.DefID, sema.Predicates]
	variancesOf     memoTable[sema.DefID, []sema.Variance]
	assocItemIDs    memoTable[sema.DefID, []sema.DefID]
	sizedConstraint memoTable[sema.DefID, sema.Type]
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the in-flight stack depth limit.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithDiagnostics installs the sink that receives fatal failure
// reports. Default: discard.
func WithDiagnostics(s diag.Sink) Option {
	return func(e *Engine) {
		e.diags = s
	}
}

// WithTokenGenerator sets the generator for the session token.
// Default: UUIDv7.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.token = g.Generate()
	}
}

// New creates an Engine over an assembled provider table and a
// dependency-graph recorder. A nil graph gets a fresh in-memory one.
func New(providers *ProviderTable, graph depgraph.Recorder, opts ...Option) *Engine {
	if providers == nil {
		providers = NewProviderTable()
	}
	if graph == nil {
		graph = depgraph.NewGraph()
	}

	e := &Engine{
		providers: providers,
		graph:     graph,
		diags:     diag.NopSink{},
		maxDepth:  DefaultMaxDepth,
		token:     UUIDv7Generator{}.Generate(),

		typeOf:          newMemoTable[sema.DefID, sema.Type](TypeOf),
		genericsOf:      newMemoTable[sema.DefID, sema.Generics](GenericsOf),
		predicatesOf:    newMemoTable[sema.DefID, sema.Predicates](PredicatesOf),
		variancesOf:     newMemoTable[sema.DefID, []sema.Variance](VariancesOf),
		assocItemIDs:    newMemoTable[sema.DefID, []sema.DefID](AssocItemIDs),
		sizedConstraint: newMemoTable[sema.DefID, sema.Type](SizedConstraint),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SessionToken returns the token identifying this session.
func (e *Engine) SessionToken() string {
	return e.token
}

// StackDepth returns the number of in-flight frames.
// Used for testing stack integrity after failures.
func (e *Engine) StackDepth() int {
	return e.stack.depth()
}

// MemoLen returns the number of cached entries for a kind.
// Used for testing and introspection.
func (e *Engine) MemoLen(kind Kind) int {
	switch kind {
	case TypeOf:
		return e.typeOf.len()
	case GenericsOf:
		return e.genericsOf.len()
	case PredicatesOf:
		return e.predicatesOf.len()
	case VariancesOf:
		return e.variancesOf.len()
	case AssocItemIDs:
		return e.assocItemIDs.len()
	case SizedConstraint:
		return e.sizedConstraint.len()
	}
	return 0
}

// TypeOf returns the semantic type of a definition.
func (e *Engine) TypeOf(key sema.DefID) (sema.Type, error) {
	return get(e, TypeOf, &e.typeOf, func(p Providers) ProviderFn[sema.DefID, sema.Type] { return p.TypeOf }, key)
}

// GenericsOf returns the generic parameters of a definition.
func (e *Engine) GenericsOf(key sema.DefID) (sema.Generics, error) {
	return get(e, GenericsOf, &e.genericsOf, func(p Providers) ProviderFn[sema.DefID, sema.Generics] { return p.GenericsOf }, key)
}

// PredicatesOf returns the predicates of a definition.
func (e *Engine) PredicatesOf(key sema.DefID) (sema.Predicates, error) {
	return get(e, PredicatesOf, &e.predicatesOf, func(p Providers) ProviderFn[sema.DefID, sema.Predicates] { return p.PredicatesOf }, key)
}

// VariancesOf returns the variances of a definition's parameters.
func (e *Engine) VariancesOf(key sema.DefID) ([]sema.Variance, error) {
	return get(e, VariancesOf, &e.variancesOf, func(p Providers) ProviderFn[sema.DefID, []sema.Variance] { return p.VariancesOf }, key)
}

// AssocItemIDs returns the ids of a definition's associated items.
func (e *Engine) AssocItemIDs(key sema.DefID) ([]sema.DefID, error) {
	return get(e, AssocItemIDs, &e.assocItemIDs, func(p Providers) ProviderFn[sema.DefID, []sema.DefID] { return p.AssocItemIDs }, key)
}

// SizedConstraint returns the sized-constraint type of a definition.
func (e *Engine) SizedConstraint(key sema.DefID) (sema.Type, error) {
	return get(e, SizedConstraint, &e.sizedConstraint, func(p Providers) ProviderFn[sema.DefID, sema.Type] { return p.SizedConstraint }, key)
}

// Context is the handle threaded through every provider invocation.
// It lets a provider issue nested queries against the same engine,
// which recurse into the dispatcher.
type Context struct {
	engine *Engine
}

// Session returns the session token, for provider-side logging.
func (c *Context) Session() string {
	return c.engine.token
}

// TypeOf issues a nested type_of query.
func (c *Context) TypeOf(key sema.DefID) (sema.Type, error) {
	return c.engine.TypeOf(key)
}

// GenericsOf issues a nested generics_of query.
func (c *Context) GenericsOf(key sema.DefID) (sema.Generics, error) {
	return c.engine.GenericsOf(key)
}

// PredicatesOf issues a nested predicates_of query.
func (c *Context) PredicatesOf(key sema.DefID) (sema.Predicates, error) {
	return c.engine.PredicatesOf(key)
}

// VariancesOf issues a nested variances_of query.
func (c *Context) VariancesOf(key sema.DefID) ([]sema.Variance, error) {
	return c.engine.VariancesOf(key)
}

// AssocItemIDs issues a nested assoc_item_ids query.
func (c *Context) AssocItemIDs(key sema.DefID) ([]sema.DefID, error) {
	return c.engine.AssocItemIDs(key)
}

// SizedConstraint issues a nested sized_constraint query.
func (c *Context) SizedConstraint(key sema.DefID) (sema.Type, error) {
	return c.engine.SizedConstraint(key)
}

// get is the dispatch algorithm, written once and instantiated per
// kind by the typed accessors.
//
// Ordering is load-bearing:
//   - the cycle scan precedes provider dispatch unconditionally, so a
//     provider never starts while its own (kind, key) is pending;
//   - the caller's active node is captured before the frame is
//     pushed, so the recorded edge points from the requester, not
//     from the new query itself;
//   - the frame is popped strictly before the memo insert, so a pair
//     is never on the stack and in the cache at once.
func get[K Key, V any](
	e *Engine,
	kind Kind,
	table *memoTable[K, V],
	sel func(Providers) ProviderFn[K, V],
	key K,
) (V, error) {
	var zero V

	if ent, ok := table.lookup(key); ok {
		// A hit still makes the caller's in-progress query depend on
		// the cached result.
		e.graph.RecordEdge(e.graph.CurrentNode(), ent.node)
		return ent.value, nil
	}

	node := e.graph.CreateOrGetNode(kind.depLabel(), key.String())

	if chain, found := e.stack.scan(node); found {
		err := NewCycleError(kind, key.String(), chain)
		e.report(err)
		return zero, err
	}

	if e.stack.depth() >= e.maxDepth {
		err := NewDepthError(kind, key.String(), e.maxDepth)
		e.report(err)
		return zero, err
	}

	caller := e.graph.CurrentNode()
	provider := sel(e.providers.providersFor(key.OwningCrate()))

	slog.Debug("query miss",
		"query", kind.String(),
		"key", key.String(),
		"depth", e.stack.depth(),
	)

	e.stack.push(Frame{Kind: kind, Key: key.String(), Node: node})
	e.graph.PushTask(node)

	value, err := provider(&Context{engine: e}, key)

	// The frame's pair leaves the pending state here on every path -
	// normal return or failure - before anything else happens.
	e.graph.PopTask()
	e.stack.pop()

	if err != nil {
		// Failures are not memoized: a cycle depends on the calling
		// context, and an unsupported slot may be registered later in
		// another session. Retrying the pair is well-defined.
		e.report(err)
		return zero, err
	}

	e.graph.RecordEdge(caller, node)

	if err := table.insert(key, value, node); err != nil {
		e.report(err)
		return zero, err
	}

	return value, nil
}

// report hands a fatal failure to the diagnostics sink exactly once,
// however many nested dispatch levels it propagates through.
func (e *Engine) report(err error) {
	var qe *QueryError
	if !errors.As(err, &qe) || qe.reported {
		return
	}
	qe.reported = true

	chain := make([]string, len(qe.Chain))
	for i, f := range qe.Chain {
		chain[i] = f.String()
	}

	e.diags.Report(diag.Report{
		Code:    string(qe.Code),
		Kind:    qe.Kind.String(),
		Key:     qe.Key,
		Message: qe.Message,
		Chain:   chain,
	})
}
