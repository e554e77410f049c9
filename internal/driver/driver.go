// Package driver assembles compilation sessions.
//
// The driver is the collaborator the query engine is built for: it
// registers one provider set per crate before the first request,
// threads fatal failures to the diagnostics sink, and persists the
// finished session's dependency graph. The providers it installs are
// manifest lookups - the engine merely invokes them, and a real
// front-end would swap in actual inference without the engine
// noticing.
package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ternlang/tern/internal/depgraph"
	"github.com/ternlang/tern/internal/diag"
	"github.com/ternlang/tern/internal/manifest"
	"github.com/ternlang/tern/internal/query"
	"github.com/ternlang/tern/internal/sema"
)

// InvocationHook observes every provider invocation. Installed by the
// harness to trace and count provider executions; nil means no
// observation.
type InvocationHook func(kind query.Kind, key sema.DefID)

// Session is one compilation session: the loaded manifest, the engine
// with its assembled provider table, and the in-memory dep graph the
// engine records into.
type Session struct {
	Manifest *manifest.Manifest
	Engine   *query.Engine
	Graph    *depgraph.Graph
}

// Option configures session assembly.
type Option func(*config)

type config struct {
	sink     diag.Sink
	tokenGen query.TokenGenerator
	maxDepth int
	hook     InvocationHook
}

// WithSink installs the diagnostics sink for fatal failures.
// Default: slog-backed.
func WithSink(s diag.Sink) Option {
	return func(c *config) {
		c.sink = s
	}
}

// WithTokenGenerator sets the session-token generator.
// Default: UUIDv7.
func WithTokenGenerator(g query.TokenGenerator) Option {
	return func(c *config) {
		c.tokenGen = g
	}
}

// WithMaxDepth sets the engine's query-stack depth limit.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithInvocationHook installs a provider-invocation observer.
func WithInvocationHook(h InvocationHook) Option {
	return func(c *config) {
		c.hook = h
	}
}

// New assembles a session from a loaded manifest.
//
// The provider table is built here, once, and is read-only for the
// session's lifetime: every manifest crate gets the full provider
// set; crates outside the manifest stay unsupported and fail loudly.
func New(m *manifest.Manifest, opts ...Option) (*Session, error) {
	if m == nil {
		return nil, fmt.Errorf("driver: nil manifest")
	}

	cfg := &config{
		sink:     diag.NewSlogSink(nil),
		tokenGen: query.UUIDv7Generator{},
		maxDepth: query.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	table := query.NewProviderTable()
	providers := newManifestProviders(m, cfg.hook)
	for _, crate := range m.Crates {
		table.Register(crate.ID, providers.forCrate())
	}

	graph := depgraph.NewGraph()
	engine := query.New(table, graph,
		query.WithDiagnostics(cfg.sink),
		query.WithTokenGenerator(cfg.tokenGen),
		query.WithMaxDepth(cfg.maxDepth),
	)

	slog.Debug("session assembled",
		"session", engine.SessionToken(),
		"manifest_hash", m.Hash,
		"crates", len(m.Crates),
		"defs", m.DefCount(),
	)

	return &Session{
		Manifest: m,
		Engine:   engine,
		Graph:    graph,
	}, nil
}

// Persist writes the session's dep graph to the store, keyed by the
// session token and the manifest fingerprint.
func (s *Session) Persist(ctx context.Context, store *depgraph.Store) error {
	token := s.Engine.SessionToken()
	if err := store.SaveSession(ctx, token, s.Manifest.Hash, s.Graph); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	slog.Info("session persisted",
		"session", token,
		"nodes", s.Graph.NodeCount(),
		"edges", s.Graph.EdgeCount(),
	)

	return nil
}

// Result is one resolved query for the CLI and the harness.
type Result struct {
	Kind     query.Kind
	Def      sema.DefID
	Path     string
	Rendered string
	Err      error
}

// Run evaluates one query kind for one definition and renders the
// value. Unknown kinds are a programming error and panic.
func (s *Session) Run(kind query.Kind, def sema.DefID) Result {
	res := Result{Kind: kind, Def: def}
	if d, ok := s.Manifest.DefByID(def); ok {
		res.Path = d.Path
	}

	switch kind {
	case query.TypeOf:
		v, err := s.Engine.TypeOf(def)
		res.Rendered, res.Err = v.Render(), err
	case query.GenericsOf:
		v, err := s.Engine.GenericsOf(def)
		res.Rendered, res.Err = v.Render(), err
	case query.PredicatesOf:
		v, err := s.Engine.PredicatesOf(def)
		res.Rendered, res.Err = v.Render(), err
	case query.VariancesOf:
		v, err := s.Engine.VariancesOf(def)
		res.Rendered, res.Err = sema.RenderVariances(v), err
	case query.AssocItemIDs:
		v, err := s.Engine.AssocItemIDs(def)
		res.Rendered, res.Err = sema.RenderDefIDs(v), err
	case query.SizedConstraint:
		v, err := s.Engine.SizedConstraint(def)
		res.Rendered, res.Err = v.Render(), err
	default:
		panic(fmt.Sprintf("driver: unknown query kind %d", int(kind)))
	}

	if res.Err != nil {
		res.Rendered = ""
	}
	return res
}

// ResolveAll evaluates every query kind for every definition in the
// manifest, in crate/def/kind order. Failures are carried in the
// results, not aborted on: the caller decides whether one fatal query
// ends the whole run.
func (s *Session) ResolveAll() []Result {
	var out []Result
	for _, crate := range s.Manifest.Crates {
		for _, def := range crate.Defs {
			for _, kind := range query.Kinds() {
				out = append(out, s.Run(kind, def.ID))
			}
		}
	}
	return out
}
