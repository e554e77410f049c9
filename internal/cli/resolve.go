package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern/internal/depgraph"
	"github.com/ternlang/tern/internal/diag"
	"github.com/ternlang/tern/internal/driver"
	"github.com/ternlang/tern/internal/manifest"
	"github.com/ternlang/tern/internal/query"
	"github.com/ternlang/tern/internal/sema"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	Def   string // resolve only this def (path or "crate:index")
	Query string // resolve only this query kind
	DB    string // persist the dep graph to this SQLite database
}

// ResolvedQuery is one query result in the JSON payload.
type ResolvedQuery struct {
	Query string `json:"query"`
	Def   string `json:"def"`
	Path  string `json:"path,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// ResolveSummary is the data payload of a resolve run.
type ResolveSummary struct {
	SessionToken string          `json:"session_token"`
	ManifestHash string          `json:"manifest_hash"`
	Results      []ResolvedQuery `json:"results"`
	Failures     int             `json:"failures"`
	GraphNodes   int             `json:"graph_nodes"`
	GraphEdges   int             `json:"graph_edges"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <manifest-dir>",
		Short: "Run semantic queries over a manifest",
		Long: `Load crate manifests, assemble a session, and evaluate semantic
queries. By default every query kind runs for every definition;
--def and --query narrow the run. --db persists the session's
dependency graph for later inspection with "tern graph".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Def, "def", "", "resolve only this definition (path or crate:index)")
	cmd.Flags().StringVar(&opts.Query, "query", "", "resolve only this query kind")
	cmd.Flags().StringVar(&opts.DB, "db", "", "persist the dependency graph to this SQLite database")

	return cmd
}

func runResolve(rootOpts *RootOptions, opts *ResolveOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	m, err := loadManifestOrExit(formatter, dir)
	if err != nil {
		return err
	}

	session, err := driver.New(m, driver.WithSink(diag.NewSlogSink(nil)))
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "assembling session", err)
	}

	formatter.VerboseLog("Session %s over %d crate(s)", session.Engine.SessionToken(), len(m.Crates))

	results, err := collectResults(session, opts)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "resolving", err)
	}

	summary := ResolveSummary{
		SessionToken: session.Engine.SessionToken(),
		ManifestHash: m.Hash,
	}
	for _, res := range results {
		rq := ResolvedQuery{
			Query: res.Kind.String(),
			Def:   res.Def.String(),
			Path:  res.Path,
			Value: res.Rendered,
		}
		if res.Err != nil {
			rq.Error = res.Err.Error()
			summary.Failures++
		}
		summary.Results = append(summary.Results, rq)
	}
	summary.GraphNodes = session.Graph.NodeCount()
	summary.GraphEdges = session.Graph.EdgeCount()

	if opts.DB != "" {
		if err := persistGraph(cmd, session, opts.DB); err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "persisting dependency graph", err)
		}
		formatter.VerboseLog("Graph persisted to %s", opts.DB)
	}

	if rootOpts.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		printResolveText(formatter, &summary)
	}

	if summary.Failures > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d quer(ies) failed", summary.Failures))
	}
	return nil
}

func collectResults(session *driver.Session, opts *ResolveOptions) ([]driver.Result, error) {
	var kinds []query.Kind
	if opts.Query != "" {
		kind, ok := query.KindFromString(opts.Query)
		if !ok {
			return nil, fmt.Errorf("unknown query kind %q", opts.Query)
		}
		kinds = []query.Kind{kind}
	} else {
		kinds = query.Kinds()
	}

	if opts.Def == "" {
		if opts.Query == "" {
			return session.ResolveAll(), nil
		}
		var out []driver.Result
		for _, crate := range session.Manifest.Crates {
			for _, def := range crate.Defs {
				for _, kind := range kinds {
					out = append(out, session.Run(kind, def.ID))
				}
			}
		}
		return out, nil
	}

	id, err := resolveDefRef(session.Manifest, opts.Def)
	if err != nil {
		return nil, err
	}
	var out []driver.Result
	for _, kind := range kinds {
		out = append(out, session.Run(kind, id))
	}
	return out, nil
}

func resolveDefRef(m *manifest.Manifest, ref string) (sema.DefID, error) {
	if def, ok := m.DefByPath(ref); ok {
		return def.ID, nil
	}
	id, err := sema.ParseDefID(ref)
	if err != nil {
		return sema.DefID{}, fmt.Errorf("def %q is neither a manifest path nor a def id", ref)
	}
	return id, nil
}

func persistGraph(cmd *cobra.Command, session *driver.Session, dbPath string) error {
	store, err := depgraph.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return session.Persist(cmd.Context(), store)
}

func printResolveText(formatter *OutputFormatter, summary *ResolveSummary) {
	formatter.Textf("Session %s (manifest %s)\n", summary.SessionToken, shortHash(summary.ManifestHash))
	for _, res := range summary.Results {
		name := res.Def
		if res.Path != "" {
			name = res.Path
		}
		if res.Error != "" {
			formatter.Textf("  %s(%s) = error: %s\n", res.Query, name, res.Error)
			continue
		}
		formatter.Textf("  %s(%s) = %s\n", res.Query, name, res.Value)
	}
	formatter.Textf("Graph: %d node(s), %d edge(s)\n", summary.GraphNodes, summary.GraphEdges)
	if summary.Failures > 0 {
		formatter.Textf("Failures: %d\n", summary.Failures)
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
