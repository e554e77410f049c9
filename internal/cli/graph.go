package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ternlang/tern/internal/depgraph"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	Session string // session token; default: list sessions
}

// GraphNode is one node in the JSON payload.
type GraphNode struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`
}

// GraphEdge is one edge in the JSON payload.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphDump is the data payload of a graph dump.
type GraphDump struct {
	SessionToken string      `json:"session_token"`
	ManifestHash string      `json:"manifest_hash"`
	Nodes        []GraphNode `json:"nodes"`
	Edges        []GraphEdge `json:"edges"`
}

// SessionList is the data payload when no session is selected.
type SessionList struct {
	Sessions []string `json:"sessions"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{}

	cmd := &cobra.Command{
		Use:   "graph <db>",
		Short: "Inspect a persisted dependency graph",
		Long: `Read a dependency graph persisted by "tern resolve --db".
Without --session, lists the persisted sessions; with --session,
dumps that session's nodes (in allocation order) and edges.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to dump")

	return cmd
}

func runGraph(rootOpts *RootOptions, opts *GraphOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		formatter.Error(ErrCodeStore, "database not found: "+dbPath, nil)
		return NewExitError(ExitCommandError, "database not found: "+dbPath)
	}

	store, err := depgraph.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	if opts.Session == "" {
		tokens, err := store.ListSessions(ctx)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "listing sessions", err)
		}

		if rootOpts.Format == "json" {
			return formatter.Success(SessionList{Sessions: tokens})
		}
		if len(tokens) == 0 {
			formatter.Textf("No sessions recorded\n")
			return nil
		}
		for _, token := range tokens {
			formatter.Textf("%s\n", token)
		}
		return nil
	}

	rec, err := store.ReadSession(ctx, opts.Session)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading session", err)
	}

	dump := GraphDump{
		SessionToken: rec.Token,
		ManifestHash: rec.ManifestHash,
	}
	for _, node := range rec.Nodes {
		dump.Nodes = append(dump.Nodes, GraphNode{ID: string(node.ID), Seq: node.Seq})
	}
	for _, edge := range rec.Edges {
		dump.Edges = append(dump.Edges, GraphEdge{From: string(edge.From), To: string(edge.To)})
	}

	if rootOpts.Format == "json" {
		return formatter.Success(dump)
	}

	formatter.Textf("Session %s (manifest %s)\n", dump.SessionToken, shortHash(dump.ManifestHash))
	formatter.Textf("Nodes:\n")
	for _, node := range dump.Nodes {
		formatter.Textf("  %4d  %s\n", node.Seq, node.ID)
	}
	formatter.Textf("Edges:\n")
	for _, edge := range dump.Edges {
		formatter.Textf("  %s -> %s\n", edge.From, edge.To)
	}
	return nil
}
