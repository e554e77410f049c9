package depgraph

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (sessions, nodes, edges)
const currentSchemaVersion = 1

// Store persists finished session graphs to SQLite.
//
// The store is off the query hot path: the driver saves a graph once,
// after evaluation, and the CLI reads graphs back for inspection.
// WAL mode allows concurrent readers while a session is being written.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY on the write path.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	// No historical migrations yet; just stamp the current version.
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// SessionRecord is a persisted session read back from the store.
type SessionRecord struct {
	Token        string
	ManifestHash string
	Nodes        []Node
	Edges        []Edge
}

// SaveSession writes a session's graph in a single transaction.
//
// Writing the same session token twice is idempotent: all inserts use
// ON CONFLICT DO NOTHING, so a re-save of an identical graph is a
// no-op rather than an error.
func (s *Store) SaveSession(ctx context.Context, token, manifestHash string, g *Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save session %s: begin: %w", token, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (token, manifest_hash)
		VALUES (?, ?)
		ON CONFLICT(token) DO NOTHING
	`, token, manifestHash)
	if err != nil {
		return fmt.Errorf("save session %s: write session: %w", token, err)
	}

	for _, node := range g.Nodes() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO nodes (session_token, id, seq)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, token, string(node.ID), node.Seq)
		if err != nil {
			return fmt.Errorf("save session %s: write node %s: %w", token, node.ID, err)
		}
	}

	for _, edge := range g.Edges() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO edges (session_token, from_id, to_id)
			VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, token, string(edge.From), string(edge.To))
		if err != nil {
			return fmt.Errorf("save session %s: write edge %s -> %s: %w", token, edge.From, edge.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save session %s: commit: %w", token, err)
	}

	return nil
}

// ReadSession reads a persisted session back. Nodes come in allocation
// order (seq) and edges in (from, to) order for deterministic output.
func (s *Store) ReadSession(ctx context.Context, token string) (*SessionRecord, error) {
	rec := &SessionRecord{Token: token}

	err := s.db.QueryRowContext(ctx, `
		SELECT manifest_hash FROM sessions WHERE token = ?
	`, token).Scan(&rec.ManifestHash)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", token)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", token, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq FROM nodes WHERE session_token = ? ORDER BY seq
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read session %s: nodes: %w", token, err)
	}
	defer rows.Close()

	for rows.Next() {
		var node Node
		var id string
		if err := rows.Scan(&id, &node.Seq); err != nil {
			return nil, fmt.Errorf("read session %s: scan node: %w", token, err)
		}
		node.ID = NodeID(id)
		rec.Nodes = append(rec.Nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read session %s: nodes: %w", token, err)
	}

	edgeRows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id FROM edges WHERE session_token = ? ORDER BY from_id, to_id
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read session %s: edges: %w", token, err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var from, to string
		if err := edgeRows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("read session %s: scan edge: %w", token, err)
		}
		rec.Edges = append(rec.Edges, Edge{From: NodeID(from), To: NodeID(to)})
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("read session %s: edges: %w", token, err)
	}

	return rec, nil
}

// ListSessions returns the tokens of all persisted sessions, newest
// first.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token FROM sessions ORDER BY created_at DESC, token
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return tokens, nil
}
