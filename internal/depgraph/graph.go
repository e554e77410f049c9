// Package depgraph is the dependency-graph collaborator of the query
// engine.
//
// The engine binds every resolved query result to a node and records
// an edge from whichever node was executing when the query was issued.
// That is the whole contract: this package stores nodes and edges and
// answers "which node is executing right now"; it does not implement
// invalidation, which belongs to a later incremental-compilation layer.
//
// Graph is the in-memory recorder owned by one session. Store persists
// a finished session's graph to SQLite so it can be inspected after
// the fact.
package depgraph

// Recorder is the interface the query engine calls.
//
// CurrentNode answers with the node whose query is presently
// executing, or Root if none. CreateOrGetNode is deterministic: the
// same (label, key) always yields the same NodeID within a session.
// PushTask/PopTask bracket provider execution so CurrentNode can
// answer; the engine guarantees they are balanced on every exit path.
type Recorder interface {
	CurrentNode() NodeID
	CreateOrGetNode(label, key string) NodeID
	RecordEdge(from, to NodeID)
	PushTask(node NodeID)
	PopTask()
}

// Node is a dependency-graph node plus its allocation order.
type Node struct {
	ID  NodeID
	Seq int64
}

// Edge records that the query at From depended on the query at To.
type Edge struct {
	From NodeID
	To   NodeID
}

// Graph is the in-memory Recorder for one session.
//
// Not safe for concurrent use: it is owned by a single engine instance
// on a single thread of control, same as the engine's own tables.
type Graph struct {
	clock    *Clock
	nodes    map[NodeID]Node
	order    []NodeID
	edges    []Edge
	edgeSeen map[Edge]struct{}
	tasks    []NodeID
}

// NewGraph creates an empty graph with a fresh clock.
func NewGraph() *Graph {
	return &Graph{
		clock:    NewClock(),
		nodes:    make(map[NodeID]Node),
		edgeSeen: make(map[Edge]struct{}),
	}
}

// CurrentNode returns the node of the innermost executing query, or
// Root if no query is executing.
func (g *Graph) CurrentNode() NodeID {
	if len(g.tasks) == 0 {
		return Root
	}
	return g.tasks[len(g.tasks)-1]
}

// CreateOrGetNode interns the node for (label, key) and returns its id.
// The first call allocates the node and stamps it with the next clock
// value; later calls return the same id without reallocating.
func (g *Graph) CreateOrGetNode(label, key string) NodeID {
	id := MakeNodeID(label, key)
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = Node{ID: id, Seq: g.clock.Next()}
		g.order = append(g.order, id)
	}
	return id
}

// RecordEdge records a from→to dependency. Duplicate edges and
// self-edges are dropped; edges from Root are kept so the driver's
// direct requests stay visible in the persisted graph.
func (g *Graph) RecordEdge(from, to NodeID) {
	if from == to {
		return
	}
	e := Edge{From: from, To: to}
	if _, ok := g.edgeSeen[e]; ok {
		return
	}
	g.edgeSeen[e] = struct{}{}
	g.edges = append(g.edges, e)
}

// PushTask marks node as the executing query.
func (g *Graph) PushTask(node NodeID) {
	g.tasks = append(g.tasks, node)
}

// PopTask unmarks the innermost executing query.
func (g *Graph) PopTask() {
	if len(g.tasks) == 0 {
		panic("depgraph: PopTask on empty task stack")
	}
	g.tasks = g.tasks[:len(g.tasks)-1]
}

// Nodes returns the nodes in allocation order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns the edges in record order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// NodeCount returns the number of allocated nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of recorded edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// TaskDepth returns the depth of the executing-query stack.
// Used for testing task bracket balance.
func (g *Graph) TaskDepth() int {
	return len(g.tasks)
}
