package depgraph

// NodeID is the deterministic identity of a dependency-graph node.
//
// The rendering is "Label(key)", where Label is the query kind's node
// label and key is the canonical key rendering. The same (label, key)
// always yields the same NodeID within a session, which makes NodeID
// usable both for cycle-scan equality and for node reuse.
type NodeID string

// Root is the sentinel node representing "no query executing" - the
// source of edges recorded for queries issued directly by the driver.
const Root NodeID = "Root"

// MakeNodeID derives the node identity for a (label, key) pair.
func MakeNodeID(label, key string) NodeID {
	return NodeID(label + "(" + key + ")")
}
