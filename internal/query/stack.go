package query

import "github.com/ternlang/tern/internal/depgraph"

// Frame is one in-flight query: pushed while its provider executes,
// popped before its result is cached or its failure propagates.
type Frame struct {
	Kind Kind
	Key  string
	Node depgraph.NodeID
}

// String renders the frame as "kind(key)" for diagnostics.
func (f Frame) String() string {
	return f.Kind.String() + "(" + f.Key + ")"
}

// queryStack is the ordered list of in-flight frames.
//
// Frame equality for the cycle scan is dependency-node identity, not
// raw structural equality of keys, so two keys that denote the same
// underlying computation collide correctly.
type queryStack struct {
	frames []Frame
}

func (s *queryStack) push(f Frame) {
	s.frames = append(s.frames, f)
}

func (s *queryStack) pop() {
	if len(s.frames) == 0 {
		panic("query: pop on empty query stack")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *queryStack) depth() int {
	return len(s.frames)
}

// scan looks for an in-flight frame with the given node identity.
// On a match it returns a copy of the frames from the matching one to
// the top of the stack - the ordered cycle chain for diagnostics.
func (s *queryStack) scan(node depgraph.NodeID) ([]Frame, bool) {
	for i, f := range s.frames {
		if f.Node == node {
			chain := make([]Frame, len(s.frames)-i)
			copy(chain, s.frames[i:])
			return chain, true
		}
	}
	return nil, false
}
