package query

import (
	"reflect"

	"github.com/ternlang/tern/internal/depgraph"
)

// memoEntry is one cached result plus the dependency node the result
// is bound to. The node identity rides along so a memo hit can still
// record a read edge from the caller without re-deriving it.
type memoEntry[V any] struct {
	value V
	node  depgraph.NodeID
}

// memoTable is the per-kind key→value cache.
//
// The dispatcher alone drives misses into inserts; the table knows
// nothing about providers or the query stack. Lookup is O(1) and
// side-effect free. Insert is first-writer-wins: re-inserting an
// equal value is a no-op, re-inserting a differing value is a purity
// violation and is rejected rather than silently replacing the entry.
type memoTable[K Key, V any] struct {
	kind    Kind
	entries map[K]memoEntry[V]
}

func newMemoTable[K Key, V any](kind Kind) memoTable[K, V] {
	return memoTable[K, V]{
		kind:    kind,
		entries: make(map[K]memoEntry[V]),
	}
}

func (m *memoTable[K, V]) lookup(key K) (memoEntry[V], bool) {
	ent, ok := m.entries[key]
	return ent, ok
}

func (m *memoTable[K, V]) insert(key K, value V, node depgraph.NodeID) error {
	if ent, ok := m.entries[key]; ok {
		// The dispatcher never reaches here in normal flow (a second
		// request hits the cache before any provider runs), so a
		// differing value can only mean an impure provider. DeepEqual
		// is fine on this cold path.
		if !reflect.DeepEqual(ent.value, value) {
			return NewPurityError(m.kind, key.String())
		}
		return nil
	}
	m.entries[key] = memoEntry[V]{value: value, node: node}
	return nil
}

func (m *memoTable[K, V]) len() int {
	return len(m.entries)
}
