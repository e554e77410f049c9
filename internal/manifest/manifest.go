// Package manifest loads the session's crate graph from CUE files.
//
// A manifest declares the crates in a session and, per crate, the
// definitions the demo providers answer queries about: path, def
// kind, declared type, generic parameters, and member definitions.
// The driver turns a loaded manifest into a provider table.
//
// Format (one or more .cue files in a directory, package "crates"):
//
//	package crates
//
//	crate: core: {
//		id: 0
//		defs: [
//			{path: "core::Vec", kind: "struct", type: "struct Vec<T>",
//			 generics: ["T"], members: ["core::Vec::len"]},
//			{path: "core::Vec::len", kind: "fn", type: "fn(&Vec<T>) -> usize"},
//		]
//	}
package manifest

import (
	"sort"

	"github.com/ternlang/tern/internal/sema"
)

// Manifest is a fully loaded, validated crate graph.
type Manifest struct {
	// Crates in ascending id order.
	Crates []Crate

	// Hash is the canonical manifest fingerprint, set by Load.
	Hash string
}

// Crate is one compilation unit's declarations.
type Crate struct {
	ID   sema.CrateID
	Name string

	// Defs in declaration order; Defs[i] has DefID index i.
	Defs []Def
}

// Def is one definition's declared facts.
type Def struct {
	ID       sema.DefID
	Path     string
	Kind     sema.TypeKind
	Type     string
	Generics []string

	// Members are the declared member paths; MemberIDs are the same
	// members resolved to ids during validation.
	Members   []string
	MemberIDs []sema.DefID
}

// CrateByID finds a crate by id.
func (m *Manifest) CrateByID(id sema.CrateID) (*Crate, bool) {
	for i := range m.Crates {
		if m.Crates[i].ID == id {
			return &m.Crates[i], true
		}
	}
	return nil, false
}

// DefByID finds a definition by id.
func (m *Manifest) DefByID(id sema.DefID) (*Def, bool) {
	crate, ok := m.CrateByID(id.Crate)
	if !ok {
		return nil, false
	}
	if int(id.Index) >= len(crate.Defs) {
		return nil, false
	}
	return &crate.Defs[id.Index], true
}

// DefByPath finds a definition by its normalized path across all
// crates. Paths are unique per crate; the first match wins when two
// crates declare the same path.
func (m *Manifest) DefByPath(path string) (*Def, bool) {
	path = sema.NormalizePath(path)
	for i := range m.Crates {
		for j := range m.Crates[i].Defs {
			if m.Crates[i].Defs[j].Path == path {
				return &m.Crates[i].Defs[j], true
			}
		}
	}
	return nil, false
}

// DefCount returns the total number of definitions.
func (m *Manifest) DefCount() int {
	n := 0
	for i := range m.Crates {
		n += len(m.Crates[i].Defs)
	}
	return n
}

// sortCrates orders crates by id; called after loading, before
// validation and hashing.
func (m *Manifest) sortCrates() {
	sort.Slice(m.Crates, func(i, j int) bool {
		return m.Crates[i].ID < m.Crates[j].ID
	})
}
