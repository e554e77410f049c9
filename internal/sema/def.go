package sema

import (
	"fmt"
	"strconv"
	"strings"
)

// CrateID identifies an independently compiled unit within a session.
//
// Crate 0 is conventionally the crate being compiled; higher ids are
// dependencies loaded from metadata. The id space is assigned by the
// driver when the crate graph is assembled and is stable for the
// duration of one session.
type CrateID uint32

// LocalCrate is the conventional id of the crate under compilation.
const LocalCrate CrateID = 0

// DefID identifies a single definition (struct, enum, fn, trait, const)
// within its owning crate.
//
// DefIDs are the keys of every semantic query: they are unique within
// their crate, cheap to copy, and comparable. The Index is the
// definition's position in the crate's declaration order.
type DefID struct {
	Crate CrateID
	Index uint32
}

// OwningCrate returns the crate that owns this definition.
//
// Query dispatch routes by the owning crate of the KEY, never by the
// crate that issued the request. This is what lets a query answered
// for a dependency's definition transparently reuse that dependency's
// provider.
func (d DefID) OwningCrate() CrateID {
	return d.Crate
}

// String renders the id in the canonical "crate:index" form used for
// dependency-node identity and diagnostics.
func (d DefID) String() string {
	return fmt.Sprintf("%d:%d", d.Crate, d.Index)
}

// ParseDefID parses the canonical "crate:index" rendering.
func ParseDefID(s string) (DefID, error) {
	crateStr, indexStr, ok := strings.Cut(s, ":")
	if !ok {
		return DefID{}, fmt.Errorf("invalid def id %q: want \"crate:index\"", s)
	}
	crate, err := strconv.ParseUint(crateStr, 10, 32)
	if err != nil {
		return DefID{}, fmt.Errorf("invalid def id %q: bad crate: %w", s, err)
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return DefID{}, fmt.Errorf("invalid def id %q: bad index: %w", s, err)
	}
	return DefID{Crate: CrateID(crate), Index: uint32(index)}, nil
}
