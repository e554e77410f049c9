package manifest

import (
	"fmt"

	"github.com/ternlang/tern/internal/sema"
)

// Validate checks a compiled manifest for consistency and resolves
// member paths to def ids. Called by Compile; exposed for the CLI's
// validate command.
//
// Checks:
//   - crate ids and names are unique
//   - def paths are well formed and unique within their crate
//   - def kinds are known
//   - members resolve to defs in the same crate, and not to the
//     definition itself
func Validate(m *Manifest) error {
	seenIDs := make(map[sema.CrateID]string, len(m.Crates))
	seenNames := make(map[string]bool, len(m.Crates))

	for ci := range m.Crates {
		crate := &m.Crates[ci]

		if other, dup := seenIDs[crate.ID]; dup {
			return &ValidationError{Crate: crate.Name, Message: fmt.Sprintf("duplicate crate id %d (also used by %s)", crate.ID, other)}
		}
		seenIDs[crate.ID] = crate.Name

		if seenNames[crate.Name] {
			return &ValidationError{Crate: crate.Name, Message: "duplicate crate name"}
		}
		seenNames[crate.Name] = true

		byPath := make(map[string]sema.DefID, len(crate.Defs))
		for di := range crate.Defs {
			def := &crate.Defs[di]

			if err := sema.ValidatePath(def.Path); err != nil {
				return &ValidationError{Crate: crate.Name, Def: def.Path, Message: err.Error()}
			}
			if _, dup := byPath[def.Path]; dup {
				return &ValidationError{Crate: crate.Name, Def: def.Path, Message: "duplicate def path"}
			}
			byPath[def.Path] = def.ID

			if !sema.ValidTypeKind(string(def.Kind)) {
				return &ValidationError{Crate: crate.Name, Def: def.Path, Message: fmt.Sprintf("unknown def kind %q", def.Kind)}
			}
		}

		// Resolve members after the whole crate is indexed, so forward
		// references work.
		for di := range crate.Defs {
			def := &crate.Defs[di]
			def.MemberIDs = def.MemberIDs[:0]
			for _, member := range def.Members {
				id, ok := byPath[member]
				if !ok {
					return &ValidationError{Crate: crate.Name, Def: def.Path, Message: fmt.Sprintf("member %q not found in crate", member)}
				}
				if id == def.ID {
					return &ValidationError{Crate: crate.Name, Def: def.Path, Message: "def lists itself as a member"}
				}
				def.MemberIDs = append(def.MemberIDs, id)
			}
		}
	}

	return nil
}
