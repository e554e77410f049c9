package manifest

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/ternlang/tern/internal/sema"
)

// CompileCrate parses one crate struct from a CUE value.
//
// The value is the crate body; name is its label under "crate". Def
// ids are assigned from declaration order: the i-th def gets index i.
// Paths are NFC-normalized here, at the boundary, so everything
// downstream sees one canonical form.
func CompileCrate(name string, v cue.Value) (*Crate, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: "crate", Message: err.Error(), Pos: v.Pos()}
	}

	crate := &Crate{Name: name}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{Field: "id", Message: "id is required", Pos: v.Pos()}
	}
	id, err := idVal.Uint64()
	if err != nil {
		return nil, &CompileError{Field: "id", Message: fmt.Sprintf("id must be a non-negative integer: %v", err), Pos: idVal.Pos()}
	}
	if id > 0xFFFFFFFF {
		return nil, &CompileError{Field: "id", Message: fmt.Sprintf("id %d out of range", id), Pos: idVal.Pos()}
	}
	crate.ID = sema.CrateID(id)

	defsVal := v.LookupPath(cue.ParsePath("defs"))
	if !defsVal.Exists() {
		return nil, &CompileError{Field: "defs", Message: "defs is required", Pos: v.Pos()}
	}
	iter, err := defsVal.List()
	if err != nil {
		return nil, &CompileError{Field: "defs", Message: fmt.Sprintf("defs must be a list: %v", err), Pos: defsVal.Pos()}
	}

	index := uint32(0)
	for iter.Next() {
		def, err := compileDef(iter.Value())
		if err != nil {
			return nil, err
		}
		def.ID = sema.DefID{Crate: crate.ID, Index: index}
		crate.Defs = append(crate.Defs, *def)
		index++
	}

	if len(crate.Defs) == 0 {
		return nil, &CompileError{Field: "defs", Message: "at least one def is required", Pos: defsVal.Pos()}
	}

	return crate, nil
}

func compileDef(v cue.Value) (*Def, error) {
	def := &Def{}

	path, err := requiredString(v, "path")
	if err != nil {
		return nil, err
	}
	def.Path = sema.NormalizePath(path)

	kind, err := requiredString(v, "kind")
	if err != nil {
		return nil, err
	}
	def.Kind = sema.TypeKind(kind)

	typ, err := requiredString(v, "type")
	if err != nil {
		return nil, err
	}
	def.Type = sema.NormalizePath(typ)

	def.Generics, err = optionalStrings(v, "generics")
	if err != nil {
		return nil, err
	}

	members, err := optionalStrings(v, "members")
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		def.Members = append(def.Members, sema.NormalizePath(m))
	}

	return def, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: fmt.Sprintf("%s must be a string: %v", field, err), Pos: fv.Pos()}
	}
	return s, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: fmt.Sprintf("%s must be a list: %v", field, err), Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: fmt.Sprintf("%s entries must be strings: %v", field, err), Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}
