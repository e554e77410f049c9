package manifest

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// CompileError is a structural error found while turning a CUE value
// into manifest types. Carries the CUE position when one is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is a consistency error found in a structurally
// valid manifest (duplicate ids, dangling members, bad paths).
type ValidationError struct {
	Crate   string
	Def     string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Def != "":
		return fmt.Sprintf("crate %s: def %s: %s", e.Crate, e.Def, e.Message)
	case e.Crate != "":
		return fmt.Sprintf("crate %s: %s", e.Crate, e.Message)
	}
	return e.Message
}
