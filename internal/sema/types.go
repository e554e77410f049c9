package sema

import (
	"fmt"
	"strings"
)

// TypeKind classifies a semantic type.
type TypeKind string

const (
	TypeStruct TypeKind = "struct"
	TypeEnum   TypeKind = "enum"
	TypeFn     TypeKind = "fn"
	TypeTrait  TypeKind = "trait"
	TypeConst  TypeKind = "const"
)

// ValidTypeKind reports whether k names a known type kind.
func ValidTypeKind(k string) bool {
	switch TypeKind(k) {
	case TypeStruct, TypeEnum, TypeFn, TypeTrait, TypeConst:
		return true
	}
	return false
}

// Type is the result of the type_of query: the semantic type of a
// definition. Repr is the canonical (NFC-normalized) rendering of the
// declared type. Type is a small value type; callers receive copies.
type Type struct {
	Kind TypeKind
	Repr string
}

// Render returns the diagnostic rendering of the type.
func (t Type) Render() string {
	return t.Repr
}

// Generics is the result of the generics_of query: the generic
// parameters a definition declares, plus the count inherited from an
// enclosing definition.
type Generics struct {
	Params      []string
	ParentCount int
}

// Render returns the diagnostic rendering, e.g. "<T, U>".
func (g Generics) Render() string {
	if len(g.Params) == 0 {
		return "<>"
	}
	return "<" + strings.Join(g.Params, ", ") + ">"
}

// Predicate is a single bound on a generic parameter.
type Predicate struct {
	Param string
	Bound string
}

// Render returns "T: Bound".
func (p Predicate) Render() string {
	return p.Param + ": " + p.Bound
}

// Predicates is the result of the predicates_of query.
type Predicates struct {
	Preds []Predicate
}

// Render joins the predicate renderings, e.g. "T: Sized, U: Sized".
func (p Predicates) Render() string {
	parts := make([]string, len(p.Preds))
	for i, pred := range p.Preds {
		parts[i] = pred.Render()
	}
	return strings.Join(parts, ", ")
}

// Variance describes how a generic parameter varies.
type Variance int8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
	Bivariant
)

// String implements fmt.Stringer.
func (v Variance) String() string {
	switch v {
	case Invariant:
		return "o"
	case Covariant:
		return "+"
	case Contravariant:
		return "-"
	case Bivariant:
		return "*"
	}
	return fmt.Sprintf("Variance(%d)", int8(v))
}

// RenderVariances renders a variance list, e.g. "[o, o]".
func RenderVariances(vs []Variance) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RenderDefIDs renders a DefID list, e.g. "[0:1, 0:2]".
func RenderDefIDs(ids []DefID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
