// Package consteval implements the constant-evaluation provider:
// CONST_EVAL_PROVIDER evaluates a definition's initializer to a
// Value, keyed by DefId and memoised by the query engine.
package consteval

import (
	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/types"
)

// ValueKind tags a Value's variant, kept as its own accessor distinct
// from Type so monomorphisation can test "is this reachable" with a
// single predicate instead of inspecting the Type.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindInt
	KindFunction
	KindProto
	KindStructure
	KindType
	KindUnit
)

// Value is the const-eval result for one expression or
// definition. The ty field is an optional override (e.g. a numeric
// literal's declared suffix) distinct from the kind's natural type.
type Value struct {
	kind ValueKind

	intVal int64
	fn     *ast.FunctionDef
	proto  *ast.ProtoDef
	sTy    types.Type
	fields map[string]Value

	ty    types.Type
	tySet bool
}

func NewInt(v int64) Value                  { return Value{kind: KindInt, intVal: v} }
func NewFunction(fn *ast.FunctionDef) Value { return Value{kind: KindFunction, fn: fn} }
func NewProto(p *ast.ProtoDef) Value        { return Value{kind: KindProto, proto: p} }
func NewTypeValue(t types.Type) Value       { return Value{kind: KindType, sTy: t} }
func NewUnit() Value                        { return Value{kind: KindUnit} }

// NewStructure builds a Structure value; fields' domain must equal the
// declared type's field set.
func NewStructure(ty types.Type, fields map[string]Value) Value {
	out := Value{kind: KindStructure, sTy: ty, fields: make(map[string]Value, len(fields))}
	for k, v := range fields {
		out.fields[k] = v
	}
	return out
}

// Kind returns the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// AsInt unwraps an Int value. Panics (a compiler bug, not a user error) if
// v is not an Int — callers must check Kind first.
func (v Value) AsInt() int64 {
	mustKind(v, KindInt)
	return v.intVal
}

func (v Value) AsFunction() *ast.FunctionDef {
	mustKind(v, KindFunction)
	return v.fn
}

func (v Value) AsProto() *ast.ProtoDef {
	mustKind(v, KindProto)
	return v.proto
}

func (v Value) AsType() types.Type {
	mustKind(v, KindType)
	return v.sTy
}

// StructureType returns a Structure value's declared type.
func (v Value) StructureType() types.Type {
	mustKind(v, KindStructure)
	return v.sTy
}

// Field returns a Structure value's field by name.
func (v Value) Field(name string) (Value, bool) {
	mustKind(v, KindStructure)
	f, ok := v.fields[name]
	return f, ok
}

func mustKind(v Value, want ValueKind) {
	if v.kind != want {
		panic("consteval: Value kind mismatch (compiler bug, not a user error)")
	}
}

// Ty returns the value's effective type: the explicit override if one was
// set via SetType, else the natural type implied by its kind (bare
// integers default to signed-32, units to unit).
func (v Value) Ty() types.Type {
	if v.tySet {
		return v.ty
	}
	switch v.kind {
	case KindInt:
		return types.NewSigned(32)
	case KindUnit:
		return types.Unit
	case KindStructure:
		return v.sTy
	default:
		return types.Type{}
	}
}

// SetType overrides the value's effective type, e.g. a number literal's
// declared suffix.
func (v Value) SetType(t types.Type) Value {
	v.ty = t
	v.tySet = true
	return v
}

// IsReachableDefKind reports whether a Value represents a code unit the
// monomorphisation worklist must track (: "resolved Value is
// Function or Proto").
func (v Value) IsReachableDefKind() bool {
	return v.kind == KindFunction || v.kind == KindProto
}
