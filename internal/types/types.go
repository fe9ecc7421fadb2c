// Package types implements the single semantic Type shared by the
// const-eval, analyser, and codegen providers,
// distinct from the AST-level ast.Type the parser produces.
package types

import (
	"fmt"
	"strings"
)

// Kind tags a semantic Type's variant.
type Kind int

const (
	Invalid Kind = iota
	Signed
	Unsigned
	Size // usize/isize, parameterized by Signed
	Bool
	UnitK
	Pointer
	Array
	Function
	Structure
)

// Type is the analyzer/const-eval/codegen semantic type.
// Zero value is Invalid and must never reach codegen.
type Type struct {
	kind Kind

	width  int  // Signed / Unsigned: bit width
	signed bool // Size: true for isize, false for usize

	elem *Type // Pointer, Array
	len  int64 // Array

	params []Type // Function
	ret    *Type  // Function

	fields     map[string]Type // Structure
	fieldOrder []string // Structure: insertion order
}

func NewSigned(width int) Type   { return Type{kind: Signed, width: width} }
func NewUnsigned(width int) Type { return Type{kind: Unsigned, width: width} }
func NewSize(signed bool) Type   { return Type{kind: Size, signed: signed} }

var (
	BoolType = Type{kind: Bool}
	Unit     = Type{kind: UnitK}
)

func NewPointer(pointee Type) Type {
	p := pointee
	return Type{kind: Pointer, elem: &p}
}

func NewArray(elem Type, length int64) Type {
	e := elem
	return Type{kind: Array, elem: &e, len: length}
}

func NewFunction(ret Type, params []Type) Type {
	r := ret
	return Type{kind: Function, ret: &r, params: append([]Type(nil), params...)}
}

// NewStructure builds a structure type; order is preserved as given
//.
func NewStructure(order []string, fields map[string]Type) Type {
	out := Type{kind: Structure, fields: make(map[string]Type, len(fields)), fieldOrder: append([]string(nil), order...)}
	for k, v := range fields {
		out.fields[k] = v
	}
	return out
}

func (t Type) Kind() Kind { return t.kind }
func (t Type) Width() int { return t.width }

// IsSigned reports whether a Signed or signed Size type is signed.
func (t Type) IsSigned() bool {
	switch t.kind {
	case Signed:
		return true
	case Size:
		return t.signed
	default:
		return false
	}
}

// Elem returns the pointee (Pointer) or element (Array) type.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Len returns an Array type's length.
func (t Type) Len() int64 { return t.len }

// Return returns a Function type's return type.
func (t Type) Return() Type {
	if t.ret == nil {
		return Type{}
	}
	return *t.ret
}

// Params returns a Function type's parameter types, in declaration order.
func (t Type) Params() []Type { return t.params }

// Field returns a Structure type's field type by name.
func (t Type) Field(name string) (Type, bool) {
	ty, ok := t.fields[name]
	return ty, ok
}

// FieldOrder returns a Structure type's field names in declaration order.
func (t Type) FieldOrder() []string { return t.fieldOrder }

// IsIntegerLike reports whether t is an integer type or bool. Bool counts
// here, although the analyser's arithmetic operators reject it.
func (t Type) IsIntegerLike() bool {
	switch t.kind {
	case Signed, Unsigned, Size, Bool:
		return true
	default:
		return false
	}
}

// Equal reports structural equality, used for TypeMismatch checks
// throughout the analyser.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case Signed, Unsigned:
		return t.width == other.width
	case Size:
		return t.signed == other.signed
	case Pointer:
		return t.Elem().Equal(other.Elem())
	case Array:
		return t.len == other.len && t.Elem().Equal(other.Elem())
	case Function:
		if !t.Return().Equal(other.Return()) || len(t.params) != len(other.params) {
			return false
		}
		for i := range t.params {
			if !t.params[i].Equal(other.params[i]) {
				return false
			}
		}
		return true
	case Structure:
		if len(t.fieldOrder) != len(other.fieldOrder) {
			return false
		}
		for _, name := range t.fieldOrder {
			a, ok := t.fields[name]
			if !ok {
				return false
			}
			b, ok := other.fields[name]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	default:
		return true // Invalid, Bool, UnitK: kind equality is enough
	}
}

func (t Type) String() string {
	switch t.kind {
	case Invalid:
		return "<invalid>"
	case Signed:
		return fmt.Sprintf("i%d", t.width)
	case Unsigned:
		return fmt.Sprintf("u%d", t.width)
	case Size:
		if t.signed {
			return "isize"
		}
		return "usize"
	case Bool:
		return "bool"
	case UnitK:
		return "()"
	case Pointer:
		return "*" + t.Elem().String()
	case Array:
		return fmt.Sprintf("[%s; %d]", t.Elem().String(), t.len)
	case Function:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Return().String())
	case Structure:
		parts := make([]string, len(t.fieldOrder))
		for i, name := range t.fieldOrder {
			parts[i] = fmt.Sprintf("%s: %s", name, t.fields[name].String())
		}
		return "struct { " + strings.Join(parts, ", ") + " }"
	default:
		return "<unknown>"
	}
}
