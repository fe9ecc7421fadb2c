package ast

import "github.com/plos-clan/cara/internal/source"

// TypeKind tags the AST-level Type variant. This is distinct from the
// analyzer's semantic Type (internal/types): the AST type is exactly what
// the parser wrote down, before name resolution or inference run over it.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeSigned
	TypeUnsigned
	TypeUSize
	TypeISize
	TypeArray
	TypeStructure
	TypeUnitT
)

// Type is a KindType Exp's payload: an AST-level type expression.
type Type struct {
	Pos     source.Span
	TKind   TypeKind
	Width   int     // TypeSigned / TypeUnsigned
	ElemTy  ExpId   // TypeArray: references the element's KindType Exp
	Length  ExpId   // TypeArray: references a const-length expression
	Struct  *StructType // TypeStructure
}

func (n *Type) Kind() ExpKind      { return KindType }
func (n *Type) Span() source.Span { return n.Pos }
