package ast

import "github.com/plos-clan/cara/internal/source"

// ConstDef is one `const name = initializer;` definition. It is shared by
// reference because multiple query results (const-eval, analyser,
// monomorphisation) cite the same definition.
type ConstDef struct {
	// Name is fully qualified once the simplifier has run, e.g.
	// "::crate::M::K". Before simplification it is the bare identifier.
	Name string
	// InitExp is the initializer expression.
	InitExp ExpId
	Span    source.Span
}

// GlobalItem is a top-level item produced by simplification: today this is
// always a *ConstDef, but it is its own type so that a reimplementation can
// grow other top-level item kinds (e.g. static data) without disturbing
// StructType's shape.
type GlobalItem struct {
	Def *ConstDef
}

// StructType is both the AST-level payload of a `struct { ... }` literal
// and the post-simplification module root. Before simplification, Members
// holds nested ConstDefs lexically declared inside the braces; Fields holds
// any value fields declared alongside them. After simplification, Members
// is empty on every non-root StructType (its definitions were lifted to the
// top level) and the root StructType's Members holds the flattened list.
type StructType struct {
	// Fields maps a struct field name to the ExpId of its declared type.
	Fields map[string]ExpId
	// FieldOrder preserves declaration order for Fields (Go maps don't),
	// matching "field order stabilised as insertion order".
	FieldOrder []string
	Members    []GlobalItem
	Span       source.Span
}

// NewStructType creates an empty StructType at span.
func NewStructType(span source.Span) *StructType {
	return &StructType{Fields: make(map[string]ExpId), Span: span}
}

// AddField registers a field, preserving insertion order.
func (s *StructType) AddField(name string, typeExp ExpId) {
	if _, exists := s.Fields[name]; !exists {
		s.FieldOrder = append(s.FieldOrder, name)
	}
	s.Fields[name] = typeExp
}
