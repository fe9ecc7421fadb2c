// Package ast is the arena-based AST representation shared by every
// downstream pass (simplifier, query providers, codegen). Every expression
// is addressed indirectly through an ExpId handle so that simplification can
// rewrite the tree in O(1) per node instead of cloning subtrees.
package ast

import "github.com/plos-clan/cara/internal/source"

// ExpId is an opaque handle to one Exp stored in an AstContext's arena. Two
// ExpIds compare (and hash) equal iff they were minted with the same
// sequence number; the span they carry is metadata for error reporting only.
type ExpId struct {
	seq  uint32
	span source.Span
}

// InvalidExpID is never a key in any AstContext.
var InvalidExpID = ExpId{}

// Span returns the source span at which this id was minted.
func (id ExpId) Span() source.Span { return id.span }

// Valid reports whether id was ever minted (seq 0 is reserved as invalid so
// the zero ExpId is recognizably empty).
func (id ExpId) Valid() bool { return id.seq != 0 }

// DefId is a stable handle to a top-level definition, assigned by the query
// context in insertion order over the post-simplification top-level
// definitions. It remains valid for the lifetime of the QueryContext that
// minted it.
type DefId int32

// InvalidDefID is never assigned to a real definition.
const InvalidDefID = DefId(-1)
