// Package codegen implements the LLVM-facing code generator's IR
// construction strategy: a two-pass walk over the
// codegen units monomorphize.Collect discovers, lowering each function
// body's expression tree into the Backend's module. The physical LLVM
// bindings are explicitly out of scope (, "treated as
// external collaborators"); TextBackend stands in for them with a
// self-contained textual IR.
package codegen

import (
	"github.com/plos-clan/cara/internal/monomorphize"
	"github.com/plos-clan/cara/internal/query"
)

// Generate runs backend's two-pass construction strategy over every
// codegen unit reachable from the crate's entry point.
func Generate(qc *query.QueryContext, backend Backend) (Result, error) {
	units := monomorphize.Collect(qc)
	return backend.Codegen(qc, units)
}
