package codegen

import (
	"io"

	"github.com/plos-clan/cara/internal/monomorphize"
	"github.com/plos-clan/cara/internal/query"
)

// Result is the outcome of one Backend.Codegen call: a built module ready
// to be optimised, inspected, or written out.
type Result interface {
	// Optimize runs the backend's fixed optimisation pass pipeline over the
	// built module in place.
	Optimize() error
	// Emit writes the module per opts.
	Emit(opts EmitOptions) error
	// Dump writes a human-readable rendering of the module to w, for
	// debugging.
	Dump(w io.Writer)
}

// Backend is the IR-construction-strategy abstraction this package asks
// for: the physical LLVM bindings (the real wrapped C++ module/builder
// objects) are an external collaborator this package never implements —
// only the two-pass construction algorithm and expression-lowering rules
// that would drive either a real binding or, here, the in-memory TextIR.
type Backend interface {
	Codegen(qc *query.QueryContext, units []monomorphize.CodegenItem) (Result, error)
}
