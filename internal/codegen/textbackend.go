package codegen

import (
	"strings"

	"github.com/grailbio/base/log"
	"v.io/x/lib/toposort"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
	"github.com/plos-clan/cara/internal/monomorphize"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/types"
)

// TextBackend is the Backend this repo ships: it builds the in-memory
// Module/Function/Block IR and renders it as human-readable text. A real
// LLVM backend would build an llvm.Module through cgo bindings at the same
// two points this one builds *Module — those bindings are the explicitly
// out-of-scope "physical LLVM" layer.
type TextBackend struct {
	opts BackendOptions
}

func NewTextBackend(opts BackendOptions) *TextBackend {
	return &TextBackend{opts: opts}
}

// Codegen runs the two-pass construction strategy:
// first declare every unit's signature (so forward references resolve),
// then lower each FuncItem's body against the now-complete declaration
// table.
func (tb *TextBackend) Codegen(qc *query.QueryContext, units []monomorphize.CodegenItem) (Result, error) {
	module := NewModule(qc.CrateName())
	funcMap := make(map[ast.DefId]Value, len(units))
	units = orderUnits(qc, units)

	for _, unit := range units {
		fn, abi, paramNames, retExp := signatureOf(qc, unit)
		params := paramTypes(qc, fn.params())
		retTy := returnType(qc, retExp)
		symbol := symbolNameFor(qc, unit.Def, abi)

		irFn := NewFunction(symbol, params, paramNames, retTy, unit.Kind == monomorphize.ProtoItem)
		module.AddFunction(irFn)
		funcMap[unit.Def] = FunctionValue(symbol, retTy)
	}

	for _, unit := range units {
		if unit.Kind != monomorphize.FuncItem {
			continue
		}
		def, _ := functionDefAndAbi(qc, unit.Def)
		irFn := module.FindFunction(funcMap[unit.Def].Ref())
		c := &genCtx{
			qc:      qc,
			module:  module,
			fn:      irFn,
			scopes:  NewScopes(),
			funcMap: funcMap,
			ptrBits: qc.Target().PointerBits,
		}
		c.lowerBody(def)
	}

	return &TextResult{module: module, opts: tb.opts}, nil
}

// orderUnits gives the declaration and body passes a deterministic walk
// order: units arrives in whatever order COLLECT_CODEGEN_UNITS' map
// iteration happened to produce, so codegen topologically sorts it by the
// direct-reference edges monomorphize.DirectDependencies exposes (a callee
// sorts before its caller). Mutual recursion makes the graph cyclic in
// general, which toposort reports rather than fails on; units caught in a
// cycle are appended back in their original relative order, so the final
// order is still reproducible across runs against the same crate.
func orderUnits(qc *query.QueryContext, units []monomorphize.CodegenItem) []monomorphize.CodegenItem {
	sorter := &toposort.Sorter{}
	for _, unit := range units {
		sorter.AddNode(unit)
	}
	for _, unit := range units {
		for _, dep := range monomorphize.DirectDependencies(qc, unit) {
			sorter.AddEdge(unit, dep)
		}
	}
	sorted, cycles := sorter.Sort()
	out := make([]monomorphize.CodegenItem, 0, len(units))
	for _, n := range sorted {
		out = append(out, n.(monomorphize.CodegenItem))
	}
	// Sort excludes nodes caught in a cycle (mutual recursion is legal in
	// this language), so append them back in their original relative order:
	// still deterministic, and funcMap is fully populated before any body
	// is lowered so declaration order doesn't affect correctness.
	if len(cycles) > 0 {
		log.Printf("codegen: %d unit(s) in recursive cycles, appending them in original order", len(cycles))
		for _, unit := range units {
			if !containsUnit(sorted, unit) {
				out = append(out, unit)
			}
		}
	}
	return out
}

func containsUnit(nodes []interface{}, unit monomorphize.CodegenItem) bool {
	for _, n := range nodes {
		if n.(monomorphize.CodegenItem) == unit {
			return true
		}
	}
	return false
}

// unitDef is the subset of FunctionDef/ProtoDef codegen's declaration pass
// needs, unified so both node kinds drive the same signature logic.
type unitDef struct {
	Params     []ast.Param
	ReturnType ast.ExpId
}

func (u unitDef) params() []ast.Param { return u.Params }

func signatureOf(qc *query.QueryContext, unit monomorphize.CodegenItem) (unitDef, ast.Abi, []string, ast.ExpId) {
	def, ok := qc.GetDef(unit.Def)
	if !ok {
		log.Panicf("codegen: DefId %d has no ConstDef", unit.Def)
	}
	switch n := qc.AstContext().Exp(def.InitExp).(type) {
	case *ast.FunctionDef:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}
		return unitDef{Params: n.Params, ReturnType: n.ReturnType}, n.Abi, names, n.ReturnType
	case *ast.ProtoDef:
		names := make([]string, len(n.Params))
		for i, p := range n.Params {
			names[i] = p.Name
		}
		return unitDef{Params: n.Params, ReturnType: n.ReturnType}, n.Abi, names, n.ReturnType
	default:
		log.Panicf("codegen: codegen unit %T is neither FunctionDef nor ProtoDef", n)
		panic("unreachable")
	}
}

func functionDefAndAbi(qc *query.QueryContext, id ast.DefId) (*ast.FunctionDef, ast.Abi) {
	def, _ := qc.GetDef(id)
	fn, ok := qc.AstContext().Exp(def.InitExp).(*ast.FunctionDef)
	if !ok {
		log.Panicf("codegen: %q is a declaration, not a definition with a body", def.Name)
	}
	return fn, fn.Abi
}

func paramTypes(qc *query.QueryContext, params []ast.Param) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = consteval.Eval(qc, p.Type).AsType()
	}
	return out
}

func returnType(qc *query.QueryContext, id ast.ExpId) types.Type {
	if !id.Valid() {
		return types.Unit
	}
	return consteval.Eval(qc, id).AsType()
}

// symbolNameFor mints the linker-visible name for one definition: the
// explicit override or bare external name for an extern ABI, else the
// definition's fully-qualified name with "::" flattened to ".", which is
// unique by construction.
func symbolNameFor(qc *query.QueryContext, id ast.DefId, abi ast.Abi) string {
	def, _ := qc.GetDef(id)
	if abi.IsExtern {
		if abi.Symbol != "" {
			return abi.Symbol
		}
		return lastSegment(def.Name)
	}
	return strings.ReplaceAll(strings.TrimPrefix(def.Name, "::"), "::", ".")
}

func lastSegment(qualified string) string {
	parts := strings.Split(qualified, "::")
	return parts[len(parts)-1]
}
