// Package monomorphize implements COLLECT_CODEGEN_UNITS: a
// worklist walk from the crate's entry point over reachable function/proto
// definitions, which becomes codegen's unit of work.
package monomorphize

import (
	"strings"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
	"github.com/plos-clan/cara/internal/query"
)

// ItemKind distinguishes the two codegen-unit shapes: a definition with a
// body to emit, and a bodyless external declaration.
type ItemKind int

const (
	FuncItem ItemKind = iota
	ProtoItem
)

// CodegenItem is one unit codegen must emit: either a FunctionDef's body or
// a ProtoDef's external declaration, named by the DefId that reached it.
type CodegenItem struct {
	Kind ItemKind
	Def  ast.DefId
}

// Provider is COLLECT_CODEGEN_UNITS: takes no argument (the whole crate is
// the unit of work), returns every codegen item reachable from main.
var Provider = query.NewProvider(collectCodegenUnits)

// Collect is the public entry point, calling through the memoising
// provider so repeated driver calls don't re-walk the crate.
func Collect(qc *query.QueryContext) []CodegenItem {
	return query.QueryCached(qc, Provider, struct{}{})
}

func collectCodegenUnits(qc *query.QueryContext, _ struct{}) []CodegenItem {
	mainID, ok := qc.MainFnId()
	if !ok {
		return nil
	}
	mainVal := query.QueryCached(qc, consteval.Provider, mainID)
	if mainVal.Kind() != consteval.KindFunction {
		return nil
	}

	initial := CodegenItem{Kind: FuncItem, Def: mainID}
	required := map[CodegenItem]bool{initial: true}
	frontier := []CodegenItem{initial}

	for len(frontier) > 0 {
		var next []CodegenItem
		for _, item := range frontier {
			if item.Kind != FuncItem {
				continue
			}
			fn := functionDefOf(qc, item.Def)
			if fn == nil {
				continue
			}
			for _, found := range collectRequiredItems(qc, fn) {
				if required[found] {
					continue
				}
				required[found] = true
				next = append(next, found)
			}
		}
		frontier = next
	}

	out := make([]CodegenItem, 0, len(required))
	for item := range required {
		out = append(out, item)
	}
	return out
}

// DirectDependencies reports the codegen items item's body refers to
// directly (not transitively) — the edges codegen's declaration pass
// topologically sorts units by. A ProtoItem has no body, so it has no
// direct dependencies.
func DirectDependencies(qc *query.QueryContext, item CodegenItem) []CodegenItem {
	if item.Kind != FuncItem {
		return nil
	}
	fn := functionDefOf(qc, item.Def)
	if fn == nil {
		return nil
	}
	return collectRequiredItems(qc, fn)
}

func functionDefOf(qc *query.QueryContext, id ast.DefId) *ast.FunctionDef {
	def, ok := qc.GetDef(id)
	if !ok {
		return nil
	}
	fn, _ := qc.AstContext().Exp(def.InitExp).(*ast.FunctionDef)
	return fn
}

// collectRequiredItems walks func_def's body, collecting every Func/Proto
// DefId a Var reference not bound by a local name resolves to.
func collectRequiredItems(qc *query.QueryContext, fn *ast.FunctionDef) []CodegenItem {
	c := &collector{qc: qc, locals: newNameStack()}
	for _, p := range fn.Params {
		c.locals.prePush(p.Name)
	}
	c.visitExp(fn.Body)
	return c.found
}

type collector struct {
	qc     *query.QueryContext
	locals *nameStack
	found  []CodegenItem
}

func (c *collector) visitExp(id ast.ExpId) {
	ctx := c.qc.AstContext()
	switch n := ctx.Exp(id).(type) {
	case *ast.Var:
		c.visitVar(n)
	case *ast.Block:
		c.visitBlock(n)
	case *ast.For:
		c.visitExp(n.Start)
		c.visitExp(n.End)
		if n.Step.Valid() {
			c.visitExp(n.Step)
		}
		c.locals.prePush(n.Var)
		c.visitExp(n.Body) // Body is a Block; its own push consumes the pre-pushed loop var
	case *ast.FunctionDef, *ast.ProtoDef:
		// unreachable within a well-formed body; nested function literals
		// are not part of this language.
	default:
		for _, child := range ast.ChildIDs(n) {
			c.visitExp(child)
		}
	}
}

func (c *collector) visitBlock(n *ast.Block) {
	c.locals.push()
	for _, item := range n.Items {
		if item.ItemKind == ast.BlockItemVarDef {
			c.visitExp(item.VarDef.InitExp)
			c.locals.bind(item.VarDef.Name)
		} else {
			c.visitExp(item.Expr)
		}
	}
	c.locals.pop()
}

func (c *collector) visitVar(n *ast.Var) {
	name := strings.Join(n.Path, ".")
	if c.locals.contains(name) {
		return
	}
	qualified := "::" + strings.Join(n.Path, "::")
	defID, ok := c.qc.LookupDefId(qualified)
	if !ok {
		return
	}
	v := query.QueryCached(c.qc, consteval.Provider, defID)
	switch v.Kind() {
	case consteval.KindFunction:
		c.found = append(c.found, CodegenItem{Kind: FuncItem, Def: defID})
	case consteval.KindProto:
		c.found = append(c.found, CodegenItem{Kind: ProtoItem, Def: defID})
	}
}

