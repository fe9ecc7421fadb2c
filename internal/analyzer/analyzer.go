// Package analyzer implements the type-checking provider:
// CHECK_CONST_DEF type-checks one definition in isolation and accumulates
// its transitive check requirements.
package analyzer

import (
	"strings"
	"sync"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
	"github.com/plos-clan/cara/internal/diag"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/source"
	"github.com/plos-clan/cara/internal/types"
)

// AnalyzeResult is the per-definition result: the
// checked type, accumulated diagnostics, and the set of other DefIds this
// definition's check referenced directly (Dump follows them transitively).
type AnalyzeResult struct {
	Value    types.Type
	Errors   []diag.Diagnostic
	Warnings []diag.Diagnostic
	Required []ast.DefId
}

// HasError reports whether this result (considered alone, not
// transitively) carries an error-level diagnostic.
func (r AnalyzeResult) HasError() bool {
	for _, d := range r.Errors {
		if d.IsError {
			return true
		}
	}
	return false
}

// Dump recursively pulls diagnostics from every required DefId (by
// re-querying CHECK_CONST_DEF, idempotent via the cache) and renders
// every accumulated diagnostic exactly once: every diagnostic emitted by
// an analysed function appears exactly once in the aggregated dump.
func Dump(qc *query.QueryContext, result AnalyzeResult) *diag.Bag {
	bag := &diag.Bag{}
	seen := map[ast.DefId]bool{}
	var walk func(r AnalyzeResult)
	walk = func(r AnalyzeResult) {
		bag.Add(r.Errors...)
		bag.Add(r.Warnings...)
		for _, req := range r.Required {
			if seen[req] {
				continue
			}
			seen[req] = true
			walk(query.QueryCached(qc, Provider, req))
		}
	}
	walk(result)
	return bag
}

// Provider is CHECK_CONST_DEF: key DefId, result
// AnalyzeResult.
var Provider = query.NewProvider(checkConstDef)

// checkedCache is the process-wide side table a path reference's type
// gets cached in, so cross-definition cycles terminate — keyed per
// QueryContext since DefIds are only stable within one.
var checkedCache sync.Map // map[*query.QueryContext]*sync.Map[ast.DefId]types.Type

func checkedTypesFor(qc *query.QueryContext) *sync.Map {
	v, _ := checkedCache.LoadOrStore(qc, &sync.Map{})
	return v.(*sync.Map)
}

type analyzerContext struct {
	qc       *query.QueryContext
	symbols  *symbolTable
	errors   []diag.Diagnostic
	warnings []diag.Diagnostic
	required []ast.DefId
	retTy    *types.Type
	checked  *sync.Map

	// loopDepth counts the loop bodies enclosing the expression being
	// visited; break/continue are errors only while it is zero.
	loopDepth int
}

func newAnalyzerContext(qc *query.QueryContext) *analyzerContext {
	return &analyzerContext{qc: qc, symbols: newSymbolTable(), checked: checkedTypesFor(qc)}
}

func (a *analyzerContext) errorAt(span source.Span, kind diag.ErrorKind, format string, args ...any) {
	a.errors = append(a.errors, diag.Errorf(span, kind, format, args...))
}

func (a *analyzerContext) warnAt(span source.Span, kind diag.WarnKind, format string, args ...any) {
	a.warnings = append(a.warnings, diag.Warnf(span, kind, format, args...))
}

func (a *analyzerContext) finish(value types.Type) AnalyzeResult {
	return AnalyzeResult{Value: value, Errors: a.errors, Warnings: a.warnings, Required: a.required}
}

func checkConstDef(qc *query.QueryContext, id ast.DefId) AnalyzeResult {
	def, ok := qc.GetDef(id)
	if !ok {
		return AnalyzeResult{}
	}
	a := newAnalyzerContext(qc)
	ctx := qc.AstContext()

	switch n := ctx.Exp(def.InitExp).(type) {
	case *ast.ProtoDef:
		retTy := types.Unit
		if n.ReturnType.Valid() {
			retTy = a.visitType(n.ReturnType)
		}
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = a.visitType(p.Type)
		}
		return a.finish(types.NewFunction(retTy, params))

	case *ast.FunctionDef:
		retTy := types.Unit
		if n.ReturnType.Valid() {
			retTy = a.visitType(n.ReturnType)
		}
		a.retTy = &retTy
		params := make([]types.Type, len(n.Params))
		a.symbols.push()
		for i, p := range n.Params {
			pty := a.visitType(p.Type)
			params[i] = pty
			a.symbols.bind(p.Name, pty)
		}
		gotRetTy := a.visitExp(n.Body)
		a.symbols.pop()
		if !gotRetTy.Equal(retTy) {
			a.errorAt(ctx.Exp(n.Body).Span(), diag.TypeMismatch, "expected return type %s, found %s", retTy, gotRetTy)
		}
		return a.finish(types.NewFunction(retTy, params))

	default:
		ty := a.visitExp(def.InitExp)
		return a.finish(ty)
	}
}

// visitType translates an AST type expression to its semantic Type by
// const-evaluating it ( type literals are constant
// expressions — evaluated, not "checked").
func (a *analyzerContext) visitType(id ast.ExpId) types.Type {
	return consteval.Eval(a.qc, id).AsType()
}

// visitExp is the analyser's expression visitor (its
// per-construct rules).
func (a *analyzerContext) visitExp(id ast.ExpId) types.Type {
	ctx := a.qc.AstContext()
	switch n := ctx.Exp(id).(type) {
	case *ast.NumberLit:
		if n.SuffixType.Valid() {
			return a.visitType(n.SuffixType)
		}
		return types.NewSigned(32)

	case *ast.StringLit:
		return types.NewPointer(types.NewSigned(8))

	case *ast.Unit:
		return types.Unit

	case *ast.Paren:
		return a.visitExp(n.Inner)

	case *ast.Var:
		return a.visitVar(n)

	case *ast.Unary:
		operand := a.visitExp(n.Operand)
		result, ok, opStr := checkUnary(n.Op, operand)
		if !ok {
			a.errorAt(n.Pos, diag.UnsupportedOperator, "unsupported operator %q for type %s", opStr, operand)
			return types.Unit
		}
		return result

	case *ast.Binary:
		lhs := a.visitExp(n.LHS)
		rhs := a.visitExp(n.RHS)
		result, ok, opStr := checkBinary(n.Op, lhs, rhs)
		if !ok {
			a.errorAt(n.Pos, diag.UnsupportedOperator, "unsupported operator %q for types %s, %s", opStr, lhs, rhs)
			return lhs
		}
		return result

	case *ast.GetAddr:
		return types.NewPointer(a.visitExp(n.Operand))

	case *ast.Deref:
		operand := a.visitExp(n.Operand)
		if operand.Kind() != types.Pointer {
			a.errorAt(n.Pos, diag.WrongDeref, "cannot dereference %s", operand)
			return types.Unit
		}
		return operand.Elem()

	case *ast.Index:
		base := a.visitExp(n.Base)
		idx := a.visitExp(n.Index)
		if !idx.IsIntegerLike() {
			a.errorAt(n.Pos, diag.TypeMismatch, "array index must be integer, found %s", idx)
		}
		switch base.Kind() {
		case types.Array, types.Pointer:
			return base.Elem()
		default:
			a.errorAt(n.Pos, diag.WrongDeref, "cannot index %s", base)
			return types.Unit
		}

	case *ast.ArrayLit:
		return a.visitArrayLit(n)

	case *ast.Call:
		return a.visitCall(n)

	case *ast.Block:
		return a.visitBlock(n)

	case *ast.Assign:
		lhs := a.visitExp(n.LHS)
		rhs := a.visitExp(n.RHS)
		if !lhs.Equal(rhs) {
			a.errorAt(ctx.Exp(n.RHS).Span(), diag.TypeMismatch, "expected %s, found %s", lhs, rhs)
		}
		return types.Unit

	case *ast.Return:
		ty := types.Unit
		if n.Value.Valid() {
			ty = a.visitExp(n.Value)
		}
		if a.retTy == nil {
			return types.Unit
		}
		if !ty.Equal(*a.retTy) {
			span := n.Pos
			if n.Value.Valid() {
				span = ctx.Exp(n.Value).Span()
			}
			a.errorAt(span, diag.TypeMismatch, "expected return type %s, found %s", *a.retTy, ty)
		}
		return types.Unit

	case *ast.IfExp:
		return a.visitIf(n)

	case *ast.For:
		return a.visitFor(n)

	case *ast.Loop:
		return a.visitLoopLike(n.Body, n.Pos)

	case *ast.While:
		cond := a.visitExp(n.Cond)
		if cond.Kind() != types.Bool {
			a.errorAt(ctx.Exp(n.Cond).Span(), diag.TypeMismatch, "expected bool, found %s", cond)
		}
		return a.visitLoopLike(n.Body, n.Pos)

	case *ast.TypeCast:
		return a.visitTypeCast(n)

	case *ast.StructLit:
		return a.visitStructLit(n)

	case *ast.FieldAccess:
		return a.visitFieldAccess(n)

	case *ast.Type:
		return a.visitType(id)

	case *ast.Break:
		if a.loopDepth == 0 {
			a.errorAt(n.Pos, diag.BreakOutsideLoop, "break outside loop")
		}
		return types.Unit

	case *ast.Continue:
		if a.loopDepth == 0 {
			a.errorAt(n.Pos, diag.ContinueOutsideLoop, "continue outside loop")
		}
		return types.Unit

	default:
		a.errorAt(ctx.Exp(id).Span(), diag.Custom, "unsupported construct: %T", n)
		return types.Unit
	}
}

func (a *analyzerContext) visitVar(n *ast.Var) types.Type {
	name := strings.Join(n.Path, ".")
	if s, ok := a.symbols.lookup(name); ok {
		s.used = true
		return s.ty
	}

	qualified := "::" + strings.Join(n.Path, "::")
	defID, ok := a.qc.LookupDefId(qualified)
	if !ok {
		a.errorAt(n.Pos, diag.Unknown, "unknown name %q", qualified)
		return types.Unit
	}

	if ty, ok := a.checked.Load(defID); ok {
		return ty.(types.Type)
	}

	if ty, ok := tryFastInfer(a.qc, defID); ok {
		a.required = append(a.required, defID)
		return ty
	}

	result := query.QueryCached(a.qc, Provider, defID)
	a.required = append(a.required, defID)
	a.checked.Store(defID, result.Value)
	return result.Value
}

// tryFastInfer implements its "fast syntactic inference":
// function signatures and prototypes have their signature readable without
// recursing into the body.
func tryFastInfer(qc *query.QueryContext, id ast.DefId) (types.Type, bool) {
	def, ok := qc.GetDef(id)
	if !ok {
		return types.Type{}, false
	}
	ctx := qc.AstContext()
	switch n := ctx.Exp(def.InitExp).(type) {
	case *ast.ProtoDef:
		retTy := types.Unit
		if n.ReturnType.Valid() {
			retTy = consteval.Eval(qc, n.ReturnType).AsType()
		}
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = consteval.Eval(qc, p.Type).AsType()
		}
		return types.NewFunction(retTy, params), true
	case *ast.FunctionDef:
		retTy := types.Unit
		if n.ReturnType.Valid() {
			retTy = consteval.Eval(qc, n.ReturnType).AsType()
		}
		params := make([]types.Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = consteval.Eval(qc, p.Type).AsType()
		}
		return types.NewFunction(retTy, params), true
	default:
		return types.Type{}, false
	}
}

func (a *analyzerContext) visitCall(n *ast.Call) types.Type {
	ctx := a.qc.AstContext()
	fn := a.visitExp(n.Callee)
	if fn.Kind() != types.Function {
		a.errorAt(n.Pos, diag.WrongCall, "cannot call value of type %s", fn)
		return types.Unit
	}
	params := fn.Params()
	for i, argID := range n.Args {
		argTy := a.visitExp(argID)
		if i >= len(params) {
			a.errorAt(ctx.Exp(argID).Span(), diag.WrongCall, "too many arguments")
			continue
		}
		if !argTy.Equal(params[i]) {
			a.errorAt(ctx.Exp(argID).Span(), diag.TypeMismatch, "expected %s, found %s", params[i], argTy)
		}
	}
	if len(n.Args) < len(params) {
		a.errorAt(n.Pos, diag.WrongCall, "too few arguments")
	}
	return fn.Return()
}

func (a *analyzerContext) visitArrayLit(n *ast.ArrayLit) types.Type {
	ctx := a.qc.AstContext()
	switch n.LitKind {
	case ast.ArrayList:
		if len(n.Elements) == 0 {
			return types.NewArray(types.Unit, 0)
		}
		elemTy := a.visitExp(n.Elements[0])
		for _, elID := range n.Elements[1:] {
			ty := a.visitExp(elID)
			if !ty.Equal(elemTy) {
				a.errorAt(ctx.Exp(elID).Span(), diag.TypeMismatch, "expected %s, found %s", elemTy, ty)
			}
		}
		return types.NewArray(elemTy, int64(len(n.Elements)))
	default: // ArrayTemplate
		elemTy := a.visitExp(n.Value)
		count := consteval.Eval(a.qc, n.Count).AsInt()
		return types.NewArray(elemTy, count)
	}
}

func (a *analyzerContext) visitBlock(n *ast.Block) types.Type {
	a.symbols.push()
	lintUnreachable(a, n)

	result := types.Unit
	for i, item := range n.Items {
		if item.ItemKind == ast.BlockItemVarDef {
			vd := item.VarDef
			initTy := a.visitExp(vd.InitExp)
			if vd.Type.Valid() {
				declTy := a.visitType(vd.Type)
				if !declTy.Equal(initTy) {
					a.errorAt(vd.Pos, diag.TypeMismatch, "expected %s, found %s", declTy, initTy)
				}
				a.symbols.bind(vd.Name, declTy)
			} else {
				a.symbols.bind(vd.Name, initTy)
			}
			result = types.Unit
		} else {
			result = a.visitExp(item.Expr)
			if i < len(n.Items)-1 {
				result = types.Unit
			}
		}
	}

	lintUnusedLet(a, n)
	a.symbols.pop()
	return result
}

func (a *analyzerContext) visitIf(n *ast.IfExp) types.Type {
	ctx := a.qc.AstContext()
	condTy := a.visitExp(n.Cond)
	if condTy.Kind() != types.Bool {
		a.errorAt(ctx.Exp(n.Cond).Span(), diag.TypeMismatch, "expected bool, found %s", condTy)
	}
	thenTy := a.visitExp(n.Then)
	elseTy := types.Unit
	if n.Else.Valid() {
		elseTy = a.visitExp(n.Else)
	}
	if !thenTy.Equal(elseTy) {
		a.errorAt(ctx.Exp(n.Then).Span(), diag.TypeMismatch, "expected %s, found %s", elseTy, thenTy)
	}
	return thenTy
}

func (a *analyzerContext) visitFor(n *ast.For) types.Type {
	ctx := a.qc.AstContext()
	startTy := a.visitExp(n.Start)
	endTy := a.visitExp(n.End)
	if !startTy.Equal(endTy) {
		a.errorAt(ctx.Exp(n.End).Span(), diag.TypeMismatch, "expected %s, found %s", startTy, endTy)
	}
	if n.Step.Valid() {
		stepTy := a.visitExp(n.Step)
		if !stepTy.Equal(startTy) {
			a.errorAt(ctx.Exp(n.Step).Span(), diag.TypeMismatch, "expected %s, found %s", startTy, stepTy)
		}
	}
	a.symbols.push()
	a.symbols.bind(n.Var, startTy)
	a.loopDepth++
	bodyTy := a.visitExp(n.Body)
	a.loopDepth--
	a.symbols.pop()
	if bodyTy.Kind() != types.UnitK {
		a.errorAt(ctx.Exp(n.Body).Span(), diag.TypeMismatch, "expected (), found %s", bodyTy)
	}
	return types.Unit
}

func (a *analyzerContext) visitLoopLike(body ast.ExpId, pos source.Span) types.Type {
	a.loopDepth++
	bodyTy := a.visitExp(body)
	a.loopDepth--
	if bodyTy.Kind() != types.UnitK {
		a.errorAt(pos, diag.TypeMismatch, "expected (), found %s", bodyTy)
	}
	return types.Unit
}

func (a *analyzerContext) visitTypeCast(n *ast.TypeCast) types.Type {
	valueTy := a.visitExp(n.Value)
	target := a.visitType(n.Target)
	if !validCast(valueTy, target) {
		a.errorAt(n.Pos, diag.InvalidTypeCast, "invalid cast from %s to %s", valueTy, target)
	}
	return target
}

func (a *analyzerContext) visitStructLit(n *ast.StructLit) types.Type {
	ctx := a.qc.AstContext()
	declared := a.visitType(n.Type)
	if declared.Kind() != types.Structure {
		a.errorAt(n.Pos, diag.ExpectedStructType, "expected struct type, found %s", declared)
		return types.Unit
	}
	seen := map[string]bool{}
	for _, f := range n.Fields {
		seen[f.Name] = true
		fieldTy, ok := declared.Field(f.Name)
		if !ok {
			a.errorAt(ctx.Exp(f.Expr).Span(), diag.InvalidField, "no field %q on %s", f.Name, declared)
			continue
		}
		gotTy := a.visitExp(f.Expr)
		if !gotTy.Equal(fieldTy) {
			a.errorAt(ctx.Exp(f.Expr).Span(), diag.TypeMismatch, "expected %s, found %s", fieldTy, gotTy)
		}
	}
	for _, name := range declared.FieldOrder() {
		if !seen[name] {
			a.errorAt(n.Pos, diag.Custom, "missing field %q", name)
		}
	}
	return declared
}

func (a *analyzerContext) visitFieldAccess(n *ast.FieldAccess) types.Type {
	base := a.visitExp(n.Base)
	if base.Kind() != types.Structure {
		a.errorAt(n.Pos, diag.ExpectedStructType, "expected struct type, found %s", base)
		return types.Unit
	}
	fieldTy, ok := base.Field(n.Field)
	if !ok {
		a.errorAt(n.Pos, diag.InvalidField, "no field %q on %s", n.Field, base)
		return types.Unit
	}
	return fieldTy
}
