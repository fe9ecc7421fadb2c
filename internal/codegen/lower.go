package codegen

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/types"
)

// genCtx carries the per-function state the body pass needs: the query
// context, the module being built, the function currently being lowered,
// its local value scopes, the shared DefId -> Function value map the
// declaration pass filled in, and the active loop nest.
type genCtx struct {
	qc      *query.QueryContext
	module  *Module
	fn      *Function
	scopes  *Scopes
	funcMap map[ast.DefId]Value
	loops   []loopFrame
	ptrBits int
}

func (c *genCtx) emit(format string, args ...interface{}) {
	c.fn.CurrentBlock().Emit(fmt.Sprintf(format, args...))
}

func (c *genCtx) ctx() *ast.AstContext { return c.qc.AstContext() }

// lowerBody runs the body pass for one FunctionDef: opens the entry block,
// stack-allocates and stores each parameter, visits the body, and fills in
// whatever terminator the fall-through path needs.
func (c *genCtx) lowerBody(fn *ast.FunctionDef) {
	c.fn.NewBlock("entry")
	for i, p := range fn.Params {
		ty := c.fn.Params[i]
		dest := c.fn.NewTemp()
		c.emit("%s = alloca %s", dest, ty.String())
		c.emit("store %s %%%s, %s", ty.String(), p.Name, dest)
		c.scopes.PrePush(p.Name, AllocaValue(dest, ty))
	}

	block, ok := c.ctx().Exp(fn.Body).(*ast.Block)
	if !ok {
		log.Panicf("codegen: function body is not a Block (compiler bug)")
	}
	result := c.visitBlock(block)

	cur := c.fn.CurrentBlock()
	if cur.Terminated() {
		return
	}
	if result.IsUnit() {
		cur.Terminate("ret void")
		return
	}
	cur.Terminate(fmt.Sprintf("ret %s %s", result.Type().String(), result.operand()))
}

func (c *genCtx) visitExp(id ast.ExpId) Value {
	switch n := c.ctx().Exp(id).(type) {
	case *ast.NumberLit:
		return c.visitNumberLit(n)
	case *ast.StringLit:
		name := c.module.internString(n.Value)
		return PointerValue(name, types.NewSigned(8))
	case *ast.Unit:
		return UnitValue
	case *ast.Paren:
		return c.visitExp(n.Inner)
	case *ast.Var:
		return c.visitVarRight(n)
	case *ast.Unary:
		return c.visitUnary(n)
	case *ast.Binary:
		return c.visitBinary(n)
	case *ast.GetAddr:
		return c.visitGetAddr(n)
	case *ast.Deref:
		return c.visitDeref(n)
	case *ast.Index:
		return c.visitIndex(n)
	case *ast.ArrayLit:
		return c.visitArrayLit(n)
	case *ast.Call:
		return c.visitCall(n)
	case *ast.Block:
		return c.visitBlock(n)
	case *ast.Assign:
		return c.visitAssign(n)
	case *ast.Return:
		c.visitReturn(n)
		return UnitValue
	case *ast.IfExp:
		return c.visitIf(n)
	case *ast.For:
		return c.visitFor(n)
	case *ast.Loop:
		return c.visitLoop(n)
	case *ast.While:
		return c.visitWhile(n)
	case *ast.TypeCast:
		return c.visitCast(n)
	case *ast.StructLit:
		return c.visitStructLit(n)
	case *ast.FieldAccess:
		return c.visitFieldAccess(n)
	case *ast.Break:
		c.visitBreak()
		return UnitValue
	case *ast.Continue:
		c.visitContinue()
		return UnitValue
	default:
		log.Panicf("codegen: %T reached body lowering (should have been rejected by the analyser)", n)
		panic("unreachable")
	}
}

// visitLValue lowers id to an address-producing Value (Alloca), for
// contexts that need the location rather than the loaded value: Assign's
// LHS, GetAddr's operand, and the base of Index/FieldAccess.
func (c *genCtx) visitLValue(id ast.ExpId) Value {
	switch n := c.ctx().Exp(id).(type) {
	case *ast.Var:
		name := strings.Join(n.Path, ".")
		if v, ok := c.scopes.Lookup(name); ok {
			return v
		}
		log.Panicf("codegen: %q is not an addressable local (compiler bug)", name)
		panic("unreachable")
	case *ast.Deref:
		ptr := c.visitExp(n.Operand)
		return AllocaValue(ptr.Ref(), ptr.Type())
	case *ast.Index:
		return c.indexAddr(n)
	case *ast.FieldAccess:
		return c.fieldAddr(n)
	case *ast.Paren:
		return c.visitLValue(n.Inner)
	default:
		log.Panicf("codegen: %T is not a valid assignment/address target (compiler bug)", n)
		panic("unreachable")
	}
}

func (c *genCtx) loadIfAlloca(v Value) Value {
	if v.Kind() != ValAlloca {
		return v
	}
	dest := c.fn.NewTemp()
	c.emit("%s = load %s, %s", dest, v.Type().String(), v.ref)
	return wrapLoaded(dest, v.Type())
}

func (c *genCtx) visitNumberLit(n *ast.NumberLit) Value {
	ty := types.NewSigned(32)
	if n.SuffixType.Valid() {
		ty = consteval.Eval(c.qc, n.SuffixType).AsType()
	}
	return ConstInt(n.Value, ty)
}

// visitVarRight resolves a Var used as a right value: a local binding is
// loaded, a top-level function/proto reference is returned as-is (callees
// are never loaded), and any other top-level constant is materialised.
func (c *genCtx) visitVarRight(n *ast.Var) Value {
	name := strings.Join(n.Path, ".")
	if v, ok := c.scopes.Lookup(name); ok {
		return c.loadIfAlloca(v)
	}
	qualified := "::" + strings.Join(n.Path, "::")
	defID, ok := c.qc.LookupDefId(qualified)
	if !ok {
		log.Panicf("codegen: unresolved variable %q reached body lowering (compiler bug)", qualified)
	}
	if v, ok := c.funcMap[defID]; ok {
		return v
	}
	return c.materializeConst(query.QueryCached(c.qc, consteval.Provider, defID))
}

// materializeConst turns a const-eval Value (for a top-level constant
// referenced from inside a function body) into a codegen Value.
func (c *genCtx) materializeConst(v consteval.Value) Value {
	switch v.Kind() {
	case consteval.KindInt:
		return ConstInt(v.AsInt(), v.Ty())
	case consteval.KindUnit:
		return UnitValue
	case consteval.KindType:
		return TypeValue(v.AsType())
	case consteval.KindStructure:
		ty := v.StructureType()
		dest := c.fn.NewTemp()
		c.emit("%s = alloca %s", dest, ty.String())
		for _, name := range ty.FieldOrder() {
			field, _ := v.Field(name)
			fv := c.materializeConst(field)
			c.emit("store %s %s, %s, .%s", fv.Type().String(), fv.operand(), dest, name)
		}
		return AllocaValue(dest, ty)
	default:
		log.Panicf("codegen: unexpected const-eval kind %d reached body lowering", v.Kind())
		panic("unreachable")
	}
}
