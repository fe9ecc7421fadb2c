package codegen

import (
	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
	"github.com/plos-clan/cara/internal/types"
)

func (c *genCtx) visitUnary(n *ast.Unary) Value {
	operand := c.loadIfAlloca(c.visitExp(n.Operand))
	dest := c.fn.NewTemp()
	c.emit("%s = %s %s %s", dest, unOpSymbol(n.Op), operand.Type().String(), operand.operand())
	return IntValue(dest, operand.Type())
}

func unOpSymbol(op ast.UnOp) string {
	switch op {
	case ast.OpPos:
		return "pos"
	case ast.OpNeg:
		return "neg"
	case ast.OpNot:
		return "not"
	default:
		log.Panicf("codegen: unhandled UnOp %d", op)
		panic("unreachable")
	}
}

// visitBinary lowers arithmetic, comparison and logical operators alike:
// arithmetic/bitwise/shift preserve the LHS operand's type (matching
// internal/consteval's constant-folding rule), comparisons and &&/||
// produce Bool.
func (c *genCtx) visitBinary(n *ast.Binary) Value {
	lhs := c.loadIfAlloca(c.visitExp(n.LHS))
	rhs := c.loadIfAlloca(c.visitExp(n.RHS))
	dest := c.fn.NewTemp()
	c.emit("%s = %s %s %s, %s", dest, binOpSymbol(n.Op), lhs.Type().String(), lhs.operand(), rhs.operand())

	switch n.Op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe, ast.OpAnd, ast.OpOr:
		return IntValue(dest, types.BoolType)
	default:
		return IntValue(dest, lhs.Type())
	}
}

func binOpSymbol(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "div"
	case ast.OpMod:
		return "rem"
	case ast.OpShl:
		return "shl"
	case ast.OpShr:
		return "shr"
	case ast.OpLt:
		return "icmp.lt"
	case ast.OpLe:
		return "icmp.le"
	case ast.OpGt:
		return "icmp.gt"
	case ast.OpGe:
		return "icmp.ge"
	case ast.OpEq:
		return "icmp.eq"
	case ast.OpNe:
		return "icmp.ne"
	case ast.OpAnd:
		return "and.logical"
	case ast.OpOr:
		return "or.logical"
	default:
		log.Panicf("codegen: unhandled BinOp %d", op)
		panic("unreachable")
	}
}

// visitGetAddr is `&operand`: an already-addressable
// operand (a local, a deref, an index, a field) is re-tagged Pointer in
// place; anything else is spilled to a fresh entry-block alloca first.
func (c *genCtx) visitGetAddr(n *ast.GetAddr) Value {
	switch c.ctx().Exp(n.Operand).(type) {
	case *ast.Var, *ast.Deref, *ast.Index, *ast.FieldAccess:
		addr := c.visitLValue(n.Operand)
		return PointerValue(addr.Ref(), addr.Type())
	default:
		v := c.loadIfAlloca(c.visitExp(n.Operand))
		dest := c.fn.NewTemp()
		c.fn.Blocks[0].Emit(dest + " = alloca " + v.Type().String())
		c.emit("store %s %s, %s", v.Type().String(), v.operand(), dest)
		return PointerValue(dest, v.Type())
	}
}

// visitDeref is `*operand`: loading through a pointer produces the
// pointee's right-value representation.
func (c *genCtx) visitDeref(n *ast.Deref) Value {
	ptr := c.loadIfAlloca(c.visitExp(n.Operand))
	pointee := ptr.Type()
	if pointee.Kind() == types.UnitK {
		return UnitValue
	}
	dest := c.fn.NewTemp()
	c.emit("%s = load %s, %s", dest, pointee.String(), ptr.Ref())
	return wrapLoaded(dest, pointee)
}

// indexAddr computes `base[index]`'s element address via a GEP, shared by
// visitLValue's Index case and the right-value visitIndex.
func (c *genCtx) indexAddr(n *ast.Index) Value {
	base := c.visitLValue(n.Base)
	idx := c.loadIfAlloca(c.visitExp(n.Index))
	elemTy := base.Type().Elem()
	dest := c.fn.NewTemp()
	c.emit("%s = gep %s, %s, %s", dest, base.Type().String(), base.operand(), idx.operand())
	return AllocaValue(dest, elemTy)
}

// fieldAddr computes `base.field`'s address via a GEP, shared by
// visitLValue's FieldAccess case and visitFieldAccess.
func (c *genCtx) fieldAddr(n *ast.FieldAccess) Value {
	base := c.visitLValue(n.Base)
	fieldTy, ok := base.Type().Field(n.Field)
	if !ok {
		log.Panicf("codegen: unknown field %q (compiler bug)", n.Field)
	}
	dest := c.fn.NewTemp()
	c.emit("%s = gep %s, %s, .%s", dest, base.Type().String(), base.operand(), n.Field)
	return AllocaValue(dest, fieldTy)
}

// visitIndex is `base[index]`, a right-value use: the element address is
// computed then loaded, unlike indexAddr's callers in visitLValue which
// stop at the address.
func (c *genCtx) visitIndex(n *ast.Index) Value {
	return c.loadIfAlloca(c.indexAddr(n))
}

func (c *genCtx) visitArrayLit(n *ast.ArrayLit) Value {
	switch n.LitKind {
	case ast.ArrayList:
		elemTy := types.Unit
		elems := make([]Value, len(n.Elements))
		for i, id := range n.Elements {
			elems[i] = c.loadIfAlloca(c.visitExp(id))
			elemTy = elems[i].Type()
		}
		ty := types.NewArray(elemTy, int64(len(elems)))
		dest := c.fn.NewTemp()
		c.emit("%s = alloca %s", dest, ty.String())
		for i, v := range elems {
			c.emit("store %s %s, %s, [%d]", v.Type().String(), v.operand(), dest, i)
		}
		return AllocaValue(dest, ty)

	case ast.ArrayTemplate:
		value := c.loadIfAlloca(c.visitExp(n.Value))
		count := consteval.Eval(c.qc, n.Count).AsInt()
		ty := types.NewArray(value.Type(), count)
		dest := c.fn.NewTemp()
		c.emit("%s = alloca %s", dest, ty.String())
		for i := int64(0); i < count; i++ {
			c.emit("store %s %s, %s, [%d]", value.Type().String(), value.operand(), dest, i)
		}
		return AllocaValue(dest, ty)

	default:
		log.Panicf("codegen: unhandled ArrayLitKind %d", n.LitKind)
		panic("unreachable")
	}
}

func (c *genCtx) visitCall(n *ast.Call) Value {
	callee := c.visitExp(n.Callee)
	args := make([]Value, len(n.Args))
	for i, id := range n.Args {
		args[i] = c.loadIfAlloca(c.visitExp(id))
	}
	operands := make([]string, len(args))
	for i, a := range args {
		operands[i] = a.Type().String() + " " + a.operand()
	}
	retTy := callee.Type()
	if retTy.Kind() == types.UnitK {
		c.emit("call void %s(%s)", callee.Ref(), joinOperands(operands))
		return UnitValue
	}
	dest := c.fn.NewTemp()
	c.emit("%s = call %s %s(%s)", dest, retTy.String(), callee.Ref(), joinOperands(operands))
	return wrapLoaded(dest, retTy)
}

func joinOperands(operands []string) string {
	out := ""
	for i, o := range operands {
		if i > 0 {
			out += ", "
		}
		out += o
	}
	return out
}

// visitCast lowers `expr as Type`. By the time codegen runs, the analyser
// has already restricted casts to the pairs its cast-legality table accepts
// (int<->int, bool->int, int<->ptr, ptr<->ptr, fn->ptr). A pointer paired
// with an integer-like type lowers to ptrtoint/inttoptr; every other pair
// lowers to sext, trunc or bitcast by bit width.
func (c *genCtx) visitCast(n *ast.TypeCast) Value {
	value := c.loadIfAlloca(c.visitExp(n.Value))
	target := consteval.Eval(c.qc, n.Target).AsType()
	dest := c.fn.NewTemp()

	from := value.Type()
	switch {
	case from.Kind() == types.Pointer && target.IsIntegerLike():
		c.emit("%s = ptrtoint %s %s to %s", dest, from.String(), value.operand(), target.String())
	case from.IsIntegerLike() && target.Kind() == types.Pointer:
		c.emit("%s = inttoptr %s %s to %s", dest, from.String(), value.operand(), target.String())
	case bitWidth(target, c.ptrBits) > bitWidth(from, c.ptrBits):
		c.emit("%s = sext %s %s to %s", dest, from.String(), value.operand(), target.String())
	case bitWidth(target, c.ptrBits) < bitWidth(from, c.ptrBits):
		c.emit("%s = trunc %s %s to %s", dest, from.String(), value.operand(), target.String())
	default:
		c.emit("%s = bitcast %s %s to %s", dest, from.String(), value.operand(), target.String())
	}
	return wrapLoaded(dest, target)
}

// bitWidth resolves a type's storage width, mapping Size (isize/usize) to
// the target's pointer width the way specifies.
func bitWidth(t types.Type, ptrBits int) int {
	switch t.Kind() {
	case types.Size:
		return ptrBits
	case types.Bool:
		return 1
	default:
		return t.Width()
	}
}

func (c *genCtx) visitStructLit(n *ast.StructLit) Value {
	ty := consteval.Eval(c.qc, n.Type).AsType()
	dest := c.fn.NewTemp()
	c.emit("%s = alloca %s", dest, ty.String())
	for _, f := range n.Fields {
		v := c.loadIfAlloca(c.visitExp(f.Expr))
		c.emit("store %s %s, %s, .%s", v.Type().String(), v.operand(), dest, f.Name)
	}
	return AllocaValue(dest, ty)
}

func (c *genCtx) visitFieldAccess(n *ast.FieldAccess) Value {
	return c.loadIfAlloca(c.fieldAddr(n))
}
