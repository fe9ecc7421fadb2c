package codegen

import (
	"fmt"

	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/types"
)

func (c *genCtx) visitAssign(n *ast.Assign) Value {
	addr := c.visitLValue(n.LHS)
	rhs := c.loadIfAlloca(c.visitExp(n.RHS))
	c.emit("store %s %s, %s", rhs.Type().String(), rhs.operand(), addr.Ref())
	return UnitValue
}

func (c *genCtx) visitReturn(n *ast.Return) {
	if !n.Value.Valid() {
		c.fn.CurrentBlock().Terminate("ret void")
		return
	}
	v := c.loadIfAlloca(c.visitExp(n.Value))
	if v.IsUnit() {
		c.fn.CurrentBlock().Terminate("ret void")
		return
	}
	c.fn.CurrentBlock().Terminate(fmt.Sprintf("ret %s %s", v.Type().String(), v.operand()))
}

// visitIf lowers `if cond { then } [else { else_ }]` into the three-block
// shape. then/else are visited as independent
// sub-walks that may themselves open further blocks; the block each left
// "current" (its tail) is what actually falls through to end, not
// necessarily the block the arm started in.
func (c *genCtx) visitIf(n *ast.IfExp) Value {
	cond := c.loadIfAlloca(c.visitExp(n.Cond))
	condBlock := c.fn.CurrentBlock()

	thenHead := c.fn.NewBlock("")
	var elseHead *Block
	if n.Else.Valid() {
		elseHead = c.fn.NewBlock("")
	}
	end := c.fn.NewBlock("")

	falseTarget := end.Label
	if elseHead != nil {
		falseTarget = elseHead.Label
	}
	condBlock.Terminate(fmt.Sprintf("br.cond %s %s, %s, %s", cond.Type().String(), cond.operand(), thenHead.Label, falseTarget))

	c.fn.SetCurrent(thenHead)
	thenVal := c.visitBlockExp(n.Then)
	thenTail := c.fn.CurrentBlock()
	thenReachesEnd := !thenTail.Terminated()
	if thenReachesEnd {
		thenTail.Terminate("br " + end.Label)
	}

	var elseVal Value
	var elseTail *Block
	elseReachesEnd := false
	if elseHead != nil {
		c.fn.SetCurrent(elseHead)
		elseVal = c.visitBlockExp(n.Else)
		elseTail = c.fn.CurrentBlock()
		elseReachesEnd = !elseTail.Terminated()
		if elseReachesEnd {
			elseTail.Terminate("br " + end.Label)
		}
	}

	c.fn.SetCurrent(end)

	if elseHead == nil || thenVal.IsUnit() || elseVal.IsUnit() {
		return UnitValue
	}
	var incoming []string
	if thenReachesEnd {
		incoming = append(incoming, fmt.Sprintf("[%s, %s]", thenVal.operand(), thenTail.Label))
	}
	if elseReachesEnd {
		incoming = append(incoming, fmt.Sprintf("[%s, %s]", elseVal.operand(), elseTail.Label))
	}
	if len(incoming) == 0 {
		return UnitValue
	}
	dest := c.fn.NewTemp()
	end.Emit(fmt.Sprintf("%s = phi %s %s", dest, thenVal.Type().String(), joinOperands(incoming)))
	return wrapLoaded(dest, thenVal.Type())
}

// visitBlockExp visits one of If's arms, which the parser always stores as
// a Block.
func (c *genCtx) visitBlockExp(id ast.ExpId) Value {
	block, ok := c.ctx().Exp(id).(*ast.Block)
	if !ok {
		log.Panicf("codegen: if/else arm is not a Block (compiler bug)")
	}
	return c.visitBlock(block)
}

func (c *genCtx) visitLoop(n *ast.Loop) Value {
	prev := c.fn.CurrentBlock()
	body := c.fn.NewBlock("")
	prev.Terminate("br " + body.Label)

	c.loops = append(c.loops, loopFrame{ContinueLabel: body.Label})
	c.fn.SetCurrent(body)
	c.visitBlockExp(n.Body)
	tail := c.fn.CurrentBlock()
	if !tail.Terminated() {
		tail.Terminate("br " + body.Label)
	}

	endBlock := c.fn.NewBlock("")
	c.patchBreaks(endBlock.Label)
	c.loops = c.loops[:len(c.loops)-1]
	return UnitValue
}

func (c *genCtx) visitWhile(n *ast.While) Value {
	prev := c.fn.CurrentBlock()
	cond := c.fn.NewBlock("")
	prev.Terminate("br " + cond.Label)

	c.fn.SetCurrent(cond)
	condVal := c.loadIfAlloca(c.visitExp(n.Cond))

	body := c.fn.NewBlock("")
	c.loops = append(c.loops, loopFrame{ContinueLabel: cond.Label})
	c.visitBlockExp(n.Body)
	tail := c.fn.CurrentBlock()
	if !tail.Terminated() {
		tail.Terminate("br " + cond.Label)
	}

	endBlock := c.fn.NewBlock("")
	cond.Terminate(fmt.Sprintf("br.cond %s %s, %s, %s", condVal.Type().String(), condVal.operand(), body.Label, endBlock.Label))
	c.patchBreaks(endBlock.Label)
	c.loops = c.loops[:len(c.loops)-1]
	return UnitValue
}

// visitFor lowers `for v in start..end [step s] { body }` using an
// explicit induction-variable alloca; continue targets the step block so a
// `continue` still runs the increment before rechecking the bound.
func (c *genCtx) visitFor(n *ast.For) Value {
	start := c.loadIfAlloca(c.visitExp(n.Start))
	ivTy := start.Type()
	iv := c.fn.NewTemp()
	c.emit("%s = alloca %s", iv, ivTy.String())
	c.emit("store %s %s, %s", ivTy.String(), start.operand(), iv)
	end := c.loadIfAlloca(c.visitExp(n.End))
	step := ConstInt(1, ivTy)
	if n.Step.Valid() {
		step = c.loadIfAlloca(c.visitExp(n.Step))
	}

	prev := c.fn.CurrentBlock()
	condBB := c.fn.NewBlock("")
	prev.Terminate("br " + condBB.Label)

	c.fn.SetCurrent(condBB)
	ivLoad := c.fn.NewTemp()
	c.emit("%s = load %s, %s", ivLoad, ivTy.String(), iv)
	cmp := c.fn.NewTemp()
	c.emit("%s = icmp.lt %s %s, %s", cmp, ivTy.String(), ivLoad, end.operand())

	bodyBB := c.fn.NewBlock("")
	stepBB := c.fn.NewBlock("")
	c.scopes.PrePush(n.Var, AllocaValue(iv, ivTy))
	c.loops = append(c.loops, loopFrame{ContinueLabel: stepBB.Label})

	c.fn.SetCurrent(bodyBB)
	c.visitBlockExp(n.Body)
	tail := c.fn.CurrentBlock()
	if !tail.Terminated() {
		tail.Terminate("br " + stepBB.Label)
	}

	c.fn.SetCurrent(stepBB)
	stepLoad := c.fn.NewTemp()
	c.emit("%s = load %s, %s", stepLoad, ivTy.String(), iv)
	nextVal := c.fn.NewTemp()
	c.emit("%s = add %s %s, %s", nextVal, ivTy.String(), stepLoad, step.operand())
	c.emit("store %s %s, %s", ivTy.String(), nextVal, iv)
	stepBB.Terminate("br " + condBB.Label)

	endBlock := c.fn.NewBlock("")
	condBB.Terminate(fmt.Sprintf("br.cond %s %s, %s, %s", types.BoolType.String(), cmp, bodyBB.Label, endBlock.Label))
	c.patchBreaks(endBlock.Label)
	c.loops = c.loops[:len(c.loops)-1]
	return UnitValue
}

// loopFrame is one entry of the break/continue target stack that every
// while/loop/for construct pushes. ContinueLabel
// is always known before the loop body is visited; the break target is
// not (the end block only exists once the body's size is known), so
// visitBreak writes a placeholder terminator patchBreaks resolves once
// the loop's end block opens.
type loopFrame struct {
	ContinueLabel string
}

const breakPlaceholder = "<<break>>"

// patchBreaks resolves every unresolved break terminator written while
// lowering the loop that just finished to its end block's label. Safe to
// scan the whole function: a nested loop always patches its own breaks
// before returning control to the loop enclosing it.
func (c *genCtx) patchBreaks(label string) {
	for _, b := range c.fn.Blocks {
		if b.Term == breakPlaceholder {
			b.Term = "br " + label
		}
	}
}

func (c *genCtx) visitBreak() {
	if len(c.loops) == 0 {
		log.Panicf("codegen: break outside loop reached body lowering (compiler bug)")
	}
	c.fn.CurrentBlock().Terminate(breakPlaceholder)
}

func (c *genCtx) visitContinue() {
	if len(c.loops) == 0 {
		log.Panicf("codegen: continue outside loop reached body lowering (compiler bug)")
	}
	frame := c.loops[len(c.loops)-1]
	c.fn.CurrentBlock().Terminate("br " + frame.ContinueLabel)
}

func (c *genCtx) visitBlock(n *ast.Block) Value {
	c.scopes.Push()
	defer c.scopes.Pop()

	result := UnitValue
	for _, item := range n.Items {
		if c.fn.CurrentBlock().Terminated() {
			break
		}
		if item.ItemKind == ast.BlockItemVarDef {
			init := c.loadIfAlloca(c.visitExp(item.VarDef.InitExp))
			dest := c.fn.NewTemp()
			c.emit("%s = alloca %s", dest, init.Type().String())
			c.emit("store %s %s, %s", init.Type().String(), init.operand(), dest)
			c.scopes.Bind(item.VarDef.Name, AllocaValue(dest, init.Type()))
			result = UnitValue
		} else {
			result = c.visitExp(item.Expr)
		}
	}
	return result
}
