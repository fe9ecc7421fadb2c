package analyzer

import (
	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/diag"
)

// lintUnreachable implements its unreachable-code lint:
// any block item following a `return`/`break`/`continue` expression in the
// same block can never execute.
func lintUnreachable(a *analyzerContext, n *ast.Block) {
	ctx := a.qc.AstContext()
	terminated := false
	for _, item := range n.Items {
		if terminated {
			span := item.VarDef.Pos
			if item.ItemKind == ast.BlockItemExpr {
				span = ctx.Exp(item.Expr).Span()
			}
			a.warnAt(span, diag.UnreachableCode, "unreachable code")
			return
		}
		if item.ItemKind == ast.BlockItemExpr {
			switch ctx.Exp(item.Expr).(type) {
			case *ast.Return, *ast.Break, *ast.Continue:
				terminated = true
			}
		}
	}
}

// lintUnusedLet implements its unused-`let`-binding lint.
// Must run before the block's scope is popped, since it reads the used
// flag symbolTable.bind/lookup maintain on each binding.
func lintUnusedLet(a *analyzerContext, n *ast.Block) {
	top := a.symbols.top()
	for _, item := range n.Items {
		if item.ItemKind != ast.BlockItemVarDef {
			continue
		}
		if s, ok := top[item.VarDef.Name]; ok && !s.used {
			a.warnAt(item.VarDef.Pos, diag.UnusedLet, "unused binding %q", item.VarDef.Name)
		}
	}
}
