package codegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/codegen"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/source"
)

func setupPC(t *testing.T) (*ast.ParseContext, source.FileID) {
	t.Helper()
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)
	return pc, fileID
}

func i32Type(pc *ast.ParseContext) ast.ExpId {
	return pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 32})
}

// main() -> i32 { 1 + 2 }
func TestCodegenSimpleArithmeticFunction(t *testing.T) {
	pc, fileID := setupPC(t)

	lhs := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	rhs := pc.Mint(0, 0, &ast.NumberLit{Value: 2})
	add := pc.Mint(0, 0, &ast.Binary{Op: ast.OpAdd, LHS: lhs, RHS: rhs})
	body := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: add},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: body, ReturnType: i32Type(pc)})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{}))
	require.NoError(t, err)

	var buf strings.Builder
	result.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "define crate.main")
	assert.Contains(t, out, "add i32 1, 2")
	assert.Contains(t, out, "ret i32")
}

// helper() -> i32 { 41 }
// main() -> i32 { helper() + 1 }
func TestCodegenCallBetweenFunctions(t *testing.T) {
	pc, fileID := setupPC(t)

	helperBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 41})},
	}})
	helper := pc.Mint(0, 0, &ast.FunctionDef{Body: helperBody, ReturnType: i32Type(pc)})

	call := pc.Mint(0, 0, &ast.Call{Callee: pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "helper"}})})
	one := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	add := pc.Mint(0, 0, &ast.Binary{Op: ast.OpAdd, LHS: call, RHS: one})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: add},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody, ReturnType: i32Type(pc)})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::helper", InitExp: helper}},
		{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{}))
	require.NoError(t, err)

	var buf strings.Builder
	result.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "define crate.helper")
	assert.Contains(t, out, "call i32 crate.helper()")
}

// extern C fn puts(s: i8) -> i32;
// main() -> i32 { puts(0) }
func TestCodegenCallsExternProto(t *testing.T) {
	pc, fileID := setupPC(t)

	i8Ptr := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 8})

	proto := pc.Mint(0, 0, &ast.ProtoDef{
		Abi:        ast.Abi{IsExtern: true, Convention: "C"},
		Params:     []ast.Param{{Name: "s", Type: i8Ptr}},
		ReturnType: i32Type(pc),
	})

	call := pc.Mint(0, 0, &ast.Call{
		Callee: pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "puts"}}),
		Args:   []ast.ExpId{pc.Mint(0, 0, &ast.NumberLit{Value: 0})},
	})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: call},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody, ReturnType: i32Type(pc)})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::puts", InitExp: proto}},
		{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{}))
	require.NoError(t, err)

	var buf strings.Builder
	result.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "declare puts")
	assert.Contains(t, out, "call i32 puts(")
}

// main() -> i32 { if 1 { 10 } else { 20 } }
func TestCodegenIfElseProducesPhi(t *testing.T) {
	pc, fileID := setupPC(t)

	cond := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	thenBlock := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 10})},
	}})
	elseBlock := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 20})},
	}})
	ifExp := pc.Mint(0, 0, &ast.IfExp{Cond: cond, Then: thenBlock, Else: elseBlock})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: ifExp},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody, ReturnType: i32Type(pc)})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{}))
	require.NoError(t, err)

	var buf strings.Builder
	result.Dump(&buf)
	out := buf.String()
	assert.Contains(t, out, "br.cond")
	assert.Contains(t, out, "phi i32")
}

// main() -> i32 { let mut i = 0; loop { i = i + 1; if i == 3 { break; } } i }
func TestCodegenLoopWithBreak(t *testing.T) {
	pc, fileID := setupPC(t)

	zero := pc.Mint(0, 0, &ast.NumberLit{Value: 0})
	iVar := func() ast.ExpId { return pc.Mint(0, 0, &ast.Var{Path: []string{"i"}}) }

	incr := pc.Mint(0, 0, &ast.Assign{
		LHS: iVar(),
		RHS: pc.Mint(0, 0, &ast.Binary{Op: ast.OpAdd, LHS: iVar(), RHS: pc.Mint(0, 0, &ast.NumberLit{Value: 1})}),
	})
	cmp := pc.Mint(0, 0, &ast.Binary{Op: ast.OpEq, LHS: iVar(), RHS: pc.Mint(0, 0, &ast.NumberLit{Value: 3})})
	breakBlock := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.Break{})},
	}})
	ifBreak := pc.Mint(0, 0, &ast.IfExp{Cond: cmp, Then: breakBlock})
	loopBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: incr},
		{ItemKind: ast.BlockItemExpr, Expr: ifBreak},
	}})
	loop := pc.Mint(0, 0, &ast.Loop{Body: loopBody})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemVarDef, VarDef: ast.VarDef{Name: "i", Mutable: true, InitExp: zero}},
		{ItemKind: ast.BlockItemExpr, Expr: loop},
		{ItemKind: ast.BlockItemExpr, Expr: iVar()},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody, ReturnType: i32Type(pc)})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{}))
	require.NoError(t, err)

	var buf strings.Builder
	result.Dump(&buf)
	out := buf.String()
	assert.NotContains(t, out, "<<break>>")
	assert.Contains(t, out, "define crate.main")
}

func TestCodegenOptimizeThenEmitObjectErrors(t *testing.T) {
	pc, fileID := setupPC(t)
	body := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 7})},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: body, ReturnType: i32Type(pc)})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	result, err := codegen.Generate(qc, codegen.NewTextBackend(codegen.BackendOptions{OptimizeLevel: codegen.O2}))
	require.NoError(t, err)
	require.NoError(t, result.Optimize())
	require.Error(t, result.Emit(codegen.EmitOptions{OutputType: codegen.OutputObject}))
}
