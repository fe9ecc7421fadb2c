package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plos-clan/cara/internal/analyzer"
	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/diag"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/source"
	"github.com/plos-clan/cara/internal/types"
)

func setupPC(t *testing.T) (*ast.ParseContext, source.FileID) {
	t.Helper()
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)
	return pc, fileID
}

func TestCheckConstNumberLit(t *testing.T) {
	pc, fileID := setupPC(t)
	lit := pc.Mint(0, 0, &ast.NumberLit{Value: 9})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: lit}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, ok := qc.LookupDefId("::crate::x")
	require.True(t, ok)

	result := query.QueryCached(qc, analyzer.Provider, defID)
	assert.False(t, result.HasError())
	assert.True(t, result.Value.Equal(types.NewSigned(32)))
}

func TestCheckBinaryMismatchProducesError(t *testing.T) {
	pc, fileID := setupPC(t)
	lhs := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	boolTy := pc.Mint(0, 0, &ast.Binary{Op: ast.OpEq, LHS: pc.Mint(0, 0, &ast.NumberLit{Value: 0}), RHS: pc.Mint(0, 0, &ast.NumberLit{Value: 0})})
	add := pc.Mint(0, 0, &ast.Binary{Op: ast.OpAdd, LHS: lhs, RHS: boolTy})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: add}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, _ := qc.LookupDefId("::crate::x")
	result := query.QueryCached(qc, analyzer.Provider, defID)
	assert.True(t, result.HasError())
}

func TestCheckFunctionDefReturnTypeMismatch(t *testing.T) {
	pc, fileID := setupPC(t)
	retTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 32})
	boolLit := pc.Mint(0, 0, &ast.Binary{Op: ast.OpEq, LHS: pc.Mint(0, 0, &ast.NumberLit{Value: 0}), RHS: pc.Mint(0, 0, &ast.NumberLit{Value: 0})})
	body := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{{ItemKind: ast.BlockItemExpr, Expr: boolLit}}})
	fn := pc.Mint(0, 0, &ast.FunctionDef{ReturnType: retTy, Body: body})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: fn}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, ok := qc.MainFnId()
	require.True(t, ok)
	result := query.QueryCached(qc, analyzer.Provider, defID)
	require.True(t, result.HasError())
	assert.Equal(t, diag.TypeMismatch, result.Errors[0].ErrKind)
}

func TestCheckFunctionDefValidReturn(t *testing.T) {
	pc, fileID := setupPC(t)
	retTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 32})
	numLit := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	body := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{{ItemKind: ast.BlockItemExpr, Expr: numLit}}})
	fn := pc.Mint(0, 0, &ast.FunctionDef{ReturnType: retTy, Body: body})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: fn}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, _ := qc.MainFnId()
	result := query.QueryCached(qc, analyzer.Provider, defID)
	assert.False(t, result.HasError())
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	pc, fileID := setupPC(t)
	brk := pc.Mint(0, 0, &ast.Break{})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: brk}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, _ := qc.LookupDefId("::crate::x")
	result := query.QueryCached(qc, analyzer.Provider, defID)
	require.True(t, result.HasError())
	assert.Equal(t, diag.BreakOutsideLoop, result.Errors[0].ErrKind)
}

func TestUnusedLetProducesWarning(t *testing.T) {
	pc, fileID := setupPC(t)
	initExp := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	tail := pc.Mint(0, 0, &ast.Unit{})
	body := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemVarDef, VarDef: ast.VarDef{Name: "n", InitExp: initExp}},
		{ItemKind: ast.BlockItemExpr, Expr: tail},
	}})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: body}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, _ := qc.LookupDefId("::crate::x")
	result := query.QueryCached(qc, analyzer.Provider, defID)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, diag.UnusedLet, result.Warnings[0].WarnKind)
}

func TestVarReferenceRecursesAndAccumulatesRequired(t *testing.T) {
	pc, fileID := setupPC(t)
	kInit := pc.Mint(0, 0, &ast.NumberLit{Value: 5})
	kDef := &ast.ConstDef{Name: "::crate::K", InitExp: kInit}

	ref := pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "K"}})
	useDef := &ast.ConstDef{Name: "::crate::useK", InitExp: ref}

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: kDef}, {Def: useDef}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	defID, _ := qc.LookupDefId("::crate::useK")
	result := query.QueryCached(qc, analyzer.Provider, defID)
	assert.False(t, result.HasError())
	assert.True(t, result.Value.Equal(types.NewSigned(32)))

	bag := analyzer.Dump(qc, result)
	assert.False(t, bag.HasError())
}
