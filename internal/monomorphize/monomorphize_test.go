package monomorphize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/monomorphize"
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

func TestCollectReachesCalledFunction(t *testing.T) {
	pc, fileID := setupPC(t)

	// helper() { 1 }
	helperBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 1})},
	}})
	helper := pc.Mint(0, 0, &ast.FunctionDef{Body: helperBody})

	// main() { helper() }
	call := pc.Mint(0, 0, &ast.Call{
		Callee: pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "helper"}}),
	})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: call},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::helper", InitExp: helper}},
		{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	items := monomorphize.Collect(qc)

	mainID, ok := qc.LookupDefId("::crate::main")
	require.True(t, ok)
	helperID, ok := qc.LookupDefId("::crate::helper")
	require.True(t, ok)

	assert.Contains(t, items, monomorphize.CodegenItem{Kind: monomorphize.FuncItem, Def: mainID})
	assert.Contains(t, items, monomorphize.CodegenItem{Kind: monomorphize.FuncItem, Def: helperID})
	assert.Len(t, items, 2)
}

func TestCollectIgnoresUnreachableFunction(t *testing.T) {
	pc, fileID := setupPC(t)

	deadBody := pc.Mint(0, 0, &ast.Block{})
	dead := pc.Mint(0, 0, &ast.FunctionDef{Body: deadBody})

	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: pc.Mint(0, 0, &ast.NumberLit{Value: 0})},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::dead", InitExp: dead}},
		{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	items := monomorphize.Collect(qc)
	require.Len(t, items, 1)
	assert.Equal(t, monomorphize.FuncItem, items[0].Kind)
}

func TestCollectDoesNotTreatLocalBindingAsReference(t *testing.T) {
	pc, fileID := setupPC(t)

	// main() { let helper = 1; helper }
	initExp := pc.Mint(0, 0, &ast.NumberLit{Value: 1})
	ref := pc.Mint(0, 0, &ast.Var{Path: []string{"helper"}})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemVarDef, VarDef: ast.VarDef{Name: "helper", InitExp: initExp}},
		{ItemKind: ast.BlockItemExpr, Expr: ref},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	items := monomorphize.Collect(qc)
	require.Len(t, items, 1)
}

func TestCollectReachesProtoDeclaration(t *testing.T) {
	pc, fileID := setupPC(t)

	proto := pc.Mint(0, 0, &ast.ProtoDef{Abi: ast.Abi{IsExtern: true, Convention: "C"}})
	call := pc.Mint(0, 0, &ast.Call{
		Callee: pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "puts"}}),
	})
	mainBody := pc.Mint(0, 0, &ast.Block{Items: []ast.BlockItem{
		{ItemKind: ast.BlockItemExpr, Expr: call},
	}})
	main := pc.Mint(0, 0, &ast.FunctionDef{Body: mainBody})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::puts", InitExp: proto}},
		{Def: &ast.ConstDef{Name: "::crate::main", InitExp: main}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	items := monomorphize.Collect(qc)

	putsID, ok := qc.LookupDefId("::crate::puts")
	require.True(t, ok)
	assert.Contains(t, items, monomorphize.CodegenItem{Kind: monomorphize.ProtoItem, Def: putsID})
}
