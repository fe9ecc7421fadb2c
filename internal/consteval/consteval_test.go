package consteval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/consteval"
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

func TestEvalNumberLiteral(t *testing.T) {
	pc, fileID := setupPC(t)
	lit := pc.Mint(0, 0, &ast.NumberLit{Value: 42})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: lit}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, lit)
	assert.Equal(t, consteval.KindInt, v.Kind())
	assert.Equal(t, int64(42), v.AsInt())
	assert.True(t, v.Ty().Equal(types.NewSigned(32)))
}

func TestEvalBinaryArithmetic(t *testing.T) {
	pc, fileID := setupPC(t)
	lhs := pc.Mint(0, 0, &ast.NumberLit{Value: 3})
	rhs := pc.Mint(0, 0, &ast.NumberLit{Value: 4})
	add := pc.Mint(0, 0, &ast.Binary{Op: ast.OpAdd, LHS: lhs, RHS: rhs})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: add}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, add)
	assert.Equal(t, int64(7), v.AsInt())
}

func TestEvalComparisonYieldsBool(t *testing.T) {
	pc, fileID := setupPC(t)
	lhs := pc.Mint(0, 0, &ast.NumberLit{Value: 3})
	rhs := pc.Mint(0, 0, &ast.NumberLit{Value: 4})
	lt := pc.Mint(0, 0, &ast.Binary{Op: ast.OpLt, LHS: lhs, RHS: rhs})
	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::x", InitExp: lt}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, lt)
	assert.Equal(t, int64(1), v.AsInt())
	assert.True(t, v.Ty().Equal(types.BoolType))
}

func TestEvalVarReferenceRecursesViaQueryCached(t *testing.T) {
	pc, fileID := setupPC(t)
	kInit := pc.Mint(0, 0, &ast.NumberLit{Value: 7})
	kDef := &ast.ConstDef{Name: "::crate::K", InitExp: kInit}

	ref := pc.Mint(0, 0, &ast.Var{Path: []string{"crate", "K"}})
	useDef := &ast.ConstDef{Name: "::crate::useK", InitExp: ref}

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: kDef}, {Def: useDef}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, ref)
	assert.Equal(t, int64(7), v.AsInt())
}

func TestEvalFunctionAndProtoWrap(t *testing.T) {
	pc, fileID := setupPC(t)
	body := pc.Mint(0, 0, &ast.Block{})
	fn := pc.Mint(0, 0, &ast.FunctionDef{Body: body})
	proto := pc.Mint(0, 0, &ast.ProtoDef{})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{
		{Def: &ast.ConstDef{Name: "::crate::f", InitExp: fn}},
		{Def: &ast.ConstDef{Name: "::crate::p", InitExp: proto}},
	}
	ctx := pc.Finish(root)
	ctx.Freeze()
	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})

	fv := consteval.Eval(qc, fn)
	require.Equal(t, consteval.KindFunction, fv.Kind())
	assert.True(t, fv.IsReachableDefKind())

	pv := consteval.Eval(qc, proto)
	require.Equal(t, consteval.KindProto, pv.Kind())
	assert.True(t, pv.IsReachableDefKind())
}

func TestEvalTypeLiteralArray(t *testing.T) {
	pc, fileID := setupPC(t)
	elemTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 8})
	length := pc.Mint(0, 0, &ast.NumberLit{Value: 4})
	arrTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeArray, ElemTy: elemTy, Length: length})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::T", InitExp: arrTy}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, arrTy)
	require.Equal(t, consteval.KindType, v.Kind())
	got := v.AsType()
	want := types.NewArray(types.NewSigned(8), 4)
	assert.True(t, got.Equal(want))
}

func TestEvalStructLiteral(t *testing.T) {
	pc, fileID := setupPC(t)
	fieldTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeSigned, Width: 32})
	st := ast.NewStructType(source.Span{File: fileID})
	st.AddField("x", fieldTy)
	structTy := pc.Mint(0, 0, &ast.Type{TKind: ast.TypeStructure, Struct: st})

	fieldVal := pc.Mint(0, 0, &ast.NumberLit{Value: 9})
	lit := pc.Mint(0, 0, &ast.StructLit{
		Type:   structTy,
		Fields: []ast.StructLitField{{Name: "x", Expr: fieldVal}},
	})

	root := ast.NewStructType(source.Span{File: fileID})
	root.Members = []ast.GlobalItem{{Def: &ast.ConstDef{Name: "::crate::s", InitExp: lit}}}
	ctx := pc.Finish(root)
	ctx.Freeze()

	qc := query.New(ctx, "crate", query.Target{PointerBits: 64})
	v := consteval.Eval(qc, lit)
	require.Equal(t, consteval.KindStructure, v.Kind())
	fv, ok := v.Field("x")
	require.True(t, ok)
	assert.Equal(t, int64(9), fv.AsInt())
}
