package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/source"
)

func TestMintAndLookup(t *testing.T) {
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "42")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)

	id := pc.Mint(0, 2, &ast.NumberLit{Value: 42})
	root := ast.NewStructType(source.Span{File: fileID})
	ctx := pc.Finish(root)

	exp := ctx.Exp(id)
	lit, ok := exp.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, int64(42), lit.Value)
}

func TestReplaceRewritesInPlace(t *testing.T) {
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)

	id := pc.Mint(0, 0, &ast.Var{Path: []string{"x"}})
	ctx := pc.Finish(ast.NewStructType(source.Span{}))

	ctx.Replace(id, &ast.Var{Path: []string{"crate", "x"}})
	v := ctx.Exp(id).(*ast.Var)
	assert.Equal(t, []string{"crate", "x"}, v.Path)
}

func TestFreezeBlocksReplace(t *testing.T) {
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)
	id := pc.Mint(0, 0, &ast.Unit{})
	ctx := pc.Finish(ast.NewStructType(source.Span{}))
	ctx.Freeze()

	assert.Panics(t, func() { ctx.Replace(id, &ast.Unit{}) })
}

func TestChildIDsBinary(t *testing.T) {
	ft := source.NewFileTable()
	fileID := ft.Intern("a.cara", "")
	pc := ast.NewParseContext(ft)
	pc.SetCurrentFile(fileID)

	lhs := pc.Mint(0, 1, &ast.NumberLit{Value: 1})
	rhs := pc.Mint(1, 2, &ast.NumberLit{Value: 2})
	bin := &ast.Binary{Op: ast.OpAdd, LHS: lhs, RHS: rhs}

	children := ast.ChildIDs(bin)
	assert.Equal(t, []ast.ExpId{lhs, rhs}, children)
}

func TestStructTypeFieldOrder(t *testing.T) {
	st := ast.NewStructType(source.Span{})
	st.AddField("b", ast.ExpId{})
	st.AddField("a", ast.ExpId{})
	assert.Equal(t, []string{"b", "a"}, st.FieldOrder)
}
