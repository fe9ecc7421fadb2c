package analyzer

import (
	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/types"
)

// wideOf returns the wider of two Signed/Unsigned types of the same
// signedness, or a usize/isize pair resolved per its table
// (isize/usize combinations keep the signed side as isize, the unsigned
// side as usize). ok is false if the pair is not a supported arithmetic
// combination.
func wideOf(l, r types.Type) (types.Type, bool) {
	switch {
	case l.Kind() == types.Signed && r.Kind() == types.Signed:
		if l.Width() >= r.Width() {
			return l, true
		}
		return r, true
	case l.Kind() == types.Unsigned && r.Kind() == types.Unsigned:
		if l.Width() >= r.Width() {
			return l, true
		}
		return r, true
	case l.Kind() == types.Size && r.Kind() == types.Size:
		if l.IsSigned() {
			return l, true
		}
		return r, true
	default:
		return types.Type{}, false
	}
}

// comparisonOk reports whether l/r form a supported comparison pair
//.
func comparisonOk(l, r types.Type) bool {
	switch {
	case l.Kind() == types.Signed && r.Kind() == types.Signed:
		return true
	case l.Kind() == types.Unsigned && r.Kind() == types.Unsigned:
		return true
	case l.Kind() == types.Size && r.Kind() == types.Size:
		return true
	case l.Kind() == types.Bool && r.Kind() == types.Bool:
		return true
	default:
		return false
	}
}

// checkBinary applies the binary-operator typing table. Returns the
// result type, or ok=false with the offending operator string for a
// diagnostic.
func checkBinary(op ast.BinOp, l, r types.Type) (result types.Type, ok bool, opStr string) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpShl, ast.OpShr:
		ty, wok := wideOf(l, r)
		return ty, wok, binOpString(op)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return types.BoolType, comparisonOk(l, r), binOpString(op)
	case ast.OpAnd, ast.OpOr:
		if l.Kind() == types.Bool && r.Kind() == types.Bool {
			return types.BoolType, true, binOpString(op)
		}
		return types.Type{}, false, binOpString(op)
	default:
		return types.Type{}, false, binOpString(op)
	}
}

// checkUnary applies the unary-operator typing table.
func checkUnary(op ast.UnOp, operand types.Type) (result types.Type, ok bool, opStr string) {
	switch op {
	case ast.OpPos, ast.OpNeg:
		switch operand.Kind() {
		case types.Signed, types.Unsigned, types.Size:
			return operand, true, unOpString(op)
		default:
			return types.Type{}, false, unOpString(op)
		}
	case ast.OpNot:
		switch operand.Kind() {
		case types.Bool:
			return types.BoolType, true, unOpString(op)
		case types.Signed, types.Unsigned, types.Size:
			return operand, true, unOpString(op)
		}
		return types.Type{}, false, unOpString(op)
	default:
		return types.Type{}, false, unOpString(op)
	}
}

func binOpString(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "+"
	case ast.OpSub:
		return "-"
	case ast.OpMul:
		return "*"
	case ast.OpDiv:
		return "/"
	case ast.OpMod:
		return "%"
	case ast.OpShl:
		return "<<"
	case ast.OpShr:
		return ">>"
	case ast.OpLt:
		return "<"
	case ast.OpLe:
		return "<="
	case ast.OpGt:
		return ">"
	case ast.OpGe:
		return ">="
	case ast.OpEq:
		return "=="
	case ast.OpNe:
		return "!="
	case ast.OpAnd:
		return "&&"
	case ast.OpOr:
		return "||"
	default:
		return "?"
	}
}

func unOpString(op ast.UnOp) string {
	switch op {
	case ast.OpPos:
		return "+"
	case ast.OpNeg:
		return "-"
	case ast.OpNot:
		return "!"
	default:
		return "?"
	}
}

// validCast reports whether a cast from `from` to `to` is one of the
// permitted pairs: int<->int, bool->int,
// int<->ptr, ptr<->ptr, function->ptr, identity.
func validCast(from, to types.Type) bool {
	if from.Equal(to) {
		return true
	}
	isInt := func(t types.Type) bool {
		return t.Kind() == types.Signed || t.Kind() == types.Unsigned || t.Kind() == types.Size
	}
	switch {
	case isInt(from) && isInt(to):
		return true
	case from.Kind() == types.Bool && isInt(to):
		return true
	case from.Kind() == types.Pointer && isInt(to):
		return true
	case isInt(from) && to.Kind() == types.Pointer:
		return true
	case from.Kind() == types.Pointer && to.Kind() == types.Pointer:
		return true
	case from.Kind() == types.Function && to.Kind() == types.Pointer:
		return true
	default:
		return false
	}
}
