package consteval

import (
	"strings"

	"github.com/grailbio/base/log"

	"github.com/plos-clan/cara/internal/ast"
	"github.com/plos-clan/cara/internal/query"
	"github.com/plos-clan/cara/internal/types"
)

// Provider is the query engine's CONST_EVAL_PROVIDER: key
// DefId, result Value. A single package-level provider serves every
// QueryContext; its cache keeps each context's entries apart.
var Provider = query.NewProvider(evalDef)

// Eval evaluates the expression id directly, without going through the
// provider cache (references to other definitions inside it still do).
func Eval(qc *query.QueryContext, id ast.ExpId) Value {
	return evalExp(qc, id)
}

func evalDef(qc *query.QueryContext, id ast.DefId) Value {
	def, ok := qc.GetDef(id)
	if !ok {
		log.Panicf("consteval: DefId %d has no ConstDef (compiler bug)", id)
	}
	return evalExp(qc, def.InitExp)
}

// evalExp implements the per-construct evaluation rules. Non-constant
// constructs (call, block, control flow) are rejected here with a bug
// panic — the analyser is responsible for catching them as user errors,
// with a diagnostic, before const-eval ever sees them.
func evalExp(qc *query.QueryContext, id ast.ExpId) Value {
	ctx := qc.AstContext()
	switch n := ctx.Exp(id).(type) {
	case *ast.NumberLit:
		v := NewInt(n.Value)
		if n.SuffixType.Valid() {
			v = v.SetType(evalExp(qc, n.SuffixType).AsType())
		}
		return v

	case *ast.Unary:
		return evalUnary(qc, n)

	case *ast.Binary:
		return evalBinary(qc, n)

	case *ast.Paren:
		return evalExp(qc, n.Inner)

	case *ast.Var:
		return evalVar(qc, n)

	case *ast.FunctionDef:
		return NewFunction(n)

	case *ast.ProtoDef:
		return NewProto(n)

	case *ast.Unit:
		return NewUnit()

	case *ast.Type:
		return NewTypeValue(evalType(qc, n))

	case *ast.StructLit:
		return evalStructLit(qc, n)

	default:
		log.Panicf("consteval: %T is not valid in constant position (should have been rejected by the analyser)", n)
		panic("unreachable")
	}
}

func evalUnary(qc *query.QueryContext, n *ast.Unary) Value {
	operand := evalExp(qc, n.Operand)
	x := operand.AsInt()
	var result int64
	switch n.Op {
	case ast.OpPos:
		result = x
	case ast.OpNeg:
		result = -x
	case ast.OpNot:
		result = ^x
	}
	return NewInt(result).SetType(operand.Ty())
}

func evalBinary(qc *query.QueryContext, n *ast.Binary) Value {
	lhs := evalExp(qc, n.LHS)
	rhs := evalExp(qc, n.RHS)
	l, r := lhs.AsInt(), rhs.AsInt()

	switch n.Op {
	case ast.OpAdd:
		return NewInt(l + r).SetType(lhs.Ty())
	case ast.OpSub:
		return NewInt(l - r).SetType(lhs.Ty())
	case ast.OpMul:
		return NewInt(l * r).SetType(lhs.Ty())
	case ast.OpDiv:
		return NewInt(l / r).SetType(lhs.Ty())
	case ast.OpMod:
		return NewInt(l % r).SetType(lhs.Ty())
	case ast.OpShl:
		return NewInt(l << uint(r)).SetType(lhs.Ty())
	case ast.OpShr:
		return NewInt(l >> uint(r)).SetType(lhs.Ty())
	case ast.OpLt:
		return boolInt(l < r)
	case ast.OpLe:
		return boolInt(l <= r)
	case ast.OpGt:
		return boolInt(l > r)
	case ast.OpGe:
		return boolInt(l >= r)
	case ast.OpEq:
		return boolInt(l == r)
	case ast.OpNe:
		return boolInt(l != r)
	case ast.OpAnd:
		return boolInt(l != 0 && r != 0)
	case ast.OpOr:
		return boolInt(l != 0 || r != 0)
	default:
		log.Panicf("consteval: unhandled BinOp %d", n.Op)
		panic("unreachable")
	}
}

func boolInt(b bool) Value {
	v := int64(0)
	if b {
		v = 1
	}
	return NewInt(v).SetType(types.BoolType)
}

// evalVar resolves a (post-simplification, fully-qualified) variable
// reference by recursing via query_cached on its DefId.
func evalVar(qc *query.QueryContext, n *ast.Var) Value {
	name := "::" + strings.Join(n.Path, "::")
	defID, ok := qc.LookupDefId(name)
	if !ok {
		log.Panicf("consteval: unresolved variable %q reached const-eval (should have failed analysis first)", name)
	}
	return query.QueryCached(qc, Provider, defID)
}

func evalStructLit(qc *query.QueryContext, n *ast.StructLit) Value {
	ty := evalExp(qc, n.Type).AsType()
	fields := make(map[string]Value, len(n.Fields))
	for _, f := range n.Fields {
		fields[f.Name] = evalExp(qc, f.Expr)
	}
	return NewStructure(ty, fields)
}

// evalType translates an AST-level Type into the semantic types.Type
//, evaluating an Array's length sub-expression through the
// same const-eval path (it must itself be a constant).
func evalType(qc *query.QueryContext, n *ast.Type) types.Type {
	target := qc.Target()
	switch n.TKind {
	case ast.TypeSigned:
		return types.NewSigned(n.Width)
	case ast.TypeUnsigned:
		return types.NewUnsigned(n.Width)
	case ast.TypeISize:
		return types.NewSize(true)
	case ast.TypeUSize:
		return types.NewSize(false)
	case ast.TypeUnitT:
		return types.Unit
	case ast.TypeArray:
		elem := evalExp(qc, n.ElemTy).AsType()
		length := evalExp(qc, n.Length).AsInt()
		return types.NewArray(elem, length)
	case ast.TypeStructure:
		return evalStructType(qc, n.Struct)
	default:
		log.Panicf("consteval: unhandled TypeKind %d (target %v)", n.TKind, target)
		panic("unreachable")
	}
}

func evalStructType(qc *query.QueryContext, st *ast.StructType) types.Type {
	fields := make(map[string]types.Type, len(st.Fields))
	for name, id := range st.Fields {
		fields[name] = evalExp(qc, id).AsType()
	}
	return types.NewStructure(st.FieldOrder, fields)
}
