package codegen

import "github.com/plos-clan/cara/internal/types"

// ValueKind tags codegen's own Value categories: the result
// of lowering one AST expression, distinct from both the AST-level and
// analyser-level value notions.
type ValueKind int

const (
	ValInt ValueKind = iota
	ValFunction
	ValPointer
	ValAlloca
	ValArray
	ValStructure
	ValType
	ValUnit
)

// Value is one lowered codegen value. ref names the IR register/global
// this value lives in (empty for a bare integer constant or Unit). Alloca
// is the left-value category: loading from it is what turns it into a
// right-value Int/Pointer/Array/Structure.
type Value struct {
	kind     ValueKind
	ref      string
	intConst int64
	hasConst bool
	ty       types.Type
}

func IntValue(ref string, ty types.Type) Value  { return Value{kind: ValInt, ref: ref, ty: ty} }
func ConstInt(v int64, ty types.Type) Value     { return Value{kind: ValInt, intConst: v, hasConst: true, ty: ty} }
func FunctionValue(ref string, retTy types.Type) Value {
	return Value{kind: ValFunction, ref: ref, ty: retTy}
}
func PointerValue(ref string, pointee types.Type) Value {
	return Value{kind: ValPointer, ref: ref, ty: pointee}
}
func AllocaValue(ref string, pointee types.Type) Value {
	return Value{kind: ValAlloca, ref: ref, ty: pointee}
}
func ArrayValue(ref string, ty types.Type) Value     { return Value{kind: ValArray, ref: ref, ty: ty} }
func StructureValue(ref string, ty types.Type) Value { return Value{kind: ValStructure, ref: ref, ty: ty} }
func TypeValue(ty types.Type) Value                  { return Value{kind: ValType, ty: ty} }

// UnitValue is the singleton `()` value; it carries no register.
var UnitValue = Value{kind: ValUnit, ty: types.Unit}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Type() types.Type { return v.ty }
func (v Value) Ref() string     { return v.ref }
func (v Value) IsUnit() bool    { return v.kind == ValUnit }

// operand renders v as the textual IR operand a caller instruction uses.
func (v Value) operand() string {
	if v.hasConst {
		return intLiteral(v.intConst)
	}
	return v.ref
}

// wrapLoaded builds the right-value Value a load from an address of type
// pointee should produce, dispatching on pointee's Kind the way a `Var`
// reference or a unary `*` deref does.
func wrapLoaded(ref string, pointee types.Type) Value {
	switch pointee.Kind() {
	case types.Function:
		return FunctionValue(ref, pointee.Return())
	case types.Pointer:
		return PointerValue(ref, pointee.Elem())
	case types.Array:
		return ArrayValue(ref, pointee)
	case types.Structure:
		return StructureValue(ref, pointee)
	case types.UnitK:
		return UnitValue
	default:
		return IntValue(ref, pointee)
	}
}
