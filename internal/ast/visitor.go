package ast

// ChildIDs returns the immediate child ExpIds of e, in evaluation order. It
// is a purely structural helper — it knows nothing about scoping or
// semantics — used by passes that need to walk the tree generically (e.g.
// a "does this block contain a break" structural check) without
// special-casing every node kind themselves.
func ChildIDs(e Exp) []ExpId {
	switch n := e.(type) {
	case *NumberLit:
		if n.SuffixType.Valid() {
			return []ExpId{n.SuffixType}
		}
		return nil
	case *Unary:
		return []ExpId{n.Operand}
	case *Binary:
		return []ExpId{n.LHS, n.RHS}
	case *Paren:
		return []ExpId{n.Inner}
	case *GetAddr:
		return []ExpId{n.Operand}
	case *Deref:
		return []ExpId{n.Operand}
	case *Index:
		return []ExpId{n.Base, n.Index}
	case *ArrayLit:
		switch n.LitKind {
		case ArrayList:
			return append([]ExpId(nil), n.Elements...)
		default:
			return []ExpId{n.Value, n.Count}
		}
	case *Call:
		ids := make([]ExpId, 0, len(n.Args)+1)
		ids = append(ids, n.Callee)
		ids = append(ids, n.Args...)
		return ids
	case *Block:
		ids := make([]ExpId, 0, len(n.Items))
		for _, item := range n.Items {
			if item.ItemKind == BlockItemVarDef {
				if item.VarDef.Type.Valid() {
					ids = append(ids, item.VarDef.Type)
				}
				ids = append(ids, item.VarDef.InitExp)
			} else {
				ids = append(ids, item.Expr)
			}
		}
		return ids
	case *FunctionDef:
		ids := make([]ExpId, 0, len(n.Params)+2)
		for _, p := range n.Params {
			ids = append(ids, p.Type)
		}
		if n.ReturnType.Valid() {
			ids = append(ids, n.ReturnType)
		}
		ids = append(ids, n.Body)
		return ids
	case *ProtoDef:
		ids := make([]ExpId, 0, len(n.Params)+1)
		for _, p := range n.Params {
			ids = append(ids, p.Type)
		}
		if n.ReturnType.Valid() {
			ids = append(ids, n.ReturnType)
		}
		return ids
	case *Assign:
		return []ExpId{n.LHS, n.RHS}
	case *Return:
		if n.Value.Valid() {
			return []ExpId{n.Value}
		}
		return nil
	case *IfExp:
		ids := []ExpId{n.Cond, n.Then}
		if n.Else.Valid() {
			ids = append(ids, n.Else)
		}
		return ids
	case *For:
		ids := []ExpId{n.Start, n.End}
		if n.Step.Valid() {
			ids = append(ids, n.Step)
		}
		ids = append(ids, n.Body)
		return ids
	case *Loop:
		return []ExpId{n.Body}
	case *While:
		return []ExpId{n.Cond, n.Body}
	case *TypeCast:
		return []ExpId{n.Value, n.Target}
	case *StructLit:
		ids := make([]ExpId, 0, len(n.Fields)+1)
		ids = append(ids, n.Type)
		for _, f := range n.Fields {
			ids = append(ids, f.Expr)
		}
		return ids
	case *FieldAccess:
		return []ExpId{n.Base}
	case *Mod:
		return []ExpId{n.Body}
	case *Type:
		switch n.TKind {
		case TypeArray:
			return []ExpId{n.ElemTy, n.Length}
		default:
			return nil
		}
	default:
		// StringLit, Var, Unit, Break, Continue have no children.
		return nil
	}
}
