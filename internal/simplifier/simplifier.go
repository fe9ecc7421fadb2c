// Package simplifier implements the name-resolution pass: it
// flattens lexically nested module/struct definitions into a flat list of
// fully-qualified top-level ConstDefs, and rewrites every variable reference
// to its resolved path.
package simplifier

import (
	"strings"

	"github.com/plos-clan/cara/internal/ast"
)

// globalsLayer is one entry of the namespace stack: a qualifying prefix plus
// the set of names declared directly in this layer.
type globalsLayer struct {
	prefix []string
	names  map[string]bool
}

// simplifier carries the two stacks: globals (the
// namespace stack) and locals (the lexical-scope stack used for `let`
// bindings, function parameters, and `for` variables).
type simplifier struct {
	ctx *ast.AstContext

	globals []globalsLayer

	locals    []map[string]bool
	prePushed map[string]bool

	// defPrefixStack holds the qualified-name components of the ConstDef
	// currently being simplified, so that a nested struct type found in its
	// initializer knows what prefix to push for its own members.
	defPrefixStack [][]string

	// extraItems accumulates GlobalItems lifted out of a nested StructType's
	// Members; simplifyDefs drains it right after simplifying the def whose
	// initializer produced them.
	extraItems []ast.GlobalItem
}

// Run simplifies ctx in place: it qualifies every top-level (and
// transitively nested) ConstDef name under "::crateName::...", flattens
// nested struct members to the top level, rewrites Var references to
// resolved paths, and finally freezes ctx.
func Run(ctx *ast.AstContext, crateName string) {
	s := &simplifier{ctx: ctx, prePushed: map[string]bool{}}
	rootLayer := globalsLayer{prefix: []string{crateName}, names: namesOf(ctx.Root.Members)}
	s.globals = append(s.globals, rootLayer)
	ctx.Root.Members = s.simplifyDefs(ctx.Root.Members)
	ctx.Freeze()
}

func namesOf(members []ast.GlobalItem) map[string]bool {
	names := make(map[string]bool, len(members))
	for _, item := range members {
		names[item.Def.Name] = true
	}
	return names
}

// simplifyDefs qualifies and simplifies every ConstDef in members (which are
// declared directly in the current top-of-stack globals layer), returning
// the flattened list including anything lifted from nested struct literals.
func (s *simplifier) simplifyDefs(members []ast.GlobalItem) []ast.GlobalItem {
	prefix := s.globals[len(s.globals)-1].prefix
	out := make([]ast.GlobalItem, 0, len(members))
	for _, item := range members {
		def := item.Def
		qualifiedPath := make([]string, 0, len(prefix)+1)
		qualifiedPath = append(qualifiedPath, prefix...)
		qualifiedPath = append(qualifiedPath, def.Name)
		def.Name = "::" + strings.Join(qualifiedPath, "::")

		s.defPrefixStack = append(s.defPrefixStack, qualifiedPath)
		s.simplifyExp(def.InitExp)
		s.defPrefixStack = s.defPrefixStack[:len(s.defPrefixStack)-1]

		out = append(out, ast.GlobalItem{Def: def})
		if len(s.extraItems) > 0 {
			out = append(out, s.extraItems...)
			s.extraItems = nil
		}
	}
	return out
}

func (s *simplifier) pushLocalsScope() {
	scope := make(map[string]bool, len(s.prePushed))
	for name := range s.prePushed {
		scope[name] = true
	}
	s.prePushed = map[string]bool{}
	s.locals = append(s.locals, scope)
}

func (s *simplifier) popLocalsScope() {
	s.locals = s.locals[:len(s.locals)-1]
}

func (s *simplifier) bindLocal(name string) {
	s.locals[len(s.locals)-1][name] = true
}

func (s *simplifier) prePushLocal(name string) {
	s.prePushed[name] = true
}

func (s *simplifier) isLocal(name string) bool {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i][name] {
			return true
		}
	}
	return false
}

// resolveVar implements: if bound locally, keep the path; else if declared
// in the current (innermost) globals layer that has it, prepend that
// layer's full prefix; else leave unchanged (the query engine's
// lookup_def_id resolves it, or it is reported unknown).
func (s *simplifier) resolveVar(n *ast.Var) {
	if len(n.Path) == 0 {
		return
	}
	head := n.Path[0]
	if s.isLocal(head) {
		return
	}
	for i := len(s.globals) - 1; i >= 0; i-- {
		layer := s.globals[i]
		if layer.names[head] {
			newPath := make([]string, 0, len(layer.prefix)+len(n.Path))
			newPath = append(newPath, layer.prefix...)
			newPath = append(newPath, n.Path...)
			n.Path = newPath
			return
		}
	}
}

// simplifyExp walks one expression, rewriting it (and its descendants) in
// place. Scope-introducing node kinds (Block, FunctionDef, For) are handled
// explicitly so that pre-pushed symbols land in the right frame; everything
// else recurses generically via ast.ChildIDs.
func (s *simplifier) simplifyExp(id ast.ExpId) {
	if !id.Valid() {
		return
	}
	switch n := s.ctx.Exp(id).(type) {
	case *ast.Var:
		s.resolveVar(n)

	case *ast.Block:
		s.pushLocalsScope()
		for i := range n.Items {
			item := &n.Items[i]
			if item.ItemKind == ast.BlockItemVarDef {
				if item.VarDef.Type.Valid() {
					s.simplifyExp(item.VarDef.Type)
				}
				s.simplifyExp(item.VarDef.InitExp)
				s.bindLocal(item.VarDef.Name)
			} else {
				s.simplifyExp(item.Expr)
			}
		}
		s.popLocalsScope()

	case *ast.FunctionDef:
		for _, p := range n.Params {
			if p.Type.Valid() {
				s.simplifyExp(p.Type)
			}
			s.prePushLocal(p.Name)
		}
		if n.ReturnType.Valid() {
			s.simplifyExp(n.ReturnType)
		}
		// Body is always a Block; pre-pushed params land in its first scope.
		s.simplifyExp(n.Body)

	case *ast.ProtoDef:
		for _, p := range n.Params {
			if p.Type.Valid() {
				s.simplifyExp(p.Type)
			}
		}
		if n.ReturnType.Valid() {
			s.simplifyExp(n.ReturnType)
		}

	case *ast.For:
		s.simplifyExp(n.Start)
		s.simplifyExp(n.End)
		if n.Step.Valid() {
			s.simplifyExp(n.Step)
		}
		s.prePushLocal(n.Var)
		s.simplifyExp(n.Body)

	case *ast.Type:
		switch n.TKind {
		case ast.TypeArray:
			s.simplifyExp(n.ElemTy)
			s.simplifyExp(n.Length)
		case ast.TypeStructure:
			s.simplifyNestedStruct(n.Struct)
		}

	default:
		for _, child := range ast.ChildIDs(n) {
			s.simplifyExp(child)
		}
	}
}

// simplifyNestedStruct implements the StructType clause of: a
// StructType whose Members is non-empty gets its own globals layer (prefixed
// by the enclosing ConstDef's already-qualified name), every member is
// simplified and lifted into s.extraItems, and the StructType keeps only its
// Fields.
func (s *simplifier) simplifyNestedStruct(st *ast.StructType) {
	if st == nil || len(st.Members) == 0 {
		return
	}
	prefix := s.defPrefixStack[len(s.defPrefixStack)-1]
	s.globals = append(s.globals, globalsLayer{prefix: prefix, names: namesOf(st.Members)})
	lifted := s.simplifyDefs(st.Members)
	s.globals = s.globals[:len(s.globals)-1]

	s.extraItems = append(s.extraItems, lifted...)
	st.Members = nil
}
