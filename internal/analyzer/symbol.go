package analyzer

import "github.com/plos-clan/cara/internal/types"

// symbol is one name bound in a scope: a variable, function parameter, or
// `for` loop variable, carrying the type the checker assigned it.
type symbol struct {
	name string
	ty   types.Type
	used bool
}

// symbolTable is the scope stack of "Symbol table": a vector of
// scopes, each keyed by name, plus a pre-push buffer so a function's
// parameters land in its body's first scope (mirrors
// internal/simplifier's locals stack, carrying typed values instead of
// bare names).
type symbolTable struct {
	scopes    []map[string]*symbol
	prePushed map[string]*symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{prePushed: map[string]*symbol{}}
}

func (t *symbolTable) push() {
	scope := make(map[string]*symbol, len(t.prePushed))
	for name, s := range t.prePushed {
		scope[name] = s
	}
	t.prePushed = map[string]*symbol{}
	t.scopes = append(t.scopes, scope)
}

func (t *symbolTable) pop() []*symbol {
	top := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	out := make([]*symbol, 0, len(top))
	for _, s := range top {
		out = append(out, s)
	}
	return out
}

func (t *symbolTable) bind(name string, ty types.Type) {
	t.scopes[len(t.scopes)-1][name] = &symbol{name: name, ty: ty}
}

func (t *symbolTable) prePush(name string, ty types.Type) {
	t.prePushed[name] = &symbol{name: name, ty: ty}
}

// top returns the innermost scope without popping it, for the unused-let
// lint to inspect before the scope is discarded.
func (t *symbolTable) top() map[string]*symbol {
	return t.scopes[len(t.scopes)-1]
}

// lookup walks innermost-to-outermost.
func (t *symbolTable) lookup(name string) (*symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if s, ok := t.scopes[i][name]; ok {
			return s, true
		}
	}
	return nil, false
}
